package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"rosterly.org/internal/directory"
	"rosterly.org/internal/roster"
)

// Store is the Postgres member directory.
type Store struct {
	db *sql.DB
}

var _ directory.Service = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection pool (used by tests).
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the pool is reachable; the readiness probe uses it.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Store) DB() *sql.DB { return s.db }

// ListMembers loads the full directory: permissions, serving history,
// unavailability intervals, and legacy blocked months. Member order follows
// the stored position column, which fixes the engine's fallback choice.
func (s *Store) ListMembers(ctx context.Context) ([]roster.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, display_name from members order by position, display_name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []roster.Member
	index := map[string]int{}
	for rows.Next() {
		var m roster.Member
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		m.Permissions = map[string]bool{}
		m.History = map[string]string{}
		index[m.ID] = len(members)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadPermissions(ctx, members, index); err != nil {
		return nil, err
	}
	if err := s.loadHistory(ctx, members, index); err != nil {
		return nil, err
	}
	if err := s.loadUnavailability(ctx, members, index); err != nil {
		return nil, err
	}
	if err := s.loadBlockedMonths(ctx, members, index); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Store) GetMember(ctx context.Context, id string) (roster.Member, error) {
	var m roster.Member
	err := s.db.QueryRowContext(ctx, `select id, display_name from members where id=$1`, id).Scan(&m.ID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Member{}, directory.ErrNotFound
	}
	if err != nil {
		return roster.Member{}, err
	}
	m.Permissions = map[string]bool{}
	m.History = map[string]string{}
	members := []roster.Member{m}
	index := map[string]int{m.ID: 0}
	if err := s.loadPermissions(ctx, members, index); err != nil {
		return roster.Member{}, err
	}
	if err := s.loadHistory(ctx, members, index); err != nil {
		return roster.Member{}, err
	}
	if err := s.loadUnavailability(ctx, members, index); err != nil {
		return roster.Member{}, err
	}
	if err := s.loadBlockedMonths(ctx, members, index); err != nil {
		return roster.Member{}, err
	}
	return members[0], nil
}

// ApplyHistoryDelta upserts a run's accepted assignments. All rows land in
// one transaction so an aborted commit leaves the directory untouched.
func (s *Store) ApplyHistoryDelta(ctx context.Context, delta map[string]map[string]string) error {
	if len(delta) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for memberID, entries := range delta {
		var exists int
		err := tx.QueryRowContext(ctx, `select 1 from members where id=$1`, memberID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return directory.ErrNotFound
		}
		if err != nil {
			return err
		}
		for date, roleID := range entries {
			if _, err := tx.ExecContext(ctx, `
				insert into member_history(member_id, served_on, role_id)
				values ($1, $2::date, $3)
				on conflict (member_id, served_on) do update set role_id = excluded.role_id
			`, memberID, date, roleID); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// --- loaders ---

func (s *Store) loadPermissions(ctx context.Context, members []roster.Member, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `select member_id, permission from member_permissions`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var memberID, permission string
		if err := rows.Scan(&memberID, &permission); err != nil {
			return err
		}
		if i, ok := index[memberID]; ok {
			members[i].Permissions[permission] = true
		}
	}
	return rows.Err()
}

func (s *Store) loadHistory(ctx context.Context, members []roster.Member, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `select member_id, served_on::text, role_id from member_history`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var memberID, servedOn, roleID string
		if err := rows.Scan(&memberID, &servedOn, &roleID); err != nil {
			return err
		}
		if i, ok := index[memberID]; ok {
			members[i].History[servedOn] = roleID
		}
	}
	return rows.Err()
}

func (s *Store) loadUnavailability(ctx context.Context, members []roster.Member, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		select member_id, date_from::text, date_to::text
		from member_unavailability
		order by member_id, date_from
	`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var memberID, from, to string
		if err := rows.Scan(&memberID, &from, &to); err != nil {
			return err
		}
		if i, ok := index[memberID]; ok {
			members[i].Unavailability = append(members[i].Unavailability, roster.Interval{From: from, To: to})
		}
	}
	return rows.Err()
}

func (s *Store) loadBlockedMonths(ctx context.Context, members []roster.Member, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `select member_id, month from member_blocked_months`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var memberID, month string
		if err := rows.Scan(&memberID, &month); err != nil {
			return err
		}
		if i, ok := index[memberID]; ok {
			members[i].BlockedMonths = append(members[i].BlockedMonths, month)
		}
	}
	return rows.Err()
}
