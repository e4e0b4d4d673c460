// Package directory is the member-directory boundary. The engine reads the
// full member list at the start of a run and hands back a history delta;
// persisting that delta is the caller's decision, made through this service.
package directory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"rosterly.org/internal/roster"
)

var ErrNotFound = errors.New("directory: member not found")

// Service supplies members to the engine and persists accepted results.
type Service interface {
	ListMembers(ctx context.Context) ([]roster.Member, error)
	GetMember(ctx context.Context, id string) (roster.Member, error)
	// ApplyHistoryDelta merges a generation run's member -> date -> role id
	// outcome into the durable directory.
	ApplyHistoryDelta(ctx context.Context, delta map[string]map[string]string) error
	Close() error
}

// InMemory implements Service for tests and the demo binary.
type InMemory struct {
	mu      sync.RWMutex
	order   []string
	members map[string]*roster.Member
}

var _ Service = (*InMemory)(nil)

// NewInMemory seeds an in-process directory. Member order is preserved; it
// fixes the engine's deterministic fallback choice.
func NewInMemory(members ...roster.Member) *InMemory {
	s := &InMemory{members: make(map[string]*roster.Member, len(members))}
	for _, m := range members {
		if _, dup := s.members[m.ID]; dup {
			continue
		}
		copied := copyMember(m)
		s.members[m.ID] = &copied
		s.order = append(s.order, m.ID)
	}
	return s
}

func (s *InMemory) ListMembers(ctx context.Context) ([]roster.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]roster.Member, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyMember(*s.members[id]))
	}
	return out, nil
}

func (s *InMemory) GetMember(ctx context.Context, id string) (roster.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return roster.Member{}, ErrNotFound
	}
	return copyMember(*m), nil
}

func (s *InMemory) ApplyHistoryDelta(ctx context.Context, delta map[string]map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for memberID := range delta {
		if _, ok := s.members[memberID]; !ok {
			return ErrNotFound
		}
	}
	for memberID, entries := range delta {
		m := s.members[memberID]
		if m.History == nil {
			m.History = make(map[string]string, len(entries))
		}
		for date, roleID := range entries {
			m.History[date] = roleID
		}
	}
	return nil
}

func (s *InMemory) Close() error { return nil }

func copyMember(m roster.Member) roster.Member {
	out := m
	out.Permissions = make(map[string]bool, len(m.Permissions))
	for k, v := range m.Permissions {
		out.Permissions[k] = v
	}
	out.History = make(map[string]string, len(m.History))
	for k, v := range m.History {
		out.History[k] = v
	}
	out.Unavailability = append([]roster.Interval(nil), m.Unavailability...)
	out.BlockedMonths = append([]string(nil), m.BlockedMonths...)
	sort.Slice(out.Unavailability, func(i, j int) bool {
		return out.Unavailability[i].From < out.Unavailability[j].From
	})
	return out
}
