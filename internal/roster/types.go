package roster

import (
	"errors"
	"time"
)

// DateLayout is the calendar-date form used for map keys and wire payloads.
// Lexicographic order of keys matches chronological order.
const DateLayout = "2006-01-02"

// MonthLayout is the year-month form used by legacy month-level impediments.
const MonthLayout = "2006-01"

// Unassigned marks a slot no eligible member could fill.
const Unassigned = ""

// MeetingType distinguishes the two weekly meetings.
type MeetingType string

const (
	MeetingMidweek MeetingType = "midweek"
	MeetingPublic  MeetingType = "public"
	MeetingBoth    MeetingType = "both"
)

// RoleCategory governs same-day exclusivity. Two secondary roles may be held
// by the same member on one date; every other pairing conflicts.
type RoleCategory string

const (
	CategoryPrimary   RoleCategory = "primary"
	CategorySecondary RoleCategory = "secondary"
)

// Role is an immutable catalog entry for a recurring meeting duty.
type Role struct {
	ID                 string       `json:"id" yaml:"id"`
	Name               string       `json:"name" yaml:"name"`
	Meetings           MeetingType  `json:"meetings" yaml:"meetings"`
	Group              string       `json:"group" yaml:"group"`
	RequiredPermission string       `json:"required_permission,omitempty" yaml:"required_permission"`
	Category           RoleCategory `json:"category" yaml:"category"`
}

// AppliesTo reports whether the role is staffed at the given meeting type.
func (r Role) AppliesTo(mt MeetingType) bool {
	return r.Meetings == MeetingBoth || r.Meetings == mt
}

func (r Role) category() RoleCategory {
	if r.Category == "" {
		return CategoryPrimary
	}
	return r.Category
}

// Interval is a closed date range, both bounds inclusive, in DateLayout form.
type Interval struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Contains reports whether date falls inside the interval.
func (iv Interval) Contains(date string) bool {
	return date >= iv.From && date <= iv.To
}

// Member is a directory entry the engine reads but never writes.
type Member struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Permissions map[string]bool `json:"permissions,omitempty"`
	// History maps served date to role id, one entry per date.
	History map[string]string `json:"history,omitempty"`
	// Unavailability intervals, sorted ascending by From.
	Unavailability []Interval `json:"unavailability,omitempty"`
	// BlockedMonths carries the legacy month-level impediment ("2006-01").
	// Checked alongside Unavailability; normalized to intervals on read.
	BlockedMonths []string `json:"blocked_months,omitempty"`
}

// HasPermission reports whether the permission was granted to the member.
func (m Member) HasPermission(key string) bool {
	return m.Permissions[key]
}

// UnavailableOn reports whether the member cannot serve on the given date,
// checking both interval ranges and legacy month impediments.
func (m Member) UnavailableOn(date string) bool {
	for _, iv := range m.Unavailability {
		if iv.From > date {
			break
		}
		if iv.Contains(date) {
			return true
		}
	}
	for _, month := range m.BlockedMonths {
		if iv, ok := monthInterval(month); ok && iv.Contains(date) {
			return true
		}
	}
	return false
}

// monthInterval expands a "2006-01" impediment into a full-month interval.
func monthInterval(month string) (Interval, bool) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return Interval{}, false
	}
	first := t
	last := first.AddDate(0, 1, -1)
	return Interval{From: first.Format(DateLayout), To: last.Format(DateLayout)}, true
}

// Grid is one month's assignment table. It is created by GenerateMonth,
// mutated by substitution, and owned by the caller for the editing session.
type Grid struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	// Dates lists the month's meeting dates in ascending order.
	Dates []string `json:"dates"`
	// Days maps date -> role id -> member id (Unassigned for open slots).
	Days map[string]map[string]string `json:"days"`
	// HistoryDelta holds member id -> date -> role id for the run, returned
	// for the caller to persist; the engine never writes the directory.
	HistoryDelta map[string]map[string]string `json:"history_delta,omitempty"`
	// UnassignedSlots counts roles no eligible member could fill.
	UnassignedSlots int `json:"unassigned_slots"`
	// Fallbacks counts decisions resolved without a usable recommendation.
	Fallbacks int `json:"fallbacks"`
}

// Assignments returns the role -> member map for a date, never nil.
func (g *Grid) Assignments(date string) map[string]string {
	if g == nil || g.Days == nil {
		return map[string]string{}
	}
	day, ok := g.Days[date]
	if !ok {
		return map[string]string{}
	}
	return day
}

// ReasonCode classifies why a member was excluded from a candidate list.
type ReasonCode string

const (
	ReasonMissingPermission ReasonCode = "missing-permission"
	ReasonUnavailable       ReasonCode = "unavailable-on-date"
	ReasonConflict          ReasonCode = "conflicting-assignment"
)

// Reason is one structured exclusion cause. RoleID is set for conflicts.
type Reason struct {
	Code   ReasonCode `json:"code"`
	RoleID string     `json:"role_id,omitempty"`
}

// Diagnostic reports every applicable exclusion reason for one member.
// Produced when a substitute list comes back empty so the caller can
// explain why nobody qualifies.
type Diagnostic struct {
	MemberID string   `json:"member_id"`
	Reasons  []Reason `json:"reasons"`
}

var (
	ErrNoMeetingDates = errors.New("roster: month has no meeting dates")
	ErrNoSubstitute   = errors.New("roster: no eligible substitute")
	ErrUnknownRole    = errors.New("roster: unknown role")
	ErrInvalidMonth   = errors.New("roster: invalid month")
	ErrInvalidDate    = errors.New("roster: invalid date")
	ErrEmptyCatalog   = errors.New("roster: role catalog is empty")
)
