package roster

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Variant names the concrete role ids a generic key resolves to per
// meeting type. An empty side means the key has no variant for that meeting.
type Variant struct {
	Midweek string `yaml:"midweek" json:"midweek,omitempty"`
	Public  string `yaml:"public" json:"public,omitempty"`
}

// Catalog is the static role reference data plus the weekday constants for
// the two meeting types. It is loaded once at startup and never mutated.
type Catalog struct {
	MidweekWeekday time.Weekday `yaml:"-" json:"midweek_weekday"`
	PublicWeekday  time.Weekday `yaml:"-" json:"public_weekday"`
	// Roles in catalog order; generation processes them in this order.
	Roles []Role `yaml:"roles" json:"roles"`
	// Variants maps table group -> generic key -> concrete variants.
	Variants map[string]map[string]Variant `yaml:"variants" json:"variants,omitempty"`

	byID map[string]Role
}

// NewCatalog builds an indexed catalog and validates it.
func NewCatalog(midweek, public time.Weekday, roles []Role, variants map[string]map[string]Variant) (*Catalog, error) {
	if len(roles) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		MidweekWeekday: midweek,
		PublicWeekday:  public,
		Roles:          roles,
		Variants:       variants,
		byID:           make(map[string]Role, len(roles)),
	}
	for _, r := range roles {
		if r.ID == "" {
			return nil, fmt.Errorf("roster: role with empty id")
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("roster: duplicate role id %q", r.ID)
		}
		c.byID[r.ID] = r
	}
	return c, nil
}

// Role looks up a concrete role by id.
func (c *Catalog) Role(id string) (Role, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// MeetingTypeFor maps a date's weekday onto a meeting type.
func (c *Catalog) MeetingTypeFor(date time.Time) (MeetingType, bool) {
	switch date.Weekday() {
	case c.MidweekWeekday:
		return MeetingMidweek, true
	case c.PublicWeekday:
		return MeetingPublic, true
	default:
		return "", false
	}
}

// RolesFor returns the catalog-ordered subset staffed at the meeting type.
func (c *Catalog) RolesFor(mt MeetingType) []Role {
	out := make([]Role, 0, len(c.Roles))
	for _, r := range c.Roles {
		if r.AppliesTo(mt) {
			out = append(out, r)
		}
	}
	return out
}

// ResolveRole maps a generic role key plus a date to the concrete variant id
// for the date's meeting type. Concrete ids pass through unchanged, and
// unknown key/group combinations return the input unchanged rather than
// failing; stored schedules may reference columns the catalog predates.
func (c *Catalog) ResolveRole(genericKey string, date time.Time, tableGroup string) string {
	if _, ok := c.byID[genericKey]; ok {
		return genericKey
	}
	mt, ok := c.MeetingTypeFor(date)
	if !ok {
		return genericKey
	}
	group, ok := c.Variants[tableGroup]
	if !ok {
		return genericKey
	}
	variant, ok := group[genericKey]
	if !ok {
		return genericKey
	}
	var concrete string
	switch mt {
	case MeetingMidweek:
		concrete = variant.Midweek
	case MeetingPublic:
		concrete = variant.Public
	}
	if concrete == "" {
		return genericKey
	}
	return concrete
}

// MeetingDates derives the month's meeting dates, ascending. Nothing is
// stored; the set is recomputed from the weekday constants every run.
func (c *Catalog) MeetingDates(year int, month time.Month) []string {
	var dates []string
	day := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for day.Month() == month {
		if _, ok := c.MeetingTypeFor(day); ok {
			dates = append(dates, day.Format(DateLayout))
		}
		day = day.AddDate(0, 0, 1)
	}
	return dates
}

// catalogFile is the YAML layout for the role catalog config.
type catalogFile struct {
	MidweekWeekday string                        `yaml:"midweek_weekday"`
	PublicWeekday  string                        `yaml:"public_weekday"`
	Roles          []Role                        `yaml:"roles"`
	Variants       map[string]map[string]Variant `yaml:"variants"`
}

// LoadCatalog reads the catalog from a YAML config file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	midweek, err := parseWeekday(file.MidweekWeekday)
	if err != nil {
		return nil, err
	}
	public, err := parseWeekday(file.PublicWeekday)
	if err != nil {
		return nil, err
	}
	return NewCatalog(midweek, public, file.Roles, file.Variants)
}

func parseWeekday(name string) (time.Weekday, error) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if wd.String() == name {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("roster: unknown weekday %q", name)
}
