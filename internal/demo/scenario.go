package demo

import (
	"fmt"
	"math/rand"
	"time"

	"rosterly.org/internal/roster"
)

// Scenario is a synthetic congregation used by the demo command to exercise
// generation and substitution without a real directory behind it.
type Scenario struct {
	Name    string
	Catalog *roster.Catalog
	Members []roster.Member
}

// MidweekWeekendScenario builds the default demo setup: a Thursday/Sunday
// meeting pattern with a small catalog covering permissioned, grouped, and
// secondary roles.
func MidweekWeekendScenario() (Scenario, error) {
	catalog, err := roster.NewCatalog(
		time.Thursday, time.Sunday,
		[]roster.Role{
			{ID: "chairman-thu", Name: "Midweek Chairman", Meetings: roster.MeetingMidweek, RequiredPermission: "perm.chairman"},
			{ID: "reader-sun", Name: "Watchtower Reader", Meetings: roster.MeetingPublic, RequiredPermission: "perm.reader"},
			{ID: "usher-outside-thu", Name: "Outside Usher (Midweek)", Meetings: roster.MeetingMidweek, Group: "ushers"},
			{ID: "usher-outside-sun", Name: "Outside Usher (Weekend)", Meetings: roster.MeetingPublic, Group: "ushers"},
			{ID: "mic-1", Name: "Microphone 1", Meetings: roster.MeetingBoth},
			{ID: "mic-2", Name: "Microphone 2", Meetings: roster.MeetingBoth},
			{ID: "audio", Name: "Audio Desk", Meetings: roster.MeetingBoth, Category: roster.CategorySecondary},
			{ID: "video", Name: "Video Desk", Meetings: roster.MeetingBoth, Category: roster.CategorySecondary},
		},
		map[string]map[string]roster.Variant{
			"ushers": {
				"usher-outside": {Midweek: "usher-outside-thu", Public: "usher-outside-sun"},
			},
		},
	)
	if err != nil {
		return Scenario{}, err
	}
	return Scenario{Name: "midweek-weekend", Catalog: catalog}, nil
}

// Generator produces randomized members for a scenario. A fixed seed yields
// a reproducible congregation.
type Generator struct {
	rnd *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

var demoNames = []string{
	"Avery", "Blake", "Casey", "Drew", "Ellis", "Finley", "Harper",
	"Jordan", "Kennedy", "Logan", "Morgan", "Parker", "Quinn", "Riley",
	"Sawyer", "Taylor",
}

// Populate fills the scenario with count members. Roughly a quarter of them
// receive each gated permission and a few carry a blocked month so the
// eligibility paths all fire during a demo run.
func (g *Generator) Populate(s *Scenario, count int, month string) {
	s.Members = s.Members[:0]
	for i := 0; i < count; i++ {
		m := roster.Member{
			ID:          fmt.Sprintf("demo-%03d", i+1),
			Name:        demoNames[i%len(demoNames)],
			Permissions: map[string]bool{},
		}
		if g.rnd.Intn(4) == 0 {
			m.Permissions["perm.chairman"] = true
		}
		if g.rnd.Intn(4) == 0 {
			m.Permissions["perm.reader"] = true
		}
		if g.rnd.Intn(8) == 0 && month != "" {
			m.BlockedMonths = []string{month}
		}
		s.Members = append(s.Members, m)
	}
}
