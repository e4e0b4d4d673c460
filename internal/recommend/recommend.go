// Package recommend is the advisory candidate-ranking boundary. A
// Recommender only suggests; callers must validate the suggestion against
// their own candidate set and fall back when it is absent, empty, or wrong.
package recommend

import "context"

// Request carries one ranking question. History maps member id to that
// member's full date -> role id serving record, including decisions made
// earlier in the same generation run.
type Request struct {
	RoleID       string                       `json:"roleId"`
	RoleName     string                       `json:"roleName"`
	Date         string                       `json:"date"`
	CandidateIDs []string                     `json:"candidateIds"`
	History      map[string]map[string]string `json:"historyByMember"`
}

// Suggestion is the advisory answer. MemberID may be empty or outside the
// request's candidate set; neither is an error at this layer.
type Suggestion struct {
	MemberID string `json:"suggestedMemberId"`
	Reason   string `json:"reason"`
}

// Recommender suggests one candidate for a role on a date.
type Recommender interface {
	Suggest(ctx context.Context, req Request) (Suggestion, error)
}

// LeastRecent is the local heuristic: prefer the candidate whose most recent
// serving date is oldest, with never-served candidates first. Ties keep the
// request's candidate order, so results are deterministic.
type LeastRecent struct{}

func (LeastRecent) Suggest(_ context.Context, req Request) (Suggestion, error) {
	best := ""
	bestLast := ""
	for _, id := range req.CandidateIDs {
		last := ""
		for date := range req.History[id] {
			if date > last {
				last = date
			}
		}
		if best == "" || last < bestLast {
			best = id
			bestLast = last
		}
	}
	return Suggestion{MemberID: best, Reason: "least recently served"}, nil
}
