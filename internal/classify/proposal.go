// Package classify turns raw oracle proposals into canonical, safe
// mutations: keyword safety nets, idea distillation, and enumeration
// splitting.
package classify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rubenlestaa/ideabank/internal/tree"
)

// Proposal mirrors the oracle's raw JSON, before any safety net runs.
// Absent makes_sense means true, matching the oracle's contract.
type Proposal struct {
	Action             string       `json:"action"`
	MakesSense         *bool        `json:"makes_sense"`
	Reason             string       `json:"reason"`
	Group              string       `json:"group"`
	Subgroup           string       `json:"subgroup"`
	Idea               string       `json:"idea"`
	IsNewGroup         bool         `json:"is_new_group"`
	IsNewSubgroup      bool         `json:"is_new_subgroup"`
	InheritParentIdeas bool         `json:"inherit_parent_ideas"`
	Rename             *tree.Rename `json:"rename_group"`
	RemindAt           *time.Time   `json:"remind_at"`
}

func (p Proposal) makesSense() bool {
	return p.MakesSense == nil || *p.MakesSense
}

// ParseProposals converts a decoded JSON value (object or array of
// objects) into proposals. Non-object array elements are dropped, the
// way an unreliable oracle's stray output should be.
func ParseProposals(v any) ([]Proposal, error) {
	switch val := v.(type) {
	case map[string]any:
		p, err := parseOne(val)
		if err != nil {
			return nil, err
		}
		return []Proposal{p}, nil
	case []any:
		var out []Proposal
		for _, item := range val {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			p, err := parseOne(obj)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("proposal array holds no objects")
		}
		return out, nil
	default:
		return nil, fmt.Errorf("proposal value is %T, want object or array", v)
	}
}

func parseOne(obj map[string]any) (Proposal, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return Proposal{}, fmt.Errorf("re-encode proposal: %w", err)
	}
	var p Proposal
	if err := json.Unmarshal(raw, &p); err != nil {
		return Proposal{}, fmt.Errorf("decode proposal fields: %w", err)
	}
	return p, nil
}
