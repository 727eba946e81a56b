// Package tree implements the two-level idea hierarchy and the
// reconciliation of canonical mutations against it.
package tree

import (
	"time"
)

// Action identifies what a mutation does to the tree.
type Action string

const (
	// ActionAdd appends an idea, creating the group/subgroup as needed.
	ActionAdd Action = "add"
	// ActionDelete removes an idea, a subgroup, or a whole group.
	ActionDelete Action = "delete"
	// ActionRemind schedules a notification instead of touching the tree.
	ActionRemind Action = "remind"
	// ActionNone is a terminal no-op (note rejected as not classifiable).
	ActionNone Action = "none"
)

// Subgroup is a second-level node scoping ideas by place or context.
type Subgroup struct {
	Name  string   `json:"name"`
	Ideas []string `json:"ideas"`
}

// Group is a top-level category node. Names are unique under
// case-insensitive comparison, as are subgroup names within a group.
type Group struct {
	Name      string     `json:"name"`
	Ideas     []string   `json:"ideas"`
	Subgroups []Subgroup `json:"subgroups"`
}

// Tree is the full hierarchy, ordered by group creation.
// It is a plain value: reconciliation never mutates its input.
type Tree []Group

// Rename carries a group rename that accompanies a new-group creation
// colliding with an existing name.
type Rename struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// Mutation is a canonical, safety-checked instruction against the tree.
// It is produced by the normalizer; the invariants (rename only with
// IsNewGroup, first-of-batch flag exclusivity) are established there.
type Mutation struct {
	Action             Action     `json:"action"`
	MakesSense         bool       `json:"makes_sense"`
	Reason             string     `json:"reason,omitempty"`
	Group              string     `json:"group,omitempty"`
	Subgroup           string     `json:"subgroup,omitempty"`
	Idea               string     `json:"idea,omitempty"`
	IsNewGroup         bool       `json:"is_new_group"`
	IsNewSubgroup      bool       `json:"is_new_subgroup"`
	InheritParentIdeas bool       `json:"inherit_parent_ideas"`
	Rename             *Rename    `json:"rename_group,omitempty"`
	RemindAt           *time.Time `json:"remind_at,omitempty"`
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, g := range t {
		out[i] = g.Clone()
	}
	return out
}

// Clone returns a deep copy of the group.
func (g Group) Clone() Group {
	c := Group{Name: g.Name}
	if g.Ideas != nil {
		c.Ideas = append([]string(nil), g.Ideas...)
	}
	if g.Subgroups != nil {
		c.Subgroups = make([]Subgroup, len(g.Subgroups))
		for i, sg := range g.Subgroups {
			c.Subgroups[i] = Subgroup{Name: sg.Name, Ideas: append([]string(nil), sg.Ideas...)}
		}
	}
	return c
}

// FindGroup returns the index of the group whose name matches under
// case-insensitive comparison, or -1.
func (t Tree) FindGroup(name string) int {
	for i := range t {
		if SameName(t[i].Name, name) {
			return i
		}
	}
	return -1
}

// FindSubgroup returns the index of the subgroup whose name matches
// under case-insensitive comparison, or -1.
func (g *Group) FindSubgroup(name string) int {
	for i := range g.Subgroups {
		if SameName(g.Subgroups[i].Name, name) {
			return i
		}
	}
	return -1
}
