package tree

import (
	"fmt"

	"go.uber.org/zap"
)

// ChangeKind labels a single structural change made by the reconciler.
type ChangeKind string

const (
	ChangeGroupCreated      ChangeKind = "group_created"
	ChangeGroupRenamed      ChangeKind = "group_renamed"
	ChangeGroupDeleted      ChangeKind = "group_deleted"
	ChangeSubgroupCreated   ChangeKind = "subgroup_created"
	ChangeSubgroupDeleted   ChangeKind = "subgroup_deleted"
	ChangeIdeaAdded         ChangeKind = "idea_added"
	ChangeIdeaRemoved       ChangeKind = "idea_removed"
	ChangeReminderScheduled ChangeKind = "reminder_scheduled"
)

// Change records one structural change for observability.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	Group    string     `json:"group,omitempty"`
	Subgroup string     `json:"subgroup,omitempty"`
	Idea     string     `json:"idea,omitempty"`
}

// ChangeSet is the ordered list of changes produced by one batch.
// An empty ChangeSet means the batch was a no-op: either an idempotent
// retry or an unresolvable delete/rename. Neither is an error.
type ChangeSet struct {
	Changes []Change `json:"changes"`
}

// Empty reports whether the batch changed nothing.
func (cs ChangeSet) Empty() bool {
	return len(cs.Changes) == 0
}

func (cs *ChangeSet) add(kind ChangeKind, group, subgroup, idea string) {
	cs.Changes = append(cs.Changes, Change{Kind: kind, Group: group, Subgroup: subgroup, Idea: idea})
}

// Reconciler applies canonical mutation batches to a tree value.
// Apply never mutates its input and never returns an error for
// unresolvable targets; those surface as missing entries in the
// ChangeSet.
type Reconciler struct {
	logger *zap.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(logger *zap.Logger) (*Reconciler, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Reconciler{logger: logger}, nil
}

// Apply applies an ordered batch of mutations to a copy of the tree and
// returns the new tree plus the set of structural changes made.
//
// Later mutations in a batch see the structural state left by earlier
// ones, so an append after a create lands in the group that was just
// created. Re-applying an identical batch yields an empty ChangeSet:
// group/subgroup lookups dedup by name and idea appends dedup fuzzily.
func (r *Reconciler) Apply(t Tree, batch []Mutation) (Tree, ChangeSet) {
	out := t.Clone()
	var cs ChangeSet

	for i := range batch {
		m := &batch[i]
		if !m.MakesSense {
			continue
		}
		switch m.Action {
		case ActionAdd:
			out = r.applyAdd(out, m, &cs)
		case ActionDelete:
			out = r.applyDelete(out, m, &cs)
		case ActionRemind:
			// No tree change; the caller persists the reminder record.
			cs.add(ChangeReminderScheduled, "", "", m.Idea)
		default:
		}
	}

	if cs.Empty() {
		r.logger.Debug("batch applied with no changes", zap.Int("mutations", len(batch)))
	}
	return out, cs
}

func (r *Reconciler) applyAdd(t Tree, m *Mutation, cs *ChangeSet) Tree {
	if m.Rename != nil {
		t = r.applyRename(t, m.Rename, cs)
	}
	if m.Group == "" {
		return t
	}

	gi := t.FindGroup(m.Group)
	if gi < 0 {
		t = append(t, Group{Name: m.Group})
		gi = len(t) - 1
		cs.add(ChangeGroupCreated, m.Group, "", "")
	}
	g := &t[gi]

	if m.Subgroup != "" {
		si := g.FindSubgroup(m.Subgroup)
		if si < 0 {
			sg := Subgroup{Name: m.Subgroup}
			if m.InheritParentIdeas {
				// One-time snapshot of the parent's root ideas, not a live link.
				sg.Ideas = append([]string(nil), g.Ideas...)
			}
			g.Subgroups = append(g.Subgroups, sg)
			si = len(g.Subgroups) - 1
			cs.add(ChangeSubgroupCreated, g.Name, m.Subgroup, "")
		}
		sg := &g.Subgroups[si]
		if m.Idea != "" && !containsFuzzy(sg.Ideas, m.Idea) {
			sg.Ideas = append(sg.Ideas, m.Idea)
			cs.add(ChangeIdeaAdded, g.Name, sg.Name, m.Idea)
		}
		return t
	}

	if m.Idea != "" && !containsFuzzy(g.Ideas, m.Idea) {
		g.Ideas = append(g.Ideas, m.Idea)
		cs.add(ChangeIdeaAdded, g.Name, "", m.Idea)
	}
	return t
}

// applyRename changes a group's name in place, contents untouched.
// The old name must match exactly; a miss is a silent no-op.
func (r *Reconciler) applyRename(t Tree, ren *Rename, cs *ChangeSet) Tree {
	for i := range t {
		if t[i].Name == ren.OldName {
			t[i].Name = ren.NewName
			cs.add(ChangeGroupRenamed, ren.NewName, "", "")
			return t
		}
	}
	r.logger.Debug("rename target not found", zap.String("old_name", ren.OldName))
	return t
}

func (r *Reconciler) applyDelete(t Tree, m *Mutation, cs *ChangeSet) Tree {
	gi := t.FindGroup(m.Group)
	if gi < 0 {
		r.logger.Debug("delete target group not found", zap.String("group", m.Group))
		return t
	}
	g := &t[gi]

	switch {
	case m.Idea != "" && m.Subgroup != "":
		si := g.FindSubgroup(m.Subgroup)
		if si < 0 {
			return t
		}
		sg := &g.Subgroups[si]
		kept, removed := removeFuzzy(sg.Ideas, m.Idea)
		sg.Ideas = kept
		for _, idea := range removed {
			cs.add(ChangeIdeaRemoved, g.Name, sg.Name, idea)
		}

	case m.Idea != "":
		// Root ideas first, then the first subgroup holding a match.
		kept, removed := removeFuzzy(g.Ideas, m.Idea)
		if len(removed) > 0 {
			g.Ideas = kept
			for _, idea := range removed {
				cs.add(ChangeIdeaRemoved, g.Name, "", idea)
			}
			return t
		}
		for si := range g.Subgroups {
			sg := &g.Subgroups[si]
			kept, removed := removeFuzzy(sg.Ideas, m.Idea)
			if len(removed) == 0 {
				continue
			}
			sg.Ideas = kept
			for _, idea := range removed {
				cs.add(ChangeIdeaRemoved, g.Name, sg.Name, idea)
			}
			return t
		}

	case m.Subgroup != "":
		si := g.FindSubgroup(m.Subgroup)
		if si < 0 {
			return t
		}
		name := g.Subgroups[si].Name
		g.Subgroups = append(g.Subgroups[:si], g.Subgroups[si+1:]...)
		cs.add(ChangeSubgroupDeleted, g.Name, name, "")

	default:
		name := g.Name
		t = append(t[:gi], t[gi+1:]...)
		cs.add(ChangeGroupDeleted, name, "", "")
	}
	return t
}
