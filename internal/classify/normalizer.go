package classify

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rubenlestaa/ideabank/internal/tree"
)

// Normalizer converts raw proposals into canonical mutations. Every
// rule corrects a known failure mode of the oracle, so rule order is
// part of the contract.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger *zap.Logger) (*Normalizer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Normalizer{logger: logger}, nil
}

// Normalize applies the safety nets to one proposal, in order:
//
//  1. makes_sense=false short-circuits into a terminal no-op
//  2. delete-intent keywords in the note force action=delete
//  3. deletes pass group/subgroup/idea through with all flags off
//  4. a note naming an existing group overrides an invented new one
//  5. category keywords force the matching predefined category, with
//     the routine-activity subgroup map filling a missing subgroup
//  6. a rename is dropped unless the mutation creates a new group
//  7. the idea is distilled so it is never the verbatim note
func (n *Normalizer) Normalize(p Proposal, snapshot tree.Tree, note string) tree.Mutation {
	if !p.makesSense() {
		reason := p.Reason
		if reason == "" {
			reason = "la nota no expresa una idea clasificable"
		}
		return tree.Mutation{Action: tree.ActionNone, MakesSense: false, Reason: reason}
	}

	action := strings.ToLower(strings.TrimSpace(p.Action))
	if action == "" {
		action = string(tree.ActionAdd)
	}
	if action != string(tree.ActionDelete) && IsDeleteIntent(note) {
		n.logger.Debug("delete intent override", zap.String("proposed_action", action))
		action = string(tree.ActionDelete)
	}

	if action == string(tree.ActionDelete) {
		return tree.Mutation{
			Action:     tree.ActionDelete,
			MakesSense: true,
			Group:      p.Group,
			Subgroup:   p.Subgroup,
			Idea:       p.Idea,
		}
	}

	if action == string(tree.ActionRemind) {
		return tree.Mutation{
			Action:     tree.ActionRemind,
			MakesSense: true,
			Idea:       p.Idea,
			RemindAt:   p.RemindAt,
		}
	}

	group := p.Group
	isNewGroup := p.IsNewGroup
	subgroup := p.Subgroup
	isNewSubgroup := p.IsNewSubgroup

	// The oracle invents duplicates of groups the user named literally.
	if isNewGroup && len(snapshot) > 0 {
		if mentioned := mentionedGroup(note, snapshot); mentioned != "" {
			n.logger.Debug("mentioned group override",
				zap.String("proposed", group),
				zap.String("existing", mentioned),
			)
			group = mentioned
			isNewGroup = false
		}
	}

	if !isPredefinedCategory(group) {
		if guessed := guessPredefinedCategory(note); guessed != "" {
			group = guessed
			isNewGroup = snapshot.FindGroup(guessed) < 0
			if guessed == "rutina diaria" && subgroup == "" {
				if sub := extractRoutineSubgroup(note); sub != "" {
					subgroup = sub
					isNewSubgroup = true
				}
			}
		}
	}

	rename := p.Rename
	if rename != nil && !isNewGroup {
		rename = nil
	}

	return tree.Mutation{
		Action:             tree.ActionAdd,
		MakesSense:         true,
		Group:              group,
		Subgroup:           subgroup,
		Idea:               DistillIdea(p.Idea, note),
		IsNewGroup:         isNewGroup,
		IsNewSubgroup:      isNewSubgroup,
		InheritParentIdeas: p.InheritParentIdeas,
		Rename:             rename,
	}
}

// NormalizeBatch normalizes each proposal from one note and enforces
// the batch invariant: only the first element may create structure,
// inherit ideas, or rename.
func (n *Normalizer) NormalizeBatch(ps []Proposal, snapshot tree.Tree, note string) []tree.Mutation {
	if len(ps) == 0 {
		return []tree.Mutation{{
			Action:     tree.ActionNone,
			MakesSense: false,
			Reason:     "respuesta vacía del clasificador",
		}}
	}

	out := make([]tree.Mutation, 0, len(ps))
	for _, p := range ps {
		out = append(out, n.Normalize(p, snapshot, note))
	}
	for i := 1; i < len(out); i++ {
		out[i].IsNewGroup = false
		out[i].IsNewSubgroup = false
		out[i].InheritParentIdeas = false
		out[i].Rename = nil
	}
	return out
}

// mentionedGroup returns the name of an existing group the note text
// literally contains, or "".
func mentionedGroup(note string, snapshot tree.Tree) string {
	lower := strings.ToLower(note)
	for i := range snapshot {
		if name := snapshot[i].Name; name != "" && strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	return ""
}
