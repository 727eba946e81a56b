package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rubenlestaa/ideabank/internal/remind"
	"github.com/rubenlestaa/ideabank/internal/tree"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func oneChange() tree.ChangeSet {
	return tree.ChangeSet{Changes: []tree.Change{{Kind: tree.ChangeIdeaAdded}}}
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", zap.NewNop())
	assert.Error(t, err)

	_, err = New(":memory:", nil)
	assert.Error(t, err)
}

func TestLoadTree_Empty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.LoadTree(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestApplyBatch_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := tree.Tree{
		{
			Name:  "compras",
			Ideas: []string{"pan", "leche"},
			Subgroups: []tree.Subgroup{
				{Name: "super", Ideas: []string{"detergente"}},
			},
		},
		{
			Name: "rutina diaria",
			Subgroups: []tree.Subgroup{
				{Name: "deporte", Ideas: []string{"nadar a las 8 martes"}},
			},
		},
	}

	require.NoError(t, s.ApplyBatch(ctx, in, oneChange()))

	got, err := s.LoadTree(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

// TestApplyBatch_ReplacesPreviousState verifies the stored tree always
// mirrors the latest reconciled tree, deletions included.
func TestApplyBatch_ReplacesPreviousState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ApplyBatch(ctx, tree.Tree{
		{Name: "compras", Ideas: []string{"pan", "leche"}},
		{Name: "viajes", Ideas: []string{"cancún"}},
	}, oneChange()))

	require.NoError(t, s.ApplyBatch(ctx, tree.Tree{
		{Name: "compras", Ideas: []string{"pan"}},
	}, oneChange()))

	got, err := s.LoadTree(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"pan"}, got[0].Ideas)
}

func TestApplyBatch_EmptyChangeSetIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ApplyBatch(ctx, tree.Tree{{Name: "compras", Ideas: []string{"pan"}}}, oneChange()))

	// An empty change set must not clobber stored state, whatever tree
	// value rides along with it.
	require.NoError(t, s.ApplyBatch(ctx, nil, tree.ChangeSet{}))

	got, err := s.LoadTree(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestInbox_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.SaveNote(ctx, "comprar pan", "es")
	require.NoError(t, err)
	id2, err := s.SaveNote(ctx, "asdfgh", "")
	require.NoError(t, err)

	pending, err := s.PendingNotes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "comprar pan", pending[0].Note)
	assert.Equal(t, "es", pending[0].Locale)
	assert.Equal(t, NotePending, pending[0].Status)

	require.NoError(t, s.SetNoteStatus(ctx, id1, NoteProcessed))
	require.NoError(t, s.SetNoteStatus(ctx, id2, NoteDiscarded))

	pending, err = s.PendingNotes(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSetNoteStatus_MissingEntry(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.SetNoteStatus(context.Background(), 999, NoteProcessed))
}

func TestReminders_DueAndExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	past := remind.NewReminder("llamar al dentista", now.Add(-time.Minute))
	future := remind.NewReminder("pagar el recibo", now.Add(time.Hour))
	require.NoError(t, s.AddReminder(ctx, past))
	require.NoError(t, s.AddReminder(ctx, future))

	due, err := s.DueReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, past.ID, due[0].ID)
	assert.Equal(t, "llamar al dentista", due[0].Message)
	assert.True(t, due[0].FireAt.Equal(past.FireAt.UTC().Truncate(time.Second)))

	claimed, err := s.MarkSent(ctx, past.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Second claim loses: the sent=0 guard already fired.
	claimed, err = s.MarkSent(ctx, past.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	due, err = s.DueReminders(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDueReminders_BoundaryInclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	r := remind.NewReminder("estirar", now)
	require.NoError(t, s.AddReminder(ctx, r))

	due, err := s.DueReminders(ctx, now)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}
