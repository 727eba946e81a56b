// Package oracle talks to the natural-language classifier. The rest of
// the engine treats it as untrusted: whatever comes back goes through
// the decoder and the normalizer before it can touch the tree.
package oracle

import (
	"context"
	"errors"

	"github.com/rubenlestaa/ideabank/internal/classify"
	"github.com/rubenlestaa/ideabank/internal/tree"
)

// ErrUnavailable reports a transport or timeout failure talking to the
// classifier. It is distinct from a DecodeError (the classifier
// answered garbage) and from makes_sense=false (the classifier said
// no): callers fall back to storing the note unclassified.
var ErrUnavailable = errors.New("classifier unavailable")

// Oracle classifies a note against the current tree snapshot and
// returns one proposal per distinct idea found in the note.
type Oracle interface {
	Classify(ctx context.Context, note string, snapshot tree.Tree, locale string) ([]classify.Proposal, error)
}
