// Package engine runs a note through the full pipeline: reminder
// pre-detection, classification, normalization, enumeration splitting,
// and tree reconciliation with persistence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rubenlestaa/ideabank/internal/classify"
	"github.com/rubenlestaa/ideabank/internal/decode"
	"github.com/rubenlestaa/ideabank/internal/oracle"
	"github.com/rubenlestaa/ideabank/internal/remind"
	"github.com/rubenlestaa/ideabank/internal/store"
	"github.com/rubenlestaa/ideabank/internal/tree"
)

// Result is one element of the list returned per note: the canonical
// mutation that was applied (or rejected) for one distilled idea.
type Result = tree.Mutation

// classifiedReminderDelay is the fire time for a classifier-proposed
// reminder that carries no remind_at, mirroring the detector fallback.
const classifiedReminderDelay = 5 * time.Minute

// Storage is the persistence surface the engine drives.
type Storage interface {
	LoadTree(ctx context.Context) (tree.Tree, error)
	ApplyBatch(ctx context.Context, t tree.Tree, changes tree.ChangeSet) error
	SaveNote(ctx context.Context, note, locale string) (int64, error)
	SetNoteStatus(ctx context.Context, id int64, status store.NoteStatus) error
	AddReminder(ctx context.Context, r remind.Reminder) error
}

// Engine wires the pipeline stages together.
type Engine struct {
	oracle     oracle.Oracle
	storage    Storage
	detector   *remind.Detector
	normalizer *classify.Normalizer
	reconciler *tree.Reconciler
	logger     *zap.Logger
	metrics    *Metrics
	now        func() time.Time

	// Single-writer ownership of the tree snapshot: the whole
	// read-modify-write cycle runs under one lock so concurrent notes
	// never lose updates, regardless of which groups they touch.
	applyMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMetrics overrides the default instruments and registry.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine.
func New(o oracle.Oracle, storage Storage, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if o == nil {
		return nil, fmt.Errorf("oracle is required")
	}
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	detector, err := remind.NewDetector(logger)
	if err != nil {
		return nil, err
	}
	normalizer, err := classify.NewNormalizer(logger)
	if err != nil {
		return nil, err
	}
	reconciler, err := tree.NewReconciler(logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		oracle:     o,
		storage:    storage,
		detector:   detector,
		normalizer: normalizer,
		reconciler: reconciler,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(prometheus.DefaultRegisterer)
	}
	return e, nil
}

// ProcessNote runs one note through the pipeline and returns one
// Result per distilled idea. A *decode.DecodeError means the
// classifier output was unusable; oracle.ErrUnavailable means the note
// was kept in the inbox for later.
func (e *Engine) ProcessNote(ctx context.Context, note, locale string) ([]Result, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, fmt.Errorf("note is empty")
	}

	inboxID, err := e.storage.SaveNote(ctx, note, locale)
	if err != nil {
		return nil, fmt.Errorf("record note: %w", err)
	}

	// Reminder intent wins outright: no classifier call, no tree change.
	if r, ok := e.detector.Detect(note, e.now()); ok {
		if err := e.storage.AddReminder(ctx, *r); err != nil {
			return nil, fmt.Errorf("schedule reminder: %w", err)
		}
		e.setStatus(ctx, inboxID, store.NoteProcessed)
		e.metrics.RemindersScheduled.Inc()
		e.metrics.NotesProcessed.WithLabelValues(OutcomeReminder).Inc()
		e.logger.Info("reminder scheduled",
			zap.String("id", r.ID),
			zap.Time("fire_at", r.FireAt))
		return []Result{{
			Action:     tree.ActionRemind,
			MakesSense: true,
			Idea:       r.Message,
			RemindAt:   &r.FireAt,
		}}, nil
	}

	snapshot, err := e.storage.LoadTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}

	proposals, err := e.oracle.Classify(ctx, note, snapshot, locale)
	if err != nil {
		var decErr *decode.DecodeError
		switch {
		case errors.As(err, &decErr):
			// The model answered garbage: terminal for this note.
			e.setStatus(ctx, inboxID, store.NoteDiscarded)
			e.metrics.DecodeFailures.Inc()
			e.metrics.NotesProcessed.WithLabelValues(OutcomeDecodeError).Inc()
			return nil, err
		case errors.Is(err, oracle.ErrUnavailable):
			// Degraded path: the note stays pending in the inbox.
			e.metrics.NotesProcessed.WithLabelValues(OutcomeUnavailable).Inc()
			e.logger.Warn("classifier unavailable, note kept pending",
				zap.Int64("inbox_id", inboxID))
			return nil, err
		default:
			return nil, fmt.Errorf("classify note: %w", err)
		}
	}

	batch := e.normalizer.NormalizeBatch(proposals, snapshot, note)
	batch = classify.Split(batch, note)

	if len(batch) == 1 && !batch[0].MakesSense {
		e.setStatus(ctx, inboxID, store.NoteDiscarded)
		e.metrics.NotesProcessed.WithLabelValues(OutcomeUnclassifiable).Inc()
		e.logger.Info("note rejected by classifier",
			zap.String("reason", batch[0].Reason))
		return batch, nil
	}

	// Classifier-proposed reminders are scheduling records, not tree
	// state: persist each one and keep it out of the reconcile batch.
	var treeMuts []tree.Mutation
	scheduled := 0
	for i := range batch {
		m := &batch[i]
		if m.Action != tree.ActionRemind {
			treeMuts = append(treeMuts, *m)
			continue
		}
		fireAt := e.now().Add(classifiedReminderDelay)
		if m.RemindAt != nil {
			fireAt = *m.RemindAt
		} else {
			m.RemindAt = &fireAt
		}
		message := m.Idea
		if message == "" {
			message = note
		}
		r := remind.NewReminder(message, fireAt)
		if err := e.storage.AddReminder(ctx, r); err != nil {
			return nil, fmt.Errorf("schedule reminder: %w", err)
		}
		scheduled++
		e.metrics.RemindersScheduled.Inc()
		e.logger.Info("reminder scheduled",
			zap.String("id", r.ID),
			zap.Time("fire_at", r.FireAt))
	}

	var changes tree.ChangeSet
	if len(treeMuts) > 0 {
		changes, err = e.apply(ctx, treeMuts)
		if err != nil {
			return nil, err
		}
	}

	e.setStatus(ctx, inboxID, store.NoteProcessed)
	switch {
	case !changes.Empty():
		e.metrics.MutationsApplied.Add(float64(len(changes.Changes)))
		e.metrics.NotesProcessed.WithLabelValues(OutcomeApplied).Inc()
	case scheduled > 0:
		e.metrics.NotesProcessed.WithLabelValues(OutcomeReminder).Inc()
	default:
		e.metrics.NotesProcessed.WithLabelValues(OutcomeNoop).Inc()
	}
	e.logger.Info("note processed",
		zap.Int("mutations", len(batch)),
		zap.Int("reminders", scheduled),
		zap.Int("changes", len(changes.Changes)))
	return batch, nil
}

// apply runs the serialized read-modify-write cycle over the tree.
func (e *Engine) apply(ctx context.Context, batch []tree.Mutation) (tree.ChangeSet, error) {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	current, err := e.storage.LoadTree(ctx)
	if err != nil {
		return tree.ChangeSet{}, fmt.Errorf("load tree: %w", err)
	}

	next, changes := e.reconciler.Apply(current, batch)
	if changes.Empty() {
		return changes, nil
	}
	if err := e.storage.ApplyBatch(ctx, next, changes); err != nil {
		return tree.ChangeSet{}, fmt.Errorf("persist batch: %w", err)
	}
	return changes, nil
}

// Tree returns the current tree snapshot.
func (e *Engine) Tree(ctx context.Context) (tree.Tree, error) {
	return e.storage.LoadTree(ctx)
}

func (e *Engine) setStatus(ctx context.Context, id int64, status store.NoteStatus) {
	if err := e.storage.SetNoteStatus(ctx, id, status); err != nil {
		e.logger.Warn("failed to update inbox status",
			zap.Int64("inbox_id", id),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}
