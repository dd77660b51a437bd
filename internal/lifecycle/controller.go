// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lifecycle owns the active outline document and moves it between
// the viewing, editing, and regenerating states. Every change to the
// committed text is rescored in full and persisted on completion of the
// transition, never mid-edit.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pdiddy/research-index/internal/export"
	"github.com/pdiddy/research-index/internal/quality"
	"github.com/pdiddy/research-index/internal/state"
	"github.com/pdiddy/research-index/pkg/types"
)

// State is the controller's lifecycle state.
type State string

const (
	// Unloaded means no document is active; callers send the user to the
	// creation flow.
	Unloaded     State = "unloaded"
	Viewing      State = "viewing"
	Editing      State = "editing"
	Regenerating State = "regenerating"
)

var (
	// ErrNoDocument is returned when an operation needs a document and none
	// is loaded or persisted.
	ErrNoDocument = errors.New("no index document loaded")
	// ErrBusy is returned while a generation request is in flight.
	ErrBusy = errors.New("index generation in progress")
	// ErrEditing is returned for operations that need the committed
	// document while an edit draft is open.
	ErrEditing = errors.New("an edit is in progress")
	// ErrNotEditing is returned by draft operations outside the editing state.
	ErrNotEditing = errors.New("no edit in progress")
	// ErrEmptyDraft is returned when saving a blank draft. The draft stays open.
	ErrEmptyDraft = errors.New("index text must not be empty")
	// ErrUnpersisted is returned by Load when the active document failed to
	// persist; reloading would replace it with the older stored record.
	ErrUnpersisted = errors.New("active index has changes that were not persisted")
)

// PersistError reports that a transition completed in memory but its result
// could not be written to storage. The in-memory document stays authoritative.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: document kept in memory but not persisted: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Generator produces a new outline from research parameters.
type Generator interface {
	Generate(ctx context.Context, params types.GenerationParams) (types.IndexDocument, error)
}

// Store persists the two client-side records.
type Store interface {
	LoadDocument(ctx context.Context) (types.IndexDocument, error)
	SaveDocument(ctx context.Context, doc types.IndexDocument) error
	LoadParams(ctx context.Context) (types.GenerationParams, error)
	SaveParams(ctx context.Context, p types.GenerationParams) error
	Delete(ctx context.Context, key string) error
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State    State                `json:"state"`
	Document *types.IndexDocument `json:"document,omitempty"`
	// Draft is set only while editing.
	Draft string `json:"draft,omitempty"`
}

// Controller drives one outline document through its lifecycle. It is safe
// for concurrent use; the mutex is released while the generation service is
// called so that reads and rejections are answered during the request.
type Controller struct {
	mu     sync.Mutex
	state  State
	doc    types.IndexDocument
	loaded bool
	// dirty is set while the committed document differs from the stored one
	// because persisting it failed.
	dirty bool
	draft string

	gen   Generator
	store Store
	log   *slog.Logger
}

// New creates a controller in the Unloaded state. A nil logger discards
// log output.
func New(gen Generator, store Store, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		state: Unloaded,
		gen:   gen,
		store: store,
		log:   log,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Document returns a copy of the committed document. ok is false when no
// document is loaded.
func (c *Controller) Document() (doc types.IndexDocument, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasDocument() {
		return types.IndexDocument{}, false
	}
	return c.doc.Clone(), true
}

// Draft returns the edit draft. ok is false outside the editing state.
func (c *Controller) Draft() (draft string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Editing {
		return "", false
	}
	return c.draft, true
}

// Snapshot returns the state, committed document, and draft together.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{State: c.state}
	if c.hasDocument() {
		doc := c.doc.Clone()
		s.Document = &doc
	}
	if c.state == Editing {
		s.Draft = c.draft
	}
	return s
}

// hasDocument reports whether a committed document exists. A generation
// started from Unloaded has none.
func (c *Controller) hasDocument() bool {
	return c.loaded
}

// Load makes the persisted document active and enters Viewing. It wraps
// ErrNoDocument when nothing has been persisted, and returns ErrUnpersisted
// rather than overwrite a committed document whose save failed.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Editing:
		return ErrEditing
	case Regenerating:
		return ErrBusy
	}
	if c.dirty {
		return ErrUnpersisted
	}

	doc, err := c.store.LoadDocument(ctx)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrNoDocument, err)
		}
		return fmt.Errorf("loading index document: %w", err)
	}

	doc.Scores = quality.Evaluate(doc.Index)
	c.doc = doc
	c.loaded = true
	c.state = Viewing
	c.log.Debug("index loaded", "scores", doc.Scores)
	return nil
}

// Create runs the creation flow: it validates params, requests a new
// outline, and makes it the active document. The params are stored only
// once generation succeeds, so regeneration replays the request that
// produced the active document. On failure the previous state, document,
// and stored params are left untouched.
func (c *Controller) Create(ctx context.Context, params types.GenerationParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return c.generate(ctx, "create", params, true)
}

// BeginEdit opens an edit draft holding the committed text. Calling it while
// already editing keeps the existing draft.
func (c *Controller) BeginEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Unloaded:
		return ErrNoDocument
	case Regenerating:
		return ErrBusy
	case Editing:
		return nil
	}
	c.draft = c.doc.Index
	c.state = Editing
	return nil
}

// SetDraft replaces the edit draft.
func (c *Controller) SetDraft(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Editing {
		return ErrNotEditing
	}
	c.draft = text
	return nil
}

// Cancel discards the draft and returns to Viewing without rescoring or
// persisting.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Editing {
		return ErrNotEditing
	}
	c.draft = ""
	c.state = Viewing
	return nil
}

// Save commits the draft, rescoring it, and persists the document before
// returning. A blank draft is rejected with ErrEmptyDraft. If persisting
// fails the commit still stands and a *PersistError is returned.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Editing {
		return ErrNotEditing
	}
	if strings.TrimSpace(c.draft) == "" {
		return ErrEmptyDraft
	}

	doc := c.doc.Clone()
	doc.Index = c.draft
	doc.Scores = quality.Evaluate(doc.Index)

	c.doc = doc
	c.draft = ""
	c.state = Viewing
	c.log.Debug("draft saved", "scores", doc.Scores)

	return c.persist(ctx, "save", doc)
}

// Regenerate replaces the document with a new one generated from the
// last-used parameters. Only one regeneration runs at a time; a second
// request is rejected with ErrBusy. On failure the previous document is
// left exactly as it was.
func (c *Controller) Regenerate(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Unloaded:
		c.mu.Unlock()
		return ErrNoDocument
	case Editing:
		c.mu.Unlock()
		return ErrEditing
	case Regenerating:
		c.mu.Unlock()
		return ErrBusy
	}
	params, err := c.store.LoadParams(ctx)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("loading generation parameters: %w", err)
	}

	return c.generate(ctx, "regenerate", params, false)
}

// generate claims the Regenerating state, calls the generator without
// holding the lock, and installs the result on success. saveParams stores
// params alongside the new document.
func (c *Controller) generate(ctx context.Context, op string, params types.GenerationParams, saveParams bool) error {
	c.mu.Lock()
	if c.state == Regenerating {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state == Editing {
		c.mu.Unlock()
		return ErrEditing
	}
	prev := c.state
	c.state = Regenerating
	c.mu.Unlock()

	c.log.Info("generating index", "op", op, "model", params.Model)
	doc, err := c.gen.Generate(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = prev
		c.log.Warn("index generation failed", "op", op, "error", err)
		return err
	}

	doc.Scores = quality.Evaluate(doc.Index)
	c.doc = doc
	c.loaded = true
	c.draft = ""
	c.state = Viewing
	c.log.Info("index generated", "op", op, "scores", doc.Scores)

	if saveParams {
		if err := c.store.SaveParams(ctx, params); err != nil {
			c.log.Warn("saving generation parameters failed", "error", err)
		}
	}
	return c.persist(ctx, op, doc)
}

// persist writes doc and converts a failure into a logged *PersistError,
// marking the committed document dirty until a later write succeeds.
// Callers hold c.mu.
func (c *Controller) persist(ctx context.Context, op string, doc types.IndexDocument) error {
	if err := c.store.SaveDocument(ctx, doc); err != nil {
		c.dirty = true
		c.log.Warn("persisting index failed", "op", op, "error", err)
		return &PersistError{Op: op, Err: err}
	}
	c.dirty = false
	return nil
}

// Export renders the committed document. It is available only while
// Viewing and never reads an edit draft.
func (c *Controller) Export(format export.Format) (export.Artifact, error) {
	c.mu.Lock()
	switch c.state {
	case Unloaded:
		c.mu.Unlock()
		return export.Artifact{}, ErrNoDocument
	case Editing:
		c.mu.Unlock()
		return export.Artifact{}, ErrEditing
	case Regenerating:
		c.mu.Unlock()
		return export.Artifact{}, ErrBusy
	}
	doc := c.doc.Clone()
	c.mu.Unlock()

	return export.Render(doc, format)
}

// Discard drops the active document and any draft without persisting,
// returning to Unloaded. Persisted records are not touched, so a document
// whose save failed is lost.
func (c *Controller) Discard() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Regenerating {
		return ErrBusy
	}
	c.unload()
	return nil
}

// Purge deletes the stored document and params and returns to Unloaded.
// If a record cannot be deleted the in-memory state is left as it was.
func (c *Controller) Purge(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Regenerating {
		return ErrBusy
	}
	for _, key := range []string{state.KeyCurrentIndex, state.KeyParams} {
		if err := c.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("purging stored records: %w", err)
		}
	}
	c.unload()
	c.log.Info("stored index purged")
	return nil
}

// unload drops the in-memory document. Callers hold c.mu.
func (c *Controller) unload() {
	c.doc = types.IndexDocument{}
	c.loaded = false
	c.dirty = false
	c.draft = ""
	c.state = Unloaded
}
