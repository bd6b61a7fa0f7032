// Package session coordinates one shared game between local commands, the
// move-suggestion engine and remote sync documents.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"chessx/internal/game"
	"chessx/internal/gamesync"
	"chessx/internal/suggest"
)

var (
	ErrSyncConflict      = errors.New("remote update arrived during a local commit")
	ErrSuggestionPending = errors.New("waiting for a suggested move")
	ErrStaleSuggestion   = errors.New("suggestion no longer matches the game")
	ErrStaleRevision     = errors.New("remote revision is not newer")
	ErrNoSuggester       = errors.New("no suggestion engine configured")
	ErrWrongGame         = errors.New("document belongs to another game")
)

type Config struct {
	GameID   string
	ClientID string
	// Store is optional; without it the game is not shared.
	Store gamesync.Store
	// Suggester is optional; without it Suggest fails with ErrNoSuggester.
	Suggester *suggest.Adapter
	// Notifier additionally receives every engine event. It is called with
	// the session locked and must not call back into it.
	Notifier game.Notifier
}

// View is the game state as clients see it.
type View struct {
	game.BoardState
	GameID   string `json:"gameId"`
	Revision int64  `json:"revision"`
	Awaiting bool   `json:"awaiting"`
}

// Update is published after every change to the game.
type Update struct {
	View   View         `json:"state"`
	Events []game.Event `json:"events,omitempty"`
	Remote bool         `json:"remote"`
}

// Session owns a game engine. All methods are safe for concurrent use.
//
// Local mutations are serialized by writeMu, which is also held while the
// resulting document is written, so at most one store write is in flight.
// mu guards the engine and the flags below and is never held across I/O.
type Session struct {
	cfg     Config
	writeMu sync.Mutex

	mu         sync.Mutex
	engine     *game.Engine
	revision   int64
	awaiting   bool
	committing bool
	queued     *gamesync.Document
	pending    []game.Event
	subs       map[int]chan Update
	nextSub    int
}

func New(cfg Config) *Session {
	s := &Session{cfg: cfg, subs: make(map[int]chan Update)}
	s.engine = game.NewEngine(game.WithNotifier(game.NotifierFunc(s.collect)))
	return s
}

// collect runs inside engine calls, with mu held.
func (s *Session) collect(ev game.Event) {
	s.pending = append(s.pending, ev)
	if s.cfg.Notifier != nil {
		s.cfg.Notifier.Notify(ev)
	}
}

func (s *Session) GameID() string { return s.cfg.GameID }

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	return View{
		BoardState: s.engine.State(),
		GameID:     s.cfg.GameID,
		Revision:   s.revision,
		Awaiting:   s.awaiting,
	}
}

func (s *Session) LegalTargets(sq game.Square) []game.Square {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.LegalTargets(sq)
}

func (s *Session) LegalMoves() []game.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.LegalMoves()
}

// Saved returns the full game including history.
func (s *Session) Saved() game.SavedGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Save(true)
}

// Subscribe returns a channel of updates. Slow subscribers miss updates
// rather than blocking the game. Call cancel to stop.
func (s *Session) Subscribe(buffer int) (<-chan Update, func()) {
	ch := make(chan Update, buffer)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// publishLocked sends the current view and any collected events.
func (s *Session) publishLocked(remote bool) {
	up := Update{View: s.viewLocked(), Events: s.pending, Remote: remote}
	s.pending = nil
	for id, ch := range s.subs {
		select {
		case ch <- up:
		default:
			log.Printf("session %s: subscriber %d is slow, update dropped", s.cfg.GameID, id)
		}
	}
}

// mutate runs fn as a local change and then shares the result.
func (s *Session) mutate(ctx context.Context, fn func(*game.Engine) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return ErrSuggestionPending
	}
	if err := fn(s.engine); err != nil {
		s.publishLocked(false)
		s.mu.Unlock()
		return err
	}
	s.invalidateLocked()
	s.publishLocked(false)
	doc := s.documentLocked()
	s.committing = true
	s.mu.Unlock()

	s.persist(ctx, doc)
	return nil
}

func (s *Session) invalidateLocked() {
	if s.cfg.Suggester != nil {
		s.cfg.Suggester.Invalidate()
	}
}

func (s *Session) documentLocked() gamesync.Document {
	return gamesync.Document{
		GameID:    s.cfg.GameID,
		UpdatedBy: s.cfg.ClientID,
		Game:      s.engine.Save(true),
	}
}

// persist writes doc. A failed write keeps the local change; the next
// successful write carries it.
func (s *Session) persist(ctx context.Context, doc gamesync.Document) {
	var stored gamesync.Document
	var err error
	if s.cfg.Store != nil {
		stored, err = s.cfg.Store.Save(ctx, doc)
		if err != nil {
			log.Printf("session %s: save: %v", s.cfg.GameID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.committing = false
	if err == nil && stored.Revision > s.revision {
		s.revision = stored.Revision
	}
}

func (s *Session) Move(ctx context.Context, m game.Move) (game.Result, error) {
	var res game.Result
	err := s.mutate(ctx, func(e *game.Engine) error {
		var err error
		res, err = e.Move(m)
		return err
	})
	return res, err
}

// Undo steps back up to n moves and reports how many were undone.
func (s *Session) Undo(ctx context.Context, n int) (int, error) {
	var done int
	err := s.mutate(ctx, func(e *game.Engine) error {
		done = e.Undo(n)
		return nil
	})
	return done, err
}

func (s *Session) Redo(ctx context.Context, n int) (int, error) {
	var done int
	err := s.mutate(ctx, func(e *game.Engine) error {
		done = e.Redo(n)
		return nil
	})
	return done, err
}

func (s *Session) Reset(ctx context.Context) error {
	return s.mutate(ctx, func(e *game.Engine) error {
		e.Reset()
		return nil
	})
}

// Import replaces the game with a saved one as a local change.
func (s *Session) Import(ctx context.Context, saved game.SavedGame) error {
	return s.mutate(ctx, func(e *game.Engine) error {
		return e.Adopt(saved)
	})
}

// SuggestResult reports a suggestion and, when requested, the move it
// produced.
type SuggestResult struct {
	Suggestion suggest.Suggestion
	Applied    bool
	Result     game.Result
}

// Suggest asks the external engine for a move in the current position. The
// engine works on a copy without holding the session, and local mutations
// are refused until it answers. With apply set the move is played.
func (s *Session) Suggest(ctx context.Context, level int, apply bool) (SuggestResult, error) {
	if s.cfg.Suggester == nil {
		return SuggestResult{}, ErrNoSuggester
	}

	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return SuggestResult{}, ErrSuggestionPending
	}
	if s.engine.Outcome().Terminal() {
		s.mu.Unlock()
		return SuggestResult{}, game.ErrTerminalGame
	}
	s.awaiting = true
	pos := s.engine.Clone()
	s.publishLocked(false)
	s.mu.Unlock()

	sug, err := s.cfg.Suggester.Suggest(ctx, pos, level)

	s.mu.Lock()
	s.awaiting = false
	if s.queued != nil {
		doc := *s.queued
		s.queued = nil
		if aerr := s.adoptLocked(doc); aerr != nil {
			log.Printf("session %s: queued document: %v", s.cfg.GameID, aerr)
		}
	}
	stale := !sameLog(s.engine.MoveLog(), pos.MoveLog()) || s.engine.Outcome().Terminal()
	s.publishLocked(false)
	s.mu.Unlock()

	if err != nil {
		return SuggestResult{}, err
	}
	if stale {
		return SuggestResult{Suggestion: sug}, ErrStaleSuggestion
	}
	out := SuggestResult{Suggestion: sug}
	if !apply {
		return out, nil
	}
	res, err := s.Move(ctx, sug.Move)
	if err != nil {
		return out, fmt.Errorf("apply suggestion %s: %w", sug.Move, err)
	}
	out.Applied = true
	out.Result = res
	return out, nil
}

func sameLog(a, b []game.Move) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AdoptRemote applies a document written by another client. Echoes of our
// own writes are ignored. A document that is not newer than what we hold,
// or that lands while a local change is being committed, is dropped. One
// that lands while a suggestion is pending is kept and adopted afterwards;
// a later one replaces it.
func (s *Session) AdoptRemote(doc gamesync.Document) error {
	if doc.GameID != s.cfg.GameID || doc.UpdatedBy == s.cfg.ClientID {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.Revision <= s.revision {
		return fmt.Errorf("%w: %d <= %d", ErrStaleRevision, doc.Revision, s.revision)
	}
	if s.committing {
		return fmt.Errorf("%w: revision %d from %s", ErrSyncConflict, doc.Revision, doc.UpdatedBy)
	}
	if s.awaiting {
		if s.queued == nil || doc.Revision > s.queued.Revision {
			s.queued = &doc
		}
		return nil
	}
	if err := s.adoptLocked(doc); err != nil {
		return err
	}
	s.publishLocked(true)
	return nil
}

// Relay adopts a document handed over by a peer rather than read from the
// store. Its revision is not trusted: the game is written back as a local
// change and the store assigns the next revision.
func (s *Session) Relay(ctx context.Context, doc gamesync.Document) error {
	if doc.GameID != s.cfg.GameID {
		return fmt.Errorf("%w: %q", ErrWrongGame, doc.GameID)
	}
	return s.Import(ctx, doc.Game)
}

func (s *Session) adoptLocked(doc gamesync.Document) error {
	if doc.Revision <= s.revision {
		return fmt.Errorf("%w: %d <= %d", ErrStaleRevision, doc.Revision, s.revision)
	}
	if err := s.engine.Adopt(doc.Game); err != nil {
		return err
	}
	s.revision = doc.Revision
	s.invalidateLocked()
	return nil
}

// Open loads the shared document, or publishes the local game when none
// exists yet.
func (s *Session) Open(ctx context.Context) error {
	if s.cfg.Store == nil {
		return nil
	}
	doc, err := s.cfg.Store.Load(ctx, s.cfg.GameID)
	switch {
	case errors.Is(err, gamesync.ErrNotFound):
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		s.mu.Lock()
		d := s.documentLocked()
		s.committing = true
		s.mu.Unlock()
		s.persist(ctx, d)
		return nil
	case err != nil:
		return fmt.Errorf("load %s: %w", s.cfg.GameID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.adoptLocked(doc); err != nil {
		return err
	}
	s.publishLocked(true)
	return nil
}

// Watch adopts remote documents until ctx ends. Rejected documents are
// logged and skipped.
func (s *Session) Watch(ctx context.Context) error {
	if s.cfg.Store == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	ch, err := s.cfg.Store.Watch(ctx, s.cfg.GameID)
	if err != nil {
		return err
	}
	for doc := range ch {
		if err := s.AdoptRemote(doc); err != nil {
			log.Printf("session %s: remote revision %d dropped: %v", s.cfg.GameID, doc.Revision, err)
		}
	}
	return ctx.Err()
}
