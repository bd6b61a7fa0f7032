// Package gamesync shares a game between clients through a document store.
package gamesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"chessx/internal/game"
)

var ErrNotFound = errors.New("game document not found")

// Document is the shared record of one game. UpdatedBy names the client
// that wrote it so that client can ignore its own echo.
type Document struct {
	GameID    string         `json:"gameId"`
	Revision  int64          `json:"revision"`
	UpdatedBy string         `json:"updatedBy"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Status    game.Status    `json:"status"`
	Game      game.SavedGame `json:"game"`
}

// Store persists documents and pushes every saved revision to watchers.
type Store interface {
	Load(ctx context.Context, gameID string) (Document, error)
	// Save writes doc as the next revision and returns what was stored.
	Save(ctx context.Context, doc Document) (Document, error)
	// Watch delivers each saved document for gameID until ctx ends.
	Watch(ctx context.Context, gameID string) (<-chan Document, error)
}

const watchBuffer = 8

// MemoryStore is a Store kept in process memory. Documents are held in
// their JSON form so readers never share state with writers.
type MemoryStore struct {
	mu       sync.Mutex
	docs     map[string][]byte
	revs     map[string]int64
	watchers map[string][]chan Document
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string][]byte),
		revs:     make(map[string]int64),
		watchers: make(map[string][]chan Document),
		now:      time.Now,
	}
}

func (s *MemoryStore) Load(ctx context.Context, gameID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.Lock()
	raw, ok := s.docs[gameID]
	s.mu.Unlock()
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, gameID)
	}
	return decode(raw)
}

func (s *MemoryStore) Save(ctx context.Context, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if doc.GameID == "" {
		return Document{}, errors.New("game id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc.Revision = s.revs[doc.GameID] + 1
	doc.UpdatedAt = s.now().UTC()
	doc.Status = doc.Game.Current.Outcome().Status
	raw, err := json.Marshal(doc)
	if err != nil {
		return Document{}, fmt.Errorf("encode %s: %w", doc.GameID, err)
	}
	stored, err := decode(raw)
	if err != nil {
		return Document{}, err
	}
	s.docs[doc.GameID] = raw
	s.revs[doc.GameID] = doc.Revision

	for _, ch := range s.watchers[doc.GameID] {
		s.deliver(ch, raw)
	}
	return stored, nil
}

// deliver never blocks. A slow watcher loses its oldest pending document,
// since only the latest revision matters.
func (s *MemoryStore) deliver(ch chan Document, raw []byte) {
	doc, err := decode(raw)
	if err != nil {
		log.Printf("gamesync: %v", err)
		return
	}
	for {
		select {
		case ch <- doc:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (s *MemoryStore) Watch(ctx context.Context, gameID string) (<-chan Document, error) {
	ch := make(chan Document, watchBuffer)
	s.mu.Lock()
	s.watchers[gameID] = append(s.watchers[gameID], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.watchers[gameID]
		for i, c := range list {
			if c == ch {
				s.watchers[gameID] = append(list[:i], list[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func decode(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
