package reminders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/storage"
)

const DefaultKey = "reminders"

var ErrDuplicateID = errors.New("reminders: duplicate reminder id")

type Options struct {
	Key    string
	Logger *slog.Logger
}

// Store owns the ordered reminder collection. Mutations re-read the mirror
// under the lock, so writes from other processes are kept.
type Store struct {
	mirror storage.Mirror
	key    string
	logger *slog.Logger

	mu          sync.Mutex
	items       []model.Reminder
	lastDeleted *model.Reminder
	dirty       bool
	version     uint64
	subs        map[int]func([]model.Reminder)
	nextSub     int

	pubMu     sync.Mutex
	published uint64
}

func New(mirror storage.Mirror, opts Options) *Store {
	key := strings.TrimSpace(opts.Key)
	if key == "" {
		key = DefaultKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if mirror == nil {
		mirror = storage.NewMemoryMirror()
	}
	return &Store{
		mirror: mirror,
		key:    key,
		logger: logger,
		items:  []model.Reminder{},
		subs:   make(map[int]func([]model.Reminder)),
	}
}

// Load replaces the collection with the mirrored one. It never fails: a
// missing, unreadable or corrupt value yields an empty collection.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	items, _ := s.read(ctx)
	s.items = items
	s.dirty = false
	snapshot, version := s.snapshotLocked(), s.bumpLocked()
	s.mu.Unlock()
	s.publish(snapshot, version)
}

// Reload picks up changes written by another process. The undo slot is kept,
// and unsaved local changes win over the mirror.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	if s.dirty {
		s.mu.Unlock()
		s.logger.Debug("reload skipped, local changes not saved", "key", s.key)
		return
	}
	items, _ := s.read(ctx)
	s.items = items
	snapshot, version := s.snapshotLocked(), s.bumpLocked()
	s.mu.Unlock()
	s.publish(snapshot, version)
}

// read reports ok=false when the mirror value exists but cannot be used.
func (s *Store) read(ctx context.Context) ([]model.Reminder, bool) {
	raw, err := s.mirror.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []model.Reminder{}, true
		}
		s.logger.Warn("read reminders failed", "key", s.key, "error", err)
		return []model.Reminder{}, false
	}
	items, err := Decode(raw, s.logger)
	if err != nil {
		s.logger.Warn("corrupt reminders value", "key", s.key, "error", err)
		return []model.Reminder{}, false
	}
	return items, true
}

func (s *Store) refreshLocked(ctx context.Context) {
	if s.dirty {
		return
	}
	if items, ok := s.read(ctx); ok {
		s.items = items
	}
}

func (s *Store) Add(ctx context.Context, r model.Reminder) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.refreshLocked(ctx)
	if s.indexLocked(r.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
	}
	s.insertLocked(r)
	err := s.persistLocked(ctx)
	snapshot, version := s.snapshotLocked(), s.bumpLocked()
	s.mu.Unlock()
	s.publish(snapshot, version)
	return err
}

// Delete keeps the removed reminder as the single undo candidate.
func (s *Store) Delete(ctx context.Context, id string) (model.Reminder, bool, error) {
	s.mu.Lock()
	s.refreshLocked(ctx)
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return model.Reminder{}, false, nil
	}
	removed := s.items[idx]
	s.items = slices.Delete(s.items, idx, idx+1)
	s.lastDeleted = &removed
	err := s.persistLocked(ctx)
	snapshot, version := s.snapshotLocked(), s.bumpLocked()
	s.mu.Unlock()
	s.publish(snapshot, version)
	return removed, true, err
}

func (s *Store) UndoLast(ctx context.Context) (model.Reminder, bool, error) {
	s.mu.Lock()
	if s.lastDeleted == nil {
		s.mu.Unlock()
		return model.Reminder{}, false, nil
	}
	restored := *s.lastDeleted
	s.lastDeleted = nil
	s.refreshLocked(ctx)
	if s.indexLocked(restored.ID) < 0 {
		s.insertLocked(restored)
	}
	err := s.persistLocked(ctx)
	snapshot, version := s.snapshotLocked(), s.bumpLocked()
	s.mu.Unlock()
	s.publish(snapshot, version)
	return restored, true, err
}

func (s *Store) List() []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Upcoming lists reminders that are not completed and still in the future.
func (s *Store) Upcoming(now time.Time) []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reminder, 0, len(s.items))
	for _, r := range s.items {
		if r.IsUpcoming(now) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) Get(id string) (model.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Reminder{}, false
	}
	return s.items[idx], true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) LastDeleted() (model.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastDeleted == nil {
		return model.Reminder{}, false
	}
	return *s.lastDeleted, true
}

// Subscribe registers fn for a snapshot after every mutation or reload. fn
// must not mutate the store.
func (s *Store) Subscribe(fn func([]model.Reminder)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) insertLocked(r model.Reminder) {
	pos, _ := slices.BinarySearchFunc(s.items, r, model.Compare)
	s.items = slices.Insert(s.items, pos, r)
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.items, func(r model.Reminder) bool { return r.ID == id })
}

func (s *Store) snapshotLocked() []model.Reminder {
	return slices.Clone(s.items)
}

func (s *Store) bumpLocked() uint64 {
	s.version++
	return s.version
}

func (s *Store) persistLocked(ctx context.Context) error {
	payload, err := Encode(s.items)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", storage.ErrStorageWrite, err)
	}
	if err := s.mirror.Put(ctx, s.key, payload); err != nil {
		s.dirty = true
		s.logger.Error("mirror write failed, keeping in-memory state", "key", s.key, "count", len(s.items), "error", err)
		if !errors.Is(err, storage.ErrStorageWrite) {
			err = fmt.Errorf("%w: %v", storage.ErrStorageWrite, err)
		}
		return err
	}
	s.dirty = false
	return nil
}

// publish delivers snapshots in version order; a snapshot overtaken by a
// newer one is dropped.
func (s *Store) publish(snapshot []model.Reminder, version uint64) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if version <= s.published {
		return
	}
	s.published = version
	s.mu.Lock()
	subs := make([]func([]model.Reminder), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(slices.Clone(snapshot))
	}
}
