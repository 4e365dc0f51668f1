package state

import (
	"context"
	"sync"

	"quotedojo/internal/puzzle"
)

// MemoryStore is a ProgressStore that lives for the process only. Used for
// --ephemeral sessions and tests.
type MemoryStore struct {
	mu          sync.Mutex
	activeLevel *int
	progress    *ProgressRecord
	seconds     *int
	unlock      UnlockRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LoadActivePuzzle(_ context.Context, level int) (*ActiveSave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeLevel == nil || *m.activeLevel != level || m.progress == nil {
		return nil, nil
	}
	if m.progress.Level != level {
		m.progress, m.seconds = nil, nil
		return nil, ErrCorruptSave
	}
	out := &ActiveSave{Progress: cloneRecord(*m.progress)}
	if m.seconds != nil {
		out.Seconds = *m.seconds
	}
	return out, nil
}

func (m *MemoryStore) BeginFreshPuzzle(_ context.Context, level int, prefilled []puzzle.Guess) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lv := level
	rec := cloneRecord(ProgressRecord{Level: level, Guessed: prefilled})
	m.activeLevel = &lv
	m.progress = &rec
	m.seconds = nil
	return nil
}

func (m *MemoryStore) PersistProgress(_ context.Context, level int, guessed, wrong []puzzle.Guess) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeLevel == nil || *m.activeLevel != level {
		return ErrNotActive
	}
	rec := cloneRecord(ProgressRecord{Level: level, Guessed: guessed, Wrong: wrong})
	m.progress = &rec
	return nil
}

func (m *MemoryStore) PersistTick(_ context.Context, seconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := max(0, seconds)
	m.seconds = &s
	return nil
}

func (m *MemoryStore) ClearTick(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seconds = nil
	return nil
}

func (m *MemoryStore) ClearActiveSave(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress, m.seconds = nil, nil
	return nil
}

func (m *MemoryStore) ActiveLevel(context.Context) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeLevel == nil {
		return 0, false, nil
	}
	return *m.activeLevel, true, nil
}

func (m *MemoryStore) Resumable(context.Context) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeLevel == nil || m.progress == nil || m.progress.Level != *m.activeLevel {
		return 0, false, nil
	}
	return *m.activeLevel, true, nil
}

func (m *MemoryStore) LoadUnlock(context.Context) (UnlockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unlock, nil
}

func (m *MemoryStore) AdvanceUnlock(_ context.Context, level int) (UnlockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlock = m.unlock.advance(level)
	return m.unlock, nil
}

func (m *MemoryStore) Close() error { return nil }

func cloneRecord(rec ProgressRecord) ProgressRecord {
	rec.Guessed = append([]puzzle.Guess{}, rec.Guessed...)
	rec.Wrong = append([]puzzle.Guess{}, rec.Wrong...)
	return rec
}

var _ ProgressStore = (*MemoryStore)(nil)
