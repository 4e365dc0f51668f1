package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"quotedojo/internal/puzzle"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the four save slots as JSON values in one key/value table.
type SQLiteStore struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS save_slots (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_ts TEXT NOT NULL DEFAULT ''
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) LoadActivePuzzle(ctx context.Context, level int) (*ActiveSave, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok, err := s.activeLevel(ctx, s.db)
	if err != nil || !ok || active != level {
		return nil, err
	}
	raw, ok, err := s.get(ctx, s.db, keyActiveProgress)
	if err != nil || !ok {
		return nil, err
	}
	var rec ProgressRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.Level != level {
		if clearErr := s.clearActive(ctx, s.db); clearErr != nil {
			return nil, fmt.Errorf("discard corrupt save: %w", clearErr)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
		}
		return nil, ErrCorruptSave
	}

	out := &ActiveSave{Progress: normalizeRecord(rec)}
	rawTimer, ok, err := s.get(ctx, s.db, keyActiveTimer)
	if err != nil {
		return nil, err
	}
	if ok {
		if n, err := strconv.Atoi(rawTimer); err == nil && n > 0 {
			out.Seconds = n
		}
	}
	return out, nil
}

func (s *SQLiteStore) BeginFreshPuzzle(ctx context.Context, level int, prefilled []puzzle.Guess) (err error) {
	rec, err := json.Marshal(normalizeRecord(ProgressRecord{Level: level, Guessed: prefilled}))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = s.clearActive(ctx, tx); err != nil {
		return err
	}
	if err = s.put(ctx, tx, keyActiveLevel, strconv.Itoa(level)); err != nil {
		return err
	}
	if err = s.put(ctx, tx, keyActiveProgress, string(rec)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) PersistProgress(ctx context.Context, level int, guessed, wrong []puzzle.Guess) error {
	rec, err := json.Marshal(normalizeRecord(ProgressRecord{Level: level, Guessed: guessed, Wrong: wrong}))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	active, ok, err := s.activeLevel(ctx, s.db)
	if err != nil {
		return err
	}
	if !ok || active != level {
		return fmt.Errorf("persist progress for level %d: %w", level, ErrNotActive)
	}
	return s.put(ctx, s.db, keyActiveProgress, string(rec))
}

func (s *SQLiteStore) PersistTick(ctx context.Context, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(ctx, s.db, keyActiveTimer, strconv.Itoa(max(0, seconds)))
}

func (s *SQLiteStore) ClearTick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM save_slots WHERE key = ?`, keyActiveTimer)
	return err
}

func (s *SQLiteStore) ClearActiveSave(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearActive(ctx, s.db)
}

func (s *SQLiteStore) ActiveLevel(ctx context.Context) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLevel(ctx, s.db)
}

func (s *SQLiteStore) Resumable(ctx context.Context) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, ok, err := s.activeLevel(ctx, s.db)
	if err != nil || !ok {
		return 0, false, err
	}
	raw, ok, err := s.get(ctx, s.db, keyActiveProgress)
	if err != nil || !ok {
		return 0, false, err
	}
	var rec ProgressRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.Level != active {
		return 0, false, nil
	}
	return active, true, nil
}

func (s *SQLiteStore) LoadUnlock(ctx context.Context) (UnlockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadUnlock(ctx, s.db)
}

func (s *SQLiteStore) AdvanceUnlock(ctx context.Context, level int) (out UnlockRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UnlockRecord{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	current, err := s.loadUnlock(ctx, tx)
	if err != nil {
		return UnlockRecord{}, err
	}
	next := current.advance(level)
	if next == current {
		return current, tx.Commit()
	}
	b, err := json.Marshal(next)
	if err != nil {
		return UnlockRecord{}, err
	}
	if err = s.put(ctx, tx, keyUnlock, string(b)); err != nil {
		return UnlockRecord{}, err
	}
	if err = tx.Commit(); err != nil {
		return UnlockRecord{}, err
	}
	return next, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) loadUnlock(ctx context.Context, q execQueryer) (UnlockRecord, error) {
	raw, ok, err := s.get(ctx, q, keyUnlock)
	if err != nil || !ok {
		return UnlockRecord{}, err
	}
	var rec UnlockRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return UnlockRecord{}, fmt.Errorf("decode unlock record: %w", err)
	}
	if rec.UnlockedLevel < 0 {
		rec.UnlockedLevel = 0
	}
	return rec, nil
}

func (s *SQLiteStore) activeLevel(ctx context.Context, q execQueryer) (int, bool, error) {
	raw, ok, err := s.get(ctx, q, keyActiveLevel)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func (s *SQLiteStore) clearActive(ctx context.Context, q execQueryer) error {
	_, err := q.ExecContext(ctx, `DELETE FROM save_slots WHERE key IN (?, ?)`, keyActiveProgress, keyActiveTimer)
	return err
}

func (s *SQLiteStore) get(ctx context.Context, q execQueryer, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM save_slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) put(ctx context.Context, q execQueryer, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO save_slots(key, value, updated_ts) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_ts = excluded.updated_ts
	`, key, value, s.now().UTC().Format(timeLayout))
	return err
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

var _ ProgressStore = (*SQLiteStore)(nil)
