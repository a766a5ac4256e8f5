package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// mock DB layer
// ---------------------------------------------------------------------------

// mockPGRow implements the pgRow interface for testing.
type mockPGRow struct {
	data    []byte
	scanErr error
	noRows  bool
}

func (r *mockPGRow) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	if r.noRows {
		return errors.New("no rows in result set")
	}
	if len(dest) > 0 {
		if b, ok := dest[0].(*[]byte); ok {
			*b = r.data
		}
	}
	return nil
}

// mockPGConn implements the pgConn interface for testing.
type mockPGConn struct {
	mu       sync.Mutex
	store    map[string]mockEntry
	queryErr error
	execErr  error
}

type mockEntry struct {
	data      []byte
	expiresAt time.Time
}

func newMockPGConn() *mockPGConn {
	return &mockPGConn{store: make(map[string]mockEntry)}
}

func (m *mockPGConn) QueryRow(ctx context.Context, sql string, args ...any) pgRow {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queryErr != nil {
		return &mockPGRow{scanErr: m.queryErr}
	}

	if len(args) == 0 {
		return &mockPGRow{noRows: true}
	}

	sid, ok := args[0].(string)
	if !ok {
		return &mockPGRow{noRows: true}
	}

	entry, exists := m.store[sid]
	if !exists {
		return &mockPGRow{noRows: true}
	}

	if time.Now().After(entry.expiresAt) {
		delete(m.store, sid)
		return &mockPGRow{noRows: true}
	}

	return &mockPGRow{data: entry.data}
}

func (m *mockPGConn) Exec(ctx context.Context, sql string, args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.execErr != nil {
		return m.execErr
	}

	if strings.HasPrefix(sql, "INSERT") {
		if len(args) >= 3 {
			sid, _ := args[0].(string)
			data, _ := args[1].([]byte)
			expiresAt, _ := args[2].(time.Time)
			m.store[sid] = mockEntry{data: data, expiresAt: expiresAt}
		}
		return nil
	}

	if strings.HasPrefix(sql, "DELETE") {
		// Keyed delete
		if len(args) == 1 {
			if sid, ok := args[0].(string); ok {
				delete(m.store, sid)
			}
			return nil
		}
		// Cleanup of expired rows
		now := time.Now()
		for k, v := range m.store {
			if now.After(v.expiresAt) {
				delete(m.store, k)
			}
		}
		return nil
	}

	return nil
}

// ---------------------------------------------------------------------------
// PGStore tests
// ---------------------------------------------------------------------------

func TestPGStore_SaveAndGet(t *testing.T) {
	store := NewPGStore(newMockPGConn(), 5*time.Minute)
	ctx := context.Background()

	sess := &Session{
		Claims:       Claims{Subject: "user-123", Email: "a@b.com"},
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}

	if err := store.Save(ctx, "sid-1", sess); err != nil {
		t.Fatalf("Save: unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("Get: expected non-nil session")
	}
	if got.Claims.Subject != "user-123" {
		t.Errorf("Subject = %q, want %q", got.Claims.Subject, "user-123")
	}
	if got.RefreshToken != "rt" {
		t.Errorf("RefreshToken = %q, want %q", got.RefreshToken, "rt")
	}
}

func TestPGStore_GetNonExistent(t *testing.T) {
	store := NewPGStore(newMockPGConn(), 5*time.Minute)

	got, err := store.Get(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("Get: expected nil for non-existent key, got %+v", got)
	}
}

func TestPGStore_SaveOverwrites(t *testing.T) {
	store := NewPGStore(newMockPGConn(), 5*time.Minute)
	ctx := context.Background()

	store.Save(ctx, "sid-ow", &Session{Claims: Claims{Subject: "first"}})
	store.Save(ctx, "sid-ow", &Session{Claims: Claims{Subject: "second"}})

	got, err := store.Get(ctx, "sid-ow")
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if got == nil || got.Claims.Subject != "second" {
		t.Errorf("expected last write to win, got %+v", got)
	}
}

func TestPGStore_Delete(t *testing.T) {
	store := NewPGStore(newMockPGConn(), 5*time.Minute)
	ctx := context.Background()

	store.Save(ctx, "sid-del", &Session{Claims: Claims{Subject: "x"}})
	if err := store.Delete(ctx, "sid-del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, _ := store.Get(ctx, "sid-del")
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestPGStore_Cleanup(t *testing.T) {
	mock := newMockPGConn()
	store := NewPGStore(mock, 50*time.Millisecond)
	ctx := context.Background()

	store.Save(ctx, "sid-1", &Session{Claims: Claims{Subject: "p1"}})
	store.Save(ctx, "sid-2", &Session{Claims: Claims{Subject: "p2"}})

	time.Sleep(100 * time.Millisecond)

	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if got, _ := store.Get(ctx, "sid-1"); got != nil {
		t.Error("expected nil after cleanup for sid-1")
	}
	if got, _ := store.Get(ctx, "sid-2"); got != nil {
		t.Error("expected nil after cleanup for sid-2")
	}
}

func TestPGStore_SaveError(t *testing.T) {
	mock := newMockPGConn()
	mock.execErr = errors.New("db write failed")
	store := NewPGStore(mock, 5*time.Minute)

	if err := store.Save(context.Background(), "sid-err", &Session{}); err == nil {
		t.Fatal("expected error from Save when DB fails")
	}
}

func TestPGStore_GetError(t *testing.T) {
	mock := newMockPGConn()
	mock.queryErr = errors.New("db read failed")
	store := NewPGStore(mock, 5*time.Minute)

	if _, err := store.Get(context.Background(), "sid-err"); err == nil {
		t.Fatal("expected error from Get when DB fails")
	}
}
