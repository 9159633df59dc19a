package localstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/senpai-bg/senpai-client/internal/adapters/memorybus"
	"github.com/senpai-bg/senpai-client/internal/domain"
	"github.com/senpai-bg/senpai-client/internal/ports"
)

func newTestStore(t *testing.T) (*Store, *memorybus.Bus) {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	bus := memorybus.New()
	return NewStore(db.SQL, bus, zerolog.Nop()), bus
}

func TestStore_SetAndClearSession(t *testing.T) {
	store, bus := newTestStore(t)
	ctx := context.Background()

	member := domain.Member{ID: 7, Username: "ivan", Role: domain.RoleUser, Active: true}
	if err := store.SetSession(ctx, "tok-123", member); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	tok, err := store.Token(ctx)
	if err != nil || tok != "tok-123" {
		t.Fatalf("Token: got %q, %v", tok, err)
	}
	got, ok, err := store.User(ctx)
	if err != nil || !ok {
		t.Fatalf("User: ok=%v err=%v", ok, err)
	}
	if got.Username != "ivan" || got.ID != 7 {
		t.Fatalf("unexpected user: %+v", got)
	}

	ch, cancel := bus.Subscribe()
	defer cancel()

	if err := store.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.Topic != ports.TopicForceLogout {
			t.Fatalf("topic: want %s, got %s", ports.TopicForceLogout, evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected force-logout broadcast")
	}

	if tok, _ := store.Token(ctx); tok != "" {
		t.Fatalf("token should be cleared, got %q", tok)
	}
	if _, ok, _ := store.User(ctx); ok {
		t.Fatalf("user should be cleared")
	}
}

func TestStore_CorruptedUserTreatedAsAbsent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.set(ctx, keyUser, `{"username": not-json`); err != nil {
		t.Fatalf("set: %v", err)
	}

	_, ok, err := store.User(ctx)
	if err != nil {
		t.Fatalf("corrupted user must not error: %v", err)
	}
	if ok {
		t.Fatalf("corrupted user must read as absent")
	}
}

func TestStore_ExpiredJWTReadsAsAbsent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	expired := fakeJWT(t, time.Now().Add(-time.Hour))
	if err := store.set(ctx, keyToken, expired); err != nil {
		t.Fatalf("set: %v", err)
	}
	if tok, _ := store.Token(ctx); tok != "" {
		t.Fatalf("expired token should read as absent, got %q", tok)
	}

	valid := fakeJWT(t, time.Now().Add(time.Hour))
	if err := store.set(ctx, keyToken, valid); err != nil {
		t.Fatalf("set: %v", err)
	}
	if tok, _ := store.Token(ctx); tok != valid {
		t.Fatalf("valid token should be returned")
	}
}

func TestStore_OpaqueTokenKeptAsIs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.set(ctx, keyToken, "not-a-jwt"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if tok, _ := store.Token(ctx); tok != "not-a-jwt" {
		t.Fatalf("opaque token should pass through, got %q", tok)
	}
}

func TestStore_WatchSessionAndEpisodeCache(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.SetWatchSessionID(ctx, "s1"); err != nil {
		t.Fatalf("SetWatchSessionID: %v", err)
	}
	if id, _ := store.WatchSessionID(ctx); id != "s1" {
		t.Fatalf("watch session: want s1, got %q", id)
	}
	if err := store.ClearWatchSessionID(ctx); err != nil {
		t.Fatalf("ClearWatchSessionID: %v", err)
	}
	if id, _ := store.WatchSessionID(ctx); id != "" {
		t.Fatalf("watch session should be cleared")
	}

	blob := []byte(`{"episodes":[{"id":"ep-1","url":"https://x/1"}]}`)
	if err := store.SetEpisodeCache(ctx, "anime-42", blob); err != nil {
		t.Fatalf("SetEpisodeCache: %v", err)
	}
	got, err := store.EpisodeCache(ctx, "anime-42")
	if err != nil {
		t.Fatalf("EpisodeCache: %v", err)
	}
	if string(got) != string(blob) {
		t.Fatalf("cache roundtrip mismatch")
	}
	if other, _ := store.EpisodeCache(ctx, "anime-43"); other != nil {
		t.Fatalf("cache for another anime should be empty")
	}
}

// fakeJWT fabrique un token non signé mais parsable (header.claims.sig).
func fakeJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return base64.RawURLEncoding.EncodeToString(b)
	}
	header := enc(map[string]string{"alg": "HS256", "typ": "JWT"})
	claims := enc(map[string]any{"sub": "ivan", "exp": exp.Unix()})
	return fmt.Sprintf("%s.%s.sig", header, claims)
}
