package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/senpai-bg/senpai-client/internal/adapters/localstore"
	"github.com/senpai-bg/senpai-client/internal/adapters/memorybus"
	"github.com/senpai-bg/senpai-client/internal/domain"
	"github.com/senpai-bg/senpai-client/internal/ports"
)

func newTestGateway(t *testing.T, ownedURLs ...string) (*Gateway, *localstore.Store, *memorybus.Bus) {
	t.Helper()
	ctx := context.Background()
	db, err := localstore.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	bus := memorybus.New()
	store := localstore.NewStore(db.SQL, bus, zerolog.Nop())
	return New(store, bus, zerolog.Nop(), ownedURLs...), store, bus
}

func mustRequest(t *testing.T, method, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func collectTopics(ch <-chan ports.Event, wait time.Duration) map[string]int {
	seen := map[string]int{}
	deadline := time.After(wait)
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return seen
			}
			seen[evt.Topic]++
		case <-deadline:
			return seen
		}
	}
}

func TestGateway_AttachesBearerForOwnedHost(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	g, store, _ := newTestGateway(t, ts.URL)
	_ = store.SetSession(context.Background(), "tok", domain.Member{Username: "ivan"})

	res := g.Do(mustRequest(t, http.MethodGet, ts.URL+"/api/v1/member/me"), Options{})
	if !res.OK {
		t.Fatalf("expected ok result, got %+v", res)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestGateway_SkipsBearerForExternalHost(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	// ts n'est pas déclaré comme hôte possédé.
	g, store, _ := newTestGateway(t, "http://localhost:8080")
	_ = store.SetSession(context.Background(), "tok", domain.Member{Username: "ivan"})

	g.Do(mustRequest(t, http.MethodGet, ts.URL+"/api/v1/home"), Options{})
	if gotAuth != "" {
		t.Fatalf("external API must not receive the token, got %q", gotAuth)
	}
}

func TestGateway_401ClearsSessionAndNavigatesToLogin(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	g, store, bus := newTestGateway(t, ts.URL)
	_ = store.SetSession(context.Background(), "tok", domain.Member{Username: "ivan"})
	ch, cancel := bus.Subscribe()
	defer cancel()

	res := g.Do(mustRequest(t, http.MethodGet, ts.URL+"/api/v1/favourite"), Options{})

	// La réponse échouée est rendue à l'appelant, pas avalée.
	if res.OK || res.Status != http.StatusUnauthorized {
		t.Fatalf("expected the failed 401 result, got %+v", res)
	}
	if tok, _ := store.Token(context.Background()); tok != "" {
		t.Fatalf("persisted token should be removed")
	}
	topics := collectTopics(ch, 200*time.Millisecond)
	if topics[ports.TopicForceLogout] == 0 {
		t.Fatalf("expected force-logout broadcast, got %v", topics)
	}
	if topics[ports.TopicNavigate] == 0 {
		t.Fatalf("expected navigation to /login, got %v", topics)
	}
}

func TestGateway_403MeansBannedUnlessAllowed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	g, store, _ := newTestGateway(t, ts.URL)
	_ = store.SetSession(context.Background(), "tok", domain.Member{Username: "ivan"})

	// Site d'appel quota: le 403 revient à l'appelant, session intacte.
	res := g.Do(mustRequest(t, http.MethodPost, ts.URL+"/api/v1/subtitles"), Options{AllowForbidden: true})
	if res.Status != http.StatusForbidden {
		t.Fatalf("expected 403 result, got %+v", res)
	}
	if tok, _ := store.Token(context.Background()); tok == "" {
		t.Fatalf("quota 403 must not evict the session")
	}

	// Sans opt-out: bannissement.
	g.Do(mustRequest(t, http.MethodGet, ts.URL+"/api/v1/member/me"), Options{})
	if tok, _ := store.Token(context.Background()); tok != "" {
		t.Fatalf("ban 403 must evict the session")
	}
}

func TestGateway_NetworkFailureReturnsSyntheticResult(t *testing.T) {
	g, _, _ := newTestGateway(t, "http://localhost:8080")

	res := g.Do(mustRequest(t, http.MethodGet, "http://127.0.0.1:1/unreachable"), Options{})
	if res.OK || res.Status != 0 || !res.NetworkError {
		t.Fatalf("expected synthetic {ok:false,status:0} result, got %+v", res)
	}
}

func TestGateway_ServerDownFiresOnce(t *testing.T) {
	g, _, bus := newTestGateway(t, "http://localhost:8080")
	ch, cancel := bus.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Do(mustRequest(t, http.MethodGet, "http://127.0.0.1:1/unreachable"), Options{})
		}()
	}
	wg.Wait()

	topics := collectTopics(ch, 200*time.Millisecond)
	if topics[ports.TopicServerDown] != 1 {
		t.Fatalf("server-down must fire exactly once, got %d", topics[ports.TopicServerDown])
	}
}

func TestGateway_LatchRearmsAfterRecovery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	g, _, bus := newTestGateway(t, "http://localhost:8080")
	ch, cancel := bus.Subscribe()
	defer cancel()

	g.Do(mustRequest(t, http.MethodGet, "http://127.0.0.1:1/unreachable"), Options{})
	// Le backend répond de nouveau: le latch se réarme.
	g.Do(mustRequest(t, http.MethodGet, ts.URL+"/ok"), Options{})
	g.Do(mustRequest(t, http.MethodGet, "http://127.0.0.1:1/unreachable"), Options{})

	topics := collectTopics(ch, 200*time.Millisecond)
	if topics[ports.TopicServerDown] != 2 {
		t.Fatalf("expected two server-down trips across recovery, got %d", topics[ports.TopicServerDown])
	}
}

func TestGateway_500FunnelsToServerDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	g, _, bus := newTestGateway(t, ts.URL)
	ch, cancel := bus.Subscribe()
	defer cancel()

	res := g.Do(mustRequest(t, http.MethodGet, ts.URL+"/api/v1/anime"), Options{})
	if res.OK || res.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 result, got %+v", res)
	}
	topics := collectTopics(ch, 200*time.Millisecond)
	if topics[ports.TopicServerDown] != 1 {
		t.Fatalf("500 should trip server-down, got %v", topics)
	}
}
