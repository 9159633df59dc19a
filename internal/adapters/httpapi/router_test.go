package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/senpai-bg/senpai-client/internal/adapters/localstore"
	"github.com/senpai-bg/senpai-client/internal/adapters/memorybus"
	"github.com/senpai-bg/senpai-client/internal/app"
	"github.com/senpai-bg/senpai-client/internal/domain"
	"github.com/senpai-bg/senpai-client/internal/gateway"
)

// newTestServer câble la pile complète sur un backend membre factice.
func newTestServer(t *testing.T, memberHandler http.Handler) (*Server, *app.AuthState, *localstore.Store) {
	t.Helper()
	memberTS := httptest.NewServer(memberHandler)
	t.Cleanup(memberTS.Close)

	ctx := context.Background()
	db, err := localstore.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	bus := memorybus.New()
	store := localstore.NewStore(db.SQL, bus, zerolog.Nop())
	gw := gateway.New(store, bus, zerolog.Nop(), memberTS.URL)

	memberAPI := app.NewMemberAPI(gw, memberTS.URL)
	catalogAPI := app.NewCatalogAPI(gw, memberTS.URL)
	auth := app.NewAuthState(store, memberAPI, bus, zerolog.Nop())
	watch := app.NewWatchManager(app.WatchDeps{
		Member: memberAPI, Catalog: catalogAPI,
		Source: app.NewEpisodeSourceAPI(gw, memberTS.URL, store, zerolog.Nop()),
		Video:  app.NewVideoAPI(gw, memberTS.URL, memberTS.URL, zerolog.Nop()),
		Auth:   auth, Store: store, Bus: bus, Logger: zerolog.Nop(),
	})
	return NewServer(zerolog.Nop(), auth, memberAPI, catalogAPI, watch, bus, nil), auth, store
}

func TestRouter_Health(t *testing.T) {
	srv, _, _ := newTestServer(t, http.NotFoundHandler())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
}

func TestRouter_LoginValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"x"}`))
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short username, got %d", rec.Code)
	}
	var fields map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &fields); err != nil {
		t.Fatalf("expected field errors body: %v", err)
	}
	if fields["username"] == "" || fields["password"] == "" {
		t.Fatalf("expected username+password field errors, got %v", fields)
	}
}

func TestRouter_LoginRoundTrip(t *testing.T) {
	member := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/member/login" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token":  "tok",
			"member": domain.Member{ID: 1, Username: "ivan", Role: domain.RoleUser, Active: true},
		})
	})
	srv, auth, store := newTestServer(t, member)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"ivan","password":"secret123"}`))
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	if _, ok := auth.Current(); !ok {
		t.Fatalf("auth state should be logged in")
	}
	if tok, _ := store.Token(context.Background()); tok != "tok" {
		t.Fatalf("token not persisted")
	}
}

func TestRouter_ProfileRequiresLogin(t *testing.T) {
	srv, _, _ := newTestServer(t, http.NotFoundHandler())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profile/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}
}

func TestRouter_AdminRequiresRole(t *testing.T) {
	srv, _, store := newTestServer(t, http.NotFoundHandler())
	_ = store.SetSession(context.Background(), "tok", domain.Member{Username: "ivan", Role: domain.RoleUser})
	srv.auth.Start(context.Background())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/members", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
}

func TestRouter_UnknownWatchVisitIs404(t *testing.T) {
	srv, _, _ := newTestServer(t, http.NotFoundHandler())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/watch/nope/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown visit, got %d", rec.Code)
	}
}
