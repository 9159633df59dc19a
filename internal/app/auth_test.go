package app

import (
	"context"
	"testing"
	"time"

	"github.com/senpai-bg/senpai-client/internal/domain"
)

func TestAuth_LoginPersistsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m, fields, ferr := env.auth.Login(ctx, "ivan", "secret")
	if ferr != nil || len(fields) > 0 {
		t.Fatalf("Login: %v %v", ferr, fields)
	}
	if m.Username != "ivan" {
		t.Fatalf("unexpected member %+v", m)
	}
	if tok, _ := env.store.Token(ctx); tok != "tok-ivan" {
		t.Fatalf("token not persisted, got %q", tok)
	}
	if _, ok := env.auth.Current(); !ok {
		t.Fatalf("auth state should be logged in")
	}
}

func TestAuth_BadCredentialsDoNotEvict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, "ivan")

	// Un 401 sur /login signifie "mauvais identifiants": la session en cours
	// ne doit pas être purgée par la passerelle.
	_, _, ferr := env.auth.Login(ctx, "ivan", "wrong")
	if ferr == nil {
		t.Fatalf("expected login failure")
	}
	if tok, _ := env.store.Token(ctx); tok == "" {
		t.Fatalf("failed login must not evict the existing session")
	}
}

func TestAuth_StartRestoresPersistedSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.store.SetSession(ctx, "tok", domain.Member{Username: "maria", Role: domain.RoleUser})

	env.auth.Start(ctx)
	user, ok := env.auth.Current()
	if !ok || user.Username != "maria" {
		t.Fatalf("expected restored session, got %+v ok=%v", user, ok)
	}
}

func TestAuth_ForceLogoutConverges(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env.login(t, "ivan")
	env.auth.Start(ctx)

	// La purge du store diffuse force-logout; l'état global doit converger
	// vers "déconnecté" sans intervention de la page.
	_ = env.store.ClearSession(ctx)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := env.auth.Current(); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("auth state did not converge to logged-out")
}
