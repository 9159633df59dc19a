package app

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/senpai-bg/senpai-client/internal/domain"
	"github.com/senpai-bg/senpai-client/internal/ports"
)

// AuthState est le contexte d'authentification global: une seule vérité
// partagée par toutes les pages. Les mutations passent par Login/Logout/
// SetUser; la convergence vers "déconnecté" est aussi pilotée par le signal
// force-logout diffusé par la passerelle.
type AuthState struct {
	store  ports.SessionStore
	member *MemberAPI
	bus    ports.EventBus
	logger zerolog.Logger

	mu       sync.RWMutex
	user     domain.Member
	loggedIn bool
}

func NewAuthState(store ports.SessionStore, member *MemberAPI, bus ports.EventBus, logger zerolog.Logger) *AuthState {
	return &AuthState{store: store, member: member, bus: bus, logger: logger}
}

// Start restaure la session persistée et s'abonne au signal force-logout.
// Si un token existe mais que l'enregistrement membre est absent ou
// incomplet, le profil est rechargé depuis le backend; un échec y laisse
// l'état déconnecté sans purger le token (la prochaine requête tranchera).
func (a *AuthState) Start(ctx context.Context) {
	go a.watchBus(ctx)

	token, err := a.store.Token(ctx)
	if err != nil || token == "" {
		return
	}
	user, ok, err := a.store.User(ctx)
	if err == nil && ok && user.Username != "" {
		a.setLoggedIn(user)
		return
	}

	m, ferr := a.member.Me(ctx)
	if ferr != nil {
		a.logger.Warn().Str("reason", ferr.Code).Msg("session restore: profile fetch failed")
		return
	}
	if err := a.store.SetSession(ctx, token, m); err != nil {
		a.logger.Error().Err(err).Msg("session restore: persist failed")
	}
	a.setLoggedIn(m)
}

func (a *AuthState) watchBus(ctx context.Context) {
	ch, cancel := a.bus.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if evt.Topic == ports.TopicForceLogout {
				a.mu.Lock()
				a.user = domain.Member{}
				a.loggedIn = false
				a.mu.Unlock()
			}
		}
	}
}

// Login authentifie, persiste la session et bascule l'état. Les erreurs de
// champ (map champ -> message) sont rendues telles quelles pour le formulaire.
func (a *AuthState) Login(ctx context.Context, username, password string) (domain.Member, map[string]string, *FlowError) {
	username = strings.TrimSpace(username)
	res, fields, ferr := a.member.Login(ctx, username, password)
	if ferr != nil {
		return domain.Member{}, fields, ferr
	}
	if err := a.store.SetSession(ctx, res.Token, res.Member); err != nil {
		return domain.Member{}, nil, &FlowError{Code: CodeBadData, Message: "Грешка при запазване на сесията.", Err: err}
	}
	a.setLoggedIn(res.Member)
	return res.Member, nil, nil
}

// Logout purge la session persistée. Le broadcast force-logout du store fait
// converger l'état en mémoire; on le bascule aussi directement pour que
// l'appelant observe la déconnexion sans course.
func (a *AuthState) Logout(ctx context.Context) {
	if err := a.store.ClearSession(ctx); err != nil {
		a.logger.Error().Err(err).Msg("logout: clear session failed")
	}
	a.mu.Lock()
	a.user = domain.Member{}
	a.loggedIn = false
	a.mu.Unlock()
}

func (a *AuthState) Current() (domain.Member, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user, a.loggedIn
}

// SetUser remplace le membre courant (après mise à jour du profil) et le
// repersiste avec le token existant.
func (a *AuthState) SetUser(ctx context.Context, m domain.Member) {
	token, err := a.store.Token(ctx)
	if err == nil && token != "" {
		if err := a.store.SetSession(ctx, token, m); err != nil {
			a.logger.Error().Err(err).Msg("set user: persist failed")
		}
	}
	a.setLoggedIn(m)
}

func (a *AuthState) setLoggedIn(m domain.Member) {
	a.mu.Lock()
	a.user = m
	a.loggedIn = true
	a.mu.Unlock()
}
