package ports

import (
	"context"

	"github.com/senpai-bg/senpai-client/internal/domain"
)

// SessionStore persiste le token d'auth et le membre courant, comme le
// localStorage du navigateur. Les clés persistées gardent les noms historiques
// (jwtToken, user, watch_sessionId, watch_episodes_cache_<id>) pour rester
// compatibles avec un état existant.
type SessionStore interface {
	// Token renvoie "" si absent ou manifestement expiré.
	Token(ctx context.Context) (string, error)
	// User renvoie (zero, false) si absent ou corrompu — jamais d'erreur de
	// parsing.
	User(ctx context.Context) (domain.Member, bool, error)
	SetSession(ctx context.Context, token string, user domain.Member) error
	// ClearSession efface token + membre et diffuse le signal force-logout.
	ClearSession(ctx context.Context) error

	// Session de lecture active (une par onglet).
	WatchSessionID(ctx context.Context) (string, error)
	SetWatchSessionID(ctx context.Context, id string) error
	ClearWatchSessionID(ctx context.Context) error

	// Blob d'épisodes mis en cache par anime.
	EpisodeCache(ctx context.Context, animeID string) ([]byte, error)
	SetEpisodeCache(ctx context.Context, animeID string, blob []byte) error
}
