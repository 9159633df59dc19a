package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/senpai-bg/senpai-client/internal/domain"
	"github.com/senpai-bg/senpai-client/internal/ports"
)

// Clés historiques du localStorage/sessionStorage du frontend. Stables pour
// rester compatibles avec un état déjà persisté.
const (
	keyToken        = "jwtToken"
	keyUser         = "user"
	keyWatchSession = "watch_sessionId"

	episodeCachePrefix = "watch_episodes_cache_"
)

// Store persiste la session auth et l'état de visionnage dans sqlite, à la
// manière du stockage navigateur: clé/valeur, tolérant aux données corrompues.
type Store struct {
	db     *sql.DB
	bus    ports.EventBus
	logger zerolog.Logger
}

func NewStore(db *sql.DB, bus ports.EventBus, logger zerolog.Logger) *Store {
	return &Store{db: db, bus: bus, logger: logger}
}

func (s *Store) Token(ctx context.Context) (string, error) {
	raw, err := s.get(ctx, keyToken)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", nil
	}
	if tokenExpired(raw) {
		// Un token manifestement périmé vaut absence: la prochaine requête
		// authentifiée partirait de toute façon sur un 401.
		return "", nil
	}
	return raw, nil
}

func (s *Store) User(ctx context.Context) (domain.Member, bool, error) {
	raw, err := s.get(ctx, keyUser)
	if err != nil {
		return domain.Member{}, false, err
	}
	if raw == "" {
		return domain.Member{}, false, nil
	}
	var m domain.Member
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		// Donnée corrompue: absente, jamais une erreur.
		s.logger.Warn().Msg("stored user record is corrupted, treating as absent")
		return domain.Member{}, false, nil
	}
	return m, true, nil
}

func (s *Store) SetSession(ctx context.Context, token string, user domain.Member) error {
	b, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.set(ctx, keyToken, token); err != nil {
		return err
	}
	return s.set(ctx, keyUser, string(b))
}

func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.delete(ctx, keyToken, keyUser); err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.Signal(ports.TopicForceLogout)
	}
	return nil
}

func (s *Store) WatchSessionID(ctx context.Context) (string, error) {
	return s.get(ctx, keyWatchSession)
}

func (s *Store) SetWatchSessionID(ctx context.Context, id string) error {
	return s.set(ctx, keyWatchSession, id)
}

func (s *Store) ClearWatchSessionID(ctx context.Context) error {
	return s.delete(ctx, keyWatchSession)
}

func (s *Store) EpisodeCache(ctx context.Context, animeID string) ([]byte, error) {
	raw, err := s.get(ctx, episodeCachePrefix+animeID)
	if err != nil || raw == "" {
		return nil, err
	}
	return []byte(raw), nil
}

func (s *Store) SetEpisodeCache(ctx context.Context, animeID string, blob []byte) error {
	return s.set(ctx, episodeCachePrefix+animeID, string(blob))
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM storage WHERE key = ?`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

func (s *Store) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO storage(key, value, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM storage WHERE key = ?`, key); err != nil {
			return err
		}
	}
	return nil
}

// tokenExpired inspecte le claim exp sans vérifier la signature (la
// vérification appartient au backend). Un token illisible est conservé tel
// quel.
func tokenExpired(raw string) bool {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	tok, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
