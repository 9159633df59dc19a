package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/rs/zerolog"

	"github.com/senpai-bg/senpai-client/internal/domain"
	"github.com/senpai-bg/senpai-client/internal/gateway"
	"github.com/senpai-bg/senpai-client/internal/ports"
)

// EpisodeSourceAPI est le client de la source d'épisodes (liens de lecture
// par titre). API non possédée et fragile: un limiteur de débit la protège
// de nos rafales, et les listes résolues sont mises en cache en mémoire puis
// persistées pour survivre au redémarrage.
type EpisodeSourceAPI struct {
	gw      *gateway.Gateway
	baseURL string
	store   ports.SessionStore
	cache   *gocache.Cache
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func NewEpisodeSourceAPI(gw *gateway.Gateway, baseURL string, store ports.SessionStore, logger zerolog.Logger) *EpisodeSourceAPI {
	return &EpisodeSourceAPI{
		gw:      gw,
		baseURL: trimBase(baseURL),
		store:   store,
		cache:   gocache.New(15*time.Minute, 30*time.Minute),
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 3),
		logger:  logger,
	}
}

type sourceSearchHit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ResolveEpisodes cherche l'anime par titre puis renvoie ses épisodes avec
// leurs URL de lecture. cacheKey identifie l'anime côté client (l'id du
// catalogue), pour le cache persisté.
func (a *EpisodeSourceAPI) ResolveEpisodes(ctx context.Context, cacheKey, title string) ([]domain.Episode, *FlowError) {
	if eps, ok := a.cached(ctx, cacheKey); ok {
		return eps, nil
	}

	hit, ferr := a.bestMatch(ctx, title)
	if ferr != nil {
		return nil, ferr
	}
	eps, ferr := a.episodesOf(ctx, hit.ID)
	if ferr != nil {
		return nil, ferr
	}
	a.remember(ctx, cacheKey, eps)
	return eps, nil
}

// bestMatch prend le premier résultat dont le titre correspond exactement
// (insensible à la casse, espaces rognés), sinon le premier tout court.
// Les heuristiques plus fines n'ont pas amélioré le taux de bonne réponse.
func (a *EpisodeSourceAPI) bestMatch(ctx context.Context, title string) (sourceSearchHit, *FlowError) {
	res, ferr := a.get(ctx, "/anime/animepahe/"+url.PathEscape(strings.TrimSpace(title)))
	if ferr != nil {
		return sourceSearchHit{}, ferr
	}
	var env struct {
		Results []sourceSearchHit `json:"results"`
	}
	if err := res.Decode(&env); err != nil || len(env.Results) == 0 {
		return sourceSearchHit{}, &FlowError{Code: CodeBadData, Message: "Анимето не е намерено в източника.", Err: err}
	}
	want := strings.TrimSpace(title)
	for _, hit := range env.Results {
		if strings.EqualFold(strings.TrimSpace(hit.Title), want) {
			return hit, nil
		}
	}
	return env.Results[0], nil
}

func (a *EpisodeSourceAPI) episodesOf(ctx context.Context, sourceID string) ([]domain.Episode, *FlowError) {
	res, ferr := a.get(ctx, "/anime/animepahe/info/"+url.PathEscape(sourceID))
	if ferr != nil {
		return nil, ferr
	}
	var env struct {
		Episodes []struct {
			ID     string  `json:"id"`
			Number float64 `json:"number"`
			Title  string  `json:"title"`
			URL    string  `json:"url"`
		} `json:"episodes"`
	}
	if err := res.Decode(&env); err != nil {
		return nil, &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на епизодите от източника.", Err: err}
	}
	eps := make([]domain.Episode, 0, len(env.Episodes))
	for _, e := range env.Episodes {
		u := e.URL
		if u == "" {
			u = e.ID
		}
		eps = append(eps, domain.Episode{ID: e.ID, Number: int(e.Number), Title: e.Title, URL: u})
	}
	if len(eps) == 0 {
		return nil, &FlowError{Code: CodeBadData, Message: "Източникът не върна епизоди."}
	}
	return eps, nil
}

// --- Cache mémoire + persisté ---

func (a *EpisodeSourceAPI) cached(ctx context.Context, cacheKey string) ([]domain.Episode, bool) {
	if v, ok := a.cache.Get(cacheKey); ok {
		if eps, ok := v.([]domain.Episode); ok {
			return eps, true
		}
	}
	blob, err := a.store.EpisodeCache(ctx, cacheKey)
	if err != nil || len(blob) == 0 {
		return nil, false
	}
	var eps []domain.Episode
	if err := json.Unmarshal(blob, &eps); err != nil || len(eps) == 0 {
		return nil, false
	}
	a.cache.SetDefault(cacheKey, eps)
	return eps, true
}

func (a *EpisodeSourceAPI) remember(ctx context.Context, cacheKey string, eps []domain.Episode) {
	a.cache.SetDefault(cacheKey, eps)
	blob, err := json.Marshal(eps)
	if err != nil {
		return
	}
	if err := a.store.SetEpisodeCache(ctx, cacheKey, blob); err != nil {
		a.logger.Warn().Err(err).Str("anime", cacheKey).Msg("episode cache persist failed")
	}
}

func (a *EpisodeSourceAPI) get(ctx context.Context, path string) (gateway.Result, *FlowError) {
	if err := a.limiter.Wait(ctx); err != nil {
		return gateway.Result{}, &FlowError{Code: CodeNetwork, Message: "Заявката беше прекъсната.", Err: err}
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return res, networkFlowError("Няма връзка с източника на епизоди.")
	}
	if !res.OK {
		return res, statusFlowError(res.Status, "Грешка при зареждане от източника на епизоди.")
	}
	return res, nil
}
