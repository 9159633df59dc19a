package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/senpai-bg/senpai-client/internal/domain"
	"github.com/senpai-bg/senpai-client/internal/gateway"
)

// CatalogAPI est le client du catalogue externe (métadonnées, listes
// d'épisodes par hianimeId, pistes de streaming). API non possédée: la
// passerelle ne lui envoie jamais notre token.
//
// Les listes home/top-airing/search sont servies depuis un cache LRU à TTL
// court: le catalogue change lentement et l'UI les redemande à chaque
// navigation.
type CatalogAPI struct {
	gw      *gateway.Gateway
	baseURL string
	cache   *lru.LRU[string, []byte]
}

const catalogCacheTTL = 5 * time.Minute

func NewCatalogAPI(gw *gateway.Gateway, baseURL string) *CatalogAPI {
	return &CatalogAPI{
		gw:      gw,
		baseURL: trimBase(baseURL),
		cache:   lru.NewLRU[string, []byte](128, nil, catalogCacheTTL),
	}
}

type AnimeCard struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Poster   string `json:"poster"`
	Type     string `json:"type,omitempty"`
	Episodes struct {
		Sub int `json:"sub"`
		Dub int `json:"dub"`
	} `json:"episodes"`
}

type HomePage struct {
	Spotlight []AnimeCard `json:"spotlightAnimes"`
	Trending  []AnimeCard `json:"trendingAnimes"`
	Latest    []AnimeCard `json:"latestEpisodeAnimes"`
	TopAiring []AnimeCard `json:"topAiringAnimes"`
}

type AnimeDetails struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Poster      string   `json:"poster"`
	Description string   `json:"description"`
	Genres      []string `json:"genres"`
	Type        string   `json:"type,omitempty"`
	Status      string   `json:"status,omitempty"`
	Aired       string   `json:"aired,omitempty"`
	TotalEps    int      `json:"totalEpisodes,omitempty"`
}

type SearchPage struct {
	Animes      []AnimeCard `json:"animes"`
	CurrentPage int         `json:"currentPage"`
	HasNextPage bool        `json:"hasNextPage"`
	TotalPages  int         `json:"totalPages"`
}

func (a *CatalogAPI) Home(ctx context.Context) (HomePage, *FlowError) {
	var page HomePage
	if ferr := a.cachedGet(ctx, "/api/v1/home", &page); ferr != nil {
		return HomePage{}, ferr
	}
	return page, nil
}

func (a *CatalogAPI) Anime(ctx context.Context, id string) (AnimeDetails, *FlowError) {
	var env struct {
		Anime struct {
			Info AnimeDetails `json:"info"`
		} `json:"anime"`
	}
	if ferr := a.cachedGet(ctx, "/api/v1/anime/"+url.PathEscape(id), &env); ferr != nil {
		return AnimeDetails{}, ferr
	}
	if env.Anime.Info.ID == "" {
		env.Anime.Info.ID = id
	}
	return env.Anime.Info, nil
}

func (a *CatalogAPI) TopAiring(ctx context.Context, page int) (SearchPage, *FlowError) {
	var out SearchPage
	path := "/api/v1/top-airing?page=" + strconv.Itoa(page)
	if ferr := a.cachedGet(ctx, path, &out); ferr != nil {
		return SearchPage{}, ferr
	}
	if out.CurrentPage == 0 {
		out.CurrentPage = page
	}
	return out, nil
}

func (a *CatalogAPI) Search(ctx context.Context, keyword string, page int) (SearchPage, *FlowError) {
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("page", strconv.Itoa(page))
	var out SearchPage
	if ferr := a.cachedGet(ctx, "/api/v1/search?"+q.Encode(), &out); ferr != nil {
		return SearchPage{}, ferr
	}
	if out.CurrentPage == 0 {
		out.CurrentPage = page
	}
	return out, nil
}

// Episodes liste les épisodes d'un anime par son hianimeId. Pas de cache LRU
// ici: l'orchestrateur a son propre cache persistant par visite.
func (a *CatalogAPI) Episodes(ctx context.Context, hiAnimeID string) ([]domain.Episode, *FlowError) {
	var env struct {
		Episodes []struct {
			EpisodeID string `json:"episodeId"`
			Number    int    `json:"number"`
			Title     string `json:"title"`
		} `json:"episodes"`
	}
	res := a.get(ctx, "/api/v1/episodes/"+url.PathEscape(hiAnimeID))
	if ferr := a.check(res, "Грешка при зареждане на епизодите."); ferr != nil {
		return nil, ferr
	}
	if err := res.Decode(&env); err != nil {
		return nil, &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на епизодите.", Err: err}
	}
	eps := make([]domain.Episode, 0, len(env.Episodes))
	for _, e := range env.Episodes {
		eps = append(eps, domain.Episode{ID: e.EpisodeID, Number: e.Number, Title: e.Title})
	}
	return eps, nil
}

// StreamTracks renvoie les pistes de sous-titres de l'épisode (serveur hd-2,
// audience sub). L'appelant cherche la piste anglaise.
func (a *CatalogAPI) StreamTracks(ctx context.Context, episodeID string) ([]domain.SubtitleTrack, *FlowError) {
	q := url.Values{}
	q.Set("id", episodeID)
	q.Set("type", "sub")
	q.Set("server", "hd-2")
	res := a.get(ctx, "/api/v1/stream?"+q.Encode())
	if ferr := a.check(res, "Проблем при зареждане на пистите със субтитри."); ferr != nil {
		return nil, ferr
	}
	var env struct {
		Tracks []struct {
			URL   string `json:"url"`
			Label string `json:"label"`
		} `json:"tracks"`
	}
	if err := res.Decode(&env); err != nil {
		return nil, &FlowError{Code: CodeBadData, Message: "Проблем при зареждане на пистите със субтитри.", Err: err}
	}
	tracks := make([]domain.SubtitleTrack, 0, len(env.Tracks))
	for _, t := range env.Tracks {
		tracks = append(tracks, domain.SubtitleTrack{URL: t.URL, Language: t.Label})
	}
	return tracks, nil
}

// --- Helpers ---

func (a *CatalogAPI) cachedGet(ctx context.Context, path string, out any) *FlowError {
	if blob, ok := a.cache.Get(path); ok {
		res := gateway.Result{OK: true, Status: http.StatusOK, Body: blob}
		if err := res.Decode(out); err == nil {
			return nil
		}
		// Entrée illisible: on la laisse expirer et on repart au réseau.
	}
	res := a.get(ctx, path)
	if ferr := a.check(res, "Грешка при зареждане на каталога."); ferr != nil {
		return ferr
	}
	if err := res.Decode(out); err != nil {
		return &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на каталога.", Err: err}
	}
	a.cache.Add(path, res.Body)
	return nil
}

func (a *CatalogAPI) get(ctx context.Context, path string) gateway.Result {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	return a.gw.Do(req, gateway.Options{})
}

func trimBase(raw string) string {
	return strings.TrimRight(raw, "/")
}

func (a *CatalogAPI) check(res gateway.Result, message string) *FlowError {
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра. Моля, опитайте отново.")
	}
	if !res.OK {
		return statusFlowError(res.Status, fmt.Sprintf("%s (%d)", message, res.Status))
	}
	return nil
}
