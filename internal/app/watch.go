package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/senpai-bg/senpai-client/internal/domain"
	"github.com/senpai-bg/senpai-client/internal/metrics"
	"github.com/senpai-bg/senpai-client/internal/ports"
)

// subFlowTimeout borne les sous-flux lancés en tâche de fond (inscription,
// commentaires, favoris, sous-titres) détachés de la requête entrante.
const subFlowTimeout = 30 * time.Second

// WatchDeps regroupe les collaborateurs de l'orchestrateur de visionnage.
type WatchDeps struct {
	Member  *MemberAPI
	Catalog *CatalogAPI
	Source  *EpisodeSourceAPI
	Video   *VideoAPI
	Auth    *AuthState
	Store   ports.SessionStore
	Bus     ports.EventBus
	Metrics *metrics.Collector
	Logger  zerolog.Logger
}

// WatchSession orchestre une visite de la page de visionnage: liste
// d'épisodes, inscription anime/épisode, session vidéo, sous-titres à la
// demande, commentaires paginés et état favori. Les sous-flux échouent
// indépendamment; chacun porte sa propre erreur affichable.
//
// Modèle de concurrence: les sous-flux tournent en goroutines mais toute
// mutation d'état passe par apply(), qui vérifie le compteur de génération —
// une réponse arrivée après un changement d'épisode est simplement jetée.
type WatchSession struct {
	deps WatchDeps

	VisitID    string
	hiAnimeID  string
	animeTitle string

	mu  sync.Mutex
	gen uint64

	phase    domain.WatchPhase
	phaseErr *FlowError

	episodes       []domain.Episode
	currentEpisode int

	// Inscription backend.
	animeID     int64
	episodeID   int64
	sessionID   string
	m3u8Link    string
	registering bool
	regErr      *FlowError

	// Lecture.
	videoSrc string
	playErr  *FlowError

	// Sous-titres (au plus une séquence réseau par épisode).
	subRequested bool
	subReady     bool
	subVisible   bool
	subTrack     domain.SubtitleTrack
	subQuota     bool
	subErr       *FlowError

	comments    *commentThread
	commentsErr *FlowError

	favorite *favoriteState
	favErr   *FlowError
}

// WatchView est l'instantané exposé aux pages.
type WatchView struct {
	VisitID        string              `json:"visitId"`
	Phase          domain.WatchPhase   `json:"phase"`
	PhaseError     *FlowError          `json:"phaseError,omitempty"`
	Episodes       []domain.Episode    `json:"episodes"`
	CurrentEpisode int                 `json:"currentEpisode"`
	Registering    bool                `json:"registering"`
	RegisterError  *FlowError          `json:"registerError,omitempty"`
	SessionID      string              `json:"sessionId,omitempty"`
	VideoSrc       string              `json:"videoSrc,omitempty"`
	PlayError      *FlowError          `json:"playError,omitempty"`
	SubtitleReady  bool                `json:"subtitleReady"`
	SubtitleShown  bool                `json:"subtitleShown"`
	Subtitle       domain.SubtitleTrack `json:"subtitle,omitempty"`
	SubtitleQuota  bool                `json:"subtitleQuota"`
	SubtitleError  *FlowError          `json:"subtitleError,omitempty"`
	Comments       CommentThreadView   `json:"comments"`
	CommentsError  *FlowError          `json:"commentsError,omitempty"`
	Favorite       FavoriteView        `json:"favorite"`
	FavoriteError  *FlowError          `json:"favoriteError,omitempty"`
}

func newWatchSession(deps WatchDeps, hiAnimeID, animeTitle string, episodeNumber int) *WatchSession {
	return &WatchSession{
		deps:           deps,
		VisitID:        xid.New().String(),
		hiAnimeID:      hiAnimeID,
		animeTitle:     strings.TrimSpace(animeTitle),
		phase:          domain.WatchIdle,
		currentEpisode: episodeNumber,
		comments:       newCommentThread(0),
		favorite:       newFavoriteState(animeTitle),
	}
}

// start charge la liste d'épisodes (bloquant) puis lance l'inscription en
// tâche de fond. Un échec de la liste est fatal pour la visite.
func (s *WatchSession) start(ctx context.Context) *FlowError {
	s.mu.Lock()
	if !domain.CanTransition(s.phase, domain.WatchEpisodesLoading) {
		s.mu.Unlock()
		return &FlowError{Code: CodeNotReady, Message: "Сесията вече е започната."}
	}
	s.phase = domain.WatchEpisodesLoading
	gen := s.gen
	s.mu.Unlock()

	eps, ferr := s.loadEpisodes(ctx)
	if ferr != nil {
		s.apply(gen, func() {
			s.phase = domain.WatchFailed
			s.phaseErr = ferr
		})
		return ferr
	}

	s.apply(gen, func() {
		s.episodes = eps
		s.phase = domain.WatchReady
		if s.currentEpisode == 0 && len(eps) > 0 {
			s.currentEpisode = eps[0].Number
		}
	})
	s.spawnRegistration(gen)
	return nil
}

// loadEpisodes combine le catalogue (numéros et titres par hianimeId) et la
// source externe (URL de lecture par titre). Si le catalogue est muet, la
// liste de la source fait foi seule.
func (s *WatchSession) loadEpisodes(ctx context.Context) ([]domain.Episode, *FlowError) {
	sourceEps, srcErr := s.deps.Source.ResolveEpisodes(ctx, s.hiAnimeID, s.animeTitle)

	catalogEps, catErr := s.deps.Catalog.Episodes(ctx, s.hiAnimeID)
	if catErr != nil {
		if srcErr != nil {
			return nil, catErr
		}
		return sourceEps, nil
	}
	if srcErr != nil {
		s.deps.Logger.Warn().Str("anime", s.hiAnimeID).Str("reason", srcErr.Code).
			Msg("episode source unavailable, playback links missing")
		return catalogEps, nil
	}

	urlByNumber := make(map[int]string, len(sourceEps))
	for _, e := range sourceEps {
		urlByNumber[e.Number] = e.URL
	}
	for i := range catalogEps {
		if u, ok := urlByNumber[catalogEps[i].Number]; ok {
			catalogEps[i].URL = u
		}
	}
	return catalogEps, nil
}

// --- Inscription backend (anime puis épisode, séquentiel) ---

func (s *WatchSession) spawnRegistration(gen uint64) {
	s.mu.Lock()
	s.registering = true
	s.regErr = nil
	episode, ok := s.episodeByNumber(s.currentEpisode)
	s.mu.Unlock()
	if !ok {
		s.apply(gen, func() {
			s.registering = false
			s.regErr = &FlowError{Code: CodeBadData, Message: "Епизодът не е намерен в списъка."}
		})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), subFlowTimeout)
		defer cancel()

		anime, ferr := s.deps.Member.CreateOrGetAnime(ctx, s.animeTitle, s.hiAnimeID)
		if ferr != nil {
			s.apply(gen, func() {
				s.registering = false
				s.regErr = ferr
			})
			return
		}
		ep, ferr := s.deps.Member.CreateOrGetEpisode(ctx, episode.URL, episode.Number, anime.AnimeID)
		if ferr != nil {
			s.apply(gen, func() {
				s.registering = false
				s.animeID = anime.AnimeID
				s.regErr = ferr
			})
			return
		}

		sessionID := ep.SessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		if !s.apply(gen, func() {
			s.registering = false
			s.animeID = anime.AnimeID
			s.episodeID = ep.EpisodeID
			s.sessionID = sessionID
			s.m3u8Link = ep.M3U8Link
			s.comments = newCommentThread(ep.EpisodeID)
		}) {
			return
		}

		// L'inscription débloque commentaires et favoris.
		s.spawnCommentsLoad(gen)
		s.spawnFavoriteScan(gen)
	}()
}

// --- Commentaires ---

func (s *WatchSession) spawnCommentsLoad(gen uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), subFlowTimeout)
		defer cancel()
		ferr := s.loadMoreComments(ctx, gen)
		if ferr != nil {
			s.apply(gen, func() { s.commentsErr = ferr })
		}
	}()
}

// loadMoreComments pagine sous le verrou de la session: c'est le seul flux
// qui mute le thread, et le modèle veut que les continuations ne tournent
// jamais en parallèle sur le même état.
func (s *WatchSession) loadMoreComments(ctx context.Context, gen uint64) *FlowError {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil
	}
	if s.comments.episodeID == 0 {
		return &FlowError{Code: CodeNotReady, Message: "Коментарите още не са достъпни."}
	}
	if user, ok := s.deps.Auth.Current(); ok {
		s.comments.setIdentity(user.Username)
	}
	s.commentsErr = nil
	if ferr := s.comments.loadNext(ctx, s.deps.Member); ferr != nil {
		s.commentsErr = ferr
		return ferr
	}
	s.notify()
	return nil
}

// LoadMoreComments charge la page suivante (pagination avant uniquement).
func (s *WatchSession) LoadMoreComments(ctx context.Context) *FlowError {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	return s.loadMoreComments(ctx, gen)
}

func (s *WatchSession) AddComment(ctx context.Context, content string) *FlowError {
	return s.commentOp(ctx, func(t *commentThread) *FlowError {
		return t.add(ctx, s.deps.Member, content)
	})
}

func (s *WatchSession) EditComment(ctx context.Context, commentID int64, content string) *FlowError {
	return s.commentOp(ctx, func(t *commentThread) *FlowError {
		return t.edit(ctx, s.deps.Member, commentID, content)
	})
}

func (s *WatchSession) DeleteComment(ctx context.Context, commentID int64) *FlowError {
	return s.commentOp(ctx, func(t *commentThread) *FlowError {
		return t.remove(ctx, s.deps.Member, commentID)
	})
}

func (s *WatchSession) commentOp(ctx context.Context, op func(*commentThread) *FlowError) *FlowError {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.comments.episodeID == 0 {
		return &FlowError{Code: CodeNotReady, Message: "Коментарите още не са достъпни."}
	}
	if _, ok := s.deps.Auth.Current(); !ok {
		return &FlowError{Code: CodeLoginRequired, Message: "Влезте, за да коментирате."}
	}
	if user, ok := s.deps.Auth.Current(); ok {
		s.comments.setIdentity(user.Username)
	}
	ferr := op(s.comments)
	if ferr == nil {
		s.notify()
	}
	return ferr
}

// --- Favoris ---

func (s *WatchSession) spawnFavoriteScan(gen uint64) {
	if _, ok := s.deps.Auth.Current(); !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), subFlowTimeout)
		defer cancel()
		fav := newFavoriteState(s.animeTitle)
		ferr := fav.scan(ctx, s.deps.Member)
		s.apply(gen, func() {
			if ferr != nil {
				s.favErr = ferr
				return
			}
			s.favorite = fav
			s.favErr = nil
		})
	}()
}

// ToggleFavorite bascule l'état favori; les 409/404 du backend sont
// réconciliés en état cohérent sans erreur visible.
func (s *WatchSession) ToggleFavorite(ctx context.Context) *FlowError {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deps.Auth.Current(); !ok {
		return &FlowError{Code: CodeLoginRequired, Message: "Влезте, за да добавяте фаворити."}
	}
	if s.animeID == 0 {
		return &FlowError{Code: CodeNotReady, Message: "Анимето още не е регистрирано."}
	}
	s.favErr = nil
	if ferr := s.favorite.toggle(ctx, s.deps.Member, s.animeID); ferr != nil {
		s.favErr = ferr
		return ferr
	}
	s.notify()
	return nil
}

// --- Lecture ---

// Play matérialise la session vidéo. Si une session précédente existe pour
// cet onglet, elle est détruite en fire-and-forget avant d'en demander une
// nouvelle. L'historique est enregistré en best-effort.
func (s *WatchSession) Play(ctx context.Context) *FlowError {
	s.mu.Lock()
	if s.phase.IsTerminal() {
		s.mu.Unlock()
		return &FlowError{Code: CodeNotReady, Message: "Презаредете страницата, за да продължите."}
	}
	if s.sessionID == "" || s.m3u8Link == "" {
		s.mu.Unlock()
		return &FlowError{Code: CodeNotReady, Message: "Епизодът още се подготвя. Опитайте след малко."}
	}
	gen := s.gen
	sessionID := s.sessionID
	m3u8 := s.m3u8Link
	episodeID := s.episodeID
	s.playErr = nil
	s.mu.Unlock()

	// Une seule session de lecture par onglet: l'ancienne part d'abord.
	if prev, err := s.deps.Store.WatchSessionID(ctx); err == nil && prev != "" && prev != sessionID {
		s.deps.Video.Teardown(prev)
	}

	if ferr := s.deps.Video.Convert(ctx, m3u8, sessionID); ferr != nil {
		s.apply(gen, func() {
			s.phase = domain.WatchPlaybackError
			s.playErr = ferr
		})
		return ferr
	}
	if err := s.deps.Store.SetWatchSessionID(ctx, sessionID); err != nil {
		s.deps.Logger.Warn().Err(err).Msg("watch session id persist failed")
	}

	s.apply(gen, func() {
		s.phase = domain.WatchPlaying
		s.videoSrc = s.deps.Video.StreamingURL(sessionID)
	})

	// L'historique est réservé aux membres: un appel anonyme tirerait un 401
	// et donc une redirection globale injustifiée.
	if _, ok := s.deps.Auth.Current(); ok {
		go func() {
			hctx, cancel := context.WithTimeout(context.Background(), subFlowTimeout)
			defer cancel()
			if ferr := s.deps.Member.AddHistory(hctx, episodeID); ferr != nil {
				s.deps.Logger.Debug().Str("reason", ferr.Code).Msg("history add failed")
			}
		}()
	}
	return nil
}

// --- Sous-titres ---

// RequestSubtitles déroule la séquence externe puis la traduction, une seule
// fois par épisode: une fois la piste prête, l'appel ne fait que basculer la
// visibilité.
func (s *WatchSession) RequestSubtitles(ctx context.Context) *FlowError {
	// La traduction est un appel membre authentifié: sans session on invite
	// à se connecter au lieu de laisser le 401 purger quoi que ce soit.
	if _, ok := s.deps.Auth.Current(); !ok {
		return &FlowError{Code: CodeLoginRequired, Message: "Влезте, за да използвате субтитри."}
	}
	s.mu.Lock()
	if s.subReady {
		s.subVisible = !s.subVisible
		s.notify()
		s.mu.Unlock()
		return nil
	}
	if s.subRequested {
		s.mu.Unlock()
		return &FlowError{Code: CodeNotReady, Message: "Субтитрите вече се подготвят."}
	}
	if s.sessionID == "" {
		s.mu.Unlock()
		return &FlowError{Code: CodeNotReady, Message: "Епизодът още се подготвя. Опитайте след малко."}
	}
	s.subRequested = true
	s.subErr = nil
	gen := s.gen
	sessionID := s.sessionID
	episodeNumber := s.currentEpisode
	s.mu.Unlock()

	track, ferr := s.fetchTranslatedTrack(ctx, episodeNumber, sessionID)
	applied := s.apply(gen, func() {
		if ferr != nil {
			s.subRequested = false
			if ferr.Code == CodeQuota {
				s.subQuota = true
				s.deps.Metrics.RecordSubtitlesQuotaHit()
			}
			s.subErr = ferr
			return
		}
		s.subReady = true
		s.subVisible = true
		s.subTrack = track
	})
	if !applied {
		return nil
	}
	return ferr
}

// fetchTranslatedTrack: métadonnées externes -> pistes -> piste "English"
// (premier libellé exact, pas de langue de repli) -> traduction backend.
func (s *WatchSession) fetchTranslatedTrack(ctx context.Context, episodeNumber int, sessionID string) (domain.SubtitleTrack, *FlowError) {
	eps, ferr := s.deps.Catalog.Episodes(ctx, s.hiAnimeID)
	if ferr != nil {
		return domain.SubtitleTrack{}, ferr
	}
	var episodeID string
	for _, e := range eps {
		if e.Number == episodeNumber {
			episodeID = e.ID
			break
		}
	}
	if episodeID == "" {
		return domain.SubtitleTrack{}, &FlowError{Code: CodeBadData, Message: "Епизодът не е намерен за субтитри."}
	}

	tracks, ferr := s.deps.Catalog.StreamTracks(ctx, episodeID)
	if ferr != nil {
		return domain.SubtitleTrack{}, ferr
	}
	var english string
	for _, t := range tracks {
		if t.Language == "English" {
			english = t.URL
			break
		}
	}
	if english == "" {
		return domain.SubtitleTrack{}, &FlowError{Code: CodeBadData, Message: "Няма английска писта за този епизод."}
	}

	out, ferr := s.deps.Member.TranslateSubtitle(ctx, english, sessionID)
	if ferr != nil {
		return domain.SubtitleTrack{}, ferr
	}
	return domain.SubtitleTrack{URL: out.SubtitleName, Language: "Bulgarian"}, nil
}

// --- Changement d'épisode ---

// SwitchEpisode invalide tout l'état en vol de l'épisode précédent
// (commentaires, sous-titres, lecture) et relance l'inscription. Les
// réponses tardives de l'ancien épisode sont jetées par le compteur de
// génération.
func (s *WatchSession) SwitchEpisode(ctx context.Context, number int) *FlowError {
	s.mu.Lock()
	if s.phase.IsTerminal() {
		s.mu.Unlock()
		return &FlowError{Code: CodeNotReady, Message: "Презаредете страницата, за да продължите."}
	}
	if _, ok := s.episodeByNumber(number); !ok {
		s.mu.Unlock()
		return &FlowError{Code: CodeValidation, Message: "Няма такъв епизод."}
	}

	s.gen++
	gen := s.gen
	oldSession := s.sessionID

	s.currentEpisode = number
	s.phase = domain.WatchReady
	s.episodeID = 0
	s.sessionID = ""
	s.m3u8Link = ""
	s.videoSrc = ""
	s.playErr = nil
	s.regErr = nil
	s.subRequested = false
	s.subReady = false
	s.subVisible = false
	s.subTrack = domain.SubtitleTrack{}
	s.subQuota = false
	s.subErr = nil
	s.comments = newCommentThread(0)
	s.commentsErr = nil
	s.notify()
	s.mu.Unlock()

	if oldSession != "" {
		s.deps.Video.Teardown(oldSession)
		if err := s.deps.Store.ClearWatchSessionID(ctx); err != nil {
			s.deps.Logger.Warn().Err(err).Msg("watch session id clear failed")
		}
	}

	s.spawnRegistration(gen)
	return nil
}

// --- Fermeture ---

// close détruit la session vidéo en best-effort. Jamais bloquant: le
// démontage ne doit pas retarder la navigation.
func (s *WatchSession) close(ctx context.Context) {
	s.mu.Lock()
	if s.phase == domain.WatchClosed {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.phase = domain.WatchClosed
	sessionID := s.sessionID
	s.sessionID = ""
	s.mu.Unlock()

	if sessionID != "" {
		s.deps.Video.Teardown(sessionID)
	}
	if err := s.deps.Store.ClearWatchSessionID(ctx); err != nil {
		s.deps.Logger.Warn().Err(err).Msg("watch session id clear failed")
	}
}

// --- Vue et plomberie ---

func (s *WatchSession) View() WatchView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WatchView{
		VisitID:        s.VisitID,
		Phase:          s.phase,
		PhaseError:     s.phaseErr,
		Episodes:       append([]domain.Episode(nil), s.episodes...),
		CurrentEpisode: s.currentEpisode,
		Registering:    s.registering,
		RegisterError:  s.regErr,
		SessionID:      s.sessionID,
		VideoSrc:       s.videoSrc,
		PlayError:      s.playErr,
		SubtitleReady:  s.subReady,
		SubtitleShown:  s.subVisible,
		Subtitle:       s.subTrack,
		SubtitleQuota:  s.subQuota,
		SubtitleError:  s.subErr,
		Comments:       s.comments.snapshot(),
		CommentsError:  s.commentsErr,
		Favorite:       s.favorite.snapshot(),
		FavoriteError:  s.favErr,
	}
}

// apply exécute fn sous le verrou si la génération correspond encore.
// Renvoie false si la réponse était périmée (épisode changé entre-temps).
func (s *WatchSession) apply(gen uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	fn()
	s.notify()
	return true
}

// notify signale un changement d'état aux abonnés (SSE). Appelé sous verrou.
func (s *WatchSession) notify() {
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(ports.TopicWatchUpdated, []byte(`{"visitId":"`+s.VisitID+`"}`))
	}
}

func (s *WatchSession) episodeByNumber(number int) (domain.Episode, bool) {
	for _, e := range s.episodes {
		if e.Number == number {
			return e, true
		}
	}
	return domain.Episode{}, false
}

// WatchManager possède les visites ouvertes, une par onglet logique.
type WatchManager struct {
	deps WatchDeps

	mu     sync.Mutex
	visits map[string]*WatchSession
}

func NewWatchManager(deps WatchDeps) *WatchManager {
	return &WatchManager{deps: deps, visits: make(map[string]*WatchSession)}
}

// Open crée une visite, charge la liste d'épisodes et lance l'inscription.
// Un échec de la liste renvoie l'erreur mais la visite reste consultable
// (phase Failed) pour que la page affiche l'état terminal.
func (m *WatchManager) Open(ctx context.Context, hiAnimeID, animeTitle string, episodeNumber int) (*WatchSession, *FlowError) {
	if strings.TrimSpace(animeTitle) == "" || strings.TrimSpace(hiAnimeID) == "" {
		return nil, &FlowError{Code: CodeValidation, Message: "Липсва заглавие или идентификатор на анимето."}
	}
	s := newWatchSession(m.deps, hiAnimeID, animeTitle, episodeNumber)

	m.mu.Lock()
	m.visits[s.VisitID] = s
	m.mu.Unlock()
	m.deps.Metrics.RecordWatchVisit()

	ferr := s.start(ctx)
	return s, ferr
}

func (m *WatchManager) Get(visitID string) (*WatchSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.visits[visitID]
	return s, ok
}

// Close démonte la visite et l'oublie.
func (m *WatchManager) Close(ctx context.Context, visitID string) bool {
	m.mu.Lock()
	s, ok := m.visits[visitID]
	delete(m.visits, visitID)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.close(ctx)
	return true
}

// CloseAll démonte toutes les visites (arrêt du processus).
func (m *WatchManager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	visits := make([]*WatchSession, 0, len(m.visits))
	for _, s := range m.visits {
		visits = append(visits, s)
	}
	m.visits = make(map[string]*WatchSession)
	m.mu.Unlock()
	for _, s := range visits {
		s.close(ctx)
	}
}
