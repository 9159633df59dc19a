package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/senpai-bg/senpai-client/internal/domain"
	"github.com/senpai-bg/senpai-client/internal/gateway"
	"github.com/senpai-bg/senpai-client/internal/ports"
)

// MemberAPI est le client du backend membre/auth. C'est le seul collaborateur
// "possédé": la passerelle lui attache le bearer et y intercepte 401/403.
//
// Chaque endpoint a sa fonction de normalisation vers une forme interne
// unique; la variance d'enveloppe du backend ne fuit pas plus loin.
type MemberAPI struct {
	gw      *gateway.Gateway
	baseURL string
}

func NewMemberAPI(gw *gateway.Gateway, baseURL string) *MemberAPI {
	return &MemberAPI{gw: gw, baseURL: strings.TrimRight(baseURL, "/")}
}

type LoginResult struct {
	Token  string        `json:"token"`
	Member domain.Member `json:"member"`
}

// Login. SkipAuth: un 401 ici veut dire "mauvais identifiants", pas "session
// expirée" — la passerelle ne doit pas purger la session.
func (a *MemberAPI) Login(ctx context.Context, username, password string) (LoginResult, map[string]string, *FlowError) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	res := a.post(ctx, "/api/v1/member/login", body, gateway.Options{SkipAuth: true})
	if res.NetworkError {
		return LoginResult{}, nil, networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		if res.Status == http.StatusBadRequest {
			if fields := res.FieldErrors(); len(fields) > 0 {
				return LoginResult{}, fields, &FlowError{Code: CodeValidation, Status: res.Status, Message: "Невалидни данни."}
			}
		}
		msg := res.Message()
		if msg == "" {
			msg = "Неуспешен вход. Проверете данните."
		}
		ferr := statusFlowError(res.Status, msg)
		if res.Status == http.StatusUnauthorized {
			ferr.Err = ports.ErrUnauthorized
		}
		return LoginResult{}, nil, ferr
	}
	var out LoginResult
	if err := res.Decode(&out); err != nil || out.Token == "" {
		return LoginResult{}, nil, &FlowError{Code: CodeBadData, Message: "Неуспешен вход. Проверете данните.", Err: err}
	}
	return out, nil, nil
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (a *MemberAPI) Register(ctx context.Context, req RegisterRequest) (map[string]string, *FlowError) {
	body, _ := json.Marshal(req)
	res := a.post(ctx, "/api/v1/member/register", body, gateway.Options{SkipAuth: true})
	if res.NetworkError {
		return nil, networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		if res.Status == http.StatusBadRequest {
			if fields := res.FieldErrors(); len(fields) > 0 {
				return fields, &FlowError{Code: CodeValidation, Status: res.Status, Message: "Невалидни данни."}
			}
		}
		msg := res.Message()
		if msg == "" {
			msg = "Неуспешна регистрация."
		}
		return nil, statusFlowError(res.Status, msg)
	}
	return nil, nil
}

func (a *MemberAPI) Me(ctx context.Context) (domain.Member, *FlowError) {
	res := a.get(ctx, "/api/v1/member/me", gateway.Options{})
	if res.NetworkError {
		return domain.Member{}, networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		return domain.Member{}, statusFlowError(res.Status, "Грешка при зареждане на профила.")
	}
	var m domain.Member
	if err := res.Decode(&m); err != nil {
		return domain.Member{}, &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на профила.", Err: err}
	}
	return m, nil
}

type ProfileUpdate struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=32"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

func (a *MemberAPI) UpdateProfile(ctx context.Context, upd ProfileUpdate) (domain.Member, map[string]string, *FlowError) {
	body, _ := json.Marshal(upd)
	req := a.newRequest(ctx, http.MethodPut, "/api/v1/member/update", bytes.NewReader(body))
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return domain.Member{}, nil, networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		if res.Status == http.StatusBadRequest {
			if fields := res.FieldErrors(); len(fields) > 0 {
				return domain.Member{}, fields, &FlowError{Code: CodeValidation, Status: res.Status, Message: "Невалидни данни."}
			}
		}
		return domain.Member{}, nil, statusFlowError(res.Status, "Грешка при обновяване на профила.")
	}
	var m domain.Member
	if err := res.Decode(&m); err != nil {
		return domain.Member{}, nil, &FlowError{Code: CodeBadData, Message: "Грешка при обновяване на профила.", Err: err}
	}
	return m, nil, nil
}

// UploadProfilePicture relaie un upload multipart vers le backend membre.
func (a *MemberAPI) UploadProfilePicture(ctx context.Context, fileName string, file io.Reader) *FlowError {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return &FlowError{Code: CodeBadData, Message: "Невалиден файл.", Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return &FlowError{Code: CodeBadData, Message: "Невалиден файл.", Err: err}
	}
	_ = mw.Close()

	req := a.newRequest(ctx, http.MethodPost, "/api/v1/member/profilePicture", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		return statusFlowError(res.Status, "Грешка при качване на снимката.")
	}
	return nil
}

// --- Enregistrement anime/épisode (create-or-get, idempotent) ---

type AnimeRef struct {
	AnimeID int64 `json:"animeId"`
}

func (a *MemberAPI) CreateOrGetAnime(ctx context.Context, animeTitle, hiAnimeID string) (AnimeRef, *FlowError) {
	payload := map[string]string{"animeTitle": animeTitle}
	if hiAnimeID != "" {
		payload["hiAnimeId"] = hiAnimeID
	}
	body, _ := json.Marshal(payload)
	res := a.post(ctx, "/api/v1/anime", body, gateway.Options{})
	if res.NetworkError {
		return AnimeRef{}, networkFlowError("Няма връзка със сървъра. Моля, опитайте отново по-късно.")
	}
	if !res.OK {
		msg := res.Message()
		if msg == "" {
			msg = fmt.Sprintf("Грешка при зареждане на анимето (%d)", res.Status)
		}
		return AnimeRef{}, statusFlowError(res.Status, msg)
	}
	var ref AnimeRef
	if err := res.Decode(&ref); err != nil || ref.AnimeID == 0 {
		return AnimeRef{}, &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на анимето.", Err: err}
	}
	return ref, nil
}

type EpisodeRef struct {
	EpisodeID int64  `json:"episodeId"`
	SessionID string `json:"sessionId"`
	M3U8Link  string `json:"m3u8Link"`
}

func (a *MemberAPI) CreateOrGetEpisode(ctx context.Context, episodeURL string, episodeNumber int, animeID int64) (EpisodeRef, *FlowError) {
	body, _ := json.Marshal(map[string]any{
		"episodeUrl":    episodeURL,
		"episodeNumber": episodeNumber,
		"animeId":       animeID,
	})
	res := a.post(ctx, "/api/v1/episode", body, gateway.Options{})
	if res.NetworkError {
		return EpisodeRef{}, networkFlowError("Няма връзка със сървъра. Моля, опитайте отново по-късно.")
	}
	if !res.OK {
		msg := res.Message()
		if msg == "" {
			msg = fmt.Sprintf("Грешка при зареждане на епизода (%d)", res.Status)
		}
		return EpisodeRef{}, statusFlowError(res.Status, msg)
	}
	var ref EpisodeRef
	if err := res.Decode(&ref); err != nil || ref.EpisodeID == 0 {
		return EpisodeRef{}, &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на епизода.", Err: err}
	}
	return ref, nil
}

// --- Favoris ---

type favoritesEnvelope struct {
	Animes []domain.Favorite `json:"animes"`
	Last   bool              `json:"last"`
}

func (a *MemberAPI) ListFavorites(ctx context.Context, page, size int) ([]domain.Favorite, bool, *FlowError) {
	path := fmt.Sprintf("/api/v1/favourite?page=%d&size=%d", page, size)
	res := a.get(ctx, path, gateway.Options{})
	if res.NetworkError {
		return nil, false, networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		return nil, false, statusFlowError(res.Status, "Грешка при зареждане на фаворитите.")
	}
	var env favoritesEnvelope
	if err := res.Decode(&env); err != nil {
		return nil, false, &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на фаворитите.", Err: err}
	}
	return env.Animes, env.Last, nil
}

// AddFavorite renvoie le statut brut: l'appelant réconcilie 409/404/400 en
// état d'UI cohérent (voir favorites.go).
func (a *MemberAPI) AddFavorite(ctx context.Context, animeID int64) (domain.Favorite, int, *FlowError) {
	body, _ := json.Marshal(map[string]int64{"animeId": animeID})
	res := a.post(ctx, "/api/v1/favourite", body, gateway.Options{})
	if res.NetworkError {
		return domain.Favorite{}, 0, networkFlowError("Няма връзка със сървъра.")
	}
	if res.Status == http.StatusCreated {
		var fav domain.Favorite
		_ = res.Decode(&fav)
		return fav, res.Status, nil
	}
	msg := res.Message()
	if msg == "" && res.Status == http.StatusBadRequest {
		if fields := res.FieldErrors(); len(fields) > 0 {
			for _, v := range fields {
				msg = v
				break
			}
		}
	}
	ferr := statusFlowError(res.Status, msg)
	if res.Status == http.StatusConflict {
		ferr.Err = ports.ErrConflict
	}
	return domain.Favorite{}, res.Status, ferr
}

func (a *MemberAPI) DeleteFavorite(ctx context.Context, id int64) (int, *FlowError) {
	req := a.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/favourite/%d", id), nil)
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return 0, networkFlowError("Няма връзка със сървъра.")
	}
	if res.OK || res.Status == http.StatusNoContent {
		return res.Status, nil
	}
	ferr := statusFlowError(res.Status, res.Message())
	if res.Status == http.StatusNotFound {
		ferr.Err = ports.ErrNotFound
	}
	return res.Status, ferr
}

// --- Historique de visionnage ---

type HistoryEntry struct {
	ID         int64  `json:"id"`
	AnimeTitle string `json:"animeTitle"`
	HiAnimeID  string `json:"hiAnimeId,omitempty"`
	EpisodeNum int    `json:"episodeNumber"`
	WatchedOn  string `json:"watchedOn,omitempty"`
}

type historyEnvelope struct {
	History []HistoryEntry `json:"history"`
	Last    bool           `json:"last"`
}

func (a *MemberAPI) ListHistory(ctx context.Context, page, size int) ([]HistoryEntry, bool, *FlowError) {
	path := fmt.Sprintf("/api/v1/history?page=%d&size=%d", page, size)
	res := a.get(ctx, path, gateway.Options{})
	if res.NetworkError {
		return nil, false, networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		return nil, false, statusFlowError(res.Status, "Грешка при зареждане на историята.")
	}
	var env historyEnvelope
	if err := res.Decode(&env); err != nil {
		return nil, false, &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на историята.", Err: err}
	}
	return env.History, env.Last, nil
}

// AddHistory est fire-and-forget côté appelant: l'historique n'est pas
// critique pour la lecture.
func (a *MemberAPI) AddHistory(ctx context.Context, episodeID int64) *FlowError {
	res := a.post(ctx, "/api/v1/history?episodeId="+strconv.FormatInt(episodeID, 10), nil, gateway.Options{})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		return statusFlowError(res.Status, "Грешка при запис в историята.")
	}
	return nil
}

func (a *MemberAPI) DeleteHistory(ctx context.Context, id int64) *FlowError {
	req := a.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/history/%d", id), nil)
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK && res.Status != http.StatusNoContent {
		return statusFlowError(res.Status, "Грешка при изтриване от историята.")
	}
	return nil
}

// --- Commentaires ---

func (a *MemberAPI) ListComments(ctx context.Context, episodeID int64, page, size int) (domain.CommentPage, *FlowError) {
	path := fmt.Sprintf("/api/v1/comments?episodeId=%d&page=%d&size=%d", episodeID, page, size)
	res := a.get(ctx, path, gateway.Options{})
	if res.NetworkError {
		return domain.CommentPage{}, networkFlowError("Няма връзка със сървъра. Моля, опитайте отново.")
	}
	if !res.OK {
		msg := res.Message()
		if msg == "" {
			msg = fmt.Sprintf("Грешка при зареждане на коментарите (%d)", res.Status)
		}
		return domain.CommentPage{}, statusFlowError(res.Status, msg)
	}
	var p domain.CommentPage
	if err := res.Decode(&p); err != nil {
		return domain.CommentPage{}, &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на коментарите.", Err: err}
	}
	p.Page = page
	return p, nil
}

func (a *MemberAPI) AddComment(ctx context.Context, episodeID int64, content string) *FlowError {
	body, _ := json.Marshal(map[string]any{"episodeId": episodeID, "content": content})
	res := a.post(ctx, "/api/v1/comments", body, gateway.Options{})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		msg := res.Message()
		if msg == "" {
			msg = fmt.Sprintf("Грешка при добавяне на коментар (%d)", res.Status)
		}
		return statusFlowError(res.Status, msg)
	}
	return nil
}

func (a *MemberAPI) UpdateComment(ctx context.Context, commentID int64, newContent string) *FlowError {
	body, _ := json.Marshal(map[string]any{"commentId": commentID, "newContent": newContent})
	req := a.newRequest(ctx, http.MethodPatch, "/api/v1/comments", bytes.NewReader(body))
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		msg := res.Message()
		if msg == "" {
			msg = fmt.Sprintf("Грешка при обновяване на коментар (%d)", res.Status)
		}
		return statusFlowError(res.Status, msg)
	}
	return nil
}

func (a *MemberAPI) DeleteComment(ctx context.Context, commentID int64) *FlowError {
	req := a.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", commentID), nil)
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK && res.Status != http.StatusNoContent {
		msg := res.Message()
		if msg == "" {
			msg = fmt.Sprintf("Грешка при изтриване на коментар (%d)", res.Status)
		}
		return statusFlowError(res.Status, msg)
	}
	return nil
}

// --- Sous-titres ---

type TranslatedSubtitle struct {
	SubtitleName string `json:"subtitleName"`
}

// TranslateSubtitle soumet la piste anglaise pour traduction. AllowForbidden:
// ici un 403 signifie quota atteint, pas bannissement — il est réconcilié en
// CodeQuota et routé vers l'invite d'upgrade.
func (a *MemberAPI) TranslateSubtitle(ctx context.Context, subtitleURL, subtitleName string) (TranslatedSubtitle, *FlowError) {
	body, _ := json.Marshal(map[string]string{"subtitleUrl": subtitleURL, "subtitleName": subtitleName})
	res := a.post(ctx, "/api/v1/subtitles", body, gateway.Options{AllowForbidden: true})
	if res.NetworkError {
		return TranslatedSubtitle{}, networkFlowError("Проблем при обработката на субтитрите.")
	}
	if res.Status == http.StatusForbidden {
		return TranslatedSubtitle{}, &FlowError{Code: CodeQuota, Status: res.Status, Message: "Достигнахте лимита за безплатния план.", Err: ports.ErrQuotaExceeded}
	}
	if !res.OK {
		return TranslatedSubtitle{}, statusFlowError(res.Status, "Неуспешна обработка на субтитрите.")
	}
	var out TranslatedSubtitle
	if err := res.Decode(&out); err != nil || out.SubtitleName == "" {
		return TranslatedSubtitle{}, &FlowError{Code: CodeBadData, Message: "Неуспешна обработка на субтитрите.", Err: err}
	}
	return out, nil
}

// --- Mot de passe oublié (3 étapes, sans auth) ---

func (a *MemberAPI) ForgotPasswordRequest(ctx context.Context, email string) *FlowError {
	body, _ := json.Marshal(map[string]string{"email": strings.TrimSpace(email)})
	return a.forgotStep(ctx, "/api/v1/forgot-password", body)
}

func (a *MemberAPI) ForgotPasswordVerify(ctx context.Context, email, code string) *FlowError {
	body, _ := json.Marshal(map[string]string{"email": strings.TrimSpace(email), "code": strings.TrimSpace(code)})
	return a.forgotStep(ctx, "/api/v1/forgot-password/verify", body)
}

func (a *MemberAPI) ForgotPasswordConfirm(ctx context.Context, email, password string) *FlowError {
	body, _ := json.Marshal(map[string]string{"email": strings.TrimSpace(email), "password": strings.TrimSpace(password)})
	return a.forgotStep(ctx, "/api/v1/forgot-password/confirm", body)
}

func (a *MemberAPI) forgotStep(ctx context.Context, path string, body []byte) *FlowError {
	res := a.post(ctx, path, body, gateway.Options{SkipAuth: true})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		msg := res.Message()
		if msg == "" {
			msg = "Грешка при възстановяване на паролата."
		}
		return statusFlowError(res.Status, msg)
	}
	return nil
}

// --- Administration ---

type AdminMemberFilter struct {
	Username     string
	Email        string
	Active       *bool
	Role         string
	RegisteredOn string
}

func (f AdminMemberFilter) query() url.Values {
	q := url.Values{}
	if f.Username != "" {
		q.Set("username", f.Username)
	}
	if f.Email != "" {
		q.Set("email", f.Email)
	}
	if f.Active != nil {
		q.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Role != "" {
		q.Set("role", f.Role)
	}
	if f.RegisteredOn != "" {
		q.Set("registeredOn", f.RegisteredOn)
	}
	return q
}

type adminMembersEnvelope struct {
	Members []domain.Member `json:"members"`
	Last    bool            `json:"last"`
}

func (a *MemberAPI) AdminListMembers(ctx context.Context, page, size int) ([]domain.Member, bool, *FlowError) {
	path := fmt.Sprintf("/api/v1/admin/members?page=%d&size=%d", page, size)
	return a.adminMembers(ctx, path)
}

func (a *MemberAPI) AdminFilterMembers(ctx context.Context, filter AdminMemberFilter) ([]domain.Member, bool, *FlowError) {
	return a.adminMembers(ctx, "/api/v1/admin/member/filter?"+filter.query().Encode())
}

func (a *MemberAPI) adminMembers(ctx context.Context, path string) ([]domain.Member, bool, *FlowError) {
	res := a.get(ctx, path, gateway.Options{})
	if res.NetworkError {
		return nil, false, networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		return nil, false, statusFlowError(res.Status, "Грешка при зареждане на членовете.")
	}
	var env adminMembersEnvelope
	if err := res.Decode(&env); err != nil {
		return nil, false, &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на членовете.", Err: err}
	}
	return env.Members, env.Last, nil
}

func (a *MemberAPI) AdminUpdateMember(ctx context.Context, m domain.Member) *FlowError {
	body, _ := json.Marshal(m)
	req := a.newRequest(ctx, http.MethodPut, "/api/v1/admin/member", bytes.NewReader(body))
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		return statusFlowError(res.Status, "Грешка при обновяване на члена.")
	}
	return nil
}

type AdminCommentFilter struct {
	CommentID  string
	Content    string
	Username   string
	EpisodeID  string
	AnimeTitle string
	CreatedOn  string
	UpdatedOn  string
}

func (f AdminCommentFilter) query() url.Values {
	q := url.Values{}
	if f.CommentID != "" {
		q.Set("commentId", f.CommentID)
	}
	if f.Content != "" {
		q.Set("content", f.Content)
	}
	if f.Username != "" {
		q.Set("username", f.Username)
	}
	if f.EpisodeID != "" {
		q.Set("episodeId", f.EpisodeID)
	}
	if f.AnimeTitle != "" {
		q.Set("animeTitle", f.AnimeTitle)
	}
	if f.CreatedOn != "" {
		q.Set("createdOn", f.CreatedOn)
	}
	if f.UpdatedOn != "" {
		q.Set("updatedOn", f.UpdatedOn)
	}
	return q
}

type adminCommentsEnvelope struct {
	Comments []domain.Comment `json:"comments"`
	Last     bool             `json:"last"`
}

func (a *MemberAPI) AdminListComments(ctx context.Context, page, size int) ([]domain.Comment, bool, *FlowError) {
	path := fmt.Sprintf("/api/v1/admin/comments?page=%d&size=%d", page, size)
	return a.adminComments(ctx, path)
}

func (a *MemberAPI) AdminFilterComments(ctx context.Context, filter AdminCommentFilter) ([]domain.Comment, bool, *FlowError) {
	return a.adminComments(ctx, "/api/v1/admin/comment/filter?"+filter.query().Encode())
}

func (a *MemberAPI) adminComments(ctx context.Context, path string) ([]domain.Comment, bool, *FlowError) {
	res := a.get(ctx, path, gateway.Options{})
	if res.NetworkError {
		return nil, false, networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		return nil, false, statusFlowError(res.Status, "Грешка при зареждане на коментарите.")
	}
	var env adminCommentsEnvelope
	if err := res.Decode(&env); err != nil {
		return nil, false, &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на коментарите.", Err: err}
	}
	return env.Comments, env.Last, nil
}

func (a *MemberAPI) AdminUpdateComment(ctx context.Context, commentID int64, content string) *FlowError {
	body, _ := json.Marshal(map[string]any{"commentId": commentID, "content": content})
	req := a.newRequest(ctx, http.MethodPut, "/api/v1/admin/comment", bytes.NewReader(body))
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK {
		return statusFlowError(res.Status, "Грешка при обновяване на коментара.")
	}
	return nil
}

func (a *MemberAPI) AdminDeleteProfilePicture(ctx context.Context, memberID int64, fileName string) *FlowError {
	path := fmt.Sprintf("/api/v1/admin/profilePicture/%d/%s", memberID, url.PathEscape(fileName))
	req := a.newRequest(ctx, http.MethodDelete, path, nil)
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра.")
	}
	if !res.OK && res.Status != http.StatusNoContent {
		return statusFlowError(res.Status, "Грешка при изтриване на снимката.")
	}
	return nil
}

// --- Helpers ---

func (a *MemberAPI) newRequest(ctx context.Context, method, path string, body io.Reader) *http.Request {
	req, _ := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	return req
}

func (a *MemberAPI) get(ctx context.Context, path string, opts gateway.Options) gateway.Result {
	return a.gw.Do(a.newRequest(ctx, http.MethodGet, path, nil), opts)
}

func (a *MemberAPI) post(ctx context.Context, path string, body []byte, opts gateway.Options) gateway.Result {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	return a.gw.Do(a.newRequest(ctx, http.MethodPost, path, rdr), opts)
}
