package app

import (
	"context"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/senpai-bg/senpai-client/internal/domain"
)

const commentsPageSize = 15

// commentPolicy rejette tout HTML: les commentaires sont du texte brut.
var commentPolicy = bluemonday.StrictPolicy()

// commentThread accumule les pages de commentaires d'un épisode et maintient
// la partition miens/les autres. Tant que l'identité du spectateur est encore
// en cours de résolution, les pages reçues sont bufferisées sans partitionner,
// pour qu'un chargement précoce ne classe pas tout dans "les autres". Un
// spectateur anonyme est une identité résolue (vide): le backend répondant
// userLogged=false tranche, et tout part dans "les autres".
//
// Non synchronisé: l'appelant (WatchSession) sérialise tous les accès.
type commentThread struct {
	episodeID int64

	pages      [][]domain.Comment
	last       bool
	userLogged bool

	identityKnown bool
	username      string

	mine   []domain.Comment
	others []domain.Comment
}

func newCommentThread(episodeID int64) *commentThread {
	return &commentThread{episodeID: episodeID}
}

// loadNext charge la page suivante et repartitionne si l'identité est connue.
func (t *commentThread) loadNext(ctx context.Context, api *MemberAPI) *FlowError {
	if t.last {
		return nil
	}
	page, ferr := api.ListComments(ctx, t.episodeID, len(t.pages), commentsPageSize)
	if ferr != nil {
		return ferr
	}
	t.pages = append(t.pages, page.Comments)
	t.last = page.Last
	t.userLogged = page.UserLogged
	// La requête est partie sans auth: le spectateur est anonyme, pas en
	// attente d'identité. Rien n'est à lui.
	if !t.identityKnown && !page.UserLogged {
		t.identityKnown = true
		t.username = ""
	}
	t.rebuild()
	return nil
}

// setIdentity fixe (ou corrige) le username du spectateur et reconstruit la
// partition sur toutes les pages bufferisées.
func (t *commentThread) setIdentity(username string) {
	t.identityKnown = true
	t.username = username
	t.rebuild()
}

func (t *commentThread) rebuild() {
	if !t.identityKnown {
		return
	}
	t.mine = t.mine[:0]
	t.others = t.others[:0]
	for _, page := range t.pages {
		for _, c := range page {
			if domain.SameUsername(c.Creator.Username, t.username) {
				t.mine = append(t.mine, c)
			} else {
				t.others = append(t.others, c)
			}
		}
	}
}

// reload repart de zéro (après un ajout/édition/suppression): l'ordre et la
// pagination serveur font foi, on ne patch pas localement.
func (t *commentThread) reload(ctx context.Context, api *MemberAPI) *FlowError {
	loaded := len(t.pages)
	if loaded == 0 {
		loaded = 1
	}
	t.pages = t.pages[:0]
	t.last = false
	for i := 0; i < loaded && !t.last; i++ {
		if ferr := t.loadNext(ctx, api); ferr != nil {
			return ferr
		}
	}
	return nil
}

func (t *commentThread) add(ctx context.Context, api *MemberAPI, content string) *FlowError {
	content = strings.TrimSpace(commentPolicy.Sanitize(content))
	if content == "" {
		return &FlowError{Code: CodeValidation, Message: "Коментарът не може да е празен."}
	}
	if ferr := api.AddComment(ctx, t.episodeID, content); ferr != nil {
		return ferr
	}
	return t.reload(ctx, api)
}

func (t *commentThread) edit(ctx context.Context, api *MemberAPI, commentID int64, content string) *FlowError {
	content = strings.TrimSpace(commentPolicy.Sanitize(content))
	if content == "" {
		return &FlowError{Code: CodeValidation, Message: "Коментарът не може да е празен."}
	}
	if !t.owns(commentID) {
		return &FlowError{Code: CodeValidation, Message: "Можете да редактирате само свои коментари."}
	}
	if ferr := api.UpdateComment(ctx, commentID, content); ferr != nil {
		return ferr
	}
	return t.reload(ctx, api)
}

func (t *commentThread) remove(ctx context.Context, api *MemberAPI, commentID int64) *FlowError {
	if !t.owns(commentID) {
		return &FlowError{Code: CodeValidation, Message: "Можете да изтривате само свои коментари."}
	}
	if ferr := api.DeleteComment(ctx, commentID); ferr != nil {
		return ferr
	}
	return t.reload(ctx, api)
}

// owns vérifie l'appartenance côté client; le backend revalide de toute
// façon.
func (t *commentThread) owns(commentID int64) bool {
	for _, c := range t.mine {
		if c.ID == commentID {
			return true
		}
	}
	return false
}

// snapshot rend la vue exposée aux pages.
type CommentThreadView struct {
	Mine       []domain.Comment `json:"mine"`
	Others     []domain.Comment `json:"others"`
	Last       bool             `json:"last"`
	UserLogged bool             `json:"userLogged"`
	PagesShown int              `json:"pagesShown"`
}

func (t *commentThread) snapshot() CommentThreadView {
	v := CommentThreadView{
		Mine:       append([]domain.Comment(nil), t.mine...),
		Others:     append([]domain.Comment(nil), t.others...),
		Last:       t.last,
		UserLogged: t.userLogged,
		PagesShown: len(t.pages),
	}
	return v
}
