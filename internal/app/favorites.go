package app

import (
	"context"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/senpai-bg/senpai-client/internal/domain"
)

// favoriteScanSize couvre la liste entière en un appel: le backend ne sait
// pas chercher un favori par titre, on balaie.
const favoriteScanSize = 1000

// favoriteState suit l'état favori d'un anime pour une visite. Le backend
// est la source de vérité: chaque bascule est réconciliée avec sa réponse,
// y compris les conflits (déjà favori, déjà retiré) issus d'un autre onglet.
//
// Non synchronisé: l'appelant (WatchSession) sérialise tous les accès.
type favoriteState struct {
	animeTitle string

	known      bool
	favorited  bool
	favoriteID int64
}

// favoriteScans déduplique les balayages concurrents de la même liste
// (plusieurs visites ouvertes en même temps).
var favoriteScans singleflight.Group

func newFavoriteState(animeTitle string) *favoriteState {
	return &favoriteState{animeTitle: animeTitle}
}

// scan résout l'état initial en balayant la liste des favoris du membre.
func (f *favoriteState) scan(ctx context.Context, api *MemberAPI) *FlowError {
	v, err, _ := favoriteScans.Do("scan", func() (any, error) {
		favs, _, ferr := api.ListFavorites(ctx, 1, favoriteScanSize)
		if ferr != nil {
			return nil, ferr
		}
		return favs, nil
	})
	if err != nil {
		if ferr, ok := err.(*FlowError); ok {
			return ferr
		}
		return &FlowError{Code: CodeBadData, Message: "Грешка при зареждане на фаворитите.", Err: err}
	}
	favs := v.([]domain.Favorite)
	f.known = true
	f.favorited = false
	f.favoriteID = 0
	for _, fav := range favs {
		if fav.MatchesTitle(f.animeTitle) {
			f.favorited = true
			f.favoriteID = fav.ID
			break
		}
	}
	return nil
}

// toggle bascule l'état favori et réconcilie avec la réponse du backend:
//   - ajout 201: favori, id renvoyé;
//   - ajout 409: un autre onglet l'a déjà ajouté — on converge vers
//     "favori" et on rebalaie pour récupérer l'id;
//   - retrait 204: retiré;
//   - retrait 404: déjà retiré ailleurs — on converge vers "pas favori".
func (f *favoriteState) toggle(ctx context.Context, api *MemberAPI, animeID int64) *FlowError {
	if !f.known {
		if ferr := f.scan(ctx, api); ferr != nil {
			return ferr
		}
	}

	if !f.favorited {
		fav, status, ferr := api.AddFavorite(ctx, animeID)
		switch {
		case status == http.StatusCreated:
			f.favorited = true
			f.favoriteID = fav.ID
			return nil
		case status == http.StatusConflict:
			f.favorited = true
			return f.scan(ctx, api)
		default:
			return ferr
		}
	}

	status, ferr := api.DeleteFavorite(ctx, f.favoriteID)
	switch {
	case ferr == nil, status == http.StatusNotFound:
		f.favorited = false
		f.favoriteID = 0
		return nil
	default:
		return ferr
	}
}

type FavoriteView struct {
	Known     bool `json:"known"`
	Favorited bool `json:"favorited"`
	ID        int64 `json:"id,omitempty"`
}

func (f *favoriteState) snapshot() FavoriteView {
	return FavoriteView{Known: f.known, Favorited: f.favorited, ID: f.favoriteID}
}
