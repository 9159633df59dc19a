package domain

import "strings"

// Favorite: au plus un par couple (membre, anime). Le backend n'expose pas de
// lookup direct, l'existence se résout en scannant la liste complète.
type Favorite struct {
	ID         int64  `json:"id"`
	AnimeID    int64  `json:"animeId,omitempty"`
	AnimeTitle string `json:"animeTitle"`
	HiAnimeID  string `json:"hiAnimeId,omitempty"`
	PosterURL  string `json:"posterUrl,omitempty"`
}

// MatchesTitle compare des titres trimés, insensible à la casse.
func (f Favorite) MatchesTitle(title string) bool {
	return f.AnimeTitle != "" &&
		strings.EqualFold(strings.TrimSpace(f.AnimeTitle), strings.TrimSpace(title))
}
