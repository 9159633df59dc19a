package domain

import "errors"

type WatchPhase string

const (
	WatchIdle            WatchPhase = "idle"
	WatchEpisodesLoading WatchPhase = "episodes-loading"
	WatchReady           WatchPhase = "ready"
	WatchPlaying         WatchPhase = "playing"
	WatchPlaybackError   WatchPhase = "playback-error"
	WatchFailed          WatchPhase = "failed"
	WatchClosed          WatchPhase = "closed"
)

// WatchFailed et WatchPlaybackError sont terminaux pour la visite: l'UI ne
// propose qu'un rechargement complet.
func (p WatchPhase) IsTerminal() bool {
	return p == WatchFailed || p == WatchPlaybackError || p == WatchClosed
}

func CanTransition(from, to WatchPhase) bool {
	if from == to {
		return true
	}
	switch from {
	case WatchIdle:
		return to == WatchEpisodesLoading
	case WatchEpisodesLoading:
		return to == WatchReady || to == WatchFailed
	case WatchReady:
		return to == WatchPlaying || to == WatchPlaybackError || to == WatchClosed
	case WatchPlaying:
		// Retour à Ready lors d'un changement d'épisode.
		return to == WatchReady || to == WatchPlaybackError || to == WatchClosed
	case WatchFailed, WatchPlaybackError:
		return to == WatchClosed
	default:
		return false
	}
}

var ErrInvalidWatchTransition = errors.New("invalid watch phase transition")

// Episode est un épisode tel que listé par la source externe.
type Episode struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title,omitempty"`
	URL    string `json:"url"`
}

// PlaybackSession est la ressource de transcodage côté serveur, exclusive par
// onglet. Elle doit être détruite explicitement avant d'en créer une nouvelle.
type PlaybackSession struct {
	ID       string `json:"sessionId"`
	M3U8Link string `json:"m3u8Link"`
}

// SubtitleTrack est l'artefact dérivé d'une demande de sous-titres: la piste
// traduite, prête à être servie.
type SubtitleTrack struct {
	URL      string `json:"trackUrl"`
	Language string `json:"language"`
}
