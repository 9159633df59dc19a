package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Backends distants consommés comme des collaborateurs opaques.
type Backends struct {
	// MemberURL est le backend membre/auth (le seul qui reçoit le bearer).
	MemberURL string
	// CatalogURL est l'API catalogue/recherche (HiAnime).
	CatalogURL string
	// EpisodeSourceURL est l'API tierce de listing d'épisodes (Consumet).
	EpisodeSourceURL string
	// VideoURL est le pipeline de conversion/streaming vidéo.
	VideoURL string
}

type Config struct {
	Addr     string
	DBPath   string
	Backends Backends
}

// Load charge .env (optionnel) puis l'environnement.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:   envOr("SENPAI_ADDR", "127.0.0.1:5173"),
		DBPath: envOr("SENPAI_DB_PATH", "senpai.db"),
		Backends: Backends{
			MemberURL:        envOr("SENPAI_MEMBER_URL", "http://localhost:8080"),
			CatalogURL:       envOr("SENPAI_CATALOG_URL", "http://localhost:3030"),
			EpisodeSourceURL: envOr("SENPAI_EPISODE_SOURCE_URL", "http://localhost:3000"),
			VideoURL:         envOr("SENPAI_VIDEO_URL", "http://localhost:8081"),
		},
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
