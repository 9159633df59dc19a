package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/senpai-bg/senpai-client/internal/gateway"
)

// VideoAPI pilote le serveur de diffusion: conversion d'un lien m3u8 en flux
// nommé, cycle de vie des sessions de lecture côté serveur, et construction
// de l'URL de streaming rendue au lecteur.
type VideoAPI struct {
	gw        *gateway.Gateway
	memberURL string
	videoURL  string
	logger    zerolog.Logger
}

func NewVideoAPI(gw *gateway.Gateway, memberURL, videoURL string, logger zerolog.Logger) *VideoAPI {
	return &VideoAPI{
		gw:        gw,
		memberURL: trimBase(memberURL),
		videoURL:  trimBase(videoURL),
		logger:    logger,
	}
}

// Convert demande la préparation du flux pour ce m3u8 sous le nom vidName
// (l'id de session de lecture). L'opération est longue côté serveur; le
// contexte de l'appelant porte le délai.
func (a *VideoAPI) Convert(ctx context.Context, m3u8Link, vidName string) *FlowError {
	body, _ := json.Marshal(map[string]string{"m3u8Link": m3u8Link, "vidName": vidName})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, a.memberURL+"/api/v1/episode/video", bytes.NewReader(body))
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра за видео.")
	}
	if !res.OK {
		return statusFlowError(res.Status, "Грешка при подготовка на видеото.")
	}
	return nil
}

// StreamingURL construit l'URL que le lecteur consomme.
func (a *VideoAPI) StreamingURL(vidName string) string {
	q := url.Values{}
	q.Set("vidName", vidName)
	return a.videoURL + "/api/v1/streaming?" + q.Encode()
}

// DeleteSession libère la session de diffusion côté serveur.
func (a *VideoAPI) DeleteSession(ctx context.Context, sessionID string) *FlowError {
	req, _ := http.NewRequestWithContext(ctx, http.MethodDelete,
		a.videoURL+"/api/v1/session/"+url.PathEscape(sessionID), nil)
	res := a.gw.Do(req, gateway.Options{})
	if res.NetworkError {
		return networkFlowError("Няма връзка със сървъра за видео.")
	}
	if !res.OK && res.Status != http.StatusNotFound && res.Status != http.StatusNoContent {
		return statusFlowError(res.Status, "Грешка при освобождаване на сесията.")
	}
	return nil
}

// Teardown libère la session en best-effort, détachée du contexte de
// l'appelant: le démontage ne doit jamais bloquer ni faire échouer la suite.
func (a *VideoAPI) Teardown(sessionID string) {
	if sessionID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if ferr := a.DeleteSession(ctx, sessionID); ferr != nil {
			a.logger.Debug().Str("session", sessionID).Str("reason", ferr.Code).Msg("session teardown failed")
		}
	}()
}
