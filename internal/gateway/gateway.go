package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/senpai-bg/senpai-client/internal/adapters/memorybus"
	"github.com/senpai-bg/senpai-client/internal/metrics"
	"github.com/senpai-bg/senpai-client/internal/ports"
)

const maxBodyBytes = 4 << 20

// Result est le descripteur rendu à l'appelant: jamais de panique, jamais
// d'exception — les flux branchent sur OK/Status.
type Result struct {
	OK           bool
	Status       int
	Body         []byte
	NetworkError bool
}

func (r Result) Decode(v any) error {
	if len(r.Body) == 0 {
		return io.EOF
	}
	return json.Unmarshal(r.Body, v)
}

// Message extrait le message d'erreur backend ({"message": ...}), "" sinon.
func (r Result) Message() string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return ""
	}
	return body.Message
}

// FieldErrors extrait une map champ -> message (erreurs de validation 400).
func (r Result) FieldErrors() map[string]string {
	var fields map[string]string
	if err := json.Unmarshal(r.Body, &fields); err != nil {
		return nil
	}
	return fields
}

type Options struct {
	// SkipAuth: ni bearer ni interception 401/403. Pour login/register/
	// forgot-password, où un 401 signifie "mauvais identifiants" et pas
	// "session expirée".
	SkipAuth bool
	// AllowForbidden rend le 403 à l'appelant au lieu de le traiter comme un
	// bannissement. Le site d'appel (traduction de sous-titres) sait qu'un
	// 403 y signifie quota atteint.
	AllowForbidden bool
}

// Gateway attache le bearer aux hôtes possédés, intercepte 401/403, et
// canalise les pannes réseau vers la redirection globale "serveur
// indisponible" (latch: un seul déclenchement même si plusieurs appels
// échouent dans le même cycle).
type Gateway struct {
	client  *http.Client
	store   ports.SessionStore
	bus     ports.EventBus
	latch   *memorybus.Latch
	metrics *metrics.Collector
	logger  zerolog.Logger

	// ownedHosts reçoivent Authorization; les API externes (catalogue,
	// source d'épisodes) ne s'attendent pas à notre JWT.
	ownedHosts map[string]bool
}

func New(store ports.SessionStore, bus ports.EventBus, logger zerolog.Logger, ownedURLs ...string) *Gateway {
	owned := make(map[string]bool, len(ownedURLs))
	for _, raw := range ownedURLs {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			owned[u.Host] = true
		}
	}
	return &Gateway{
		client:     &http.Client{Timeout: 30 * time.Second},
		store:      store,
		bus:        bus,
		latch:      memorybus.NewLatch(),
		logger:     logger,
		ownedHosts: owned,
	}
}

func (g *Gateway) WithClient(client *http.Client) *Gateway {
	if client != nil {
		g.client = client
	}
	return g
}

func (g *Gateway) WithMetrics(m *metrics.Collector) *Gateway {
	g.metrics = m
	return g
}

// Latch est exposé pour les tests et le réarmement manuel.
func (g *Gateway) Latch() *memorybus.Latch {
	return g.latch
}

func (g *Gateway) Do(req *http.Request, opts Options) Result {
	ctx := req.Context()
	owned := g.ownedHosts[req.URL.Host]

	if !opts.SkipAuth && owned {
		if token, err := g.store.Token(ctx); err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("network failure")
		g.serverDown(req)
		return Result{OK: false, Status: 0, NetworkError: true}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	result := Result{OK: resp.StatusCode >= 200 && resp.StatusCode < 300, Status: resp.StatusCode, Body: body}
	g.metrics.RecordRequest(req.URL.Host, resp.StatusCode)

	if resp.StatusCode >= http.StatusInternalServerError {
		g.serverDown(req)
		return result
	}

	// Le backend répond: le latch serveur-down se réarme.
	g.latch.Reset()

	if opts.SkipAuth || !owned {
		return result
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		// Token expiré ou invalide. On purge et on renvoie quand même la
		// réponse: l'appelant ne doit pas supposer que la redirection coupe
		// son flot de contrôle.
		g.logger.Warn().Str("url", req.URL.String()).Msg("token expired or invalid")
		g.evictSession(req)
		g.navigate("/login")
	case http.StatusForbidden:
		if !opts.AllowForbidden {
			g.logger.Warn().Str("url", req.URL.String()).Msg("account banned")
			g.evictSession(req)
			g.navigate("/banned")
		}
	}
	return result
}

func (g *Gateway) evictSession(req *http.Request) {
	g.metrics.RecordAuthEviction()
	if err := g.store.ClearSession(req.Context()); err != nil {
		g.logger.Error().Err(err).Msg("failed to clear session")
	}
}

// serverDown déclenche la redirection globale au plus une fois tant que le
// latch n'est pas réarmé. La session persistée est purgée pour que le
// prochain login reparte propre.
func (g *Gateway) serverDown(req *http.Request) {
	if !g.latch.TryFire() {
		return
	}
	g.metrics.RecordServerDown()
	if err := g.store.ClearSession(req.Context()); err != nil {
		g.logger.Error().Err(err).Msg("failed to clear session on server-down")
	}
	if g.bus != nil {
		g.bus.Signal(ports.TopicServerDown)
	}
	g.navigate("/500")
}

func (g *Gateway) navigate(to string) {
	if g.bus == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"to": to})
	g.bus.Publish(ports.TopicNavigate, payload)
}
