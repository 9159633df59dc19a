package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector regroupe les compteurs de la passerelle et de l'orchestrateur.
type Collector struct {
	requests       *prometheus.CounterVec
	authEvictions  prometheus.Counter
	serverDown     prometheus.Counter
	watchVisits    prometheus.Counter
	subtitlesQuota prometheus.Counter

	registry *prometheus.Registry
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "senpai_gateway_requests_total",
			Help: "Requêtes sortantes par backend et statut HTTP.",
		}, []string{"backend", "status"}),
		authEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "senpai_gateway_auth_evictions_total",
			Help: "Sessions purgées suite à un 401/403 du backend membre.",
		}),
		serverDown: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "senpai_gateway_server_down_total",
			Help: "Déclenchements du latch serveur indisponible.",
		}),
		watchVisits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "senpai_watch_visits_total",
			Help: "Visites de la page de visionnage ouvertes.",
		}),
		subtitlesQuota: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "senpai_subtitles_quota_hits_total",
			Help: "Traductions de sous-titres refusées pour quota (403).",
		}),
		registry: reg,
	}
	reg.MustRegister(c.requests, c.authEvictions, c.serverDown, c.watchVisits, c.subtitlesQuota)
	return c
}

func (c *Collector) RecordRequest(backend string, status int) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(backend, strconv.Itoa(status)).Inc()
}

func (c *Collector) RecordAuthEviction() {
	if c == nil {
		return
	}
	c.authEvictions.Inc()
}

func (c *Collector) RecordServerDown() {
	if c == nil {
		return
	}
	c.serverDown.Inc()
}

func (c *Collector) RecordWatchVisit() {
	if c == nil {
		return
	}
	c.watchVisits.Inc()
}

func (c *Collector) RecordSubtitlesQuotaHit() {
	if c == nil {
		return
	}
	c.subtitlesQuota.Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
