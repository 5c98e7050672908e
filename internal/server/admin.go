package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/telhawk-systems/telhawk-receiver/internal/httputil"
	"github.com/telhawk-systems/telhawk-receiver/internal/relay"
)

// Relay states reported by /readyz.
const (
	RelayUp       = "up"
	RelayDown     = "down"
	RelayDisabled = "disabled"
)

// ReadyResponse is the body of /readyz.
type ReadyResponse struct {
	Status string `json:"status"`
	Relay  string `json:"relay"`
}

// Admin serves health, readiness and metrics on the operational listener.
type Admin struct {
	relay        relay.Publisher
	relayEnabled bool
}

// NewAdmin creates the admin handlers. pub may be nil when the relay is disabled.
func NewAdmin(pub relay.Publisher, relayEnabled bool) *Admin {
	if pub == nil {
		pub = relay.NoOp{}
	}
	return &Admin{relay: pub, relayEnabled: relayEnabled}
}

// Health reports liveness.
func (a *Admin) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready reports readiness. A configured relay that lost its connection
// degrades readiness without affecting ingestion.
func (a *Admin) Ready(w http.ResponseWriter, r *http.Request) {
	if !a.relayEnabled {
		httputil.WriteJSON(w, http.StatusOK, ReadyResponse{Status: "ready", Relay: RelayDisabled})
		return
	}
	if !a.relay.Healthy() {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "degraded", Relay: RelayDown})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReadyResponse{Status: "ready", Relay: RelayUp})
}

// NewAdminRouter constructs the admin ServeMux.
func NewAdminRouter(a *Admin) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.Health)
	mux.HandleFunc("GET /readyz", a.Ready)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
