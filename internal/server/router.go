package server

import (
	"net/http"

	"github.com/telhawk-systems/telhawk-receiver/internal/config"
	"github.com/telhawk-systems/telhawk-receiver/internal/handlers"
	"github.com/telhawk-systems/telhawk-receiver/internal/middleware"
)

// NewRouter constructs the ingestion ServeMux. It serves POST /data and
// nothing else; other methods on /data get 405 and other paths 404.
func NewRouter(h *handlers.DataHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /data", h.HandleData)

	return middleware.RequestID(middleware.Instrument(mux))
}

// New builds the ingestion server from its configuration.
func New(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
