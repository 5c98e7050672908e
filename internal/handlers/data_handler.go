package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/telhawk-systems/telhawk-receiver/internal/httputil"
	"github.com/telhawk-systems/telhawk-receiver/internal/logging"
	"github.com/telhawk-systems/telhawk-receiver/internal/metrics"
	"github.com/telhawk-systems/telhawk-receiver/internal/payload"
	"github.com/telhawk-systems/telhawk-receiver/internal/relay"
)

// ReceivedMessage is the log message written for every accepted payload.
const ReceivedMessage = "Received data"

// RejectedMessage is the log message written for bodies that fail to parse.
const RejectedMessage = "Rejected payload"

// AckResponse is the fixed acknowledgement returned for accepted payloads.
type AckResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

var ack = AckResponse{Status: "success", Message: "Data received"}

// DataHandler accepts JSON payloads, logs them and acknowledges them.
type DataHandler struct {
	logger       *logging.Logger
	relay        relay.Publisher
	maxBodyBytes int64
}

// NewDataHandler creates a handler. A nil relay disables forwarding and a
// maxBodyBytes of zero leaves the body size unbounded.
func NewDataHandler(logger *logging.Logger, pub relay.Publisher, maxBodyBytes int64) *DataHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if pub == nil {
		pub = relay.NoOp{}
	}
	return &DataHandler{
		logger:       logger,
		relay:        pub,
		maxBodyBytes: maxBodyBytes,
	}
}

// HandleData serves POST /data. Method filtering is left to the router.
func (h *DataHandler) HandleData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.reject(w, r, http.StatusRequestEntityTooLarge, "payload too large", err)
			return
		}
		h.reject(w, r, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	value, err := payload.Parse(body)
	if err != nil {
		h.reject(w, r, http.StatusBadRequest, "invalid JSON payload", err)
		return
	}

	h.logger.InfoContext(ctx, ReceivedMessage,
		logging.Data(value),
		logging.Bytes(len(body)),
	)
	metrics.PayloadsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	metrics.PayloadBytesTotal.Add(float64(len(body)))

	if err := h.relay.Publish(ctx, []byte(value.String())); err != nil {
		metrics.RelayErrors.Inc()
		h.logger.WarnContext(ctx, "Failed to relay payload", logging.Error(err))
	}

	httputil.WriteJSON(w, http.StatusOK, ack)
}

func (h *DataHandler) reject(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	metrics.PayloadsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
	h.logger.WarnContext(r.Context(), RejectedMessage,
		logging.Status(status),
		logging.Error(err),
	)
	httputil.WriteError(w, status, msg)
}
