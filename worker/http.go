package worker

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/freundallein/lakeflow/chassis/logging"

	"github.com/freundallein/lakeflow/chassis/protocol"
)

const maxPayload = 1 << 20

type dispatchResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewRouter exposes POST /dispatch and GET /metrics.
func NewRouter(dispatcher Dispatcher) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/dispatch", dispatchHandler(dispatcher)).Methods(http.MethodPost)
	return router
}

func dispatchHandler(dispatcher Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayload))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dispatchResponse{Error: err.Error()})
			return
		}
		trigger, err := protocol.Decode(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dispatchResponse{Error: err.Error()})
			return
		}
		if err := dispatcher.Dispatch(r.Context(), trigger); err != nil {
			writeJSON(w, http.StatusInternalServerError, dispatchResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, dispatchResponse{OK: true})
	}
}

func writeJSON(w http.ResponseWriter, status int, body dispatchResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithFields(log.Fields{
			"event": "response_write_failed",
		}).Error(err)
	}
}
