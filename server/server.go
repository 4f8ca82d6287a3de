// Package server exposes hostname checks over HTTP for services that cannot
// link the detector directly.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ipshipyard/phishing-detect/detector"
)

var log = logging.Logger("phishing-detect/server")

const (
	checkPath   = "/v1/check/{hostname}"
	metricsPath = "/metrics"
)

// Checker classifies hostnames. *detector.Detector and *configfile.Watcher
// both implement it.
type Checker interface {
	Check(hostname string) (detector.CheckResult, error)
}

// NewHandler returns the HTTP API backed by c:
//
//	GET /v1/check/{hostname}   CheckResult as JSON
//	GET /metrics               Prometheus metrics
func NewHandler(c Checker) http.Handler {
	initMetrics()

	r := mux.NewRouter()
	r.HandleFunc(checkPath, checkHandler(c)).Methods(http.MethodGet)
	r.Handle(metricsPath, promhttp.Handler()).Methods(http.MethodGet)

	return withRequestMetrics(r)
}

type errorBody struct {
	Error string `json:"error"`
}

func checkHandler(c Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostname, err := detector.NormalizeHostname(mux.Vars(r)["hostname"])
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		result, err := c.Check(hostname)
		switch {
		case errors.Is(err, detector.ErrInvalidDomain):
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		default:
			writeJSON(w, http.StatusOK, result)
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debugf("writing response: %s", err)
	}
}

func withRequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		incRequest(strconv.Itoa(m.Code))
		client, _ := clientIP(r)
		log.Debugf("%s %s (status=%d dt=%s client=%s ua=%q)", r.Method, r.URL, m.Code, m.Duration, client, r.UserAgent())
	})
}
