package api

import (
	"net/http"
	"time"
)

// healthAPI serves the liveness and readiness probes. Both are static: they
// report on the process only and never touch the upstream services.
type healthAPI struct{}

func (a *healthAPI) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (a *healthAPI) ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ready",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
