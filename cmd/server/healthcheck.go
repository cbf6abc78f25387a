package main

import (
	"encoding/json"
	"net/http"
	"time"
)

type healthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	Connections int    `json:"connections"`
}

// handleHealth handles the GET /health endpoint
func (app *application) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthResponse{
		Status:      "ok",
		Uptime:      time.Since(app.StartTime).Round(time.Second).String(),
		Connections: app.Hub.ConnectionCount(),
	})
}
