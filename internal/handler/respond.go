package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yourorg/orderdesk/internal/dashboard"
)

// ActionResponse answers a write: the alert to show and the refreshed page.
type ActionResponse struct {
	Alert    string              `json:"alert,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
	Confirm  string              `json:"confirm,omitempty"`
	Page     *dashboard.Document `json:"page,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeAlert(w http.ResponseWriter, status int, alert string, page *dashboard.Document) {
	writeJSON(w, status, ActionResponse{Alert: alert, Page: page})
}
