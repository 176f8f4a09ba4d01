package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// AuditEntryView is one row of GET /admin/audit.
type AuditEntryView struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	ActorEmail string    `json:"actor_email"`
	ActorRole  string    `json:"actor_role,omitempty"`
	Status     string    `json:"status"`
	Details    string    `json:"details,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditResponse is the body of GET /admin/audit.
type AuditResponse struct {
	Persistent bool             `json:"persistent"`
	Entries    []AuditEntryView `json:"entries"`
}

// AuditLog handles GET /admin/audit?limit=n.
func (c *Console) AuditLog(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := c.adminPage(w, r); !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := c.audit.Recent(r.Context(), limit)
	if err != nil {
		c.logger.Error("failed to list audit entries", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}

	resp := AuditResponse{Persistent: c.audit.Persistent(), Entries: make([]AuditEntryView, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, AuditEntryView{
			ID:         e.ID,
			Action:     e.Action,
			Resource:   e.Resource,
			ResourceID: e.ResourceID,
			ActorEmail: e.ActorEmail,
			ActorRole:  string(e.ActorRole),
			Status:     e.Status,
			Details:    e.Details,
			RequestID:  e.RequestID,
			CreatedAt:  e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
