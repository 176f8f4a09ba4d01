package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/orderdesk/internal/app"
	"github.com/yourorg/orderdesk/internal/form"
	"github.com/yourorg/orderdesk/internal/router"
	"github.com/yourorg/orderdesk/internal/security/audit"
)

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /login.
func (c *Console) Login(w http.ResponseWriter, r *http.Request) {
	a, ok := c.session(w, r)
	if !ok {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	home, err := a.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var verr *form.ValidationError
		switch {
		case errors.As(err, &verr):
			writeAlert(w, http.StatusUnprocessableEntity, verr.Message, nil)
		case errors.Is(err, app.ErrBadCredentials):
			c.audit.LogLogin(r.Context(), req.Email, audit.StatusRejected, "rejected by backend")
			writeAlert(w, http.StatusUnauthorized, alertBadLogin, nil)
		case errors.Is(err, app.ErrUnknownRole):
			c.audit.LogLogin(r.Context(), req.Email, audit.StatusRejected, "unknown role")
			writeAlert(w, http.StatusForbidden, alertNoDashboard, nil)
		default:
			c.logger.Warn("login failed",
				slog.String("email", req.Email),
				slog.String("error", err.Error()),
			)
			c.audit.LogLogin(r.Context(), req.Email, audit.StatusError, err.Error())
			writeAlert(w, http.StatusBadGateway, err.Error(), nil)
		}
		return
	}

	c.audit.LogLogin(r.Context(), req.Email, audit.StatusSuccess, "")
	writeJSON(w, http.StatusOK, ActionResponse{Redirect: home})
}

// Logout handles POST /logout. The session is cleared even when removing
// the persisted token fails.
func (c *Console) Logout(w http.ResponseWriter, r *http.Request) {
	a, ok := c.session(w, r)
	if !ok {
		return
	}
	who := actor(a)
	if err := a.Logout(r.Context()); err != nil {
		c.logger.Warn("logout left a persisted token", slog.String("error", err.Error()))
	}
	c.audit.LogLogout(r.Context(), who)
	writeJSON(w, http.StatusOK, ActionResponse{Redirect: router.LoginPath})
}
