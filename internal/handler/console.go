// Package handler serves the console over HTTP as JSON view documents.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/orderdesk/internal/app"
	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/dashboard"
	"github.com/yourorg/orderdesk/internal/form"
	"github.com/yourorg/orderdesk/internal/router"
	"github.com/yourorg/orderdesk/internal/security/audit"
	"github.com/yourorg/orderdesk/internal/security/middleware"
)

// Alerts shown to the user.
const (
	alertBadLogin       = "Username or Password Incorrect!"
	alertNoDashboard    = "Your account has no dashboard."
	alertProductAdded   = "Product added successfully!"
	alertProductUpdated = "Product updated successfully!"
	alertProductDeleted = "Product deleted successfully!"
	alertSubmitRejected = "Error submitting the form."
	alertSubmitFailed   = "Failed to submit the form."
	alertDeleteRejected = "Error deleting the product."
	alertDeleteFailed   = "Failed to delete the product."
	alertUserSaved      = "User saved successfully!"
	alertUserDeleted    = "User deleted successfully!"
	alertStatusFailed   = "Failed to update order status."
	alertOrderFailed    = "Failed to place the order."
)

// Console serves the login view, the role pages and their actions.
type Console struct {
	audit  *audit.Logger
	logger *slog.Logger
}

// NewConsole creates the console handlers.
func NewConsole(auditLogger *audit.Logger, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger(logger, nil)
	}
	return &Console{audit: auditLogger, logger: logger}
}

// Register adds every console route to mux.
func (c *Console) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /login", c.Login)
	mux.HandleFunc("POST /logout", c.Logout)

	mux.HandleFunc("GET "+router.AdminPath, c.ShowPage)
	mux.HandleFunc("GET "+router.ManagerPath, c.ShowPage)
	mux.HandleFunc("GET "+router.EmployeePath, c.ShowPage)

	mux.HandleFunc("GET /admin/users/form", c.UserForm)
	mux.HandleFunc("POST /admin/users", c.CreateUser)
	mux.HandleFunc("PUT /admin/users/{id}", c.UpdateUser)
	mux.HandleFunc("DELETE /admin/users/{id}", c.DeleteUser)
	mux.HandleFunc("GET /admin/audit", c.AuditLog)

	for _, base := range []string{router.AdminPath, router.ManagerPath} {
		mux.HandleFunc("POST "+base+"/products", c.CreateProduct)
		mux.HandleFunc("PUT "+base+"/products/{id}", c.UpdateProduct)
		mux.HandleFunc("DELETE "+base+"/products/{id}", c.DeleteProduct)
		mux.HandleFunc("POST "+base+"/orders/{id}/status", c.ChangeOrderStatus)
	}

	mux.HandleFunc("POST /employee/orders", c.PlaceOrder)

	// The login page, and anything unknown, goes through the router.
	mux.HandleFunc("GET /", c.Root)
}

// LoginView is the document of the login page.
type LoginView struct {
	View  string `json:"view"`
	Title string `json:"title"`
}

// LoadingView is returned while the session bootstrap is running.
type LoadingView struct {
	View string `json:"view"`
}

// Root handles GET / and unknown paths.
func (c *Console) Root(w http.ResponseWriter, r *http.Request) {
	a, ok := c.session(w, r)
	if !ok {
		return
	}
	a.Start(r.Context())
	d := a.Resolve(r.URL.Path)
	switch d.Action {
	case router.ShowLoading:
		writeJSON(w, http.StatusAccepted, LoadingView{View: "loading"})
	case router.Redirect:
		http.Redirect(w, r, d.Target, http.StatusSeeOther)
	case router.Render:
		writeJSON(w, http.StatusOK, LoginView{View: d.View.String(), Title: "Login"})
	}
}

// ShowPage handles GET of the role pages.
func (c *Console) ShowPage(w http.ResponseWriter, r *http.Request) {
	_, page, ok := c.gate(w, r, r.URL.Path, false)
	if !ok {
		return
	}
	doc := page.Show(r.Context(), parseQuery(r))
	writeJSON(w, http.StatusOK, doc)
}

// session returns the console session attached by the session middleware.
func (c *Console) session(w http.ResponseWriter, r *http.Request) (*app.App, bool) {
	a := middleware.SessionFromContext(r.Context())
	if a == nil {
		c.logger.Error("request without session", slog.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, "no session")
		return nil, false
	}
	return a, true
}

// gate runs the bootstrap and lets the request through only when the
// router renders the page at path. Page reads redirect; writes answer 401.
func (c *Console) gate(w http.ResponseWriter, r *http.Request, path string, write bool) (*app.App, dashboard.Page, bool) {
	a, ok := c.session(w, r)
	if !ok {
		return nil, nil, false
	}
	a.Start(r.Context())
	d := a.Resolve(path)
	switch d.Action {
	case router.ShowLoading:
		writeJSON(w, http.StatusAccepted, LoadingView{View: "loading"})
		return nil, nil, false
	case router.Redirect:
		if write {
			writeJSON(w, http.StatusUnauthorized, ActionResponse{Redirect: d.Target})
		} else {
			http.Redirect(w, r, d.Target, http.StatusSeeOther)
		}
		return nil, nil, false
	case router.Render:
	}
	page := a.Page()
	if page == nil {
		// Logged out between Resolve and Page.
		http.Redirect(w, r, router.LoginPath, http.StatusSeeOther)
		return nil, nil, false
	}
	return a, page, true
}

func parseQuery(r *http.Request) dashboard.Query {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	return dashboard.Query{
		Tab:     q.Get("tab"),
		Page:    page,
		Sort:    q.Get("sort"),
		Status:  q.Get("status"),
		Refresh: q.Get("refresh") == "1" || q.Get("refresh") == "true",
	}
}

func actor(a *app.App) audit.Actor {
	s := a.Session()
	return audit.Actor{Email: s.Email, Role: s.Role}
}

// show renders tab of page after a write.
func show(ctx context.Context, page dashboard.Page, tab string) *dashboard.Document {
	doc := page.Show(ctx, dashboard.Query{Tab: tab})
	return &doc
}

// confirmed answers the delete prompt from the confirm query parameter and
// remembers the prompt for the response.
type confirmed struct {
	yes    bool
	prompt string
}

func (cf *confirmed) Confirm(prompt string) bool {
	cf.prompt = prompt
	return cf.yes
}

func confirmFrom(r *http.Request) *confirmed {
	return &confirmed{yes: r.URL.Query().Get("confirm") == "yes"}
}

// writeFailure maps a form or backend error onto a response. rejected and
// failed are the alerts for a backend refusal and an unreachable backend.
func writeFailure(w http.ResponseWriter, err error, cf *confirmed, rejected, failed string, doc *dashboard.Document) {
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		writeAlert(w, http.StatusUnprocessableEntity, verr.Message, doc)
	case errors.Is(err, form.ErrNotConfirmed):
		prompt := ""
		if cf != nil {
			prompt = cf.prompt
		}
		writeJSON(w, http.StatusConflict, ActionResponse{Confirm: prompt, Page: doc})
	case errors.Is(err, form.ErrClosed), errors.Is(err, form.ErrNotEditing):
		writeAlert(w, http.StatusConflict, err.Error(), doc)
	case backend.IsStatus(err):
		writeAlert(w, http.StatusBadGateway, rejected, doc)
	default:
		writeAlert(w, http.StatusBadGateway, failed, doc)
	}
}

// outcome classifies a write error for the audit log.
func outcome(err error) string {
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		return audit.StatusInvalid
	case backend.IsStatus(err):
		return audit.StatusRejected
	default:
		return audit.StatusError
	}
}
