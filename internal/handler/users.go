package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yourorg/orderdesk/internal/app"
	"github.com/yourorg/orderdesk/internal/dashboard"
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/form"
	"github.com/yourorg/orderdesk/internal/router"
	"github.com/yourorg/orderdesk/internal/security/audit"
)

// UserRequest is the body of the user create and update routes. On update
// only name and age are used; the other fields are locked.
type UserRequest struct {
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	ManagerEmail string `json:"manager_email"`
}

func (c *Console) adminPage(w http.ResponseWriter, r *http.Request) (*app.App, *dashboard.AdminPage, bool) {
	a, page, ok := c.gate(w, r, router.AdminPath, true)
	if !ok {
		return nil, nil, false
	}
	admin, ok := page.(*dashboard.AdminPage)
	if !ok {
		writeError(w, http.StatusForbidden, "admin only")
		return nil, nil, false
	}
	return a, admin, true
}

// findUser looks id up in the team list, refetching it once on a miss.
func findUser(ctx context.Context, admin *dashboard.AdminPage, id domain.ID) (domain.User, bool) {
	if u, ok := admin.Team.Find(id); ok {
		return u, true
	}
	admin.Show(ctx, dashboard.Query{Tab: dashboard.TabTeam, Refresh: true})
	return admin.Team.Find(id)
}

// UserForm handles GET /admin/users/form. Without id the modal opens for a
// new user; close=1 closes it.
func (c *Console) UserForm(w http.ResponseWriter, r *http.Request) {
	_, admin, ok := c.adminPage(w, r)
	if !ok {
		return
	}
	f := admin.Team.Form()
	q := r.URL.Query()
	switch {
	case q.Get("close") == "1":
		f.Close()
	case q.Get("id") != "":
		u, found := findUser(r.Context(), admin, domain.ID(q.Get("id")))
		if !found {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		f.OpenEdit(u)
	default:
		f.OpenCreate()
	}
	if f.IsOpen() {
		f.LoadManagerEmails(r.Context())
	}
	writeJSON(w, http.StatusOK, dashboard.UserFormState(f))
}

// CreateUser handles POST /admin/users.
func (c *Console) CreateUser(w http.ResponseWriter, r *http.Request) {
	a, admin, ok := c.adminPage(w, r)
	if !ok {
		return
	}
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f := admin.Team.Form()
	if f.Mode() != form.Create {
		f.OpenCreate()
	}
	f.Edit(func(u *form.UserFields) {
		u.Name = req.Name
		u.Age = req.Age
		u.Email = req.Email
		u.Password = req.Password
		u.Role = domain.Role(req.Role)
		u.ManagerEmail = req.ManagerEmail
	})
	c.submitUser(w, r, a, admin, f, "create", req.Email)
}

// UpdateUser handles PUT /admin/users/{id}.
func (c *Console) UpdateUser(w http.ResponseWriter, r *http.Request) {
	a, admin, ok := c.adminPage(w, r)
	if !ok {
		return
	}
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := domain.ID(r.PathValue("id"))
	u, found := findUser(r.Context(), admin, id)
	if !found {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	f := admin.Team.Form()
	if f.Mode() != form.Edit || f.EditingID() != id {
		f.OpenEdit(u)
	}
	f.Edit(func(u *form.UserFields) {
		u.Name = req.Name
		u.Age = req.Age
	})
	c.submitUser(w, r, a, admin, f, "update", id.String())
}

func (c *Console) submitUser(w http.ResponseWriter, r *http.Request, a *app.App, admin *dashboard.AdminPage, f *form.UserForm, action, resourceID string) {
	ctx := r.Context()
	if err := f.Submit(ctx); err != nil {
		c.audit.LogAction(ctx, actor(a), action, "user", resourceID, outcome(err), err.Error())
		writeFailure(w, err, nil, alertSubmitRejected, alertSubmitFailed, show(ctx, admin, dashboard.TabTeam))
		return
	}
	c.audit.LogAction(ctx, actor(a), action, "user", resourceID, audit.StatusSuccess, "")
	writeAlert(w, http.StatusOK, alertUserSaved, show(ctx, admin, dashboard.TabTeam))
}

// DeleteUser handles DELETE /admin/users/{id}; confirm=yes answers the
// prompt.
func (c *Console) DeleteUser(w http.ResponseWriter, r *http.Request) {
	a, admin, ok := c.adminPage(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	id := domain.ID(r.PathValue("id"))
	u, found := findUser(ctx, admin, id)
	if !found {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	f := admin.Team.Form()
	if f.Mode() != form.Edit || f.EditingID() != id {
		f.OpenEdit(u)
	}
	cf := confirmFrom(r)
	if err := f.Delete(ctx, cf); err != nil {
		if !errors.Is(err, form.ErrNotConfirmed) {
			c.audit.LogAction(ctx, actor(a), "delete", "user", id.String(), outcome(err), err.Error())
		}
		writeFailure(w, err, cf, alertSubmitRejected, alertSubmitFailed, show(ctx, admin, dashboard.TabTeam))
		return
	}
	c.audit.LogAction(ctx, actor(a), "delete", "user", id.String(), audit.StatusSuccess, u.Email)
	writeAlert(w, http.StatusOK, alertUserDeleted, show(ctx, admin, dashboard.TabTeam))
}
