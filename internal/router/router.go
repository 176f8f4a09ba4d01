// Package router decides what each path shows for the current session state.
package router

import (
	"sync"
	"time"

	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/session"
)

// Phase is the coarse state of the console.
type Phase int

const (
	Loading Phase = iota
	Unauthenticated
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is a Phase plus, when authenticated, the role.
type State struct {
	Phase Phase
	Role  domain.Role
}

func LoadingState() State         { return State{Phase: Loading} }
func UnauthenticatedState() State { return State{Phase: Unauthenticated} }

// AuthenticatedState returns Authenticated(role). An unknown role yields
// Unauthenticated.
func AuthenticatedState(role domain.Role) State {
	if !role.Valid() {
		return UnauthenticatedState()
	}
	return State{Phase: Authenticated, Role: role}
}

// FromSession derives the state of a settled session. An expired token
// counts as logged out.
func FromSession(s session.Session, now time.Time) State {
	if !s.Authenticated || s.Token == "" || s.Expired(now) {
		return UnauthenticatedState()
	}
	return AuthenticatedState(s.Role)
}

// Machine holds the current State of one console session.
type Machine struct {
	mu    sync.RWMutex
	state State
	now   func() time.Time
}

// NewMachine starts in Loading; nothing protected renders until Complete.
func NewMachine() *Machine {
	return &Machine{state: LoadingState(), now: time.Now}
}

func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Begin enters Loading while a bootstrap is outstanding.
func (m *Machine) Begin() {
	m.set(LoadingState())
}

// Complete settles the state from the session after bootstrap or login.
func (m *Machine) Complete(s session.Session) State {
	st := FromSession(s, m.now())
	m.set(st)
	return st
}

// Logout enters Unauthenticated.
func (m *Machine) Logout() {
	m.set(UnauthenticatedState())
}

func (m *Machine) set(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// Paths of the route table.
const (
	LoginPath    = "/"
	AdminPath    = "/admin"
	ManagerPath  = "/manager"
	EmployeePath = "/employee"
)

// View is what a path renders.
type View int

const (
	ViewNone View = iota
	ViewLogin
	ViewAdmin
	ViewManager
	ViewEmployee
)

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "login"
	case ViewAdmin:
		return "admin"
	case ViewManager:
		return "manager"
	case ViewEmployee:
		return "employee"
	default:
		return "none"
	}
}

// Action is the kind of Decision.
type Action int

const (
	ShowLoading Action = iota
	Render
	Redirect
)

// Decision is the result of resolving a path.
type Decision struct {
	Action Action
	View   View   // set for Render
	Target string // set for Redirect
}

// HomePath is the landing path for role; unknown roles land on login.
func HomePath(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return AdminPath
	case domain.RoleManager:
		return ManagerPath
	case domain.RoleEmployee:
		return EmployeePath
	case domain.RoleUnknown:
		return LoginPath
	default:
		return LoginPath
	}
}

// Title is the dashboard header for role.
func Title(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "Admin Panel"
	case domain.RoleManager:
		return "Manager Panel"
	case domain.RoleEmployee:
		return "Employee Panel"
	case domain.RoleUnknown:
		return "Panel"
	default:
		return "Panel"
	}
}

// protected maps each protected path to the role allowed on it.
func protected(path string) (domain.Role, View, bool) {
	switch path {
	case AdminPath:
		return domain.RoleAdmin, ViewAdmin, true
	case ManagerPath:
		return domain.RoleManager, ViewManager, true
	case EmployeePath:
		return domain.RoleEmployee, ViewEmployee, true
	default:
		return domain.RoleUnknown, ViewNone, false
	}
}

// Resolve decides what path shows in state.
func Resolve(state State, path string) Decision {
	switch state.Phase {
	case Loading:
		return Decision{Action: ShowLoading}
	case Unauthenticated, Authenticated:
		return resolveSettled(state, path)
	default:
		return Decision{Action: ShowLoading}
	}
}

func resolveSettled(state State, path string) Decision {
	if path == LoginPath {
		if state.Phase == Authenticated {
			return Decision{Action: Redirect, Target: HomePath(state.Role)}
		}
		return Decision{Action: Render, View: ViewLogin}
	}

	role, view, ok := protected(path)
	if !ok {
		return Decision{Action: Redirect, Target: LoginPath}
	}
	if state.Phase != Authenticated || state.Role != role {
		return Decision{Action: Redirect, Target: LoginPath}
	}
	return Decision{Action: Render, View: view}
}
