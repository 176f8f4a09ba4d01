package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/backend/backendtest"
	"github.com/yourorg/orderdesk/internal/dashboard"
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/form"
	"github.com/yourorg/orderdesk/internal/repository"
	"github.com/yourorg/orderdesk/internal/router"
)

func newApp(t *testing.T, api *backendtest.Server, tokens domain.TokenStore) *App {
	t.Helper()
	base := backend.NewClient(api.URL, nil, nil, nil)
	return New("6b0f6c1e-6a4b-4a53-9d1c-8f4f2f3d2a10", base, tokens, nil)
}

func memoryStore() domain.TokenStore {
	return repository.NewMemoryTokenStore(repository.NewMemoryTokens(), "s", time.Hour)
}

func TestStartBootstrapsOnce(t *testing.T) {
	api := backendtest.New(t)
	tokens := memoryStore()
	if err := tokens.Save(context.Background(), api.Token("mia@example.com", domain.RoleManager)); err != nil {
		t.Fatal(err)
	}
	a := newApp(t, api, tokens)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Start(context.Background())
		}()
	}
	wg.Wait()

	if n := len(api.RequestsTo("GET /api/verify-token")); n != 1 {
		t.Errorf("expected one verification, got %d", n)
	}
	d := a.Resolve(router.LoginPath)
	if d.Action != router.Redirect || d.Target != router.ManagerPath {
		t.Errorf("expected redirect to manager home, got %+v", d)
	}
	if _, ok := a.Page().(*dashboard.ManagerPage); !ok {
		t.Errorf("expected a manager page, got %T", a.Page())
	}
}

func TestResolveBeforeStartIsLoading(t *testing.T) {
	a := newApp(t, backendtest.New(t), memoryStore())
	if d := a.Resolve(router.AdminPath); d.Action != router.ShowLoading {
		t.Errorf("expected loading before bootstrap, got %+v", d)
	}
}

func TestLogin(t *testing.T) {
	api := backendtest.New(t)
	api.AddUser(domain.User{Name: "Ann", Email: "ann@example.com", Role: domain.RoleAdmin}, "secret")
	api.AddUser(domain.User{Name: "Odd", Email: "odd@example.com", Role: "Owner"}, "secret")

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
		home     string
	}{
		{"admin", "ann@example.com", "secret", nil, router.AdminPath},
		{"wrong password", "ann@example.com", "nope", ErrBadCredentials, ""},
		{"unknown role", "odd@example.com", "secret", ErrUnknownRole, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := memoryStore()
			a := newApp(t, api, tokens)
			home, err := a.Login(context.Background(), tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if home != tt.home {
				t.Errorf("expected home %q, got %q", tt.home, home)
			}
			_, loadErr := tokens.Load(context.Background())
			if tt.wantErr == nil && loadErr != nil {
				t.Errorf("expected token persisted, got %v", loadErr)
			}
			if tt.wantErr != nil && !errors.Is(loadErr, domain.ErrNoToken) {
				t.Errorf("expected no persisted token, got %v", loadErr)
			}
		})
	}
}

func TestLoginValidatesBeforeCallingBackend(t *testing.T) {
	api := backendtest.New(t)
	a := newApp(t, api, memoryStore())

	_, err := a.Login(context.Background(), "", "secret")
	var verr *form.ValidationError
	if !errors.As(err, &verr) || verr.Message != "Email is required" {
		t.Fatalf("expected email required, got %v", err)
	}
	if n := len(api.Requests()); n != 0 {
		t.Errorf("expected no backend call, got %d", n)
	}
}

func TestExpiredTokenLogsOut(t *testing.T) {
	api := backendtest.New(t)
	api.AddUser(domain.User{Name: "Ann", Email: "ann@example.com", Role: domain.RoleAdmin}, "secret")
	api.SetTokenTTL(time.Minute)
	a := newApp(t, api, memoryStore())
	if _, err := a.Login(context.Background(), "ann@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	a.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	d := a.Resolve(router.AdminPath)
	if d.Action != router.Redirect || d.Target != router.LoginPath {
		t.Errorf("expected redirect to login, got %+v", d)
	}
	if a.Page() != nil {
		t.Error("expected the page discarded")
	}
}

func TestLogout(t *testing.T) {
	api := backendtest.New(t)
	api.AddUser(domain.User{Name: "Ann", Email: "ann@example.com", Role: domain.RoleAdmin}, "secret")
	tokens := memoryStore()
	a := newApp(t, api, tokens)
	if _, err := a.Login(context.Background(), "ann@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	if err := a.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if a.Session().Authenticated || a.Page() != nil {
		t.Error("expected session cleared")
	}
	if _, err := tokens.Load(context.Background()); !errors.Is(err, domain.ErrNoToken) {
		t.Errorf("expected token removed, got %v", err)
	}
	if d := a.Resolve(router.LoginPath); d.Action != router.Render || d.View != router.ViewLogin {
		t.Errorf("expected login view, got %+v", d)
	}
}
