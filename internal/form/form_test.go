package form

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/backend/backendtest"
	"github.com/yourorg/orderdesk/internal/domain"
)

type fakeUsers struct {
	added    []backend.UserInput
	updated  map[domain.ID]backend.UserInput
	deleted  []domain.ID
	managers []string
	err      error
}

func (f *fakeUsers) AddUser(_ context.Context, in backend.UserInput) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, in)
	return nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, id domain.ID, in backend.UserInput) error {
	if f.err != nil {
		return f.err
	}
	if f.updated == nil {
		f.updated = map[domain.ID]backend.UserInput{}
	}
	f.updated[id] = in
	return nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id domain.ID) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUsers) ManagerEmails(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.managers, nil
}

type fakeProducts struct {
	calls int
	err   error
}

func (f *fakeProducts) AddProduct(context.Context, backend.ProductInput) error {
	f.calls++
	return f.err
}

func (f *fakeProducts) UpdateProduct(context.Context, domain.ID, backend.ProductInput) error {
	f.calls++
	return f.err
}

func (f *fakeProducts) DeleteProduct(context.Context, domain.ID) error {
	f.calls++
	return f.err
}

func counter(n *int) RefreshFunc {
	return func(context.Context) { *n++ }
}

func alertOf(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	return ve.Message
}

func TestProductValidationSendsNothing(t *testing.T) {
	cases := []struct {
		name   string
		fields ProductFields
		alert  string
	}{
		{"blank name", ProductFields{Name: "  ", Description: "d", Price: 1, ImageURL: "x"}, "Product name is required."},
		{"blank description", ProductFields{Name: "n", Description: "", Price: 1, ImageURL: "x"}, "Description is required."},
		{"zero price", ProductFields{Name: "n", Description: "d", Price: 0, ImageURL: "x"}, "Price must be greater than zero."},
		{"no image", ProductFields{Name: "n", Description: "d", Price: 2}, "Please upload an image."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &fakeProducts{}
			f := NewProductForm(b, nil, nil)
			f.OpenCreate()
			f.Edit(func(p *ProductFields) { *p = tc.fields })

			if got := alertOf(t, f.Submit(context.Background())); got != tc.alert {
				t.Fatalf("alert = %q, want %q", got, tc.alert)
			}
			if b.calls != 0 {
				t.Fatalf("no request expected, got %d", b.calls)
			}
			if !f.IsOpen() {
				t.Fatalf("modal should stay open")
			}
		})
	}
}

func TestNegativePriceClampsToZero(t *testing.T) {
	f := NewProductForm(&fakeProducts{}, nil, nil)
	f.OpenCreate()
	f.Edit(func(p *ProductFields) { p.Price = -4 })
	if got := f.Fields().Price; got != 0 {
		t.Fatalf("price = %v, want 0", got)
	}
}

func TestEditProductSendsMultipartPut(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddProduct(domain.Product{ID: "5", Name: "Chair", Description: "Oak", Price: 40, ImageRef: "/img/chair.png"})
	client := backend.NewClient(fake.URL, backend.StaticToken(fake.Token("a@example.com", domain.RoleAdmin)), fake.Client(), nil)

	refreshed := 0
	f := NewProductForm(client, counter(&refreshed), nil)
	f.OpenEdit(domain.Product{ID: "5", Name: "Chair", Description: "Oak", Price: 40, ImageRef: "/img/chair.png"})
	f.Edit(func(p *ProductFields) { p.Price = 45 })

	if err := f.Submit(context.Background()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	reqs := fake.RequestsTo("PUT /api/products/update/{id}")
	if len(reqs) != 1 || reqs[0].Path != "/api/products/update/5" {
		t.Fatalf("expected PUT /api/products/update/5, got %+v", reqs)
	}
	if reqs[0].Fields["price"] != "45" || reqs[0].Fields["name"] != "Chair" {
		t.Fatalf("unexpected multipart fields %v", reqs[0].Fields)
	}
	if f.IsOpen() || refreshed != 1 {
		t.Fatalf("expected modal closed and one refresh, open=%v refreshed=%d", f.IsOpen(), refreshed)
	}
	if p, _ := fake.Product("5"); p.ImageRef != "/img/chair.png" {
		t.Fatalf("untouched image should be kept, got %q", p.ImageRef)
	}
}

func TestRejectedWriteKeepsModalOpen(t *testing.T) {
	fake := backendtest.New(t)
	fake.Fail("POST /api/products/add", http.StatusInternalServerError)
	client := backend.NewClient(fake.URL, backend.StaticToken(fake.Token("a@example.com", domain.RoleAdmin)), fake.Client(), nil)

	refreshed := 0
	f := NewProductForm(client, counter(&refreshed), nil)
	f.OpenCreate()
	f.Edit(func(p *ProductFields) {
		p.Name, p.Description, p.Price, p.ImageURL = "Desk", "Pine", 99, "https://img.example.com/desk.png"
	})

	err := f.Submit(context.Background())
	if !backend.IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("expected backend rejection, got %v", err)
	}
	if !f.IsOpen() || refreshed != 0 {
		t.Fatalf("modal should stay open without refresh")
	}
	if f.Fields().Name != "Desk" {
		t.Fatalf("inputs should be kept after rejection")
	}
}

func TestEmployeeNeedsManager(t *testing.T) {
	b := &fakeUsers{}
	f := NewUserForm(b, nil, nil)
	f.OpenCreate()
	f.Edit(func(u *UserFields) {
		u.Name, u.Age, u.Email, u.Password, u.Role = "Eve", 30, "eve@example.com", "pw", domain.RoleEmployee
	})

	if !f.ManagerSelectorVisible() {
		t.Fatalf("manager selector should show for employees")
	}
	if got := alertOf(t, f.Submit(context.Background())); got != "Please select a manager." {
		t.Fatalf("unexpected alert %q", got)
	}
	if len(b.added) != 0 {
		t.Fatalf("no request expected")
	}

	f.Edit(func(u *UserFields) { u.ManagerEmail = "mia@example.com" })
	if err := f.Submit(context.Background()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(b.added) != 1 || b.added[0].ManagerEmail != "mia@example.com" {
		t.Fatalf("unexpected add %+v", b.added)
	}
}

func TestManagerNeedsNoManagerEmail(t *testing.T) {
	b := &fakeUsers{}
	f := NewUserForm(b, nil, nil)
	f.OpenCreate()
	f.Edit(func(u *UserFields) {
		u.Name, u.Email, u.Password, u.Role = "Mia", "mia@example.com", "pw", domain.RoleManager
	})
	if f.ManagerSelectorVisible() {
		t.Fatalf("manager selector should be hidden for managers")
	}
	if err := f.Submit(context.Background()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
}

func TestUserCreateRejectsAdminRole(t *testing.T) {
	f := NewUserForm(&fakeUsers{}, nil, nil)
	f.OpenCreate()
	f.Edit(func(u *UserFields) {
		u.Name, u.Email, u.Password, u.Role = "Root", "root@example.com", "pw", domain.RoleAdmin
	})
	if got := alertOf(t, f.Submit(context.Background())); got != "Role must be Manager or Employee." {
		t.Fatalf("unexpected alert %q", got)
	}
}

func TestEditModeLocksIdentityFields(t *testing.T) {
	b := &fakeUsers{}
	refreshed := 0
	f := NewUserForm(b, counter(&refreshed), nil)
	f.OpenEdit(domain.User{ID: "u7", Name: "Eve", Age: 30, Email: "eve@example.com", Role: domain.RoleEmployee, ManagerEmail: "mia@example.com"})

	f.Edit(func(u *UserFields) {
		u.Name = "Eve Adams"
		u.Email = "other@example.com"
		u.Role = domain.RoleManager
		u.Password = "hijack"
		u.ManagerEmail = "boss@example.com"
	})
	got := f.Fields()
	if got.Name != "Eve Adams" {
		t.Fatalf("name should be editable")
	}
	if got.Email != "eve@example.com" || got.Role != domain.RoleEmployee || got.Password != "" || got.ManagerEmail != "mia@example.com" {
		t.Fatalf("locked fields changed: %+v", got)
	}

	if err := f.Submit(context.Background()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	in := b.updated["u7"]
	if in.Name != "Eve Adams" || in.Email != "eve@example.com" || in.Password != "" {
		t.Fatalf("unexpected update body %+v", in)
	}
	if f.IsOpen() || refreshed != 1 {
		t.Fatalf("expected modal closed and refreshed")
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	b := &fakeUsers{}
	f := NewUserForm(b, nil, nil)
	f.OpenEdit(domain.User{ID: "u1", Name: "Eve", Email: "eve@example.com", Role: domain.RoleManager})

	var prompt string
	err := f.Delete(context.Background(), ConfirmFunc(func(p string) bool {
		prompt = p
		return false
	}))
	if !errors.Is(err, ErrNotConfirmed) || len(b.deleted) != 0 {
		t.Fatalf("declined delete should send nothing, got %v", err)
	}
	if prompt != "Are you sure you want to delete this user?" {
		t.Fatalf("unexpected prompt %q", prompt)
	}

	if err := f.Delete(context.Background(), AlwaysConfirm); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(b.deleted) != 1 || b.deleted[0] != "u1" {
		t.Fatalf("unexpected deletes %v", b.deleted)
	}
}

func TestDeleteOutsideEditMode(t *testing.T) {
	f := NewProductForm(&fakeProducts{}, nil, nil)
	f.OpenCreate()
	if err := f.Delete(context.Background(), AlwaysConfirm); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing, got %v", err)
	}
}

func TestManagerEmailFailureIsSwallowed(t *testing.T) {
	b := &fakeUsers{managers: []string{"mia@example.com"}}
	f := NewUserForm(b, nil, nil)
	f.LoadManagerEmails(context.Background())

	b.err = errors.New("down")
	f.LoadManagerEmails(context.Background())
	if got := f.ManagerEmails(); len(got) != 1 {
		t.Fatalf("failed fetch should keep the prior list, got %v", got)
	}
}

func TestCloseRestoresDefaults(t *testing.T) {
	f := NewUserForm(&fakeUsers{}, nil, nil)
	f.OpenCreate()
	f.Edit(func(u *UserFields) { u.Name = "draft" })
	f.Close()
	if f.IsOpen() || f.Fields() != (UserFields{}) || f.Mode() != Closed {
		t.Fatalf("close should restore blank defaults")
	}
}

func TestValidateLogin(t *testing.T) {
	cases := []struct {
		fields LoginFields
		alert  string
	}{
		{LoginFields{Email: "", Password: "secret"}, "Email is required"},
		{LoginFields{Email: "not-an-email", Password: "secret"}, "Invalid email format"},
		{LoginFields{Email: "a@example.com", Password: ""}, "Password is required"},
		{LoginFields{Email: "a@example.com", Password: "ab"}, "Password must be at least 3 characters"},
	}
	for _, tc := range cases {
		if got := alertOf(t, ValidateLogin(tc.fields)); got != tc.alert {
			t.Errorf("ValidateLogin(%+v) = %q, want %q", tc.fields, got, tc.alert)
		}
	}
	if err := ValidateLogin(LoginFields{Email: "a@example.com", Password: "abc"}); err != nil {
		t.Fatalf("valid credentials rejected: %v", err)
	}
}
