package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/backend/backendtest"
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/form"
	"github.com/yourorg/orderdesk/internal/listview"
)

func clientFor(t *testing.T, fake *backendtest.Server, email string, role domain.Role) *backend.Client {
	t.Helper()
	return backend.NewClient(fake.URL, backend.StaticToken(fake.Token(email, role)), fake.Client(), nil)
}

func names(items []domain.Product) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Name
	}
	return out
}

func TestAdminProductsSortAndPage(t *testing.T) {
	fake := backendtest.New(t)
	for i := 1; i <= 8; i++ {
		fake.AddProduct(domain.Product{Name: "P" + strconv.Itoa(i), Description: "d", Price: float64(i * 10)})
	}
	page := NewAdminPage(clientFor(t, fake, "admin@example.com", domain.RoleAdmin), "admin@example.com", nil)
	ctx := context.Background()

	doc := page.Show(ctx, Query{Tab: TabProducts})
	if doc.Title != "Admin Panel" || doc.Products == nil {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Products.Pager.PageCount != 2 || len(doc.Products.Items) != 6 {
		t.Fatalf("expected 2 pages with 6 on the first, got %+v", doc.Products.Pager)
	}

	doc = page.Show(ctx, Query{Tab: TabProducts, Sort: string(SortPriceDesc)})
	if got := doc.Products.Items[0].Price; got != 80 {
		t.Fatalf("expected most expensive first, got %v", got)
	}

	doc = page.Show(ctx, Query{Tab: TabProducts, Page: 2})
	if doc.Products.Sort != SortPriceDesc || len(doc.Products.Items) != 2 || doc.Products.Items[1].Price != 10 {
		t.Fatalf("sort should persist across paging, got %+v", doc.Products)
	}
	if n := len(fake.RequestsTo("GET /api/products")); n != 1 {
		t.Fatalf("staying on the tab should not refetch, got %d fetches", n)
	}
}

func TestFailedRemountKeepsSort(t *testing.T) {
	fake := backendtest.New(t)
	for _, price := range []float64{10, 30, 20} {
		fake.AddProduct(domain.Product{Name: "P", Description: "d", Price: price})
	}
	page := NewManagerPage(clientFor(t, fake, "mia@example.com", domain.RoleManager), "mia@example.com", nil)
	ctx := context.Background()

	page.Show(ctx, Query{Tab: TabProducts, Sort: string(SortPriceDesc)})
	fake.Fail("GET /api/products", http.StatusInternalServerError)
	page.Show(ctx, Query{Tab: TabTeam})
	doc := page.Show(ctx, Query{Tab: TabProducts})
	if doc.Products.Sort != SortPriceDesc || doc.Products.Items[0].Price != 30 {
		t.Fatalf("expected prior sort kept with its grid, got sort=%s first=%v", doc.Products.Sort, doc.Products.Items[0].Price)
	}

	fake.Fail("GET /api/products", 0)
	page.Show(ctx, Query{Tab: TabTeam})
	doc = page.Show(ctx, Query{Tab: TabProducts})
	if doc.Products.Sort != SortDefault || doc.Products.Items[0].Price != 10 {
		t.Fatalf("expected a fresh grid in backend order, got sort=%s first=%v", doc.Products.Sort, doc.Products.Items[0].Price)
	}
}

func TestNameSortUsesCollation(t *testing.T) {
	fake := backendtest.New(t)
	for _, n := range []string{"cherry", "Banana", "apple"} {
		fake.AddProduct(domain.Product{Name: n, Description: "d", Price: 1})
	}
	page := NewEmployeePage(clientFor(t, fake, "e@example.com", domain.RoleEmployee), "e@example.com", nil)

	doc := page.Show(context.Background(), Query{Tab: TabProducts, Sort: string(SortNameAsc)})
	got := names(doc.Products.Items)
	want := []string{"apple", "Banana", "cherry"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestOrderStatusChangeRevertsOnFailure(t *testing.T) {
	fake := backendtest.New(t)
	id := fake.AddOrder(domain.Order{Status: domain.StatusPending, Customer: domain.CustomerDetails{Email: "e@example.com"}})
	page := NewAdminPage(clientFor(t, fake, "admin@example.com", domain.RoleAdmin), "admin@example.com", nil)
	ctx := context.Background()
	page.Show(ctx, Query{Tab: TabOrders})

	fake.Fail("POST /api/orders/status", http.StatusInternalServerError)
	err := page.Orders.ChangeStatus(ctx, id, domain.StatusDelivered)
	if !backend.IsStatus(err) {
		t.Fatalf("expected backend rejection, got %v", err)
	}
	doc := page.Show(ctx, Query{Tab: TabOrders})
	row := doc.Orders.Items[0]
	if row.Status != domain.StatusPending || row.Update != listview.Failed.String() {
		t.Fatalf("expected reverted pending order marked failed, got %+v", row)
	}

	fake.Fail("POST /api/orders/status", 0)
	if err := page.Orders.ChangeStatus(ctx, id, domain.StatusDelivered); err != nil {
		t.Fatalf("status change failed: %v", err)
	}
	if o, _ := fake.Order(id); o.Status != domain.StatusDelivered {
		t.Fatalf("backend not updated: %+v", o)
	}
	doc = page.Show(ctx, Query{Tab: TabOrders})
	if doc.Orders.Items[0].Update != listview.Confirmed.String() {
		t.Fatalf("expected confirmed, got %+v", doc.Orders.Items[0])
	}
}

func TestOrdersStatusFilter(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddOrder(domain.Order{Status: domain.StatusPending})
	fake.AddOrder(domain.Order{Status: domain.StatusDelivered})
	fake.AddOrder(domain.Order{Status: domain.StatusPending})
	page := NewAdminPage(clientFor(t, fake, "admin@example.com", domain.RoleAdmin), "admin@example.com", nil)

	doc := page.Show(context.Background(), Query{Tab: TabOrders, Status: "Pending"})
	if len(doc.Orders.Items) != 2 || doc.Orders.Status != "Pending" {
		t.Fatalf("expected 2 pending orders, got %+v", doc.Orders)
	}
	doc = page.Show(context.Background(), Query{Tab: TabOrders, Status: StatusAll})
	if len(doc.Orders.Items) != 3 {
		t.Fatalf("expected all 3 orders, got %d", len(doc.Orders.Items))
	}
}

func TestManagerSeesOwnTeam(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser(domain.User{Name: "Eve", Email: "eve@example.com", Role: domain.RoleEmployee, ManagerEmail: "mia@example.com"}, "pw")
	fake.AddUser(domain.User{Name: "Bob", Email: "bob@example.com", Role: domain.RoleEmployee, ManagerEmail: "other@example.com"}, "pw")
	fake.AddOrder(domain.Order{Status: domain.StatusPending, Customer: domain.CustomerDetails{Email: "eve@example.com", ManagerEmail: "mia@example.com"}})
	fake.AddOrder(domain.Order{Status: domain.StatusPending, Customer: domain.CustomerDetails{Email: "bob@example.com", ManagerEmail: "other@example.com"}})
	page := NewManagerPage(clientFor(t, fake, "mia@example.com", domain.RoleManager), "mia@example.com", nil)
	ctx := context.Background()

	doc := page.Show(ctx, Query{})
	if doc.Tab != TabTeam || doc.Title != "Manager Panel" {
		t.Fatalf("unexpected header %+v", doc)
	}
	if len(doc.Members.Members) != 1 || doc.Members.Members[0].OrderCount != 1 {
		t.Fatalf("unexpected members %+v", doc.Members.Members)
	}

	doc = page.Show(ctx, Query{Tab: TabOrders})
	if len(doc.Orders.Items) != 1 || doc.Orders.Items[0].Customer.Email != "eve@example.com" {
		t.Fatalf("manager should only see the team's orders, got %+v", doc.Orders.Items)
	}
}

// Pages built directly with a nil logger fall back to the default one.
func TestEmployeePlacesOrder(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser(domain.User{Name: "Eve", Email: "eve@example.com", Role: domain.RoleEmployee, ManagerEmail: "mia@example.com"}, "pw")
	pid := fake.AddProduct(domain.Product{Name: "Mug", Description: "Blue", Price: 8})
	page := NewEmployeePage(clientFor(t, fake, "eve@example.com", domain.RoleEmployee), "eve@example.com", nil)
	ctx := context.Background()

	page.Show(ctx, Query{Tab: TabProducts})
	product, err := page.PlaceOrder(ctx, pid)
	if err != nil || product.Name != "Mug" {
		t.Fatalf("place order: %+v %v", product, err)
	}
	if _, err := page.PlaceOrder(ctx, "missing"); !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}

	doc := page.Show(ctx, Query{Tab: TabOrders})
	if len(doc.Orders.Items) != 1 || doc.Orders.Items[0].Product.Name != "Mug" {
		t.Fatalf("expected the new order, got %+v", doc.Orders.Items)
	}
	if doc.Orders.Statuses != nil {
		t.Fatalf("my orders should not offer status changes")
	}
}

func TestUserFormSuccessRefreshesTeam(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser(domain.User{Name: "Mia", Email: "mia@example.com", Role: domain.RoleManager}, "pw")
	page := NewAdminPage(clientFor(t, fake, "admin@example.com", domain.RoleAdmin), "admin@example.com", nil)
	ctx := context.Background()

	doc := page.Show(ctx, Query{Tab: TabTeam})
	if len(doc.Team.Users) != 1 {
		t.Fatalf("expected one user, got %d", len(doc.Team.Users))
	}

	f := page.Team.Form()
	f.OpenCreate()
	f.Edit(func(u *form.UserFields) {
		u.Name, u.Age, u.Email, u.Password, u.Role, u.ManagerEmail = "Eve", 25, "eve@example.com", "pw", domain.RoleEmployee, "mia@example.com"
	})
	if err := f.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	doc = page.Show(ctx, Query{Tab: TabTeam})
	if len(doc.Team.Users) != 2 || doc.Team.Form != nil {
		t.Fatalf("expected refreshed team and closed modal, got %+v", doc.Team)
	}
	if page.Team.List().Refreshes() != 1 {
		t.Fatalf("expected one refresh bump")
	}
}

func TestNewByRole(t *testing.T) {
	fake := backendtest.New(t)
	c := clientFor(t, fake, "x@example.com", domain.RoleAdmin)
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleEmployee} {
		if p := New(role, c, "x@example.com", nil); p == nil || p.Role() != role {
			t.Fatalf("no page for %s", role)
		}
	}
	if p := New(domain.Role("Guest"), c, "x@example.com", nil); p != nil {
		t.Fatalf("unknown role should have no page")
	}
}
