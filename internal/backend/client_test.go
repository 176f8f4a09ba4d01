package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/backend/backendtest"
	"github.com/yourorg/orderdesk/internal/domain"
)

func TestLoginAndVerifyToken(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser(domain.User{Name: "Mia", Email: "mia@example.com", Role: domain.RoleManager}, "secret")

	c := backend.NewClient(fake.URL, nil, fake.Client(), nil)
	res, err := c.Login(context.Background(), "mia@example.com", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" || res.Role != "Manager" || res.Email != "mia@example.com" {
		t.Fatalf("unexpected login result: %+v", res)
	}
	if got := fake.RequestsTo("POST /api/login")[0].Token; got != "" {
		t.Fatalf("login must not send a token, sent %q", got)
	}

	id, err := c.VerifyToken(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if id.Email != "mia@example.com" || id.Role != "Manager" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestLoginRejectedIsStatusError(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser(domain.User{Email: "a@example.com", Role: domain.RoleAdmin}, "right")

	c := backend.NewClient(fake.URL, nil, fake.Client(), nil)
	_, err := c.Login(context.Background(), "a@example.com", "wrong")
	if !backend.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if backend.IsTransport(err) {
		t.Fatalf("status error reported as transport failure")
	}
}

func TestUnreachableBackendIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := backend.NewClient(url, backend.StaticToken("t"), nil, nil)
	_, err := c.ListProducts(context.Background())
	if !backend.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestCallsCarryAccessToken(t *testing.T) {
	fake := backendtest.New(t)
	token := fake.Token("admin@example.com", domain.RoleAdmin)

	c := backend.NewClient(fake.URL, backend.StaticToken(token), fake.Client(), nil)
	if _, err := c.ListUsers(context.Background()); err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	reqs := fake.RequestsTo("GET /api/users")
	if len(reqs) != 1 || reqs[0].Token != token {
		t.Fatalf("expected one call with the session token, got %+v", reqs)
	}
}

func TestUpdateProductSendsMultipart(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddProduct(domain.Product{ID: "5", Name: "Old", Description: "d", Price: 1, ImageRef: "/img/old.png"})
	c := backend.NewClient(fake.URL, backend.StaticToken(fake.Token("a@example.com", domain.RoleAdmin)), fake.Client(), nil)

	err := c.UpdateProduct(context.Background(), "5", backend.ProductInput{
		Name:        "Lamp",
		Description: "Desk lamp",
		Price:       19.5,
		Image:       &backend.Upload{Filename: "lamp.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	reqs := fake.RequestsTo("PUT /api/products/update/{id}")
	if len(reqs) != 1 {
		t.Fatalf("expected one update call, got %d", len(reqs))
	}
	r := reqs[0]
	if r.Path != "/api/products/update/5" {
		t.Fatalf("unexpected path %s", r.Path)
	}
	if r.Fields["name"] != "Lamp" || r.Fields["description"] != "Desk lamp" || r.Fields["price"] != "19.5" {
		t.Fatalf("unexpected fields %v", r.Fields)
	}
	if r.Filename != "lamp.png" {
		t.Fatalf("expected uploaded file lamp.png, got %q", r.Filename)
	}
	p, _ := fake.Product("5")
	if p.ImageRef != "/uploads/lamp.png" || p.Price != 19.5 {
		t.Fatalf("product not updated: %+v", p)
	}
}

func TestPlacedOrderKeepsProductSnapshot(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser(domain.User{Name: "Eve", Email: "eve@example.com", Role: domain.RoleEmployee, ManagerEmail: "mia@example.com"}, "pw")
	pid := fake.AddProduct(domain.Product{Name: "Mug", Description: "Blue", Price: 8})
	c := backend.NewClient(fake.URL, backend.StaticToken(fake.Token("eve@example.com", domain.RoleEmployee)), fake.Client(), nil)
	ctx := context.Background()

	products, err := c.ListProducts(ctx)
	if err != nil || len(products) != 1 {
		t.Fatalf("list products: %v %v", products, err)
	}
	if err := c.PlaceOrder(ctx, "eve@example.com", products[0]); err != nil {
		t.Fatalf("place order: %v", err)
	}

	fake.AddProduct(domain.Product{ID: pid, Name: "Mug", Description: "Blue", Price: 12})

	orders, err := c.ListMyOrders(ctx, "eve@example.com")
	if err != nil {
		t.Fatalf("list my orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if orders[0].Product.Price != 8 || orders[0].Status != domain.StatusPending {
		t.Fatalf("order should keep the price at placement: %+v", orders[0])
	}
	if orders[0].Customer.ManagerEmail != "mia@example.com" {
		t.Fatalf("customer snapshot missing manager email: %+v", orders[0].Customer)
	}
}

func TestStatusErrorCarriesBackendMessage(t *testing.T) {
	fake := backendtest.New(t)
	c := backend.NewClient(fake.URL, backend.StaticToken(fake.Token("a@example.com", domain.RoleAdmin)), fake.Client(), nil)

	err := c.DeleteUser(context.Background(), "missing")
	var se *backend.StatusError
	if !backend.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404, got %v", err)
	}
	if !errors.As(err, &se) || se.Message != "User not found" {
		t.Fatalf("expected backend message, got %v", err)
	}
}
