// Package dashboard composes list views and modals into the per-role pages.
// Pages are built at login and discarded at logout.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/form"
	"github.com/yourorg/orderdesk/internal/router"
)

var (
	// ErrReadOnly is returned for writes a page does not offer.
	ErrReadOnly = errors.New("not available on this page")
	// ErrUnknownProduct is returned when ordering a product not in the catalog.
	ErrUnknownProduct = errors.New("product not in catalog")
)

// Backend is everything the dashboards call. *backend.Client satisfies it.
type Backend interface {
	form.UserBackend
	form.ProductBackend
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListOrders(ctx context.Context, email string) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id domain.ID, status domain.OrderStatus) error
	ListMyOrders(ctx context.Context, email string) ([]domain.Order, error)
	ListTeam(ctx context.Context, managerEmail string) ([]domain.Member, error)
	PlaceOrder(ctx context.Context, email string, product domain.Product) error
}

var _ Backend = (*backend.Client)(nil)

// Tab names.
const (
	TabTeam     = "team"
	TabProducts = "products"
	TabOrders   = "orders"
)

// Query carries the page controls. Zero values leave a control unchanged.
type Query struct {
	Tab     string
	Page    int
	Sort    string
	Status  string
	Refresh bool
}

// Page is one role's dashboard.
type Page interface {
	Role() domain.Role
	Tabs() []string
	// Show switches to q.Tab, refetching it when newly opened, applies
	// the controls in q and renders. Fetch failures leave prior data shown.
	Show(ctx context.Context, q Query) Document
}

// New builds the page for role. Unknown roles have no page.
func New(role domain.Role, b Backend, email string, logger *slog.Logger) Page {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("role", role.String()))
	switch role {
	case domain.RoleAdmin:
		return NewAdminPage(b, email, logger)
	case domain.RoleManager:
		return NewManagerPage(b, email, logger)
	case domain.RoleEmployee:
		return NewEmployeePage(b, email, logger)
	case domain.RoleUnknown:
		return nil
	default:
		return nil
	}
}

// tabs tracks the open tab of a page.
type tabs struct {
	names []string

	mu     sync.Mutex
	active string
}

// open selects name (the first tab when unknown) and reports whether it
// must be mounted.
func (t *tabs) open(name string, force bool) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if name == "" {
		name = t.active
	}
	if !slices.Contains(t.names, name) {
		name = t.names[0]
	}
	mount := force || name != t.active
	t.active = name
	return name, mount
}

func header(role domain.Role, email string, view router.View, names []string, tab string) Document {
	return Document{
		View:  view.String(),
		Title: router.Title(role),
		Email: email,
		Role:  role,
		Tabs:  names,
		Tab:   tab,
	}
}

func applyProducts(p *ProductsPanel, q Query) {
	if opt, ok := ParseSortOption(q.Sort); ok {
		p.SetSort(opt)
	}
	if q.Page > 0 {
		p.SetPage(q.Page)
	}
}

func applyOrders(o *OrdersPanel, q Query) {
	if q.Status != "" {
		o.SetStatusFilter(q.Status)
	}
	if q.Page > 0 {
		o.SetPage(q.Page)
	}
}

// AdminPage has the Team, Products and All Orders tabs.
type AdminPage struct {
	email    string
	tabs     *tabs
	Team     *TeamPanel
	Products *ProductsPanel
	Orders   *OrdersPanel
}

func NewAdminPage(b Backend, email string, logger *slog.Logger) *AdminPage {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminPage{
		email:    email,
		tabs:     &tabs{names: []string{TabTeam, TabProducts, TabOrders}},
		Team:     newTeamPanel(b, logger),
		Products: newProductsPanel(b, true, logger),
		Orders: newOrdersPanel("all_orders",
			func(ctx context.Context) ([]domain.Order, error) { return b.ListOrders(ctx, email) },
			b.UpdateOrderStatus, logger),
	}
}

func (p *AdminPage) Role() domain.Role { return domain.RoleAdmin }
func (p *AdminPage) Tabs() []string    { return p.tabs.names }

func (p *AdminPage) Show(ctx context.Context, q Query) Document {
	tab, mount := p.tabs.open(q.Tab, q.Refresh)
	doc := header(domain.RoleAdmin, p.email, router.ViewAdmin, p.tabs.names, tab)
	switch tab {
	case TabTeam:
		if mount {
			p.Team.Mount(ctx)
		}
		doc.Team = p.Team.View()
	case TabProducts:
		if mount {
			p.Products.Mount(ctx)
		}
		applyProducts(p.Products, q)
		doc.Products = p.Products.View()
	case TabOrders:
		if mount {
			p.Orders.Mount(ctx)
		}
		applyOrders(p.Orders, q)
		doc.Orders = p.Orders.View()
	}
	return doc
}

// ManagerPage has the My Team, My Team Orders and Products tabs.
type ManagerPage struct {
	email    string
	tabs     *tabs
	Members  *MembersPanel
	Orders   *OrdersPanel
	Products *ProductsPanel
}

func NewManagerPage(b Backend, email string, logger *slog.Logger) *ManagerPage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManagerPage{
		email: email,
		tabs:  &tabs{names: []string{TabTeam, TabOrders, TabProducts}},
		Members: newMembersPanel(func(ctx context.Context) ([]domain.Member, error) {
			return b.ListTeam(ctx, email)
		}, logger),
		Orders: newOrdersPanel("team_orders",
			func(ctx context.Context) ([]domain.Order, error) { return b.ListOrders(ctx, email) },
			b.UpdateOrderStatus, logger),
		Products: newProductsPanel(b, true, logger),
	}
}

func (p *ManagerPage) Role() domain.Role { return domain.RoleManager }
func (p *ManagerPage) Tabs() []string    { return p.tabs.names }

func (p *ManagerPage) Show(ctx context.Context, q Query) Document {
	tab, mount := p.tabs.open(q.Tab, q.Refresh)
	doc := header(domain.RoleManager, p.email, router.ViewManager, p.tabs.names, tab)
	switch tab {
	case TabTeam:
		if mount {
			p.Members.Mount(ctx)
		}
		doc.Members = p.Members.View()
	case TabOrders:
		if mount {
			p.Orders.Mount(ctx)
		}
		applyOrders(p.Orders, q)
		doc.Orders = p.Orders.View()
	case TabProducts:
		if mount {
			p.Products.Mount(ctx)
		}
		applyProducts(p.Products, q)
		doc.Products = p.Products.View()
	}
	return doc
}

// EmployeePage has the Explore Products and My Orders tabs.
type EmployeePage struct {
	email    string
	backend  Backend
	logger   *slog.Logger
	tabs     *tabs
	Catalog  *ProductsPanel
	MyOrders *OrdersPanel
}

func NewEmployeePage(b Backend, email string, logger *slog.Logger) *EmployeePage {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmployeePage{
		email:   email,
		backend: b,
		logger:  logger,
		tabs:    &tabs{names: []string{TabProducts, TabOrders}},
		Catalog: newProductsPanel(b, false, logger),
		MyOrders: newOrdersPanel("my_orders",
			func(ctx context.Context) ([]domain.Order, error) { return b.ListMyOrders(ctx, email) },
			nil, logger),
	}
}

func (p *EmployeePage) Role() domain.Role { return domain.RoleEmployee }
func (p *EmployeePage) Tabs() []string    { return p.tabs.names }

func (p *EmployeePage) Show(ctx context.Context, q Query) Document {
	tab, mount := p.tabs.open(q.Tab, q.Refresh)
	doc := header(domain.RoleEmployee, p.email, router.ViewEmployee, p.tabs.names, tab)
	switch tab {
	case TabProducts:
		if mount {
			p.Catalog.Mount(ctx)
		}
		applyProducts(p.Catalog, q)
		doc.Products = p.Catalog.View()
	case TabOrders:
		if mount {
			p.MyOrders.Mount(ctx)
		}
		if q.Page > 0 {
			p.MyOrders.SetPage(q.Page)
		}
		doc.Orders = p.MyOrders.View()
	}
	return doc
}

// PlaceOrder orders the catalog product with id for the signed-in employee.
func (p *EmployeePage) PlaceOrder(ctx context.Context, id domain.ID) (domain.Product, error) {
	product, ok := p.Catalog.Find(id)
	if !ok {
		return domain.Product{}, ErrUnknownProduct
	}
	if err := p.backend.PlaceOrder(ctx, p.email, product); err != nil {
		return domain.Product{}, err
	}
	p.logger.Info("order placed",
		slog.String("email", p.email),
		slog.String("product_id", id.String()),
	)
	return product, nil
}
