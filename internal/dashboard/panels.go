package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/form"
	"github.com/yourorg/orderdesk/internal/listview"
)

// PageSize is the grid and order table page size.
const PageSize = 6

// StatusAll shows orders of every status.
const StatusAll = "all"

func productKey(p domain.Product) string { return p.ID.String() }
func orderKey(o domain.Order) string     { return o.ID.String() }
func userKey(u domain.User) string       { return u.ID.String() }
func memberKey(m domain.Member) string   { return m.Email }

// ProductsPanel is the product grid with its modal, shared by the admin and
// manager pages. Employees get it without a modal as the catalog.
type ProductsPanel struct {
	list   *listview.List[domain.Product]
	form   *form.ProductForm
	logger *slog.Logger

	mu   sync.Mutex
	sort SortOption
	page int
}

func newProductsPanel(b Backend, withForm bool, logger *slog.Logger) *ProductsPanel {
	p := &ProductsPanel{
		list:   listview.New("products", b.ListProducts, productKey, PageSize, logger),
		logger: logger,
		sort:   SortDefault,
		page:   1,
	}
	if withForm {
		p.form = form.NewProductForm(b, p.refetch, logger)
	}
	return p
}

// Mount refetches the grid and resets its controls, as opening the tab does.
// A failed fetch keeps the prior items in their current order, so the sort
// stays as well.
func (p *ProductsPanel) Mount(ctx context.Context) {
	err := p.list.Refresh(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = 1
	if err != nil {
		p.logger.Debug("showing previous products", slog.String("sort", string(p.sort)))
		return
	}
	p.sort = SortDefault
}

// refetch runs after an accepted write. The fetched order replaces any sort.
func (p *ProductsPanel) refetch(ctx context.Context) {
	if err := p.list.Bump(ctx); err == nil {
		p.mu.Lock()
		p.sort = SortDefault
		p.mu.Unlock()
	}
}

// SetSort reorders the grid. The default option keeps the current order.
func (p *ProductsPanel) SetSort(opt SortOption) {
	if order := productOrder(opt); order != nil {
		p.list.Sort(order)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sort = opt
}

func (p *ProductsPanel) SetPage(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = max(page, 1)
}

// Form is the product modal; nil on the catalog.
func (p *ProductsPanel) Form() *form.ProductForm { return p.form }

func (p *ProductsPanel) List() *listview.List[domain.Product] { return p.list }

func (p *ProductsPanel) Find(id domain.ID) (domain.Product, bool) {
	return p.list.Find(id.String())
}

// View renders the panel.
func (p *ProductsPanel) View() *ProductsView {
	p.mu.Lock()
	sort, page := p.sort, p.page
	p.mu.Unlock()

	v := &ProductsView{
		Sort:        sort,
		SortOptions: SortOptions,
		Items:       p.list.Page(page),
		Pager:       Pager{Page: page, PageCount: p.list.PageCount(), PageSize: PageSize},
	}
	if p.form != nil && p.form.IsOpen() {
		v.Form = productFormView(p.form)
	}
	return v
}

// OrdersPanel is an order table with a status filter. Status changes go
// through a two-phase update.
type OrdersPanel struct {
	list    *listview.List[domain.Order]
	updater func(ctx context.Context, id domain.ID, status domain.OrderStatus) error
	logger  *slog.Logger

	mu     sync.Mutex
	status string
	page   int
}

func newOrdersPanel(name string, fetch listview.Fetcher[domain.Order], updater func(context.Context, domain.ID, domain.OrderStatus) error, logger *slog.Logger) *OrdersPanel {
	return &OrdersPanel{
		list:    listview.New(name, fetch, orderKey, PageSize, logger),
		updater: updater,
		logger:  logger,
		status:  StatusAll,
		page:    1,
	}
}

func (o *OrdersPanel) Mount(ctx context.Context) {
	if err := o.list.Refresh(ctx); err != nil {
		o.logger.Debug("showing previous orders", slog.Int("count", len(o.list.Items())))
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.page = 1
	o.status = StatusAll
	o.list.Filter(nil)
}

// SetStatusFilter shows only orders with status; StatusAll clears the filter.
func (o *OrdersPanel) SetStatusFilter(status string) bool {
	if status == StatusAll {
		o.list.Filter(nil)
	} else {
		st, ok := domain.ParseOrderStatus(status)
		if !ok {
			return false
		}
		o.list.Filter(func(ord domain.Order) bool { return ord.Status == st })
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = status
	return true
}

func (o *OrdersPanel) SetPage(page int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.page = max(page, 1)
}

// ChangeStatus shows the new status at once and reverts it if the backend
// rejects the change.
func (o *OrdersPanel) ChangeStatus(ctx context.Context, id domain.ID, status domain.OrderStatus) error {
	if o.updater == nil {
		return ErrReadOnly
	}
	return o.list.Apply(ctx, id.String(),
		func(ord *domain.Order) { ord.Status = status },
		func(ctx context.Context) error { return o.updater(ctx, id, status) },
	)
}

func (o *OrdersPanel) List() *listview.List[domain.Order] { return o.list }

func (o *OrdersPanel) View() *OrdersView {
	o.mu.Lock()
	status, page := o.status, o.page
	o.mu.Unlock()

	items := o.list.Page(page)
	rows := make([]OrderRow, len(items))
	for i, ord := range items {
		rows[i] = OrderRow{Order: ord}
		if st := o.list.StateOf(ord.ID.String()); st != listview.Idle {
			rows[i].Update = st.String()
		}
	}
	v := &OrdersView{
		Items: rows,
		Pager: Pager{Page: page, PageCount: o.list.PageCount(), PageSize: PageSize},
	}
	if o.updater != nil {
		v.Status = status
		v.Statuses = append([]string{StatusAll}, statusNames()...)
	}
	return v
}

func statusNames() []string {
	out := make([]string, len(domain.OrderStatuses))
	for i, s := range domain.OrderStatuses {
		out[i] = string(s)
	}
	return out
}

// TeamPanel is the admin's user table with its modal.
type TeamPanel struct {
	list *listview.List[domain.User]
	form *form.UserForm
}

func newTeamPanel(b Backend, logger *slog.Logger) *TeamPanel {
	t := &TeamPanel{list: listview.New("users", b.ListUsers, userKey, 0, logger)}
	t.form = form.NewUserForm(b, func(ctx context.Context) { _ = t.list.Bump(ctx) }, logger)
	return t
}

func (t *TeamPanel) Mount(ctx context.Context) {
	_ = t.list.Refresh(ctx)
	t.form.LoadManagerEmails(ctx)
}

func (t *TeamPanel) Form() *form.UserForm { return t.form }

func (t *TeamPanel) List() *listview.List[domain.User] { return t.list }

func (t *TeamPanel) Find(id domain.ID) (domain.User, bool) {
	return t.list.Find(id.String())
}

func (t *TeamPanel) View() *TeamView {
	v := &TeamView{Users: t.list.Items()}
	if t.form.IsOpen() {
		v.Form = userFormView(t.form)
	}
	return v
}

// MembersPanel is a manager's team with order counts.
type MembersPanel struct {
	list *listview.List[domain.Member]
}

func newMembersPanel(fetch listview.Fetcher[domain.Member], logger *slog.Logger) *MembersPanel {
	return &MembersPanel{list: listview.New("members", fetch, memberKey, 0, logger)}
}

func (m *MembersPanel) Mount(ctx context.Context) { _ = m.list.Refresh(ctx) }

func (m *MembersPanel) View() *MembersView {
	return &MembersView{Members: m.list.Items()}
}
