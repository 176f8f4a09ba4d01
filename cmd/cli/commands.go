package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yourorg/orderdesk/internal/app"
	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/dashboard"
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/form"
	"github.com/yourorg/orderdesk/internal/router"
)

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// setFlags reports which flags were given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Auth commands
func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	if err := parse(fs, args); err != nil {
		return err
	}

	home, err := c.app.Login(ctx, *email, *password)
	if err != nil {
		var verr *form.ValidationError
		switch {
		case errors.As(err, &verr):
			return errors.New(verr.Message)
		case errors.Is(err, app.ErrBadCredentials):
			return errors.New("Username or Password Incorrect!")
		default:
			return err
		}
	}
	s := c.app.Session()
	fmt.Fprintf(c.out, "✓ Logged in as %s (%s, %s)\n", s.Email, s.Role, home)
	return nil
}

func (c *cli) logout(ctx context.Context, _ []string) error {
	if err := c.app.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "✓ Logged out")
	return nil
}

func (c *cli) who(ctx context.Context, _ []string) error {
	c.app.Start(ctx)
	if c.app.State().Phase != router.Authenticated {
		fmt.Fprintln(c.out, "Not logged in")
		return nil
	}
	s := c.app.Session()
	fmt.Fprintf(c.out, "✓ Logged in as %s (%s)\n", s.Email, s.Role)
	if !s.ExpiresAt.IsZero() {
		fmt.Fprintf(c.out, "  token expires %s\n", s.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// User commands
func (c *cli) adminPage(ctx context.Context) (*dashboard.AdminPage, error) {
	page, err := c.gate(ctx, router.AdminPath)
	if err != nil {
		return nil, err
	}
	return page.(*dashboard.AdminPage), nil
}

func (c *cli) listUsers(ctx context.Context, args []string) error {
	if err := parse(c.flags("users list"), args); err != nil {
		return err
	}
	admin, err := c.adminPage(ctx)
	if err != nil {
		return err
	}
	doc := admin.Show(ctx, dashboard.Query{Tab: dashboard.TabTeam, Refresh: true})

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAGE\tEMAIL\tROLE\tMANAGER")
	for _, u := range doc.Team.Users {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Age, u.Email, u.Role, u.ManagerEmail)
	}
	return w.Flush()
}

func (c *cli) addUser(ctx context.Context, args []string) error {
	fs := c.flags("users add")
	name := fs.String("name", "", "full name")
	age := fs.Int("age", 0, "age")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	role := fs.String("role", "", "Manager or Employee")
	manager := fs.String("manager", "", "manager email (employees only)")
	if err := parse(fs, args); err != nil {
		return err
	}
	admin, err := c.adminPage(ctx)
	if err != nil {
		return err
	}

	f := admin.Team.Form()
	f.OpenCreate()
	f.Edit(func(u *form.UserFields) {
		u.Name = *name
		u.Age = *age
		u.Email = *email
		u.Password = *password
		u.Role = domain.Role(*role)
		u.ManagerEmail = *manager
	})
	if err := f.Submit(ctx); err != nil {
		return describe(err)
	}
	fmt.Fprintf(c.out, "✓ User added: %s\n", *email)
	return nil
}

func (c *cli) editUser(ctx context.Context, args []string) error {
	fs := c.flags("users edit")
	id := fs.String("id", "", "user id")
	name := fs.String("name", "", "new name")
	age := fs.Int("age", 0, "new age")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fs.PrintDefaults()
		return errUsage
	}
	set := setFlags(fs)
	admin, err := c.adminPage(ctx)
	if err != nil {
		return err
	}
	admin.Show(ctx, dashboard.Query{Tab: dashboard.TabTeam, Refresh: true})
	u, ok := admin.Team.Find(domain.ID(*id))
	if !ok {
		return fmt.Errorf("user %s not found", *id)
	}

	f := admin.Team.Form()
	f.OpenEdit(u)
	f.Edit(func(u *form.UserFields) {
		if set["name"] {
			u.Name = *name
		}
		if set["age"] {
			u.Age = *age
		}
	})
	if err := f.Submit(ctx); err != nil {
		return describe(err)
	}
	fmt.Fprintf(c.out, "✓ User updated: %s\n", u.Email)
	return nil
}

func (c *cli) deleteUser(ctx context.Context, args []string) error {
	fs := c.flags("users delete")
	id := fs.String("id", "", "user id")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := parse(fs, args); err != nil {
		return err
	}
	admin, err := c.adminPage(ctx)
	if err != nil {
		return err
	}
	admin.Show(ctx, dashboard.Query{Tab: dashboard.TabTeam, Refresh: true})
	u, ok := admin.Team.Find(domain.ID(*id))
	if !ok {
		return fmt.Errorf("user %s not found", *id)
	}

	f := admin.Team.Form()
	f.OpenEdit(u)
	if err := f.Delete(ctx, form.ConfirmFunc(c.confirm(*yes))); err != nil {
		if errors.Is(err, form.ErrNotConfirmed) {
			fmt.Fprintln(c.out, "Cancelled")
			return nil
		}
		return describe(err)
	}
	fmt.Fprintf(c.out, "✓ User deleted: %s\n", u.Email)
	return nil
}

// Product commands
func (c *cli) productsPanel(ctx context.Context) (dashboard.Page, *dashboard.ProductsPanel, error) {
	page, err := c.gate(ctx, router.AdminPath, router.ManagerPath)
	if err != nil {
		return nil, nil, err
	}
	switch p := page.(type) {
	case *dashboard.AdminPage:
		return p, p.Products, nil
	case *dashboard.ManagerPage:
		return p, p.Products, nil
	default:
		return nil, nil, fmt.Errorf("not available to the %s role", page.Role())
	}
}

func (c *cli) listProducts(ctx context.Context, args []string) error {
	fs := c.flags("products list")
	sort := fs.String("sort", string(dashboard.SortDefault), "default, priceAsc, priceDesc, nameAsc or nameDesc")
	page := fs.Int("page", 1, "page number")
	if err := parse(fs, args); err != nil {
		return err
	}
	p, _, err := c.productsPanel(ctx)
	if err != nil {
		return err
	}
	doc := p.Show(ctx, dashboard.Query{Tab: dashboard.TabProducts, Sort: *sort, Page: *page, Refresh: true})
	return c.printProducts(doc.Products)
}

func (c *cli) printProducts(v *dashboard.ProductsView) error {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tDESCRIPTION\tIMAGE")
	for _, p := range v.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, price(p.Price), p.Description, p.ImageRef)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "page %d of %d, sorted by %s\n", v.Pager.Page, v.Pager.PageCount, v.Sort)
	return nil
}

// productFlags registers the product form flags; image is a local file
// path or the URL of an existing image.
func productFlags(fs *flag.FlagSet) (name, description, priceText, image *string) {
	name = fs.String("name", "", "product name")
	description = fs.String("description", "", "description")
	priceText = fs.String("price", "", "price")
	image = fs.String("image", "", "image file or URL")
	return
}

func (c *cli) applyProductFlags(fs *flag.FlagSet, f *form.ProductForm, name, description, priceText, image string) error {
	set := setFlags(fs)
	var upload *backend.Upload
	if set["image"] {
		if data, err := os.ReadFile(image); err == nil {
			upload = &backend.Upload{
				Filename:    filepath.Base(image),
				ContentType: mime.TypeByExtension(filepath.Ext(image)),
				Data:        data,
			}
		} else if !strings.Contains(image, "://") && !strings.HasPrefix(image, "/") {
			return fmt.Errorf("image %s: %w", image, err)
		}
	}
	f.Edit(func(p *form.ProductFields) {
		if set["name"] {
			p.Name = name
		}
		if set["description"] {
			p.Description = description
		}
		if set["price"] {
			p.Price, _ = strconv.ParseFloat(strings.TrimSpace(priceText), 64)
		}
		if upload != nil {
			p.Image = upload
			p.ImageURL = ""
		} else if set["image"] {
			p.Image = nil
			p.ImageURL = image
		}
	})
	return nil
}

func (c *cli) addProduct(ctx context.Context, args []string) error {
	fs := c.flags("products add")
	name, description, priceText, image := productFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	_, panel, err := c.productsPanel(ctx)
	if err != nil {
		return err
	}
	f := panel.Form()
	f.OpenCreate()
	if err := c.applyProductFlags(fs, f, *name, *description, *priceText, *image); err != nil {
		return err
	}
	if err := f.Submit(ctx); err != nil {
		return describe(err)
	}
	fmt.Fprintln(c.out, "✓ Product added successfully!")
	return nil
}

func (c *cli) editProduct(ctx context.Context, args []string) error {
	fs := c.flags("products edit")
	id := fs.String("id", "", "product id")
	name, description, priceText, image := productFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	page, panel, err := c.productsPanel(ctx)
	if err != nil {
		return err
	}
	page.Show(ctx, dashboard.Query{Tab: dashboard.TabProducts, Refresh: true})
	p, ok := panel.Find(domain.ID(*id))
	if !ok {
		return fmt.Errorf("product %s not found", *id)
	}
	f := panel.Form()
	f.OpenEdit(p)
	if err := c.applyProductFlags(fs, f, *name, *description, *priceText, *image); err != nil {
		return err
	}
	if err := f.Submit(ctx); err != nil {
		return describe(err)
	}
	fmt.Fprintln(c.out, "✓ Product updated successfully!")
	return nil
}

func (c *cli) deleteProduct(ctx context.Context, args []string) error {
	fs := c.flags("products delete")
	id := fs.String("id", "", "product id")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := parse(fs, args); err != nil {
		return err
	}
	page, panel, err := c.productsPanel(ctx)
	if err != nil {
		return err
	}
	page.Show(ctx, dashboard.Query{Tab: dashboard.TabProducts, Refresh: true})
	p, ok := panel.Find(domain.ID(*id))
	if !ok {
		return fmt.Errorf("product %s not found", *id)
	}
	f := panel.Form()
	f.OpenEdit(p)
	if err := f.Delete(ctx, form.ConfirmFunc(c.confirm(*yes))); err != nil {
		if errors.Is(err, form.ErrNotConfirmed) {
			fmt.Fprintln(c.out, "Cancelled")
			return nil
		}
		if backend.IsStatus(err) {
			return errors.New("Error deleting the product.")
		}
		return errors.New("Failed to delete the product.")
	}
	fmt.Fprintln(c.out, "✓ Product deleted successfully!")
	return nil
}

// Order commands
func (c *cli) ordersPanel(ctx context.Context) (dashboard.Page, *dashboard.OrdersPanel, error) {
	page, err := c.gate(ctx, router.AdminPath, router.ManagerPath)
	if err != nil {
		return nil, nil, err
	}
	switch p := page.(type) {
	case *dashboard.AdminPage:
		return p, p.Orders, nil
	case *dashboard.ManagerPage:
		return p, p.Orders, nil
	default:
		return nil, nil, fmt.Errorf("not available to the %s role", page.Role())
	}
}

func (c *cli) listOrders(ctx context.Context, args []string) error {
	fs := c.flags("orders list")
	status := fs.String("status", dashboard.StatusAll, "all, Pending, Delivered or Cancelled")
	page := fs.Int("page", 1, "page number")
	if err := parse(fs, args); err != nil {
		return err
	}
	p, _, err := c.ordersPanel(ctx)
	if err != nil {
		return err
	}
	doc := p.Show(ctx, dashboard.Query{Tab: dashboard.TabOrders, Status: *status, Page: *page, Refresh: true})
	return c.printOrders(doc.Orders)
}

func (c *cli) printOrders(v *dashboard.OrdersView) error {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCUSTOMER\tEMAIL\tPRODUCT\tPRICE\tSTATUS")
	for _, o := range v.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.CustomerName, o.Customer.Email, o.Product.Name, price(o.Product.Price), o.Status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "page %d of %d\n", v.Pager.Page, v.Pager.PageCount)
	return nil
}

func (c *cli) setOrderStatus(ctx context.Context, args []string) error {
	fs := c.flags("orders status")
	id := fs.String("id", "", "order id")
	statusText := fs.String("status", "", "Pending, Delivered or Cancelled")
	if err := parse(fs, args); err != nil {
		return err
	}
	status, ok := domain.ParseOrderStatus(*statusText)
	if !ok {
		return fmt.Errorf("unknown order status %q", *statusText)
	}
	page, orders, err := c.ordersPanel(ctx)
	if err != nil {
		return err
	}
	page.Show(ctx, dashboard.Query{Tab: dashboard.TabOrders, Refresh: true})
	if err := orders.ChangeStatus(ctx, domain.ID(*id), status); err != nil {
		return fmt.Errorf("order %s: status unchanged: %w", *id, err)
	}
	fmt.Fprintf(c.out, "✓ Order %s is now %s\n", *id, status)
	return nil
}

// Manager commands
func (c *cli) listTeam(ctx context.Context, args []string) error {
	if err := parse(c.flags("team list"), args); err != nil {
		return err
	}
	page, err := c.gate(ctx, router.ManagerPath)
	if err != nil {
		return err
	}
	doc := page.Show(ctx, dashboard.Query{Tab: dashboard.TabTeam, Refresh: true})

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tORDERS")
	for _, m := range doc.Members.Members {
		fmt.Fprintf(w, "%s\t%s\t%d\n", m.Name, m.Email, m.OrderCount)
	}
	return w.Flush()
}

// Employee commands
func (c *cli) employeePage(ctx context.Context) (*dashboard.EmployeePage, error) {
	page, err := c.gate(ctx, router.EmployeePath)
	if err != nil {
		return nil, err
	}
	return page.(*dashboard.EmployeePage), nil
}

func (c *cli) listMyOrders(ctx context.Context, args []string) error {
	fs := c.flags("my-orders list")
	page := fs.Int("page", 1, "page number")
	if err := parse(fs, args); err != nil {
		return err
	}
	employee, err := c.employeePage(ctx)
	if err != nil {
		return err
	}
	doc := employee.Show(ctx, dashboard.Query{Tab: dashboard.TabOrders, Page: *page, Refresh: true})
	return c.printOrders(doc.Orders)
}

func (c *cli) listCatalog(ctx context.Context, args []string) error {
	fs := c.flags("catalog list")
	sort := fs.String("sort", string(dashboard.SortDefault), "default, priceAsc, priceDesc, nameAsc or nameDesc")
	page := fs.Int("page", 1, "page number")
	if err := parse(fs, args); err != nil {
		return err
	}
	employee, err := c.employeePage(ctx)
	if err != nil {
		return err
	}
	doc := employee.Show(ctx, dashboard.Query{Tab: dashboard.TabProducts, Sort: *sort, Page: *page, Refresh: true})
	return c.printProducts(doc.Products)
}

func (c *cli) placeOrder(ctx context.Context, args []string) error {
	fs := c.flags("catalog order")
	id := fs.String("id", "", "product id")
	if err := parse(fs, args); err != nil {
		return err
	}
	employee, err := c.employeePage(ctx)
	if err != nil {
		return err
	}
	employee.Show(ctx, dashboard.Query{Tab: dashboard.TabProducts, Refresh: true})
	p, err := employee.PlaceOrder(ctx, domain.ID(*id))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "✓ Order placed for %s at $%s\n", p.Name, price(p.Price))
	return nil
}

func price(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// describe turns a form error into the message shown to the user.
func describe(err error) error {
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		return errors.New(verr.Message)
	case backend.IsStatus(err):
		return fmt.Errorf("Error submitting the form: %w", err)
	case backend.IsTransport(err):
		return fmt.Errorf("Failed to submit the form: %w", err)
	default:
		return err
	}
}
