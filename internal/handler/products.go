package handler

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/orderdesk/internal/app"
	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/dashboard"
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/form"
	"github.com/yourorg/orderdesk/internal/router"
	"github.com/yourorg/orderdesk/internal/security/audit"
)

const maxUploadSize = 10 << 20

// productPatch is a product form as posted. Nil fields were not sent.
type productPatch struct {
	name        *string
	description *string
	price       *float64
	image       *backend.Upload
	imageURL    string
}

func (p productPatch) apply(f *form.ProductFields) {
	if p.name != nil {
		f.Name = *p.name
	}
	if p.description != nil {
		f.Description = *p.description
	}
	if p.price != nil {
		f.Price = *p.price
	}
	if p.image != nil {
		f.Image = p.image
		f.ImageURL = ""
	} else if p.imageURL != "" {
		f.Image = nil
		f.ImageURL = p.imageURL
	}
}

// readProduct parses a multipart product form. image_src is either a file
// part or the URL of an existing image.
func readProduct(r *http.Request) (productPatch, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return productPatch{}, err
	}
	var p productPatch
	values := r.MultipartForm.Value
	if v, ok := values["name"]; ok && len(v) > 0 {
		p.name = &v[0]
	}
	if v, ok := values["description"]; ok && len(v) > 0 {
		p.description = &v[0]
	}
	if v, ok := values["price"]; ok && len(v) > 0 {
		// An unparsable or non-finite price is sent as zero and fails
		// validation.
		price, err := strconv.ParseFloat(strings.TrimSpace(v[0]), 64)
		if err != nil || math.IsInf(price, 0) || math.IsNaN(price) {
			price = 0
		}
		p.price = &price
	}
	if v, ok := values["image_src"]; ok && len(v) > 0 {
		p.imageURL = strings.TrimSpace(v[0])
	}

	files := r.MultipartForm.File["image_src"]
	if len(files) == 0 {
		return p, nil
	}
	fh := files[0]
	file, err := fh.Open()
	if err != nil {
		return productPatch{}, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		return productPatch{}, err
	}
	p.image = &backend.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}
	return p, nil
}

// productsPage returns the products panel of the admin or manager page
// mounted at the request's base path.
func (c *Console) productsPage(w http.ResponseWriter, r *http.Request) (*app.App, dashboard.Page, *dashboard.ProductsPanel, bool) {
	base := router.AdminPath
	if strings.HasPrefix(r.URL.Path, router.ManagerPath+"/") {
		base = router.ManagerPath
	}
	a, page, ok := c.gate(w, r, base, true)
	if !ok {
		return nil, nil, nil, false
	}
	var panel *dashboard.ProductsPanel
	switch p := page.(type) {
	case *dashboard.AdminPage:
		panel = p.Products
	case *dashboard.ManagerPage:
		panel = p.Products
	}
	if panel == nil || panel.Form() == nil {
		writeError(w, http.StatusForbidden, "products are read only")
		return nil, nil, nil, false
	}
	return a, page, panel, true
}

// findProduct looks id up in panel, refetching the tab once on a miss.
func findProduct(ctx context.Context, page dashboard.Page, panel *dashboard.ProductsPanel, id domain.ID) (domain.Product, bool) {
	if p, ok := panel.Find(id); ok {
		return p, true
	}
	page.Show(ctx, dashboard.Query{Tab: dashboard.TabProducts, Refresh: true})
	return panel.Find(id)
}

// CreateProduct handles POST /{admin,manager}/products.
func (c *Console) CreateProduct(w http.ResponseWriter, r *http.Request) {
	a, page, panel, ok := c.productsPage(w, r)
	if !ok {
		return
	}
	patch, err := readProduct(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product form")
		return
	}
	f := panel.Form()
	if f.Mode() != form.Create {
		f.OpenCreate()
	}
	f.Edit(patch.apply)
	c.submitProduct(w, r, a, page, f, "create", "", alertProductAdded)
}

// UpdateProduct handles PUT /{admin,manager}/products/{id}.
func (c *Console) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	a, page, panel, ok := c.productsPage(w, r)
	if !ok {
		return
	}
	patch, err := readProduct(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product form")
		return
	}
	id := domain.ID(r.PathValue("id"))
	p, found := findProduct(r.Context(), page, panel, id)
	if !found {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	f := panel.Form()
	if f.Mode() != form.Edit || f.EditingID() != id {
		f.OpenEdit(p)
	}
	f.Edit(patch.apply)
	c.submitProduct(w, r, a, page, f, "update", id.String(), alertProductUpdated)
}

func (c *Console) submitProduct(w http.ResponseWriter, r *http.Request, a *app.App, page dashboard.Page, f *form.ProductForm, action, resourceID, success string) {
	ctx := r.Context()
	if err := f.Submit(ctx); err != nil {
		c.audit.LogAction(ctx, actor(a), action, "product", resourceID, outcome(err), err.Error())
		writeFailure(w, err, nil, alertSubmitRejected, alertSubmitFailed, show(ctx, page, dashboard.TabProducts))
		return
	}
	c.audit.LogAction(ctx, actor(a), action, "product", resourceID, audit.StatusSuccess, "")
	writeAlert(w, http.StatusOK, success, show(ctx, page, dashboard.TabProducts))
}

// DeleteProduct handles DELETE /{admin,manager}/products/{id}; confirm=yes
// answers the prompt.
func (c *Console) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	a, page, panel, ok := c.productsPage(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	id := domain.ID(r.PathValue("id"))
	p, found := findProduct(ctx, page, panel, id)
	if !found {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	f := panel.Form()
	if f.Mode() != form.Edit || f.EditingID() != id {
		f.OpenEdit(p)
	}
	cf := confirmFrom(r)
	if err := f.Delete(ctx, cf); err != nil {
		if !errors.Is(err, form.ErrNotConfirmed) {
			c.audit.LogAction(ctx, actor(a), "delete", "product", id.String(), outcome(err), err.Error())
		}
		writeFailure(w, err, cf, alertDeleteRejected, alertDeleteFailed, show(ctx, page, dashboard.TabProducts))
		return
	}
	c.audit.LogAction(ctx, actor(a), "delete", "product", id.String(), audit.StatusSuccess, p.Name)
	writeAlert(w, http.StatusOK, alertProductDeleted, show(ctx, page, dashboard.TabProducts))
}
