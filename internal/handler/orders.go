package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/orderdesk/internal/dashboard"
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/listview"
	"github.com/yourorg/orderdesk/internal/router"
	"github.com/yourorg/orderdesk/internal/security/audit"
)

// StatusRequest is the body of the order status route.
type StatusRequest struct {
	Status string `json:"status"`
}

// PlaceOrderRequest is the body of POST /employee/orders.
type PlaceOrderRequest struct {
	ProductID domain.ID `json:"productId"`
}

// ChangeOrderStatus handles POST /{admin,manager}/orders/{id}/status. The
// new status shows at once; a backend rejection reverts it and the row is
// flagged failed.
func (c *Console) ChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	base := router.AdminPath
	if strings.HasPrefix(r.URL.Path, router.ManagerPath+"/") {
		base = router.ManagerPath
	}
	a, page, ok := c.gate(w, r, base, true)
	if !ok {
		return
	}
	var orders *dashboard.OrdersPanel
	switch p := page.(type) {
	case *dashboard.AdminPage:
		orders = p.Orders
	case *dashboard.ManagerPage:
		orders = p.Orders
	}
	if orders == nil {
		writeError(w, http.StatusForbidden, "orders are read only")
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, valid := domain.ParseOrderStatus(req.Status)
	if !valid {
		writeAlert(w, http.StatusUnprocessableEntity, "Unknown order status.", nil)
		return
	}

	ctx := r.Context()
	id := domain.ID(r.PathValue("id"))
	err := orders.ChangeStatus(ctx, id, status)
	if errors.Is(err, listview.ErrNotFound) {
		page.Show(ctx, dashboard.Query{Tab: dashboard.TabOrders, Refresh: true})
		err = orders.ChangeStatus(ctx, id, status)
	}
	switch {
	case errors.Is(err, listview.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case err != nil:
		c.audit.LogAction(ctx, actor(a), "update_status", "order", id.String(), outcome(err), err.Error())
		writeAlert(w, http.StatusBadGateway, alertStatusFailed, show(ctx, page, dashboard.TabOrders))
	default:
		c.audit.LogAction(ctx, actor(a), "update_status", "order", id.String(), audit.StatusSuccess, string(status))
		writeAlert(w, http.StatusOK, "", show(ctx, page, dashboard.TabOrders))
	}
}

// PlaceOrder handles POST /employee/orders.
func (c *Console) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	a, page, ok := c.gate(w, r, router.EmployeePath, true)
	if !ok {
		return
	}
	employee, ok := page.(*dashboard.EmployeePage)
	if !ok {
		writeError(w, http.StatusForbidden, "employees only")
		return
	}
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	if _, found := employee.Catalog.Find(req.ProductID); !found {
		employee.Show(ctx, dashboard.Query{Tab: dashboard.TabProducts, Refresh: true})
	}
	product, err := employee.PlaceOrder(ctx, req.ProductID)
	switch {
	case errors.Is(err, dashboard.ErrUnknownProduct):
		writeError(w, http.StatusNotFound, "product not found")
	case err != nil:
		c.logger.Warn("order failed",
			slog.String("product_id", req.ProductID.String()),
			slog.String("error", err.Error()),
		)
		c.audit.LogAction(ctx, actor(a), "place", "order", req.ProductID.String(), outcome(err), err.Error())
		writeAlert(w, http.StatusBadGateway, alertOrderFailed, show(ctx, employee, dashboard.TabProducts))
	default:
		c.audit.LogAction(ctx, actor(a), "place", "order", req.ProductID.String(), audit.StatusSuccess, product.Name)
		writeAlert(w, http.StatusOK, orderPlaced(product), show(ctx, employee, dashboard.TabProducts))
	}
}

func orderPlaced(p domain.Product) string {
	return fmt.Sprintf("Order placed for %s at $%s", p.Name, strconv.FormatFloat(p.Price, 'f', -1, 64))
}
