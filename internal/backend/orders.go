package backend

import (
	"context"
	"net/http"

	"github.com/yourorg/orderdesk/internal/domain"
)

type placeOrderRequest struct {
	Email          string         `json:"email"`
	ProductDetails domain.Product `json:"productDetails"`
}

type statusRequest struct {
	ID     domain.ID          `json:"id"`
	Status domain.OrderStatus `json:"status"`
}

// PlaceOrder orders product on behalf of email. The backend stores a
// snapshot of the product as sent.
func (c *Client) PlaceOrder(ctx context.Context, email string, product domain.Product) error {
	return c.doJSON(ctx, "place_order", http.MethodPost, "/api/orders/place-order",
		placeOrderRequest{Email: email, ProductDetails: product}, nil)
}

// ListOrders fetches every order visible to the given manager or admin.
func (c *Client) ListOrders(ctx context.Context, email string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.get(ctx, "list_orders", pathID("/api/orders/", email), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus sets the status of an order.
func (c *Client) UpdateOrderStatus(ctx context.Context, id domain.ID, status domain.OrderStatus) error {
	return c.doJSON(ctx, "update_order_status", http.MethodPost, "/api/orders/status",
		statusRequest{ID: id, Status: status}, nil)
}

// ListMyOrders fetches the orders placed by email.
func (c *Client) ListMyOrders(ctx context.Context, email string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.get(ctx, "list_my_orders", pathID("/api/my-orders/", email), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
