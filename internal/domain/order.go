package domain

// Order is a placed order. Product and Customer are snapshots taken when
// the order was placed and do not follow later edits of the source records.
type Order struct {
	ID           ID              `json:"_id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Product      Product         `json:"product_details"`
	Status       OrderStatus     `json:"order_status"`
	Customer     CustomerDetails `json:"customer_details"`
}
