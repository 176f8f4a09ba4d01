package domain

// User is an account managed from the admin dashboard.
type User struct {
	ID           ID     `json:"_id,omitempty"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Email        string `json:"email"` // immutable once created
	Password     string `json:"-"`     // write-only; never decoded for display
	Role         Role   `json:"role"`
	ManagerEmail string `json:"manager_email,omitempty"` // set iff Role == RoleEmployee
}

// Member is a manager's team member with their order count.
type Member struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	OrderCount int    `json:"order_count"`
}

// CustomerDetails is the denormalized copy of a User stored on an Order.
type CustomerDetails struct {
	ID           ID     `json:"_id,omitempty"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	ManagerEmail string `json:"manager_email,omitempty"`
}
