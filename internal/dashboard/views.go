package dashboard

import (
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/form"
)

// Document is the JSON view document of a dashboard page.
type Document struct {
	View     string        `json:"view"`
	Title    string        `json:"title"`
	Email    string        `json:"email"`
	Role     domain.Role   `json:"role"`
	Tabs     []string      `json:"tabs"`
	Tab      string        `json:"tab"`
	Team     *TeamView     `json:"team,omitempty"`
	Members  *MembersView  `json:"members,omitempty"`
	Products *ProductsView `json:"products,omitempty"`
	Orders   *OrdersView   `json:"orders,omitempty"`
}

type Pager struct {
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
	PageSize  int `json:"pageSize"`
}

type ProductsView struct {
	Sort        SortOption       `json:"sort"`
	SortOptions []SortOption     `json:"sortOptions"`
	Items       []domain.Product `json:"items"`
	Pager       Pager            `json:"pager"`
	Form        *ProductFormView `json:"form,omitempty"`
}

type ProductFormView struct {
	Mode         string    `json:"mode"`
	ID           domain.ID `json:"id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	CurrentImage string    `json:"currentImage,omitempty"`
}

// OrderRow is an order plus the state of a status change in flight.
type OrderRow struct {
	domain.Order
	Update string `json:"update,omitempty"`
}

type OrdersView struct {
	Status   string     `json:"status,omitempty"`
	Statuses []string   `json:"statuses,omitempty"`
	Items    []OrderRow `json:"items"`
	Pager    Pager      `json:"pager"`
}

type TeamView struct {
	Users []domain.User `json:"users"`
	Form  *UserFormView `json:"form,omitempty"`
}

type UserFormView struct {
	Mode            string      `json:"mode"`
	ID              domain.ID   `json:"id,omitempty"`
	Name            string      `json:"name"`
	Age             int         `json:"age"`
	Email           string      `json:"email"`
	Role            domain.Role `json:"role"`
	ManagerEmail    string      `json:"managerEmail,omitempty"`
	ManagerSelector bool        `json:"managerSelector"`
	ManagerEmails   []string    `json:"managerEmails"`
	Locked          []string    `json:"locked,omitempty"`
}

type MembersView struct {
	Members []domain.Member `json:"members"`
}

func productFormView(f *form.ProductForm) *ProductFormView {
	fields := f.Fields()
	return &ProductFormView{
		Mode:         f.Mode().String(),
		ID:           f.EditingID(),
		Name:         fields.Name,
		Description:  fields.Description,
		Price:        fields.Price,
		CurrentImage: fields.CurrentImage,
	}
}

// UserFormState renders the user modal.
func UserFormState(f *form.UserForm) *UserFormView {
	return userFormView(f)
}

func userFormView(f *form.UserForm) *UserFormView {
	fields := f.Fields()
	v := &UserFormView{
		Mode:            f.Mode().String(),
		ID:              f.EditingID(),
		Name:            fields.Name,
		Age:             fields.Age,
		Email:           fields.Email,
		Role:            fields.Role,
		ManagerEmail:    fields.ManagerEmail,
		ManagerSelector: f.ManagerSelectorVisible(),
		ManagerEmails:   f.ManagerEmails(),
	}
	if f.Mode() == form.Edit {
		v.Locked = []string{"email", "role", "password", "managerEmail"}
	}
	return v
}
