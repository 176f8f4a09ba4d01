package backendtest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/orderdesk/internal/domain"
)

type userBody struct {
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	ManagerEmail string `json:"manager_email"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	var found *userRecord
	for _, rec := range s.users {
		if rec.user.Email == body.Email {
			found = rec
			break
		}
	}
	s.mu.Unlock()

	if found == nil || bcrypt.CompareHashAndPassword(found.hash, []byte(body.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	token := s.Token(found.user.Email, found.user.Role)
	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"email": found.user.Email,
		"role":  string(found.user.Role),
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, _ *http.Request, c *Claims) {
	writeJSON(w, http.StatusOK, map[string]string{"email": c.Email, "role": c.Role})
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request, _ *Claims) {
	s.mu.Lock()
	users := make([]domain.User, 0, len(s.users))
	for _, rec := range s.users {
		users = append(users, rec.user)
	}
	s.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request, _ *Claims) {
	var body userBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s.AddUser(domain.User{
		Name:         body.Name,
		Age:          body.Age,
		Email:        body.Email,
		Role:         domain.Role(body.Role),
		ManagerEmail: body.ManagerEmail,
	}, body.Password)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User added"})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, _ *Claims) {
	var body userBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	id := domain.ID(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	rec.user.Name = body.Name
	rec.user.Age = body.Age
	rec.user.Email = body.Email
	rec.user.Role = domain.Role(body.Role)
	rec.user.ManagerEmail = body.ManagerEmail
	if body.Password != "" {
		if hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.MinCost); err == nil {
			rec.hash = hash
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, _ *Claims) {
	id := domain.ID(r.PathValue("id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	delete(s.users, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (s *Server) handleManagerEmails(w http.ResponseWriter, _ *http.Request, _ *Claims) {
	s.mu.Lock()
	emails := []string{}
	for _, rec := range s.users {
		if rec.user.Role == domain.RoleManager {
			emails = append(emails, rec.user.Email)
		}
	}
	s.mu.Unlock()
	sort.Strings(emails)
	writeJSON(w, http.StatusOK, emails)
}

func (s *Server) handleListProducts(w http.ResponseWriter, _ *http.Request, _ *Claims) {
	s.mu.Lock()
	products := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		if p, ok := s.products[id]; ok {
			products = append(products, p)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, products)
}

// handleSaveProduct serves both add and update; update keeps the stored
// image when no image_src is sent.
func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request, _ *Claims) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected multipart form"})
		return
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}
	image := r.FormValue("image_src")
	if files := r.MultipartForm.File["image_src"]; len(files) > 0 {
		image = "/uploads/" + files[0].Filename
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var p domain.Product
	if id := r.PathValue("id"); id != "" {
		existing, ok := s.products[domain.ID(id)]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
			return
		}
		p = existing
	} else {
		p.ID = s.nextID("")
	}
	p.Name = r.FormValue("name")
	p.Description = r.FormValue("description")
	p.Price = price
	if image != "" {
		p.ImageRef = image
	}
	s.putProduct(p)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request, _ *Claims) {
	id := domain.ID(r.PathValue("id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
		return
	}
	delete(s.products, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request, _ *Claims) {
	var body struct {
		Email          string         `json:"email"`
		ProductDetails domain.Product `json:"productDetails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var customer *domain.User
	for _, rec := range s.users {
		if rec.user.Email == body.Email {
			u := rec.user
			customer = &u
			break
		}
	}
	if customer == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	order := domain.Order{
		ID:           s.nextID("o"),
		CustomerID:   string(customer.ID),
		CustomerName: customer.Name,
		Product:      body.ProductDetails,
		Status:       domain.StatusPending,
		Customer: domain.CustomerDetails{
			ID:           customer.ID,
			Name:         customer.Name,
			Age:          customer.Age,
			Email:        customer.Email,
			Role:         customer.Role,
			ManagerEmail: customer.ManagerEmail,
		},
	}
	s.orders[order.ID] = order
	writeJSON(w, http.StatusCreated, order)
}

// handleListOrders returns every order for an admin and the team's orders
// for a manager.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request, c *Claims) {
	email := r.PathValue("email")
	all := c.Role == string(domain.RoleAdmin)
	s.listOrders(w, func(o domain.Order) bool {
		return all || o.Customer.ManagerEmail == email
	})
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request, _ *Claims) {
	email := r.PathValue("email")
	s.listOrders(w, func(o domain.Order) bool { return o.Customer.Email == email })
}

func (s *Server) listOrders(w http.ResponseWriter, keep func(domain.Order) bool) {
	s.mu.Lock()
	orders := []domain.Order{}
	for _, o := range s.orders {
		if keep(o) {
			orders = append(orders, o)
		}
	}
	s.mu.Unlock()
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request, _ *Claims) {
	var body struct {
		ID     domain.ID `json:"id"`
		Status string    `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	status, ok := domain.ParseOrderStatus(body.Status)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, exists := s.orders[body.ID]
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Order not found"})
		return
	}
	o.Status = status
	s.orders[o.ID] = o
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request, _ *Claims) {
	email := r.PathValue("email")
	s.mu.Lock()
	members := []domain.Member{}
	for _, rec := range s.users {
		if rec.user.ManagerEmail != email {
			continue
		}
		count := 0
		for _, o := range s.orders {
			if o.Customer.Email == rec.user.Email {
				count++
			}
		}
		members = append(members, domain.Member{Name: rec.user.Name, Email: rec.user.Email, OrderCount: count})
	}
	s.mu.Unlock()
	sort.Slice(members, func(i, j int) bool { return members[i].Email < members[j].Email })
	writeJSON(w, http.StatusOK, members)
}
