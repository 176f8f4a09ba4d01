// Package backendtest runs an in-process fake of the ordering backend for
// tests. It issues HS256 tokens and checks bcrypt password hashes like the
// real service does.
package backendtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/orderdesk/internal/domain"
)

const signingSecret = "backendtest-secret"

// Claims are the token claims the fake backend issues.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Request is a call the fake received.
type Request struct {
	Method      string
	Path        string
	Pattern     string
	Token       string
	ContentType string
	Body        []byte
	Fields      map[string]string // multipart form values
	Filename    string            // multipart image_src file name
}

type userRecord struct {
	user domain.User
	hash []byte
}

// Server is the fake backend.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[domain.ID]*userRecord
	products map[domain.ID]domain.Product
	orders   map[domain.ID]domain.Order
	order    []domain.ID // product insertion order
	seq      int
	requests []Request
	failures map[string]int
	tokenTTL time.Duration
}

// New starts a fake backend closed at the end of the test.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:    make(map[domain.ID]*userRecord),
		products: make(map[domain.ID]domain.Product),
		orders:   make(map[domain.ID]domain.Order),
		failures: make(map[string]int),
		tokenTTL: time.Hour,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/verify-token", s.authed(s.handleVerify))
	mux.HandleFunc("GET /api/users", s.authed(s.handleListUsers))
	mux.HandleFunc("POST /api/users/add", s.authed(s.handleAddUser))
	mux.HandleFunc("PUT /api/users/update/{id}", s.authed(s.handleUpdateUser))
	mux.HandleFunc("DELETE /api/users/delete/{id}", s.authed(s.handleDeleteUser))
	mux.HandleFunc("GET /api/users/managers/emails", s.authed(s.handleManagerEmails))
	mux.HandleFunc("GET /api/products", s.authed(s.handleListProducts))
	mux.HandleFunc("POST /api/products/add", s.authed(s.handleSaveProduct))
	mux.HandleFunc("PUT /api/products/update/{id}", s.authed(s.handleSaveProduct))
	mux.HandleFunc("DELETE /api/products/delete/{id}", s.authed(s.handleDeleteProduct))
	mux.HandleFunc("POST /api/orders/place-order", s.authed(s.handlePlaceOrder))
	mux.HandleFunc("GET /api/orders/{email}", s.authed(s.handleListOrders))
	mux.HandleFunc("POST /api/orders/status", s.authed(s.handleOrderStatus))
	mux.HandleFunc("GET /api/my-orders/{email}", s.authed(s.handleMyOrders))
	mux.HandleFunc("GET /api/my-team/{email}", s.authed(s.handleTeam))

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

// SetTokenTTL changes the lifetime of tokens issued from now on.
func (s *Server) SetTokenTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = ttl
}

// Fail makes every request matching the mux pattern (for example
// "POST /api/orders/status") answer with status. Zero clears it.
func (s *Server) Fail(pattern string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, pattern)
		return
	}
	s.failures[pattern] = status
}

// AddUser registers a user with a plaintext password and returns its id.
func (s *Server) AddUser(u domain.User, password string) domain.ID {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = s.nextID("u")
	}
	u.Password = ""
	s.users[u.ID] = &userRecord{user: u, hash: hash}
	return u.ID
}

// AddProduct stores a product and returns its id.
func (s *Server) AddProduct(p domain.Product) domain.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = s.nextID("")
	}
	s.putProduct(p)
	return p.ID
}

// AddOrder stores an order and returns its id.
func (s *Server) AddOrder(o domain.Order) domain.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = s.nextID("o")
	}
	s.orders[o.ID] = o
	return o.ID
}

// Token issues a token as if the user had logged in.
func (s *Server) Token(email string, role domain.Role) string {
	s.mu.Lock()
	ttl := s.tokenTTL
	s.mu.Unlock()
	token, err := issue(email, string(role), ttl)
	if err != nil {
		panic(err)
	}
	return token
}

// User returns the stored user with id.
func (s *Server) User(id domain.ID) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return domain.User{}, false
	}
	return rec.user, true
}

// Product returns the stored product with id.
func (s *Server) Product(id domain.ID) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

// Order returns the stored order with id.
func (s *Server) Order(id domain.ID) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the requests that matched pattern.
func (s *Server) RequestsTo(pattern string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Pattern == pattern {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) nextID(prefix string) domain.ID {
	s.seq++
	return domain.ID(prefix + strconv.Itoa(s.seq))
}

func (s *Server) putProduct(p domain.Product) {
	if _, exists := s.products[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	s.products[p.ID] = p
}

func issue(email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "backendtest",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
}

func validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(signingSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// record captures every request, and answers with an injected failure when
// one is set for the matched pattern.
func (s *Server) record(next *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := next.Handler(r)
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		req := Request{
			Method:      r.Method,
			Path:        r.URL.Path,
			Pattern:     pattern,
			Token:       r.Header.Get("x-access-token"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		}
		if strings.HasPrefix(req.ContentType, "multipart/form-data") {
			req.Fields, req.Filename = readMultipart(r, body)
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		status := s.failures[pattern]
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"error": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func readMultipart(r *http.Request, body []byte) (map[string]string, string) {
	clone := r.Clone(r.Context())
	clone.Body = io.NopCloser(bytes.NewReader(body))
	if err := clone.ParseMultipartForm(10 << 20); err != nil {
		return nil, ""
	}
	fields := make(map[string]string)
	for k, v := range clone.MultipartForm.Value {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	var filename string
	if files := clone.MultipartForm.File["image_src"]; len(files) > 0 {
		filename = files[0].Filename
	}
	return fields, filename
}

func (s *Server) authed(next func(http.ResponseWriter, *http.Request, *Claims)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := validate(r.Header.Get("x-access-token"))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			return
		}
		next(w, r, claims)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
