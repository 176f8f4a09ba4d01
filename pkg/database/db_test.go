package database

import (
	"context"
	"os"
	"strconv"
	"testing"
)

func TestDSN(t *testing.T) {
	c := &Config{Host: "db", Port: 5433, User: "desk", Password: "p@ss word", Database: "orderdesk", SSLMode: "disable"}
	want := "postgres://desk:p%40ss%20word@db:5433/orderdesk?sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %s, want %s", got, want)
	}
}

// Runs only against a real database, e.g. ORDERDESK_TEST_DB_HOST=localhost.
func TestOpen(t *testing.T) {
	host := os.Getenv("ORDERDESK_TEST_DB_HOST")
	if host == "" {
		t.Skip("ORDERDESK_TEST_DB_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("ORDERDESK_TEST_DB_PORT"))
	if port == 0 {
		port = 5432
	}
	pool, err := Open(context.Background(), &Config{
		Host:     host,
		Port:     port,
		User:     os.Getenv("ORDERDESK_TEST_DB_USER"),
		Password: os.Getenv("ORDERDESK_TEST_DB_PASSWORD"),
		Database: os.Getenv("ORDERDESK_TEST_DB_NAME"),
		SSLMode:  "disable",
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
