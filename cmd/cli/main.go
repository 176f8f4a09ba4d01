package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yourorg/orderdesk/internal/app"
	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/dashboard"
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/infrastructure/logger"
	"github.com/yourorg/orderdesk/internal/repository"
	"github.com/yourorg/orderdesk/internal/router"
)

var (
	errUsage       = errors.New("usage")
	errNotLoggedIn = errors.New("not logged in: run 'orderdesk auth login'")
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokenPath := os.Getenv("ORDERDESK_TOKEN_FILE")
	if tokenPath == "" {
		p, err := repository.DefaultTokenPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
			os.Exit(1)
		}
		tokenPath = p
	}
	log := logger.New(os.Stderr, getEnv("ORDERDESK_LOG_LEVEL", "warn"))

	c := newCLI(getAPIURL(), repository.NewFileTokenStore(tokenPath), os.Stdout, os.Stdin, log)
	if err := c.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

// cli runs one command against a console session bound to the token file.
type cli struct {
	app *app.App
	out io.Writer
	in  *bufio.Reader
}

func newCLI(apiURL string, tokens domain.TokenStore, out io.Writer, in io.Reader, log *slog.Logger) *cli {
	base := backend.NewClient(apiURL, nil, backend.NewHTTPClient(), log)
	return &cli{
		app: app.New("cli", base, tokens, log),
		out: out,
		in:  bufio.NewReader(in),
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	command, rest := args[0], args[1:]
	switch command {
	case "auth":
		return c.dispatch(ctx, "auth", rest, map[string]func(context.Context, []string) error{
			"login":  c.login,
			"logout": c.logout,
			"who":    c.who,
		})
	case "users":
		return c.dispatch(ctx, "users", rest, map[string]func(context.Context, []string) error{
			"list":   c.listUsers,
			"add":    c.addUser,
			"edit":   c.editUser,
			"delete": c.deleteUser,
		})
	case "products":
		return c.dispatch(ctx, "products", rest, map[string]func(context.Context, []string) error{
			"list":   c.listProducts,
			"add":    c.addProduct,
			"edit":   c.editProduct,
			"delete": c.deleteProduct,
		})
	case "orders":
		return c.dispatch(ctx, "orders", rest, map[string]func(context.Context, []string) error{
			"list":   c.listOrders,
			"status": c.setOrderStatus,
		})
	case "team":
		return c.dispatch(ctx, "team", rest, map[string]func(context.Context, []string) error{
			"list": c.listTeam,
		})
	case "my-orders":
		return c.dispatch(ctx, "my-orders", rest, map[string]func(context.Context, []string) error{
			"list": c.listMyOrders,
		})
	case "catalog":
		return c.dispatch(ctx, "catalog", rest, map[string]func(context.Context, []string) error{
			"list":  c.listCatalog,
			"order": c.placeOrder,
		})
	case "help":
		printUsage(c.out)
		return nil
	default:
		fmt.Fprintf(c.out, "unknown command: %s\n", command)
		printUsage(c.out)
		return errUsage
	}
}

func (c *cli) dispatch(ctx context.Context, group string, args []string, subs map[string]func(context.Context, []string) error) error {
	if len(args) < 1 {
		fmt.Fprintf(c.out, "Usage: orderdesk %s <%s>\n", group, strings.Join(sortedKeys(subs), "|"))
		return errUsage
	}
	run, ok := subs[args[0]]
	if !ok {
		fmt.Fprintf(c.out, "unknown %s command: %s\n", group, args[0])
		return errUsage
	}
	return run(ctx, args[1:])
}

// gate restores the session and returns the page when the router renders
// one of paths for it.
func (c *cli) gate(ctx context.Context, paths ...string) (dashboard.Page, error) {
	c.app.Start(ctx)
	st := c.app.State()
	if st.Phase != router.Authenticated {
		return nil, errNotLoggedIn
	}
	for _, p := range paths {
		if c.app.Resolve(p).Action == router.Render {
			if page := c.app.Page(); page != nil {
				return page, nil
			}
		}
	}
	return nil, fmt.Errorf("not available to the %s role", st.Role)
}

// confirm asks prompt on the terminal unless yes is set.
func (c *cli) confirm(yes bool) func(string) bool {
	return func(prompt string) bool {
		if yes {
			return true
		}
		fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
		line, _ := c.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func getAPIURL() string {
	return getEnv("ORDERDESK_API", "http://localhost:5000")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Orderdesk CLI

Usage:
  orderdesk <command> [options]

Commands:
  auth       Session (login, logout, who)
  users      Admin: user accounts (list, add, edit, delete)
  products   Admin and manager: product catalog (list, add, edit, delete)
  orders     Admin and manager: orders (list, status)
  team       Manager: team members and order counts (list)
  my-orders  Employee: own orders (list)
  catalog    Employee: browse and order products (list, order)
  help       Show this help message

Environment Variables:
  ORDERDESK_API         Backend endpoint (default: http://localhost:5000)
  ORDERDESK_TOKEN_FILE  Token file (default: ~/.orderdesk/token)
  ORDERDESK_LOG_LEVEL   Log level on stderr (default: warn)

Examples:
  orderdesk auth login -email admin@example.com -password secret
  orderdesk users add -name Eve -age 30 -email eve@example.com -password pw -role Employee -manager mia@example.com
  orderdesk products list -sort priceAsc -page 2
  orderdesk orders status -id 65f0c0ffee -status Delivered
  orderdesk catalog order -id 65f0c0ffee
`)
}
