package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/client/client"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	VerifyAge(ctx context.Context) error
	Products(ctx context.Context) error
	Product(ctx context.Context, id string) error
	ShowCart(ctx context.Context) error
	AddToCart(ctx context.Context, productID string, qty int) error
	UpdateCart(ctx context.Context, productID string, qty int) error
	RemoveFromCart(ctx context.Context, productID string) error
	ClearCart(ctx context.Context) error
	Checkout(ctx context.Context) error
	Orders(ctx context.Context) error
	Order(ctx context.Context, id string) error
}

const (
	helpAnonymous = "Available commands: register, login, products, product <id>, help, exit"
	helpLoggedIn  = "Available commands: products, product <id>, cart, add <id> [qty], update <id> <qty>, " +
		"remove <id>, clear, checkout, orders, order <id>, verify, whoami, logout, help, exit"
)

// runREPL reads commands from reader and dispatches them to a until EOF or
// "exit"/"quit". Commands that prompt for more input must read from the same
// reader. The prompt shows statusFn(). A failing command prints its error
// next to it and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("shop %s> ", statusFn()))
		line, readErr := reader.ReadString('\n')
		if readErr != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "verify":
			err = a.VerifyAge(ctx)

		case "products":
			err = a.Products(ctx)
		case "product":
			if len(args) != 1 {
				printlnFn("Usage: product <id>")
				continue
			}
			err = a.Product(ctx, args[0])

		case "cart":
			err = a.ShowCart(ctx)
		case "add":
			if len(args) < 1 || len(args) > 2 {
				printlnFn("Usage: add <id> [qty]")
				continue
			}
			qty := 1
			if len(args) == 2 {
				n, convErr := strconv.Atoi(args[1])
				if convErr != nil {
					printlnFn("Quantity must be a number")
					continue
				}
				qty = n
			}
			err = a.AddToCart(ctx, args[0], qty)
		case "update":
			if len(args) != 2 {
				printlnFn("Usage: update <id> <qty>")
				continue
			}
			qty, convErr := strconv.Atoi(args[1])
			if convErr != nil {
				printlnFn("Quantity must be a number")
				continue
			}
			err = a.UpdateCart(ctx, args[0], qty)
		case "remove":
			if len(args) != 1 {
				printlnFn("Usage: remove <id>")
				continue
			}
			err = a.RemoveFromCart(ctx, args[0])
		case "clear":
			err = a.ClearCart(ctx)

		case "checkout":
			err = a.Checkout(ctx)
		case "orders":
			err = a.Orders(ctx)
		case "order":
			if len(args) != 1 {
				printlnFn("Usage: order <id>")
				continue
			}
			err = a.Order(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", describeError(err))
		}
	}
}

// describeError renders err for the user.
func describeError(err error) string {
	var (
		vErr   *client.ValidationError
		apiErr *client.APIError
	)
	switch {
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.Is(err, client.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, client.ErrNotAuthorized):
		return "log in and verify your age first"
	case errors.Is(err, client.ErrEmptyCart):
		return "your cart is empty"
	case errors.Is(err, client.ErrSessionChanged):
		return "your session changed while the request was running, try again"
	case errors.Is(err, client.ErrLocalDataNotAvailable):
		return "server unavailable and nothing is cached locally"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	case errors.As(err, &apiErr):
		return apiErr.Message
	}
	return err.Error()
}
