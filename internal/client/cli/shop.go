package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/storefront/internal/client/models"
)

// Products lists the catalog.
func (a *App) Products(ctx context.Context) error {
	cat, err := a.catalog.List(ctx)
	if err != nil {
		return err
	}
	if cat.Offline {
		printlnFn("(offline: showing cached catalog)")
	}
	if len(cat.Products) == 0 {
		printlnFn("No products available.")
		return nil
	}
	for _, p := range cat.Products {
		printlnFn(formatProductLine(p))
	}
	return nil
}

// Product shows a single product.
func (a *App) Product(ctx context.Context, id string) error {
	p, offline, err := a.catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	if offline {
		printlnFn("(offline: cached)")
	}
	printlnFn(formatProductLine(*p))
	if p.Category != "" {
		printlnFn("  Category:", p.Category)
	}
	if p.Description != "" {
		printlnFn(" ", p.Description)
	}
	return nil
}

// ShowCart prints the cart, fetching it if it is not loaded yet.
func (a *App) ShowCart(ctx context.Context) error {
	cart, ok := a.cart.Snapshot()
	if !ok {
		var err error
		if cart, err = a.cart.Fetch(ctx); err != nil {
			return err
		}
	}
	printCart(cart)
	return nil
}

func (a *App) AddToCart(ctx context.Context, productID string, qty int) error {
	cart, err := a.cart.AddItem(ctx, productID, qty)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Added %d x %s.", qty, productID))
	printCart(cart)
	return nil
}

func (a *App) UpdateCart(ctx context.Context, productID string, qty int) error {
	cart, err := a.cart.UpdateQuantity(ctx, productID, qty)
	if err != nil {
		return err
	}
	printCart(cart)
	return nil
}

func (a *App) RemoveFromCart(ctx context.Context, productID string) error {
	cart, err := a.cart.RemoveItem(ctx, productID)
	if err != nil {
		return err
	}
	printlnFn("Removed", productID+".")
	printCart(cart)
	return nil
}

func (a *App) ClearCart(ctx context.Context) error {
	if _, err := a.cart.Clear(ctx); err != nil {
		return err
	}
	printlnFn("Cart cleared.")
	return nil
}

// Checkout asks for a shipping address, places the order and prints the
// payment URL. Payment itself happens outside the client.
func (a *App) Checkout(ctx context.Context) error {
	fields, err := GetFields(a.reader, os.Stdout,
		"Street", "City", "State", "Zip code", "Country (empty for "+models.DefaultCountry+")")
	if err != nil {
		return err
	}

	res, err := a.orders.Checkout(ctx, models.Address{
		Street:  fields[0],
		City:    fields[1],
		State:   fields[2],
		ZipCode: fields[3],
		Country: fields[4],
	})
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Order %s placed, total %s.", res.Order.ID, models.FormatPrice(res.Order.TotalAmount)))
	printlnFn("Complete the payment at:", res.RedirectURL)
	return nil
}

func (a *App) Orders(ctx context.Context) error {
	list, err := a.orders.Orders(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No orders yet.")
		return nil
	}
	for _, o := range list {
		printlnFn(formatOrderLine(o))
	}
	return nil
}

func (a *App) Order(ctx context.Context, id string) error {
	o, err := a.orders.Order(ctx, id)
	if err != nil {
		return err
	}
	printlnFn(formatOrderLine(*o))
	for _, it := range o.Items {
		printlnFn(fmt.Sprintf("  %d x %s @ %s", it.Quantity, it.Name, models.FormatPrice(it.PriceAtPurchase)))
	}
	addr := o.ShippingAddress
	if addr.Street != "" {
		printlnFn(fmt.Sprintf("  Ship to: %s, %s, %s %s, %s", addr.Street, addr.City, addr.State, addr.ZipCode, addr.Country))
	}
	return nil
}

func formatProductLine(p models.Product) string {
	stock := fmt.Sprintf("%d in stock", p.Stock)
	if p.Stock <= 0 {
		stock = "out of stock"
	}
	return fmt.Sprintf("[%s] %s  %s  (%s)", p.ID, p.Name, models.FormatPrice(p.Price), stock)
}

func formatOrderLine(o models.Order) string {
	created := ""
	if o.CreatedAt != nil {
		created = " " + o.CreatedAt.Format("2006-01-02")
	}
	return fmt.Sprintf("Order %s%s  %s  %s", o.ID, created, o.Status, models.FormatPrice(o.TotalAmount))
}

func printCart(c *models.Cart) {
	if c.IsEmpty() {
		printlnFn("Your cart is empty.")
		return
	}
	for _, it := range c.Items {
		name := it.Name
		if name == "" {
			name = it.ProductID
		}
		printlnFn(fmt.Sprintf("  [%s] %s x %d  %s", it.ProductID, name, it.Quantity, models.FormatPrice(it.Price*float64(it.Quantity))))
	}
	printlnFn("  Total:", models.FormatPrice(c.DisplayTotal()))
}
