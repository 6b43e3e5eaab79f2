package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// readPasswordString reads a password and wipes the raw bytes.
func readPasswordString() (string, error) {
	pw, err := getPassword(os.Stdout)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Register prompts for the account details, creates the account and logs in.
// On success the catalog is shown.
func (a *App) Register(ctx context.Context) error {
	fields, err := GetFields(a.reader, os.Stdout, "Enter username", "Enter email", "Enter birth date (YYYY-MM-DD)")
	if err != nil {
		return err
	}
	password, err := readPasswordString()
	if err != nil {
		return err
	}

	res, err := a.session.Register(ctx, services.RegisterInput{
		Username:  fields[0],
		Email:     fields[1],
		BirthDate: fields[2],
		Password:  password,
	})
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Account created. Welcome, %s!", res.User.Username))
	a.printVerificationHint(res.User.AgeVerified)
	if res.Landing == services.LandingHome {
		return a.Products(ctx)
	}
	return nil
}

// Login prompts for credentials and authenticates.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username or email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := readPasswordString()
	if err != nil {
		return err
	}

	user, err := a.session.Login(ctx, username, password)
	if err != nil {
		return err
	}

	printlnFn("Logged in as", user.Username)
	a.printVerificationHint(user.AgeVerified)
	if cart, ok := a.cart.Snapshot(); ok && !cart.IsEmpty() {
		printlnFn(fmt.Sprintf("Your cart has %d item(s).", len(cart.Items)))
	}
	return nil
}

func (a *App) printVerificationHint(verified bool) {
	if !verified {
		printlnFn("Your age is not verified yet. Run 'verify' before shopping.")
	}
}

// Logout ends the session. It never fails.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	printlnFn("Logged out.")
	return nil
}

// WhoAmI prints the current identity.
func (a *App) WhoAmI(ctx context.Context) error {
	snap := a.session.Snapshot()
	if snap.Identity == nil {
		printlnFn("Not logged in.")
		return nil
	}
	u := snap.Identity
	verified := "no"
	if u.AgeVerified {
		verified = "yes"
	}
	printlnFn(fmt.Sprintf("%s <%s> role=%s age_verified=%s", u.Username, u.Email, u.Role, verified))
	return nil
}

// VerifyAge asks the API to verify the user's age.
func (a *App) VerifyAge(ctx context.Context) error {
	if age, err := a.session.MinimumAge(ctx); err == nil && age > 0 {
		printlnFn(fmt.Sprintf("Checking that you are at least %d...", age))
	}

	user, err := a.session.VerifyAge(ctx)
	if err != nil {
		return err
	}
	if user.AgeVerified {
		printlnFn("Age verified. Happy shopping!")
	} else {
		printlnFn("Age could not be verified.")
	}
	return nil
}
