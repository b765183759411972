package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/vmelnikov/filedrop/internal/common"
)

// getSimpleText, getPassword and confirm are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var confirm = Confirm

// Register prompts the user for an email and password and attempts to create
// a new account.
//
// On success it prints the signup bonus balance and remembers the user as the
// active session. The password byte slice is securely wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.accounts.Register(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrEmailTaken):
			log.Printf("An account with this email already exists")
		case errors.Is(err, common.ErrAccountLimit):
			log.Printf("Account limit reached for this address")
		default:
			log.Printf("Registration failed: %s", err.Error())
		}
		return err
	}

	a.user = u
	fmt.Printf("Welcome! Your balance is %d coin(s).\n", u.Coins)
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
// The password is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.accounts.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			log.Printf("Invalid email or password")
		} else {
			log.Printf("Login failed: %s", err.Error())
		}
		return err
	}

	a.user = u
	log.Printf("Login successful")
	return nil
}

// Logout clears the stored session and forgets the in-memory user.
func (a *App) Logout(ctx context.Context) error {
	if err := a.accounts.Logout(ctx); err != nil {
		return err
	}
	a.user = nil
	return nil
}
