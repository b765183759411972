package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/models"
)

func (a *App) Balance(ctx context.Context) error {
	if a.user == nil {
		fmt.Println("Log in to see your balance.")
		return nil
	}

	balance, err := a.ledger.Balance(ctx, a.user.ID)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	fmt.Printf("Balance: %d coin(s)\n", balance)
	return nil
}

func (a *App) Packages(context.Context) error {
	for _, pkg := range models.CoinPackages {
		marker := " "
		if pkg.Popular {
			marker = "*"
		}
		fmt.Printf("%s %-8s %2d coins  $%d.%02d  (%s)\n",
			marker, pkg.ID, pkg.Coins, pkg.CostCents/100, pkg.CostCents%100, pkg.Label)
	}
	return nil
}

// Buy starts a hosted checkout for a coin package. Payment happens in the
// browser; the printed link lands back on the store page which applies the
// purchase.
func (a *App) Buy(ctx context.Context) error {
	if a.user == nil {
		fmt.Println("Log in to buy coins.")
		return nil
	}

	pkgID, err := getSimpleText(a.reader, "Enter package id (see 'packages')", os.Stdout)
	if err != nil {
		return err
	}

	url, err := a.checkout.Initiate(ctx, a.user.ID, a.user.Email, pkgID)
	if err != nil {
		if errors.Is(err, common.ErrCheckoutInitiation) {
			log.Printf("Could not start the purchase: %s", err.Error())
		} else {
			log.Println(err.Error())
		}
		return err
	}

	fmt.Println("Open this link in your browser to pay:")
	fmt.Println(url)
	return nil
}

func (a *App) Store(context.Context) error {
	fmt.Println("Store page:", a.config.Origin+"/store")
	return nil
}
