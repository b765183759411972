package models

import "time"

// Checkout session status values. A session moves pending -> completed
// exactly once; there are no other transitions.
const (
	CheckoutStatusPending   = "pending"
	CheckoutStatusCompleted = "completed"
)

// CheckoutSession represents one purchase attempt handed off to the hosted
// payment provider.
type CheckoutSession struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	CoinAmount int       `json:"coinAmount"`
	CostCents  int       `json:"costCents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CoinPackage is one entry of the fixed store catalog.
type CoinPackage struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Coins     int    `json:"coins"`
	CostCents int    `json:"costCents"`
	Popular   bool   `json:"popular"`
}

// CoinPackages is the fixed coin catalog. Prices are kept in minor units;
// the provider maps package ids to its own price objects.
var CoinPackages = []CoinPackage{
	{ID: "starter", Label: "Starter Pack", Coins: 5, CostCents: 495},
	{ID: "regular", Label: "Regular Pack", Coins: 10, CostCents: 990, Popular: true},
	{ID: "value", Label: "Value Pack", Coins: 20, CostCents: 1890},
}

// PackageByID returns the catalog entry with the given id, or nil when the
// id is unknown.
func PackageByID(id string) *CoinPackage {
	for i := range CoinPackages {
		if CoinPackages[i].ID == id {
			return &CoinPackages[i]
		}
	}
	return nil
}
