package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/vmelnikov/filedrop/internal/accounts"
	"github.com/vmelnikov/filedrop/internal/checkout"
	"github.com/vmelnikov/filedrop/internal/coins"
	"github.com/vmelnikov/filedrop/internal/config"
	"github.com/vmelnikov/filedrop/internal/files"
	"github.com/vmelnikov/filedrop/internal/kvstore"
	"github.com/vmelnikov/filedrop/internal/logging"
	"github.com/vmelnikov/filedrop/internal/models"
	"github.com/vmelnikov/filedrop/internal/users"
)

// App is the interactive filedrop client. It holds the open store and the
// services built on top of it, plus the logged-in user for the session.
type App struct {
	config   *config.Config
	store    *kvstore.SQLiteStore
	accounts *accounts.Service
	files    *files.Service
	ledger   *coins.Ledger
	checkout *checkout.Service
	user     *models.User
	reader   *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	store, err := kvstore.OpenSQLite(ctx, c.DatabasePath, c.StoreCapacity)
	if err != nil {
		return nil, err
	}

	repo := users.NewRepository(store)

	var resolver accounts.AddressResolver
	if c.OriginAddress != "" {
		resolver = accounts.StaticResolver(c.OriginAddress)
	} else {
		resolver = accounts.NewHTTPResolver(c.AddressLookupURL)
	}

	accountSvc := accounts.NewService(repo, resolver, log)
	accountSvc.SignupBonus = c.SignupBonusCoins

	fileSvc := files.NewService(store, log)
	fileSvc.ReadTimeout = c.ReadTimeout

	ledger := coins.NewLedger(repo, log)
	checkoutSvc := checkout.NewService(store, ledger, checkout.NewClient(c.CheckoutEndpoint), log)

	return &App{
		config:   c,
		store:    store,
		accounts: accountSvc,
		files:    fileSvc,
		ledger:   ledger,
		checkout: checkoutSvc,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.store.Close()

	// Pick up the session a previous run left behind.
	if u, err := a.accounts.CurrentUser(ctx); err == nil && u != nil {
		a.user = u
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) status() string {
	if a.user == nil {
		return ""
	}
	return "(" + a.user.Email + ")"
}
