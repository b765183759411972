package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/vmelnikov/filedrop/internal/accounts"
	"github.com/vmelnikov/filedrop/internal/checkout"
	"github.com/vmelnikov/filedrop/internal/coins"
	"github.com/vmelnikov/filedrop/internal/config"
	"github.com/vmelnikov/filedrop/internal/files"
	"github.com/vmelnikov/filedrop/internal/kvstore"
	"github.com/vmelnikov/filedrop/internal/logging"
	"github.com/vmelnikov/filedrop/internal/server"
	"github.com/vmelnikov/filedrop/internal/users"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.NewJSON()

	store, err := kvstore.OpenSQLite(ctx, cfg.DatabasePath, cfg.StoreCapacity)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	repo := users.NewRepository(store)

	var resolver accounts.AddressResolver
	if cfg.OriginAddress != "" {
		resolver = accounts.StaticResolver(cfg.OriginAddress)
	} else {
		resolver = accounts.NewHTTPResolver(cfg.AddressLookupURL)
	}

	accountSvc := accounts.NewService(repo, resolver, logger)
	accountSvc.SignupBonus = cfg.SignupBonusCoins

	fileSvc := files.NewService(store, logger)
	fileSvc.ReadTimeout = cfg.ReadTimeout

	ledger := coins.NewLedger(repo, logger)
	checkoutSvc := checkout.NewService(store, ledger, checkout.NewClient(cfg.CheckoutEndpoint), logger)

	srv := server.NewServer(cfg.ListenAddr, logger, fileSvc, accountSvc, checkoutSvc)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
