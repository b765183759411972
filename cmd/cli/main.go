package main

import (
	"context"
	"log"
	"os"

	"github.com/vmelnikov/filedrop/internal/buildinfo"
	"github.com/vmelnikov/filedrop/internal/cli"
	"github.com/vmelnikov/filedrop/internal/config"
	"github.com/vmelnikov/filedrop/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(ctx, cfg, logging.NewJSON())
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
