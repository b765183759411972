package config

import (
	"flag"
	"os"
	"time"

	"github.com/vmelnikov/filedrop/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path to the sqlite database file (default from Config)
//	-l string   address and port for the HTTP gateway (default from Config)
//	-o string   public origin used in shareable links (default from Config)
//	-e string   checkout provider session endpoint (default from Config)
//	-t int      upload read timeout in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-l", "-o", "-e", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the sqlite database file")
	fs.StringVar(&cfg.ListenAddr, "l", cfg.ListenAddr, "address and port for the HTTP gateway")
	fs.StringVar(&cfg.Origin, "o", cfg.Origin, "public origin used in shareable links")
	fs.StringVar(&cfg.CheckoutEndpoint, "e", cfg.CheckoutEndpoint, "checkout provider session endpoint")
	readTimeout := fs.Int("t", int(cfg.ReadTimeout.Seconds()), "upload read timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ReadTimeout = time.Duration(*readTimeout) * time.Second
}
