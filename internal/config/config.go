package config

import "time"

// Config holds runtime settings shared by the filedrop CLI and gateway.
//
// Fields:
//   - DatabasePath: sqlite DSN for the local record store.
//   - StoreCapacity: record store capacity in bytes.
//   - ListenAddr: host:port the HTTP gateway binds to.
//   - Origin: public base URL used when building shareable links.
//   - CheckoutEndpoint: URL of the checkout provider session endpoint.
//   - AddressLookupURL: service returning the caller's public address.
//   - OriginAddress: static address override; skips the lookup when set.
//   - SignupBonusCoins: coins granted to a freshly registered account.
//   - ReadTimeout: per-upload limit on reading file content.
type Config struct {
	DatabasePath     string
	StoreCapacity    int64
	ListenAddr       string
	Origin           string
	CheckoutEndpoint string
	AddressLookupURL string
	OriginAddress    string
	SignupBonusCoins int
	ReadTimeout      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "filedrop.db"
	c.StoreCapacity = 5 << 20
	c.ListenAddr = "127.0.0.1:8080"
	c.Origin = "http://127.0.0.1:8080"
	c.CheckoutEndpoint = ""
	c.AddressLookupURL = "https://api.ipify.org?format=json"
	c.OriginAddress = ""
	c.SignupBonusCoins = 1
	c.ReadTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (including an optional .env file) and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	parseFlags(cfg)
	return cfg, nil
}
