package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, loading an
// optional .env file first. A missing .env file is not an error.
func parseEnv(cfg *Config) error {
	if err := loadEnvFile(); err != nil {
		return err
	}

	cfg.DatabasePath = getEnv("FILEDROP_DB_PATH", cfg.DatabasePath)
	cfg.StoreCapacity = getInt64("FILEDROP_STORE_CAPACITY", cfg.StoreCapacity)
	cfg.ListenAddr = getEnv("FILEDROP_LISTEN_ADDR", cfg.ListenAddr)
	cfg.Origin = getEnv("FILEDROP_ORIGIN", cfg.Origin)
	cfg.CheckoutEndpoint = getEnv("FILEDROP_CHECKOUT_ENDPOINT", cfg.CheckoutEndpoint)
	cfg.AddressLookupURL = getEnv("FILEDROP_ADDRESS_LOOKUP_URL", cfg.AddressLookupURL)
	cfg.OriginAddress = getEnv("FILEDROP_ORIGIN_ADDRESS", cfg.OriginAddress)
	cfg.SignupBonusCoins = getInt("FILEDROP_SIGNUP_BONUS", cfg.SignupBonusCoins)
	cfg.ReadTimeout = time.Second * time.Duration(getInt("FILEDROP_READ_TIMEOUT_SECONDS", int(cfg.ReadTimeout.Seconds())))

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("FILEDROP_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}

	return nil
}
