package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Marketplace ties together the PA-API signing region, the country code used
// in the webservices hostname, and the storefront host used for purchase URLs.
type Marketplace struct {
	Region      string
	CountryCode string
	Host        string
}

// Marketplaces supported by PA-API v5. Keyed by country code.
var Marketplaces = map[string]Marketplace{
	"it": {Region: "eu-west-1", CountryCode: "it", Host: "www.amazon.it"},
	"fr": {Region: "eu-west-1", CountryCode: "fr", Host: "www.amazon.fr"},
	"es": {Region: "eu-west-1", CountryCode: "es", Host: "www.amazon.es"},
	"de": {Region: "eu-west-1", CountryCode: "de", Host: "www.amazon.de"},
	"uk": {Region: "eu-west-1", CountryCode: "uk", Host: "www.amazon.co.uk"},
	"us": {Region: "us-east-1", CountryCode: "us", Host: "www.amazon.com"},
	"ca": {Region: "us-west-2", CountryCode: "ca", Host: "www.amazon.ca"},
	"jp": {Region: "ap-northeast-1", CountryCode: "jp", Host: "www.amazon.co.jp"},
	"au": {Region: "ap-southeast-2", CountryCode: "au", Host: "www.amazon.com.au"},
	"nl": {Region: "eu-west-1", CountryCode: "nl", Host: "www.amazon.nl"},
	"se": {Region: "eu-west-1", CountryCode: "se", Host: "www.amazon.se"},
	"pl": {Region: "eu-west-1", CountryCode: "pl", Host: "www.amazon.pl"},
}

const (
	DefaultShortLinkHost = "amzn.eu"
	DefaultCacheTTL      = 36 * time.Hour
	DefaultMaxAttempts   = 5
)

// Config is resolved once at startup and passed down explicitly; nothing in
// the pipeline reads the environment after construction.
type Config struct {
	AccessKey  string
	SecretKey  string
	PartnerTag string

	Marketplace Marketplace

	ShortLinkHost string
	CacheTTL      time.Duration
	MaxAttempts   int

	// RedisAddr selects the Redis cache backend when non-empty.
	RedisAddr string
}

// HasCredentials reports whether live PA-API calls are possible. When false
// every fetch yields a deterministic placeholder record.
func (c Config) HasCredentials() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.PartnerTag != ""
}

// FromEnv builds a Config from PRODUCT_GRID_* environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		AccessKey:     os.Getenv("PRODUCT_GRID_ACCESS_KEY"),
		SecretKey:     os.Getenv("PRODUCT_GRID_SECRET_KEY"),
		PartnerTag:    os.Getenv("PRODUCT_GRID_PARTNER_TAG"),
		ShortLinkHost: DefaultShortLinkHost,
		CacheTTL:      DefaultCacheTTL,
		MaxAttempts:   DefaultMaxAttempts,
		RedisAddr:     os.Getenv("PRODUCT_GRID_REDIS_ADDR"),
	}

	cc := os.Getenv("PRODUCT_GRID_MARKETPLACE")
	if cc == "" {
		cc = "it"
	}
	mp, ok := Marketplaces[cc]
	if !ok {
		return Config{}, fmt.Errorf("config: unknown marketplace %q", cc)
	}
	cfg.Marketplace = mp

	if h := os.Getenv("PRODUCT_GRID_SHORTLINK_HOST"); h != "" {
		cfg.ShortLinkHost = h
	}
	if v := os.Getenv("PRODUCT_GRID_CACHE_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("config: invalid PRODUCT_GRID_CACHE_TTL_HOURS %q", v)
		}
		cfg.CacheTTL = time.Duration(hours) * time.Hour
	}
	if v := os.Getenv("PRODUCT_GRID_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: invalid PRODUCT_GRID_MAX_ATTEMPTS %q", v)
		}
		cfg.MaxAttempts = n
	}
	return cfg, nil
}
