package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var defaultTaxRate = decimal.RequireFromString("0.18")

// DefaultTaxRate is applied to the subtotal when a request carries no explicit tax (IGV 18%).
func DefaultTaxRate() decimal.Decimal {
	raw := strings.TrimSpace(os.Getenv("DEFAULT_TAX_RATE"))
	if raw == "" {
		return defaultTaxRate
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() {
		log.Printf("invalid DEFAULT_TAX_RATE %q; using %s", raw, defaultTaxRate)
		return defaultTaxRate
	}
	return rate
}

func DefaultCountryCode() string {
	code := strings.ToUpper(strings.TrimSpace(os.Getenv("DEFAULT_COUNTRY_CODE")))
	if code == "" {
		return "PE"
	}
	return code
}

// AppLocation is the timezone used to decide the calendar day of document numbers.
func AppLocation() *time.Location {
	name := strings.TrimSpace(os.Getenv("APP_TIMEZONE"))
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("invalid APP_TIMEZONE %q; using UTC", name)
		return time.UTC
	}
	return loc
}

func CacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil || lifespan <= 0 {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}
