// Package denomination holds the fixed set of local cash note denominations
// and the validation rules for foreign note specifications.
package denomination

import (
	"errors"
	"regexp"
)

var (
	// ErrUnknownDenomination is returned when a value is not one of the issued local denominations.
	ErrUnknownDenomination = errors.New("unknown denomination")
	// ErrInvalidForeignCurrency is returned when a foreign currency code is not a 3-letter ISO code.
	ErrInvalidForeignCurrency = errors.New("invalid foreign currency code")
	// ErrInvalidForeignAmount is returned when a foreign note amount is not positive.
	ErrInvalidForeignAmount = errors.New("foreign amount must be positive")
	// ErrInvalidExchangeRate is returned when a foreign note exchange rate is not positive.
	ErrInvalidExchangeRate = errors.New("exchange rate must be positive")
)

// local is the issued denomination set, in whole currency units.
var local = map[int64]struct{}{
	5:    {},
	10:   {},
	20:   {},
	50:   {},
	100:  {},
	200:  {},
	500:  {},
	1000: {},
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// IsValid reports whether d is an issued local denomination.
func IsValid(d int64) bool {
	_, ok := local[d]
	return ok
}

// All returns the issued local denominations in ascending order.
func All() []int64 {
	return []int64{5, 10, 20, 50, 100, 200, 500, 1000}
}

// ForeignSpec describes a foreign-currency note at registration time.
type ForeignSpec struct {
	Currency     string
	Amount       int64
	ExchangeRate float64
}

// Validate checks the foreign note rules: a 3-letter uppercase currency code,
// a positive amount and a positive exchange rate.
func (f ForeignSpec) Validate() error {
	if !currencyPattern.MatchString(f.Currency) {
		return ErrInvalidForeignCurrency
	}
	if f.Amount <= 0 {
		return ErrInvalidForeignAmount
	}
	if f.ExchangeRate <= 0 {
		return ErrInvalidExchangeRate
	}
	return nil
}
