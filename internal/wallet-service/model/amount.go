package model

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ParseAmount converte um valor decimal ("12.50") para centavos.
// Rejeita mais de duas casas decimais.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal converte unidades decimais em centavos
func AmountFromDecimal(d decimal.Decimal) (int64, error) {
	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("%w: more than 2 decimal places", ErrInvalidAmount)
	}
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return cents.IntPart(), nil
}

// FormatAmount renderiza centavos como string decimal com duas casas
func FormatAmount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// DayKey é a chave de calendário usada para zerar o limite diário
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}
