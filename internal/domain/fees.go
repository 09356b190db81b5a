package domain

import "github.com/shopspring/decimal"

// FeeType tags a fee history entry.
type FeeType string

const (
	FeeTypeBase       FeeType = "base"
	FeeTypeAdditional FeeType = "additional"
	FeeTypeDiscount   FeeType = "discount"
)

// AdditionalFeeType qualifies an "additional" fee entry.
type AdditionalFeeType string

const (
	AdditionalInternational     AdditionalFeeType = "international"
	AdditionalFX                AdditionalFeeType = "fx"
	AdditionalWCPaySubscription AdditionalFeeType = "wcpay-subscription"
	AdditionalDevice            AdditionalFeeType = "device"
)

// FeeRates describes how the transaction fee was computed. When History is empty
// the fee is a single base fee described by Percentage and Fixed.
type FeeRates struct {
	Percentage      decimal.Decimal  `json:"percentage"`
	Fixed           int64            `json:"fixed"`
	FixedCurrency   string           `json:"fixed_currency"`
	FeeExchangeRate *FeeExchangeRate `json:"fee_exchange_rate,omitempty"`
	Tax             *FeeTax          `json:"tax,omitempty"`
	History         []FeeRate        `json:"history,omitempty"`
}

// FeeExchangeRate converts the top-level fixed fee from FromCurrency into
// FixedCurrency.
type FeeExchangeRate struct {
	Rate         decimal.Decimal `json:"rate"`
	FromCurrency string          `json:"fromCurrency"`
}

// FeeTax is the tax charged on top of the transaction fee.
type FeeTax struct {
	Amount         int64           `json:"amount"`
	Currency       string          `json:"currency"`
	PercentageRate decimal.Decimal `json:"percentage_rate"`
	Description    string          `json:"description"`
}

// FeeRate is one component of a fee history. Discount entries carry negative
// rates (or magnitudes to subtract); consumers use their absolute value.
type FeeRate struct {
	Type           FeeType           `json:"type"`
	AdditionalType AdditionalFeeType `json:"additional_type,omitempty"`
	PercentageRate decimal.Decimal   `json:"percentage_rate"`
	FixedRate      int64             `json:"fixed_rate"`
	Currency       string            `json:"currency"`
	Capped         bool              `json:"capped,omitempty"`
}

// HasHistory reports whether the rates carry a component history.
func (r *FeeRates) HasHistory() bool {
	return r != nil && len(r.History) > 0
}

// IsBaseFeeOnly reports whether the history holds exactly one base entry.
func (r *FeeRates) IsBaseFeeOnly() bool {
	return r != nil && len(r.History) == 1 && r.History[0].Type == FeeTypeBase
}

// ExchangeRate returns the fee exchange rate, defaulting to 1.
func (r *FeeRates) ExchangeRate() decimal.Decimal {
	if r == nil || r.FeeExchangeRate == nil || r.FeeExchangeRate.Rate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return r.FeeExchangeRate.Rate
}
