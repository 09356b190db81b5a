/**
 * @description
 * Fee breakdown composer. Turns a fee-rate history into display rows, spreading
 * a single discount entry across the preceding components strictly in list
 * order: the base fee absorbs the discount first, then each additional fee,
 * until the discount is used up.
 *
 * @dependencies
 * - github.com/shopspring/decimal: percentage rates are fractional and must not drift.
 */
package fees

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/locale"
)

// TotalLabel heads the synthetic total row.
const TotalLabel = "Total transaction fee"

// RowKind distinguishes component, total and tax rows.
type RowKind string

const (
	RowFee   RowKind = "fee"
	RowTotal RowKind = "total"
	RowTax   RowKind = "tax"
)

// Row is one line of a fee breakdown.
type Row struct {
	Kind       RowKind `json:"kind"`
	Label      string  `json:"label"`
	RateText   string  `json:"rate_text"`
	Discounted bool    `json:"discounted,omitempty"`
	Capped     bool    `json:"capped,omitempty"`
}

// Line renders the row as "<label>: <rate>".
func (r Row) Line() string {
	return r.Label + ": " + r.RateText
}

// Apportioned is a non-discount history entry after the discount was applied.
type Apportioned struct {
	Entry      domain.FeeRate
	Percentage decimal.Decimal
	Fixed      int64
	Discounted bool
}

// Remainder is the part of the discount no entry could absorb.
type Remainder struct {
	Percentage decimal.Decimal
	Fixed      int64
}

// Apportion applies the first discount entry of history to the other entries in
// order. Percentage and fixed parts are consumed independently.
func Apportion(history []domain.FeeRate) ([]Apportioned, Remainder) {
	var remaining Remainder
	discountIdx := -1
	for i, entry := range history {
		if entry.Type == domain.FeeTypeDiscount {
			discountIdx = i
			remaining.Percentage = entry.PercentageRate.Abs()
			remaining.Fixed = abs(entry.FixedRate)
			break
		}
	}

	out := make([]Apportioned, 0, len(history))
	for i, entry := range history {
		if i == discountIdx || entry.Type == domain.FeeTypeDiscount {
			continue
		}

		pct := entry.PercentageRate
		takePct := decimal.Max(decimal.Zero, decimal.Min(remaining.Percentage, pct))
		pct = pct.Sub(takePct)
		remaining.Percentage = remaining.Percentage.Sub(takePct)

		fixed := entry.FixedRate
		takeFixed := max(0, min(remaining.Fixed, fixed))
		fixed -= takeFixed
		remaining.Fixed -= takeFixed

		out = append(out, Apportioned{
			Entry:      entry,
			Percentage: pct,
			Fixed:      fixed,
			Discounted: !takePct.IsZero() || takeFixed != 0,
		})
	}
	return out, remaining
}

// Breakdown renders fee rates as display rows. Without a history the fee is a
// single base row; with one, each non-discount entry gets a row followed by the
// total. A non-zero tax adds a final tax row.
func Breakdown(f *locale.Formatter, rates *domain.FeeRates, storeCurrency string) []Row {
	if rates == nil {
		return nil
	}

	fixedCurrency := rates.FixedCurrency
	if fixedCurrency == "" {
		fixedCurrency = storeCurrency
	}

	var rows []Row
	if !rates.HasHistory() {
		rows = append(rows, Row{
			Kind:     RowFee,
			Label:    FormatFeeType(domain.FeeTypeBase, "", false),
			RateText: rateText(f, rates.Percentage, rates.Fixed, fixedCurrency, rates.Fixed != 0),
		})
	} else {
		entries, _ := Apportion(rates.History)
		stickyFixed := rates.Fixed != 0
		for _, e := range entries {
			currency := e.Entry.Currency
			if currency == "" {
				currency = fixedCurrency
			}
			showFixed := e.Entry.FixedRate > 0
			stickyFixed = stickyFixed || showFixed

			row := Row{
				Kind:       RowFee,
				Label:      FormatFeeType(e.Entry.Type, e.Entry.AdditionalType, e.Discounted),
				RateText:   rateText(f, e.Percentage, e.Fixed, currency, showFixed),
				Discounted: e.Discounted,
			}
			if e.Entry.Type == domain.FeeTypeBase && e.Entry.Capped {
				row.Capped = true
				row.RateText = "capped at " + f.FormatCurrency(e.Fixed, currency)
			}
			rows = append(rows, row)
		}

		rows = append(rows, Row{
			Kind:     RowTotal,
			Label:    TotalLabel,
			RateText: rateText(f, rates.Percentage, ConvertedFixed(rates), fixedCurrency, stickyFixed),
		})
	}

	if rates.Tax != nil && rates.Tax.Amount != 0 {
		rows = append(rows, Row{
			Kind:     RowTax,
			Label:    LocalizedTaxDescription(rates.Tax.Description),
			RateText: locale.FormatPercentage(rates.Tax.PercentageRate) + "%",
		})
	}
	return rows
}

// ConvertedFixed returns the top-level fixed fee in fixed_currency minor units.
// When fee_exchange_rate names a fromCurrency, fixed is read as an amount in
// that currency and converted with the rate, so the two currencies may use
// different minor-unit scales. Without one, fixed is already in fixed_currency
// and is only scaled by the rate.
func ConvertedFixed(rates *domain.FeeRates) int64 {
	if rates == nil {
		return 0
	}
	rate := rates.ExchangeRate()
	ex := rates.FeeExchangeRate
	if ex != nil && ex.FromCurrency != "" && rates.FixedCurrency != "" {
		major := locale.MajorUnits(rates.Fixed, ex.FromCurrency).Mul(rate)
		return locale.MinorUnits(major, rates.FixedCurrency)
	}
	return decimal.NewFromInt(rates.Fixed).Mul(rate).Round(0).IntPart()
}

// Lines returns the "<label>: <rate>" text of the component rows only.
func Lines(rows []Row) []string {
	var lines []string
	for _, r := range rows {
		if r.Kind == RowFee {
			lines = append(lines, r.Line())
		}
	}
	return lines
}

func rateText(f *locale.Formatter, pct decimal.Decimal, fixed int64, currency string, showFixed bool) string {
	text := locale.FormatPercentage(pct) + "%"
	if showFixed {
		text = fmt.Sprintf("%s + %s", text, f.FormatCurrency(fixed, currency))
	}
	return text
}
