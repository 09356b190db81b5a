package timeline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/locale"
)

// IsFXEvent reports whether the customer paid in a different currency than the
// store settles in.
func IsFXEvent(event domain.TimelineEvent) bool {
	return event.IsFX()
}

// ComposeFXString renders the conversion applied to an FX event, e.g.
// "€1.00 EUR → $1.21 USD: $63.00 USD". Non-FX events and events without a
// customer amount yield "".
func ComposeFXString(f *locale.Formatter, event domain.TimelineEvent) string {
	if !event.IsFX() {
		return ""
	}
	td := event.TransactionDetails

	from, to := td.CustomerAmountCaptured, td.StoreAmountCaptured
	if from == 0 || to == 0 {
		from, to = td.CustomerAmount, td.StoreAmount
	}
	if from == 0 {
		return ""
	}
	return formatFX(f, from, td.CustomerCurrency, to, td.StoreCurrency)
}

func formatFX(f *locale.Formatter, from int64, fromCurrency string, to int64, toCurrency string) string {
	fromMajor := locale.MajorUnits(abs(from), fromCurrency)
	toMajor := locale.MajorUnits(abs(to), toCurrency)
	rate := toMajor.Div(fromMajor)

	return fmt.Sprintf("%s → %s: %s",
		f.FormatRate(decimal.NewFromInt(1), fromCurrency),
		f.FormatRate(rate, toCurrency),
		f.FormatExplicitCurrency(abs(to), toCurrency),
	)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
