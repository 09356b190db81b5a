package fees

import (
	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/locale"
)

// ComposeFeeString renders the fee line of a captured event, e.g. "Fee: $3.50".
// FX events quote the store-currency fee with an explicit currency code.
func ComposeFeeString(f *locale.Formatter, event domain.TimelineEvent) string {
	if event.IsFX() {
		td := event.TransactionDetails
		return "Fee: " + f.FormatExplicitCurrency(td.StoreFee, td.StoreCurrency)
	}
	return "Fee: " + f.FormatCurrency(event.Fee, event.EventCurrency())
}

// NetAmount returns the captured amount less the fee, and the currency it is in.
// FX events settle in the store currency.
func NetAmount(event domain.TimelineEvent) (int64, string) {
	if event.IsFX() {
		td := event.TransactionDetails
		captured := td.StoreAmountCaptured
		if captured == 0 {
			captured = td.StoreAmount
		}
		return captured - td.StoreFee, td.StoreCurrency
	}
	return event.CapturedAmount() - event.Fee, event.EventCurrency()
}

// ComposeNetString renders the payout line, e.g. "Net payout: $59.50".
func ComposeNetString(f *locale.Formatter, event domain.TimelineEvent) string {
	amount, currency := NetAmount(event)
	if event.IsFX() {
		return "Net payout: " + f.FormatExplicitCurrency(amount, currency)
	}
	return "Net payout: " + f.FormatCurrency(amount, currency)
}
