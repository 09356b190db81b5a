package fees

import "github.com/wcpay/narration-service/internal/domain"

// DefaultFeeLabel is used for fee types outside the known vocabulary.
const DefaultFeeLabel = "Fee"

const discountedSuffix = " (discounted)"

// FormatFeeType returns the merchant-facing label for a fee history entry.
// The discounted flag appends a suffix when a discount consumed part of the fee.
func FormatFeeType(feeType domain.FeeType, additional domain.AdditionalFeeType, discounted bool) string {
	label := feeTypeLabel(feeType, additional)
	if discounted {
		return label + discountedSuffix
	}
	return label
}

func feeTypeLabel(feeType domain.FeeType, additional domain.AdditionalFeeType) string {
	switch feeType {
	case domain.FeeTypeBase:
		return "Base fee"
	case domain.FeeTypeDiscount:
		return "Discount"
	case domain.FeeTypeAdditional:
		switch additional {
		case domain.AdditionalInternational:
			return "International card fee"
		case domain.AdditionalFX:
			return "Currency conversion fee"
		case domain.AdditionalWCPaySubscription:
			return "Subscription transaction fee"
		case domain.AdditionalDevice:
			return "Tap to Pay extension fee"
		}
	}
	return DefaultFeeLabel
}
