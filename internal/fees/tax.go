package fees

import (
	"fmt"
	"strings"

	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/locale"
)

// DefaultTaxLabel is returned for tax codes without a localized description.
const DefaultTaxLabel = "Tax"

// taxDescriptions maps backend tax codes ("<country> <tax>") to display labels.
var taxDescriptions = map[string]string{
	"AE VAT": "United Arab Emirates VAT",
	"AT VAT": "Austria VAT",
	"AU GST": "Australia GST",
	"BE VAT": "Belgium VAT",
	"BG VAT": "Bulgaria VAT",
	"CA GST": "Canada GST",
	"CA HST": "Canada HST",
	"CA PST": "Canada PST",
	"CA QST": "Canada QST",
	"CH VAT": "Switzerland VAT",
	"CY VAT": "Cyprus VAT",
	"CZ VAT": "Czech Republic VAT",
	"DE VAT": "Germany VAT",
	"DK VAT": "Denmark VAT",
	"EE VAT": "Estonia VAT",
	"ES VAT": "Spain VAT",
	"FI VAT": "Finland VAT",
	"FR VAT": "France VAT",
	"GB VAT": "UK VAT",
	"GR VAT": "Greece VAT",
	"HR VAT": "Croatia VAT",
	"HU VAT": "Hungary VAT",
	"IE VAT": "Ireland VAT",
	"IT VAT": "Italy VAT",
	"JP JCT": "Japan JCT",
	"LT VAT": "Lithuania VAT",
	"LU VAT": "Luxembourg VAT",
	"LV VAT": "Latvia VAT",
	"MT VAT": "Malta VAT",
	"NL VAT": "Netherlands VAT",
	"NO VAT": "Norway VAT",
	"NZ GST": "New Zealand GST",
	"PL VAT": "Poland VAT",
	"PT VAT": "Portugal VAT",
	"RO VAT": "Romania VAT",
	"SE VAT": "Sweden VAT",
	"SG GST": "Singapore GST",
	"SI VAT": "Slovenia VAT",
	"SK VAT": "Slovakia VAT",
}

// LocalizedTaxDescription maps a backend tax code such as "ES VAT" to its label.
// Unknown or empty codes return DefaultTaxLabel.
func LocalizedTaxDescription(code string) string {
	key := strings.ToUpper(strings.Join(strings.Fields(code), " "))
	if label, ok := taxDescriptions[key]; ok {
		return label
	}
	return DefaultTaxLabel
}

// ComposeTaxString renders the tax charged on the fee, e.g.
// "Tax Spain VAT (21%): -$0.74". A missing or zero tax yields "".
func ComposeTaxString(f *locale.Formatter, tax *domain.FeeTax) string {
	if tax == nil || tax.Amount == 0 {
		return ""
	}
	amount := f.FormatCurrency(-abs(tax.Amount), tax.Currency)
	rate := locale.FormatPercentage(tax.PercentageRate)

	label := LocalizedTaxDescription(tax.Description)
	if label == DefaultTaxLabel {
		return fmt.Sprintf("%s (%s%%): %s", DefaultTaxLabel, rate, amount)
	}
	return fmt.Sprintf("%s %s (%s%%): %s", DefaultTaxLabel, label, rate, amount)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
