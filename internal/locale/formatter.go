/**
 * @description
 * Locale-aware money and date formatting. A Formatter is built once from
 * configuration and handed to every rendering call; nothing here reads or
 * mutates process-wide state, so two formatters with different settings can be
 * used side by side.
 *
 * @dependencies
 * - github.com/shopspring/decimal: exact minor-unit to major-unit conversion.
 * - golang.org/x/text/currency: ISO 4217 minor-unit scale lookup.
 */
package locale

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Placeholder is rendered in place of a missing value.
const Placeholder = "–"

const (
	defaultDateFormat     = "Jan 2, 2006"
	defaultDateTimeFormat = "Jan 2, 2006, 3:04 PM"
)

// Config controls how a Formatter renders values.
type Config struct {
	Location          *time.Location
	DateFormat        string
	DateTimeFormat    string
	DecimalSeparator  string
	ThousandSeparator string
	Now               func() time.Time
}

// Formatter renders amounts, rates and dates for merchant-facing copy.
type Formatter struct {
	location          *time.Location
	dateFormat        string
	dateTimeFormat    string
	decimalSeparator  string
	thousandSeparator string
	now               func() time.Time
}

// New builds a Formatter, filling unset fields with en-US defaults in UTC.
func New(cfg Config) *Formatter {
	f := &Formatter{
		location:          cfg.Location,
		dateFormat:        cfg.DateFormat,
		dateTimeFormat:    cfg.DateTimeFormat,
		decimalSeparator:  cfg.DecimalSeparator,
		thousandSeparator: cfg.ThousandSeparator,
		now:               cfg.Now,
	}
	if f.location == nil {
		f.location = time.UTC
	}
	if f.dateFormat == "" {
		f.dateFormat = defaultDateFormat
	}
	if f.dateTimeFormat == "" {
		f.dateTimeFormat = defaultDateTimeFormat
	}
	if f.decimalSeparator == "" {
		f.decimalSeparator = "."
	}
	if f.thousandSeparator == "" {
		f.thousandSeparator = ","
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

// Default returns a Formatter with en-US conventions in UTC.
func Default() *Formatter {
	return New(Config{})
}

// Location returns the timezone dates are rendered in.
func (f *Formatter) Location() *time.Location {
	return f.location
}

// Now returns the formatter clock's current time in its location.
func (f *Formatter) Now() time.Time {
	return f.now().In(f.location)
}

// zeroDecimal lists currencies the payments backend always reports in whole units,
// regardless of their ISO 4217 scale.
var zeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

// Decimals returns the number of minor-unit digits for a currency code.
// Unknown codes use two.
func Decimals(code string) int {
	code = strings.ToUpper(strings.TrimSpace(code))
	if zeroDecimal[code] {
		return 0
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// MajorUnits converts a minor-unit amount into a decimal in major units.
func MajorUnits(amount int64, code string) decimal.Decimal {
	return decimal.New(amount, -int32(Decimals(code)))
}

// MinorUnits converts a major-unit decimal back to minor units, rounding half away from zero.
func MinorUnits(value decimal.Decimal, code string) int64 {
	return value.Shift(int32(Decimals(code))).Round(0).IntPart()
}

type symbol struct {
	text  string
	right bool
}

var symbols = map[string]symbol{
	"USD": {text: "$"},
	"CAD": {text: "$"},
	"AUD": {text: "$"},
	"NZD": {text: "$"},
	"SGD": {text: "$"},
	"HKD": {text: "$"},
	"MXN": {text: "$"},
	"EUR": {text: "€"},
	"GBP": {text: "£"},
	"JPY": {text: "¥"},
	"CNY": {text: "¥"},
	"INR": {text: "₹"},
	"KRW": {text: "₩"},
	"BRL": {text: "R$"},
	"ZAR": {text: "R"},
	"NGN": {text: "₦"},
	"ILS": {text: "₪"},
	"TRY": {text: "₺"},
	"CHF": {text: "CHF "},
	"SEK": {text: " kr", right: true},
	"NOK": {text: " kr", right: true},
	"DKK": {text: " kr.", right: true},
	"PLN": {text: " zł", right: true},
	"CZK": {text: " Kč", right: true},
	"HUF": {text: " Ft", right: true},
	"RON": {text: " lei", right: true},
}

// FormatCurrency renders a minor-unit amount with the currency's symbol, e.g. "-$3.50".
// Currencies without a known symbol render with a trailing code, e.g. "12.00 XYZ".
func (f *Formatter) FormatCurrency(amount int64, code string) string {
	return f.formatValue(MajorUnits(amount, code), code, Decimals(code))
}

// FormatExplicitCurrency renders the amount followed by its ISO code, e.g. "$63.00 USD".
func (f *Formatter) FormatExplicitCurrency(amount int64, code string) string {
	upper := strings.ToUpper(strings.TrimSpace(code))
	rendered := f.FormatCurrency(amount, code)
	if _, ok := symbols[upper]; !ok {
		return rendered
	}
	return rendered + " " + upper
}

// FormatRate renders a major-unit value (such as an exchange rate) with the
// currency symbol and explicit code. Up to six decimal places are kept and
// trailing zeros are trimmed back to the currency's own scale.
func (f *Formatter) FormatRate(value decimal.Decimal, code string) string {
	scale := Decimals(code)
	rounded := value.Round(6)
	places := int(-rounded.Exponent())
	if places < scale {
		places = scale
	}
	text := rounded.StringFixed(int32(places))
	if places > scale && strings.Contains(text, ".") {
		intPart, frac, _ := strings.Cut(text, ".")
		frac = strings.TrimRight(frac, "0")
		for len(frac) < scale {
			frac += "0"
		}
		text = intPart
		if frac != "" {
			text += "." + frac
		}
		places = len(frac)
	}
	rendered := f.formatValue(decimal.RequireFromString(text), code, places)
	upper := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := symbols[upper]; !ok {
		return rendered
	}
	return rendered + " " + upper
}

// FormatPercentage renders a fractional rate as a percentage without the sign,
// rounded to two places: 0.0195 becomes "1.95", 0 becomes "0".
func FormatPercentage(rate decimal.Decimal) string {
	return rate.Shift(2).Round(2).String()
}

func (f *Formatter) formatValue(value decimal.Decimal, code string, places int) string {
	upper := strings.ToUpper(strings.TrimSpace(code))
	negative := value.IsNegative()
	digits := value.Abs().StringFixed(int32(places))

	intPart, frac, _ := strings.Cut(digits, ".")
	var b strings.Builder
	if negative {
		b.WriteString("-")
	}

	sym, known := symbols[upper]
	if known && !sym.right {
		b.WriteString(sym.text)
	}
	b.WriteString(groupThousands(intPart, f.thousandSeparator))
	if frac != "" {
		b.WriteString(f.decimalSeparator)
		b.WriteString(frac)
	}
	switch {
	case known && sym.right:
		b.WriteString(sym.text)
	case !known && upper != "":
		b.WriteString(" ")
		b.WriteString(upper)
	}
	return b.String()
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatDate renders a unix timestamp as a calendar date. Zero renders the placeholder.
func (f *Formatter) FormatDate(unix int64) string {
	if unix <= 0 {
		return Placeholder
	}
	return time.Unix(unix, 0).In(f.location).Format(f.dateFormat)
}

// FormatDateTime renders a unix timestamp as a date with time of day.
func (f *Formatter) FormatDateTime(unix int64) string {
	if unix <= 0 {
		return Placeholder
	}
	return time.Unix(unix, 0).In(f.location).Format(f.dateTimeFormat)
}

// Time converts a unix timestamp into the formatter's location.
func (f *Formatter) Time(unix int64) time.Time {
	return time.Unix(unix, 0).In(f.location)
}

// DaysUntil counts calendar days in the formatter's location from today to the
// given timestamp. Today yields 0 and past dates are negative.
func (f *Formatter) DaysUntil(unix int64) int {
	now := f.Now()
	target := f.Time(unix)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, f.location)
	day := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, f.location)
	return int(math.Round(day.Sub(today).Hours() / 24))
}
