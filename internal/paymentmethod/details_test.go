package paymentmethod

import (
	"testing"

	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/locale"
)

func detailValue(t *testing.T, details []Detail, label string) string {
	t.Helper()
	for _, d := range details {
		if d.Label == label {
			return d.Value
		}
	}
	t.Fatalf("detail %q not found in %+v", label, details)
	return ""
}

func TestDetailsCard(t *testing.T) {
	pm := &domain.PaymentMethodDetails{
		Type: domain.PaymentMethodCard,
		Card: &domain.CardDetails{
			Brand:    "visa",
			Last4:    "4242",
			ExpMonth: 8,
			ExpYear:  2027,
			Funding:  "credit",
			Country:  "us",
			Checks:   &domain.CardChecks{CVCCheck: "pass", AddressPostalCodeCheck: "fail"},
		},
	}
	billing := &domain.BillingDetails{
		Name:    "Ada Lovelace",
		Address: &domain.Address{Line1: "1 Main St", City: "Springfield", State: "IL", PostalCode: "62701", Country: "us"},
	}

	details := Details(pm, billing)

	cases := map[string]string{
		"Number":       "•••• 4242",
		"Expires":      "08 / 2027",
		"Type":         "Visa credit card",
		"Origin":       "US",
		"Owner":        "Ada Lovelace",
		"Owner email":  locale.Placeholder,
		"Address":      "1 Main St, Springfield, IL 62701, US",
		"CVC check":    "Passed",
		"Street check": locale.Placeholder,
		"Zip check":    "Failed",
	}
	for label, want := range cases {
		if got := detailValue(t, details, label); got != want {
			t.Fatalf("%s: expected %q, got %q", label, want, got)
		}
	}
}

func TestDetailsMissingVariantRendersPlaceholders(t *testing.T) {
	details := Details(&domain.PaymentMethodDetails{Type: domain.PaymentMethodSepaDebit}, nil)
	for _, d := range details {
		if d.Value != locale.Placeholder {
			t.Fatalf("expected placeholder for %s, got %q", d.Label, d.Value)
		}
	}
}

func TestDetailsBankRedirect(t *testing.T) {
	pm := &domain.PaymentMethodDetails{
		Type:   domain.PaymentMethodSofort,
		Sofort: &domain.BankRedirectDetails{BankName: "Commerzbank", BIC: "COBADEFF", IbanLast4: "3000", Country: "de"},
	}

	details := Details(pm, nil)
	if got := detailValue(t, details, "Bank name"); got != "Commerzbank" {
		t.Fatalf("unexpected bank name %q", got)
	}
	if got := detailValue(t, details, "IBAN"); got != "•••• 3000" {
		t.Fatalf("unexpected IBAN %q", got)
	}
	if got := detailValue(t, details, "Origin"); got != "DE" {
		t.Fatalf("unexpected origin %q", got)
	}
}

func TestDetailsUnknownTypeFallsBackToOwner(t *testing.T) {
	details := Details(&domain.PaymentMethodDetails{Type: "link"}, &domain.BillingDetails{Email: "a@example.com"})
	if len(details) != 4 {
		t.Fatalf("expected owner rows only, got %+v", details)
	}
	if got := detailValue(t, details, "Owner email"); got != "a@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
}

func TestBankName(t *testing.T) {
	cases := []struct {
		name string
		pm   *domain.PaymentMethodDetails
		want string
	}{
		{name: "nil", pm: nil, want: ""},
		{name: "card issuer", pm: &domain.PaymentMethodDetails{Type: domain.PaymentMethodCard, Card: &domain.CardDetails{Issuer: "Chase Bank"}}, want: "Chase Bank"},
		{name: "card present issuer", pm: &domain.PaymentMethodDetails{Type: domain.PaymentMethodCardPresent, CardPresent: &domain.CardPresentDetails{Issuer: "RBC"}}, want: "RBC"},
		{name: "ideal bank code", pm: &domain.PaymentMethodDetails{Type: domain.PaymentMethodIdeal, Ideal: &domain.BankRedirectDetails{Bank: "ing"}}, want: "ing"},
		{name: "klarna", pm: &domain.PaymentMethodDetails{Type: domain.PaymentMethodKlarna}, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BankName(tc.pm); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	if got := Label("becs"); got != "BECS Direct Debit" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := Label("mystery"); got != "Unknown payment method" {
		t.Fatalf("unexpected fallback label %q", got)
	}
}
