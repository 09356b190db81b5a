package domain

import "strings"

// PaymentMethodType tags the payment_method_details union.
type PaymentMethodType string

const (
	PaymentMethodCard             PaymentMethodType = "card"
	PaymentMethodCardPresent      PaymentMethodType = "card_present"
	PaymentMethodInteracPresent   PaymentMethodType = "interac_present"
	PaymentMethodKlarna           PaymentMethodType = "klarna"
	PaymentMethodAffirm           PaymentMethodType = "affirm"
	PaymentMethodAfterpayClearpay PaymentMethodType = "afterpay_clearpay"
	PaymentMethodEPS              PaymentMethodType = "eps"
	PaymentMethodGiropay          PaymentMethodType = "giropay"
	PaymentMethodIdeal            PaymentMethodType = "ideal"
	PaymentMethodP24              PaymentMethodType = "p24"
	PaymentMethodSofort           PaymentMethodType = "sofort"
	PaymentMethodBancontact       PaymentMethodType = "bancontact"
	PaymentMethodBECS             PaymentMethodType = "au_becs_debit"
	PaymentMethodSepaDebit        PaymentMethodType = "sepa_debit"
)

// NormalizePaymentMethodType lowercases the tag and resolves legacy aliases.
func NormalizePaymentMethodType(raw string) PaymentMethodType {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch t {
	case "becs", "becs_debit":
		return PaymentMethodBECS
	case "sepa":
		return PaymentMethodSepaDebit
	case "afterpay", "clearpay":
		return PaymentMethodAfterpayClearpay
	default:
		return PaymentMethodType(t)
	}
}

// Charge is the parent payment record.
type Charge struct {
	ID                   string                `json:"id"`
	PaymentIntent        string                `json:"payment_intent,omitempty"`
	Amount               int64                 `json:"amount"`
	AmountCaptured       int64                 `json:"amount_captured"`
	AmountRefunded       int64                 `json:"amount_refunded"`
	Currency             string                `json:"currency"`
	Created              int64                 `json:"created"`
	Status               string                `json:"status"`
	Paid                 bool                  `json:"paid"`
	Captured             bool                  `json:"captured"`
	Refunded             bool                  `json:"refunded"`
	Disputed             bool                  `json:"disputed"`
	Dispute              *Dispute              `json:"dispute"`
	BillingDetails       *BillingDetails       `json:"billing_details,omitempty"`
	PaymentMethodDetails *PaymentMethodDetails `json:"payment_method_details,omitempty"`
}

// BillingDetails is the payer's billing identity.
type BillingDetails struct {
	Name    string   `json:"name,omitempty"`
	Email   string   `json:"email,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// Address is a postal address.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// PaymentMethodDetails is a tagged union keyed by Type. Exactly one of the
// variant pointers is expected to match Type; the others stay nil.
type PaymentMethodDetails struct {
	Type             PaymentMethodType    `json:"type"`
	Card             *CardDetails         `json:"card,omitempty"`
	CardPresent      *CardPresentDetails  `json:"card_present,omitempty"`
	InteracPresent   *CardPresentDetails  `json:"interac_present,omitempty"`
	Klarna           *KlarnaDetails       `json:"klarna,omitempty"`
	Affirm           *struct{}            `json:"affirm,omitempty"`
	AfterpayClearpay *struct{}            `json:"afterpay_clearpay,omitempty"`
	EPS              *BankRedirectDetails `json:"eps,omitempty"`
	Giropay          *BankRedirectDetails `json:"giropay,omitempty"`
	Ideal            *BankRedirectDetails `json:"ideal,omitempty"`
	P24              *BankRedirectDetails `json:"p24,omitempty"`
	Sofort           *BankRedirectDetails `json:"sofort,omitempty"`
	Bancontact       *BankRedirectDetails `json:"bancontact,omitempty"`
	BECS             *BECSDebitDetails    `json:"au_becs_debit,omitempty"`
	SepaDebit        *SepaDebitDetails    `json:"sepa_debit,omitempty"`
}

// CardDetails describes an online card payment.
type CardDetails struct {
	Brand       string      `json:"brand,omitempty"`
	Last4       string      `json:"last4,omitempty"`
	ExpMonth    int         `json:"exp_month,omitempty"`
	ExpYear     int         `json:"exp_year,omitempty"`
	Funding     string      `json:"funding,omitempty"`
	Country     string      `json:"country,omitempty"`
	Network     string      `json:"network,omitempty"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	Issuer      string      `json:"issuer,omitempty"`
	Checks      *CardChecks `json:"checks,omitempty"`
}

// CardChecks are the verification results returned by the card network.
type CardChecks struct {
	AddressLine1Check      string `json:"address_line1_check,omitempty"`
	AddressPostalCodeCheck string `json:"address_postal_code_check,omitempty"`
	CVCCheck               string `json:"cvc_check,omitempty"`
}

// CardPresentDetails describes an in-person card payment.
type CardPresentDetails struct {
	Brand       string `json:"brand,omitempty"`
	Last4       string `json:"last4,omitempty"`
	ExpMonth    int    `json:"exp_month,omitempty"`
	ExpYear     int    `json:"exp_year,omitempty"`
	Funding     string `json:"funding,omitempty"`
	Country     string `json:"country,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Issuer      string `json:"issuer,omitempty"`
	ReadMethod  string `json:"read_method,omitempty"`
}

// KlarnaDetails describes a Klarna payment.
type KlarnaDetails struct {
	PaymentMethodCategory string `json:"payment_method_category,omitempty"`
	PreferredLocale       string `json:"preferred_locale,omitempty"`
}

// BankRedirectDetails covers the redirect-based bank methods (EPS, giropay,
// iDEAL, Przelewy24, Sofort, Bancontact).
type BankRedirectDetails struct {
	Bank         string `json:"bank,omitempty"`
	BankName     string `json:"bank_name,omitempty"`
	BankCode     string `json:"bank_code,omitempty"`
	BIC          string `json:"bic,omitempty"`
	IbanLast4    string `json:"iban_last4,omitempty"`
	Country      string `json:"country,omitempty"`
	VerifiedName string `json:"verified_name,omitempty"`
}

// BECSDebitDetails describes an Australian BECS direct debit.
type BECSDebitDetails struct {
	BSBNumber   string `json:"bsb_number,omitempty"`
	Last4       string `json:"last4,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Mandate     string `json:"mandate,omitempty"`
}

// SepaDebitDetails describes a SEPA direct debit.
type SepaDebitDetails struct {
	BankCode    string `json:"bank_code,omitempty"`
	BranchCode  string `json:"branch_code,omitempty"`
	Country     string `json:"country,omitempty"`
	Last4       string `json:"last4,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Mandate     string `json:"mandate,omitempty"`
}
