/**
 * @description
 * Per-method payment detail rendering. Every payment method type the backend
 * reports has an explicit branch; anything outside the vocabulary renders the
 * billing identity only.
 */
package paymentmethod

import (
	"fmt"
	"strings"

	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/locale"
)

// Detail is one labelled value on the payment details card.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Label returns the display name of a payment method type.
func Label(t domain.PaymentMethodType) string {
	switch domain.NormalizePaymentMethodType(string(t)) {
	case domain.PaymentMethodCard:
		return "Card"
	case domain.PaymentMethodCardPresent:
		return "Card (in person)"
	case domain.PaymentMethodInteracPresent:
		return "Interac"
	case domain.PaymentMethodKlarna:
		return "Klarna"
	case domain.PaymentMethodAffirm:
		return "Affirm"
	case domain.PaymentMethodAfterpayClearpay:
		return "Afterpay"
	case domain.PaymentMethodEPS:
		return "EPS"
	case domain.PaymentMethodGiropay:
		return "giropay"
	case domain.PaymentMethodIdeal:
		return "iDEAL"
	case domain.PaymentMethodP24:
		return "Przelewy24 (P24)"
	case domain.PaymentMethodSofort:
		return "Sofort"
	case domain.PaymentMethodBancontact:
		return "Bancontact"
	case domain.PaymentMethodBECS:
		return "BECS Direct Debit"
	case domain.PaymentMethodSepaDebit:
		return "SEPA Direct Debit"
	default:
		return "Unknown payment method"
	}
}

// BankName returns the issuing or redirect bank for methods that report one.
func BankName(pm *domain.PaymentMethodDetails) string {
	if pm == nil {
		return ""
	}
	switch pm.Type {
	case domain.PaymentMethodCard:
		if pm.Card != nil {
			return strings.TrimSpace(pm.Card.Issuer)
		}
	case domain.PaymentMethodCardPresent:
		if pm.CardPresent != nil {
			return strings.TrimSpace(pm.CardPresent.Issuer)
		}
	case domain.PaymentMethodInteracPresent:
		if pm.InteracPresent != nil {
			return strings.TrimSpace(pm.InteracPresent.Issuer)
		}
	case domain.PaymentMethodEPS, domain.PaymentMethodGiropay, domain.PaymentMethodIdeal,
		domain.PaymentMethodP24, domain.PaymentMethodSofort, domain.PaymentMethodBancontact:
		if bank := bankRedirect(pm); bank != nil {
			if bank.BankName != "" {
				return bank.BankName
			}
			return bank.Bank
		}
	}
	return ""
}

// Details renders the labelled rows for a charge's payment method. Missing
// values render the placeholder.
func Details(pm *domain.PaymentMethodDetails, billing *domain.BillingDetails) []Detail {
	if pm == nil {
		return ownerDetails(billing)
	}

	switch pm.Type {
	case domain.PaymentMethodCard:
		return cardDetails(pm.Card, billing)
	case domain.PaymentMethodCardPresent:
		return cardPresentDetails(pm.CardPresent, billing)
	case domain.PaymentMethodInteracPresent:
		return cardPresentDetails(pm.InteracPresent, billing)
	case domain.PaymentMethodKlarna:
		return klarnaDetails(pm.Klarna, billing)
	case domain.PaymentMethodAffirm, domain.PaymentMethodAfterpayClearpay:
		return append([]Detail{{Label: "Type", Value: Label(pm.Type)}}, ownerDetails(billing)...)
	case domain.PaymentMethodEPS, domain.PaymentMethodGiropay, domain.PaymentMethodIdeal,
		domain.PaymentMethodP24, domain.PaymentMethodSofort, domain.PaymentMethodBancontact:
		return bankRedirectDetails(pm.Type, bankRedirect(pm), billing)
	case domain.PaymentMethodBECS:
		return becsDetails(pm.BECS, billing)
	case domain.PaymentMethodSepaDebit:
		return sepaDetails(pm.SepaDebit, billing)
	default:
		return ownerDetails(billing)
	}
}

func bankRedirect(pm *domain.PaymentMethodDetails) *domain.BankRedirectDetails {
	switch pm.Type {
	case domain.PaymentMethodEPS:
		return pm.EPS
	case domain.PaymentMethodGiropay:
		return pm.Giropay
	case domain.PaymentMethodIdeal:
		return pm.Ideal
	case domain.PaymentMethodP24:
		return pm.P24
	case domain.PaymentMethodSofort:
		return pm.Sofort
	case domain.PaymentMethodBancontact:
		return pm.Bancontact
	}
	return nil
}

func cardDetails(card *domain.CardDetails, billing *domain.BillingDetails) []Detail {
	if card == nil {
		card = &domain.CardDetails{}
	}
	var checks domain.CardChecks
	if card.Checks != nil {
		checks = *card.Checks
	}
	details := []Detail{
		{Label: "Number", Value: masked(card.Last4)},
		{Label: "Fingerprint", Value: value(card.Fingerprint)},
		{Label: "Expires", Value: expiry(card.ExpMonth, card.ExpYear)},
		{Label: "Type", Value: cardType(card.Brand, card.Funding)},
		{Label: "Origin", Value: value(strings.ToUpper(card.Country))},
	}
	details = append(details, ownerDetails(billing)...)
	return append(details,
		Detail{Label: "CVC check", Value: checkResult(checks.CVCCheck)},
		Detail{Label: "Street check", Value: checkResult(checks.AddressLine1Check)},
		Detail{Label: "Zip check", Value: checkResult(checks.AddressPostalCodeCheck)},
	)
}

func cardPresentDetails(card *domain.CardPresentDetails, billing *domain.BillingDetails) []Detail {
	if card == nil {
		card = &domain.CardPresentDetails{}
	}
	details := []Detail{
		{Label: "Number", Value: masked(card.Last4)},
		{Label: "Fingerprint", Value: value(card.Fingerprint)},
		{Label: "Expires", Value: expiry(card.ExpMonth, card.ExpYear)},
		{Label: "Type", Value: cardType(card.Brand, card.Funding)},
		{Label: "Entry method", Value: readMethod(card.ReadMethod)},
		{Label: "Origin", Value: value(strings.ToUpper(card.Country))},
	}
	return append(details, ownerDetails(billing)...)
}

func klarnaDetails(k *domain.KlarnaDetails, billing *domain.BillingDetails) []Detail {
	if k == nil {
		k = &domain.KlarnaDetails{}
	}
	details := []Detail{
		{Label: "Type", Value: "Klarna"},
		{Label: "Payment method", Value: klarnaCategory(k.PaymentMethodCategory)},
	}
	return append(details, ownerDetails(billing)...)
}

func bankRedirectDetails(t domain.PaymentMethodType, bank *domain.BankRedirectDetails, billing *domain.BillingDetails) []Detail {
	if bank == nil {
		bank = &domain.BankRedirectDetails{}
	}
	name := bank.BankName
	if name == "" {
		name = bank.Bank
	}
	details := []Detail{
		{Label: "Type", Value: Label(t)},
		{Label: "Bank name", Value: value(name)},
		{Label: "BIC", Value: value(bank.BIC)},
	}
	if t == domain.PaymentMethodSofort || t == domain.PaymentMethodGiropay || t == domain.PaymentMethodIdeal || t == domain.PaymentMethodBancontact {
		details = append(details, Detail{Label: "IBAN", Value: masked(bank.IbanLast4)})
	}
	if t == domain.PaymentMethodSofort {
		details = append(details, Detail{Label: "Origin", Value: value(strings.ToUpper(bank.Country))})
	}
	if bank.VerifiedName != "" {
		details = append(details, Detail{Label: "Verified name", Value: bank.VerifiedName})
	}
	return append(details, ownerDetails(billing)...)
}

func becsDetails(b *domain.BECSDebitDetails, billing *domain.BillingDetails) []Detail {
	if b == nil {
		b = &domain.BECSDebitDetails{}
	}
	details := []Detail{
		{Label: "BSB", Value: value(b.BSBNumber)},
		{Label: "Account number", Value: masked(b.Last4)},
		{Label: "Fingerprint", Value: value(b.Fingerprint)},
		{Label: "Mandate", Value: value(b.Mandate)},
	}
	return append(details, ownerDetails(billing)...)
}

func sepaDetails(s *domain.SepaDebitDetails, billing *domain.BillingDetails) []Detail {
	if s == nil {
		s = &domain.SepaDebitDetails{}
	}
	details := []Detail{
		{Label: "Bank code", Value: value(s.BankCode)},
		{Label: "Branch code", Value: value(s.BranchCode)},
		{Label: "IBAN", Value: masked(s.Last4)},
		{Label: "Fingerprint", Value: value(s.Fingerprint)},
		{Label: "Mandate", Value: value(s.Mandate)},
		{Label: "Origin", Value: value(strings.ToUpper(s.Country))},
	}
	return append(details, ownerDetails(billing)...)
}

func ownerDetails(billing *domain.BillingDetails) []Detail {
	if billing == nil {
		billing = &domain.BillingDetails{}
	}
	return []Detail{
		{Label: "Owner", Value: value(billing.Name)},
		{Label: "Owner email", Value: value(billing.Email)},
		{Label: "Address", Value: address(billing.Address)},
		{Label: "Phone", Value: value(billing.Phone)},
	}
}

func value(v string) string {
	if strings.TrimSpace(v) == "" {
		return locale.Placeholder
	}
	return v
}

func masked(last4 string) string {
	if last4 == "" {
		return locale.Placeholder
	}
	return "•••• " + last4
}

func expiry(month, year int) string {
	if month == 0 || year == 0 {
		return locale.Placeholder
	}
	return fmt.Sprintf("%02d / %d", month, year)
}

func cardType(brand, funding string) string {
	brand = brandName(brand)
	if brand == "" {
		return locale.Placeholder
	}
	switch funding {
	case "credit", "debit", "prepaid":
		return fmt.Sprintf("%s %s card", brand, funding)
	default:
		return brand + " card"
	}
}

func brandName(brand string) string {
	switch strings.ToLower(brand) {
	case "":
		return ""
	case "amex", "american_express":
		return "American Express"
	case "diners":
		return "Diners Club"
	case "discover":
		return "Discover"
	case "jcb":
		return "JCB"
	case "mastercard":
		return "Mastercard"
	case "unionpay":
		return "UnionPay"
	case "visa":
		return "Visa"
	case "interac":
		return "Interac"
	default:
		return brand
	}
}

func checkResult(result string) string {
	switch result {
	case "pass":
		return "Passed"
	case "fail":
		return "Failed"
	case "unavailable":
		return "Unavailable"
	case "unchecked":
		return "Not checked"
	default:
		return locale.Placeholder
	}
}

func readMethod(method string) string {
	switch method {
	case "contact_emv":
		return "Chip"
	case "contactless_emv", "contactless_magstripe_mode":
		return "Contactless"
	case "magnetic_stripe_track2", "magnetic_stripe_fallback":
		return "Swipe"
	default:
		return value(method)
	}
}

func klarnaCategory(category string) string {
	switch category {
	case "pay_later":
		return "Pay later"
	case "pay_now":
		return "Pay now"
	case "pay_in_installments":
		return "Pay in installments"
	case "pay_over_time", "financing":
		return "Financing"
	default:
		return value(category)
	}
}

func address(a *domain.Address) string {
	if a == nil {
		return locale.Placeholder
	}
	region := strings.TrimSpace(strings.Join(nonEmpty(a.State, a.PostalCode), " "))
	parts := nonEmpty(a.Line1, a.Line2, a.City, region, strings.ToUpper(a.Country))
	if len(parts) == 0 {
		return locale.Placeholder
	}
	return strings.Join(parts, ", ")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
