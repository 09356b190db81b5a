package dispute

import (
	"strings"

	"github.com/wcpay/narration-service/internal/domain"
)

// ReasonCopy is the merchant-facing wording for a dispute reason.
type ReasonCopy struct {
	Display string   `json:"display"`
	Claim   string   `json:"claim"`
	Summary []string `json:"summary,omitempty"`
}

const genericClaim = "The cardholder claims this payment should not have been charged."

var reasonCopy = map[domain.DisputeReason]ReasonCopy{
	domain.ReasonBankCannotProcess: {
		Display: "Bank cannot process",
		Claim:   "The customer's bank could not process this payment.",
	},
	domain.ReasonCheckReturned: {
		Display: "Check returned",
		Claim:   "The customer's bank returned this payment.",
	},
	domain.ReasonCreditNotProcessed: {
		Display: "Credit not processed",
		Claim:   "The cardholder claims a product was returned or a transaction was canceled, but you have not yet provided a refund or credit.",
		Summary: []string{
			"Demonstrate that you have refunded your customer through other means or that your customer is not entitled to a refund.",
			"Include a copy of your refund or cancellation policy and explain why the customer does not qualify.",
		},
	},
	domain.ReasonCustomerInitiated: {
		Display: "Customer initiated",
		Claim:   "The customer asked their bank to cancel this payment.",
	},
	domain.ReasonDebitNotAuthorized: {
		Display: "Debit not authorized",
		Claim:   "The customer's bank notified you that the bank account holder did not authorize this debit.",
	},
	domain.ReasonDuplicate: {
		Display: "Duplicate",
		Claim:   "The cardholder claims they have been charged twice for the same purchase.",
		Summary: []string{
			"Show that each payment was for a separate purchase of goods or services.",
			"If the payments were duplicated, refund one of them and accept this dispute.",
		},
	},
	domain.ReasonFraudulent: {
		Display: "Transaction unauthorized",
		Claim:   "The cardholder claims this is an unauthorized transaction.",
		Summary: []string{
			"Show the cardholder authorized the payment, for example with proof of delivery to the billing address.",
			"Include any prior purchase history or communication with the customer.",
		},
	},
	domain.ReasonGeneral: {
		Display: "General",
		Claim:   "The cardholder claims this payment should not have been charged.",
	},
	domain.ReasonIncorrectAccountDetails: {
		Display: "Incorrect account details",
		Claim:   "The customer's bank account could not be located.",
	},
	domain.ReasonInsufficientFunds: {
		Display: "Insufficient funds",
		Claim:   "The customer's bank account has insufficient funds.",
	},
	domain.ReasonNoncompliant: {
		Display: "Non-compliant",
		Claim:   "The cardholder's bank claims this payment violates Visa's rules.",
	},
	domain.ReasonProductNotReceived: {
		Display: "Product not received",
		Claim:   "The cardholder claims they did not receive the product or service.",
		Summary: []string{
			"Provide proof that the customer received the product or service, such as tracking or delivery confirmation.",
		},
	},
	domain.ReasonProductUnacceptable: {
		Display: "Product unacceptable",
		Claim:   "The cardholder claims the product or service was defective, damaged, or not as described.",
		Summary: []string{
			"Show the product or service was delivered as described at the time of purchase.",
		},
	},
	domain.ReasonSubscriptionCanceled: {
		Display: "Subscription canceled",
		Claim:   "The cardholder claims they were charged for a subscription after it was canceled.",
		Summary: []string{
			"Show the subscription was still active, or that the customer agreed to the cancellation terms.",
		},
	},
	domain.ReasonUnrecognized: {
		Display: "Unrecognized",
		Claim:   "The cardholder claims they don't recognize this charge.",
	},
}

// Reason returns the copy for a dispute reason. Unknown reasons display the raw
// tag with a generic claim.
func Reason(reason domain.DisputeReason) ReasonCopy {
	if c, ok := reasonCopy[reason]; ok {
		return c
	}
	display := strings.ReplaceAll(string(reason), "_", " ")
	if display == "" {
		display = "Unknown"
	} else {
		display = capitalize(display)
	}
	return ReasonCopy{Display: display, Claim: genericClaim}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
