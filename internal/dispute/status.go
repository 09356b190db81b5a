package dispute

import (
	"strings"

	"github.com/wcpay/narration-service/internal/domain"
)

// Kind selects which narrative template a dispute renders with.
type Kind string

const (
	KindKlarnaInquiry  Kind = "klarna_inquiry"
	KindVisaCompliance Kind = "visa_compliance"
	KindInquiry        Kind = "inquiry"
	KindDispute        Kind = "dispute"
)

// IsInquiry reports whether the status belongs to a pre-dispute inquiry.
func IsInquiry(status domain.DisputeStatus) bool {
	return strings.HasPrefix(string(status), "warning_")
}

// IsAwaitingResponse reports whether the merchant still has to act.
func IsAwaitingResponse(status domain.DisputeStatus) bool {
	return status == domain.DisputeNeedsResponse || status == domain.DisputeWarningNeedsResponse
}

// IsUnderReview reports whether submitted evidence is being reviewed.
func IsUnderReview(status domain.DisputeStatus) bool {
	return status == domain.DisputeUnderReview || status == domain.DisputeWarningUnderReview
}

// IsClosed reports whether the dispute has reached a final outcome.
func IsClosed(status domain.DisputeStatus) bool {
	switch status {
	case domain.DisputeWon, domain.DisputeLost, domain.DisputeWarningClosed, domain.DisputeChargeRefunded:
		return true
	}
	return false
}

// IsVisaComplianceDispute reports whether the dispute follows Visa's compliance
// process: the reason is noncompliant or the eligibility types include visa_compliance.
func IsVisaComplianceDispute(d domain.Dispute) bool {
	return d.Reason == domain.ReasonNoncompliant || d.HasEligibility(domain.EligibilityVisaCompliance)
}

// Classify picks the narrative template. The first matching rule wins:
// Klarna inquiry, Visa compliance, inquiry, then dispute.
func Classify(d domain.Dispute, method domain.PaymentMethodType) Kind {
	switch {
	case domain.NormalizePaymentMethodType(string(method)) == domain.PaymentMethodKlarna && IsInquiry(d.Status):
		return KindKlarnaInquiry
	case IsVisaComplianceDispute(d):
		return KindVisaCompliance
	case IsInquiry(d.Status):
		return KindInquiry
	default:
		return KindDispute
	}
}
