package dispute

import (
	"fmt"

	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/locale"
)

// reviewer names who decides the dispute: Visa for compliance disputes,
// otherwise the issuing bank.
func reviewer(d domain.Dispute, bankName string) string {
	if IsVisaComplianceDispute(d) {
		return "Visa"
	}
	if bankName != "" {
		return bankName
	}
	return genericBank
}

// ResolutionFooter renders the closing sentence for disputes past the response
// stage. Open disputes and unknown statuses yield "".
func ResolutionFooter(f *locale.Formatter, d domain.Dispute, bankName string) string {
	who := reviewer(d, bankName)
	submitted := metaDate(f, d.Metadata.EvidenceSubmittedAt)
	closed := metaDate(f, d.Metadata.ClosedAt)

	switch d.Status {
	case domain.DisputeUnderReview:
		return fmt.Sprintf(
			"You submitted evidence for this dispute on %s. %s is reviewing the case, which can take 60 days or more.",
			submitted, capitalize(who),
		)
	case domain.DisputeWarningUnderReview:
		return fmt.Sprintf(
			"You submitted evidence for this inquiry on %s. %s is reviewing the case, which can take 120 days or more.",
			submitted, capitalize(who),
		)
	case domain.DisputeWon:
		return fmt.Sprintf(
			"Good news! %s decided that you won the dispute on %s. The disputed amount and the dispute fee have been credited back to your account.",
			capitalize(who), closed,
		)
	case domain.DisputeLost:
		switch {
		case d.Metadata.ClosedByMerchant():
			return fmt.Sprintf(
				"This dispute was accepted and lost on %s. The disputed amount and the dispute fee have been deducted from your account.",
				closed,
			)
		case d.Metadata.HasEvidenceSubmitted():
			return fmt.Sprintf(
				"Unfortunately, %s decided that you lost the dispute on %s. The disputed amount and the dispute fee have been deducted from your account.",
				who, closed,
			)
		default:
			return fmt.Sprintf(
				"This dispute was lost on %s due to non-response. The disputed amount and the dispute fee have been deducted from your account.",
				closed,
			)
		}
	case domain.DisputeWarningClosed:
		return fmt.Sprintf(
			"This inquiry was closed on %s. %s did not escalate it to a formal dispute.",
			closed, capitalize(who),
		)
	}
	return ""
}

func metaDate(f *locale.Formatter, lookup func() (int64, bool)) string {
	ts, ok := lookup()
	if !ok {
		return locale.Placeholder
	}
	return f.FormatDate(ts)
}
