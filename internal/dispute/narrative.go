/**
 * @description
 * Dispute narrative composer. Picks one of the mutually exclusive templates
 * (Klarna inquiry, Visa compliance, inquiry, dispute) and renders the notice,
 * response steps, available actions and resolution footer for a dispute.
 *
 * @notes
 * - Visa compliance disputes gate the challenge action behind an explicit
 *   acknowledgement of the network fee unless draft evidence already exists.
 * - Missing dates render the locale placeholder instead of failing.
 */
package dispute

import (
	"fmt"

	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/locale"
)

// VisaNetworkFee is the fixed network fee quoted for challenging a Visa compliance dispute.
const VisaNetworkFee = "$500 USD"

const genericBank = "the cardholder's bank"

// Action keys.
const (
	ActionAccept    = "accept"
	ActionChallenge = "challenge"
	ActionRefund    = "refund"
)

// Action is a response the merchant can take.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Input carries everything the composer reads.
type Input struct {
	Dispute       domain.Dispute
	PaymentMethod domain.PaymentMethodType
	BankName      string
	DetailsView   bool
}

// Narrative is the rendered dispute copy.
type Narrative struct {
	Kind                    Kind     `json:"kind"`
	Status                  string   `json:"status"`
	ReasonDisplay           string   `json:"reason"`
	Claim                   string   `json:"claim"`
	ReasonSummary           []string `json:"reason_summary,omitempty"`
	NoticeText              string   `json:"notice,omitempty"`
	Steps                   []string `json:"steps,omitempty"`
	Actions                 []Action `json:"actions,omitempty"`
	RequiresAcknowledgement bool     `json:"requires_acknowledgement"`
	AcknowledgementText     string   `json:"acknowledgement,omitempty"`
	FooterText              string   `json:"footer,omitempty"`
	DueBy                   string   `json:"due_by,omitempty"`
	Countdown               string   `json:"countdown,omitempty"`
	Fee                     string   `json:"fee,omitempty"`
}

// ChallengeEnabled reports whether the challenge action can be used given the
// merchant's acknowledgement state.
func (n Narrative) ChallengeEnabled(acknowledged bool) bool {
	return !n.RequiresAcknowledgement || acknowledged
}

// Compose renders the full narrative for a dispute.
func Compose(f *locale.Formatter, in Input) Narrative {
	d := in.Dispute
	kind := Classify(d, in.PaymentMethod)
	reason := Reason(d.Reason)

	n := Narrative{
		Kind:          kind,
		Status:        StatusLabel(d.Status),
		ReasonDisplay: reason.Display,
		Claim:         reason.Claim,
		ReasonSummary: reason.Summary,
		FooterText:    ResolutionFooter(f, d, in.BankName),
	}

	if fee, currency, ok := Fee(d); ok {
		n.Fee = f.FormatCurrency(fee, currency)
	}

	if IsAwaitingResponse(d.Status) {
		n.NoticeText = Notice(d, in.PaymentMethod, in.BankName)
		n.Steps = Steps(f, in)
		n.Actions = Actions(kind, d)
		if d.EvidenceDetails.DueBy > 0 {
			n.DueBy = f.FormatDateTime(d.EvidenceDetails.DueBy)
			n.Countdown = Countdown(f, d)
		}
	}

	if kind == KindVisaCompliance && IsAwaitingResponse(d.Status) && !d.EvidenceDetails.HasEvidence {
		n.RequiresAcknowledgement = true
		n.AcknowledgementText = fmt.Sprintf(
			"By continuing, you agree that challenging this dispute carries an additional %s network fee, which is refunded only if you win.",
			VisaNetworkFee,
		)
	}
	return n
}

// Notice renders the banner text shown while a dispute awaits a response.
func Notice(d domain.Dispute, method domain.PaymentMethodType, bankName string) string {
	reason := Reason(d.Reason)
	switch Classify(d, method) {
	case KindKlarnaInquiry:
		return "Klarna is asking for more information about this payment on behalf of your customer. " +
			"Klarna inquiries cannot be challenged. Refund the payment or resolve the issue with your customer directly."
	case KindVisaCompliance:
		claimant := "The cardholder's bank"
		if bankName != "" {
			claimant = fmt.Sprintf("The cardholder's bank, %s,", bankName)
		}
		return fmt.Sprintf(
			"%s claims this payment violates Visa's rules. Challenging this dispute carries an additional %s network fee, which is refunded only if you win.",
			claimant, VisaNetworkFee,
		)
	case KindInquiry:
		return reason.Claim + " You can provide more information to help resolve the inquiry, or issue a refund. Not responding will result in the inquiry escalating to a dispute."
	default:
		return reason.Claim + " Challenge the dispute if you believe the claim is invalid, or accept to forfeit the funds and pay the dispute fee. Non-response will result in an automatic loss."
	}
}

// Steps renders the numbered response steps for an open dispute.
func Steps(f *locale.Formatter, in Input) []string {
	d := in.Dispute
	contact := "Contact the customer to address their concerns."
	if email := d.Evidence.CustomerEmailAddress; email != "" {
		contact = fmt.Sprintf("Email the customer (%s) to address their concerns.", email)
	}

	dueSuffix := ""
	if in.DetailsView && d.EvidenceDetails.DueBy > 0 {
		dueSuffix = " by " + f.FormatDate(d.EvidenceDetails.DueBy)
	}

	switch Classify(d, in.PaymentMethod) {
	case KindKlarnaInquiry:
		return []string{
			contact,
			"Refund the payment if the customer's concern is valid" + dueSuffix + ".",
		}
	case KindVisaCompliance:
		return []string{
			fmt.Sprintf("Accept the dispute%s to forfeit the disputed amount and dispute fee.", dueSuffix),
			fmt.Sprintf("Challenge the dispute%s. Submit evidence and acknowledge the additional %s network fee, which is refunded only if you win.", dueSuffix, VisaNetworkFee),
		}
	case KindInquiry:
		return []string{
			contact,
			"Provide guidance on how to request a refund, or issue one directly.",
			"Submit evidence or issue a refund" + dueSuffix + ".",
		}
	default:
		return []string{
			contact,
			"If the customer agrees, ask them to withdraw the dispute with their bank.",
			"Challenge or accept the dispute" + dueSuffix + ".",
		}
	}
}

// Actions lists what the merchant can do while a response is due.
func Actions(kind Kind, d domain.Dispute) []Action {
	challenge := "Challenge dispute"
	if d.EvidenceDetails.HasEvidence {
		challenge = "Continue with challenge"
	}
	switch kind {
	case KindKlarnaInquiry:
		return []Action{{Key: ActionRefund, Label: "Issue refund"}}
	case KindInquiry:
		if !d.EvidenceDetails.HasEvidence {
			challenge = "Submit evidence"
		}
		return []Action{
			{Key: ActionChallenge, Label: challenge},
			{Key: ActionRefund, Label: "Issue refund"},
		}
	default:
		return []Action{
			{Key: ActionChallenge, Label: challenge},
			{Key: ActionAccept, Label: "Accept dispute"},
		}
	}
}

// Countdown renders the time left to respond, e.g. "(3 days left to respond)".
func Countdown(f *locale.Formatter, d domain.Dispute) string {
	if d.EvidenceDetails.DueBy <= 0 {
		return ""
	}
	days := f.DaysUntil(d.EvidenceDetails.DueBy)
	switch {
	case d.EvidenceDetails.PastDue || days < 0:
		return "(Past due)"
	case days == 0:
		return "(Last day today)"
	case days == 1:
		return "(1 day left to respond)"
	default:
		return fmt.Sprintf("(%d days left to respond)", days)
	}
}

// Fee returns the dispute fee from the first dispute balance transaction.
func Fee(d domain.Dispute) (int64, string, bool) {
	for _, bt := range d.BalanceTransactions {
		if bt.ReportingCategory == "dispute" {
			return bt.Fee, bt.Currency, true
		}
	}
	return 0, "", false
}

// StatusLabel returns the display label for a dispute status.
func StatusLabel(status domain.DisputeStatus) string {
	switch status {
	case domain.DisputeNeedsResponse:
		return "Needs response"
	case domain.DisputeUnderReview:
		return "In review"
	case domain.DisputeChargeRefunded:
		return "Charge refunded"
	case domain.DisputeWon:
		return "Won"
	case domain.DisputeLost:
		return "Lost"
	case domain.DisputeWarningNeedsResponse:
		return "Inquiry: Needs response"
	case domain.DisputeWarningUnderReview:
		return "Inquiry: In review"
	case domain.DisputeWarningClosed:
		return "Inquiry: Closed"
	default:
		return locale.Placeholder
	}
}
