/**
 * @description
 * Timeline event mapper. Turns backend timeline events into display items.
 * Dispatch is an exhaustive switch over the event vocabulary; tags outside it
 * render nothing.
 *
 * @notes
 * - FX events quote payout movements in the store currency with an explicit
 *   code; everything else uses the event currency.
 * - A missing bank name is replaced by "The cardholder's bank".
 */
package timeline

import (
	"fmt"

	"github.com/wcpay/narration-service/internal/dispute"
	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/fees"
	"github.com/wcpay/narration-service/internal/locale"
)

const genericBank = "The cardholder's bank"

// Mapper renders timeline events with an injected formatter.
type Mapper struct {
	f *locale.Formatter
}

// NewMapper creates a Mapper.
func NewMapper(f *locale.Formatter) *Mapper {
	if f == nil {
		f = locale.Default()
	}
	return &Mapper{f: f}
}

// MapEvents maps every event in order and flattens the result.
func (m *Mapper) MapEvents(events []domain.TimelineEvent, bankName string) []Item {
	items := make([]Item, 0, len(events)*2)
	for _, event := range events {
		items = append(items, m.MapEvent(event, bankName)...)
	}
	return items
}

// MapEvent renders a single event. Unknown event types yield no items.
func (m *Mapper) MapEvent(event domain.TimelineEvent, bankName string) []Item {
	switch event.Type {
	case domain.EventStarted:
		return []Item{
			m.main(event, IconCheckmark, fmt.Sprintf("A payment of %s was started.", m.amount(event)), nil),
		}
	case domain.EventAuthorized:
		return []Item{
			m.status(event, "Authorized"),
			m.main(event, IconCheckmark, fmt.Sprintf("A payment of %s was successfully authorized.", m.amount(event)), nil),
		}
	case domain.EventAuthorizationVoided:
		return []Item{
			m.status(event, "Authorization voided"),
			m.main(event, IconCheckmark, fmt.Sprintf("Authorization for %s was voided.", m.amount(event)), nil),
		}
	case domain.EventAuthorizationExpired:
		return []Item{
			m.status(event, "Authorization expired"),
			m.main(event, IconCross, fmt.Sprintf("Authorization for %s expired.", m.amount(event)), nil),
		}
	case domain.EventCaptured:
		return m.captured(event)
	case domain.EventPartialRefund:
		return m.refund(event, "Partial refund")
	case domain.EventFullRefund:
		return m.refund(event, "Refunded")
	case domain.EventRefundFailed:
		amount, currency := m.settlement(event, refundedAmount(event))
		return []Item{
			m.deposit(event, amount, currency, nil),
			m.main(event, IconCross, fmt.Sprintf("Payment refund of %s failed.", m.explicit(refundedAmount(event), event.EventCurrency())), nil),
		}
	case domain.EventFailed:
		var body []string
		if event.Reason != "" {
			body = []string{event.Reason}
		}
		return []Item{
			m.status(event, "Failed"),
			m.main(event, IconCross, fmt.Sprintf("A payment of %s failed.", m.amount(event)), body),
		}
	case domain.EventDisputeNeedsResponse:
		return m.disputeNeedsResponse(event)
	case domain.EventDisputeInReview:
		return []Item{
			m.status(event, "Disputed: In review"),
			m.withDisputeLink(event, m.main(event, IconNotice, "Challenge evidence submitted.", nil)),
		}
	case domain.EventDisputeWon:
		return []Item{
			m.disputeDeposit(event, 1),
			m.status(event, "Disputed: Won"),
			m.withDisputeLink(event, m.main(event, IconCheckmark, fmt.Sprintf("Dispute won! %s ruled in your favor.", bank(bankName)), nil)),
		}
	case domain.EventDisputeLost:
		return []Item{
			m.status(event, "Disputed: Lost"),
			m.withDisputeLink(event, m.main(event, IconCross, fmt.Sprintf("Dispute lost. %s ruled in favor of your customer.", bank(bankName)), nil)),
		}
	case domain.EventDisputeAccepted:
		return []Item{
			m.status(event, "Disputed: Lost"),
			m.withDisputeLink(event, m.main(event, IconCross, "You accepted the dispute.", nil)),
		}
	case domain.EventDisputeWarningClosed:
		return []Item{
			m.status(event, "Inquiry: Closed"),
			m.withDisputeLink(event, m.main(event, IconInfo, fmt.Sprintf("Inquiry closed. %s did not escalate it to a dispute.", bank(bankName)), nil)),
		}
	case domain.EventDisputeChargeRefunded:
		return []Item{
			m.status(event, "Disputed: Closed"),
			m.withDisputeLink(event, m.main(event, IconInfo, "Dispute closed. The charge was refunded.", nil)),
		}
	case domain.EventFinancingPaydown:
		amount, currency := m.settlement(event, -abs(event.Amount))
		body := []string{fmt.Sprintf("Loan repayment: Loan %s", valueOrPlaceholder(event.LoanID))}
		return []Item{m.deposit(event, amount, currency, body)}
	case domain.EventFraudOutcomeReview:
		return []Item{
			m.status(event, "Payment on hold"),
			m.main(event, IconShield, "Payment was screened by your fraud filters and placed in review.", rulesetLines(event.RulesetResults)),
		}
	case domain.EventFraudOutcomeBlock:
		return []Item{
			m.status(event, "Payment blocked"),
			m.main(event, IconShield, "Payment was screened by your fraud filters and blocked.", rulesetLines(event.RulesetResults)),
		}
	case domain.EventFraudOutcomeManualApprove:
		return []Item{
			m.main(event, IconShield, fmt.Sprintf("This payment was approved by %s.", admin(event.User)), nil),
		}
	case domain.EventFraudOutcomeManualBlock:
		return []Item{
			m.status(event, "Payment blocked"),
			m.main(event, IconShield, fmt.Sprintf("This payment was blocked by %s.", admin(event.User)), nil),
		}
	default:
		return nil
	}
}

func (m *Mapper) captured(event domain.TimelineEvent) []Item {
	net, netCurrency := fees.NetAmount(event)

	var body []string
	if fx := ComposeFXString(m.f, event); fx != "" {
		body = append(body, fx)
	}
	body = append(body, fees.ComposeFeeString(m.f, event))
	if event.FeeRates.HasHistory() && !event.FeeRates.IsBaseFeeOnly() {
		body = append(body, fees.Lines(fees.Breakdown(m.f, event.FeeRates, netCurrency))...)
	}
	if event.FeeRates != nil {
		if tax := fees.ComposeTaxString(m.f, event.FeeRates.Tax); tax != "" {
			body = append(body, tax)
		}
	}
	body = append(body, fees.ComposeNetString(m.f, event))

	headline := fmt.Sprintf("A payment of %s was successfully charged.", m.explicit(event.CapturedAmount(), event.EventCurrency()))
	return []Item{
		m.deposit(event, net, netCurrency, nil),
		m.status(event, "Paid"),
		m.main(event, IconCheckmark, headline, body),
	}
}

func (m *Mapper) refund(event domain.TimelineEvent, status string) []Item {
	refunded := refundedAmount(event)
	amount, currency := m.settlement(event, -refunded)

	var body []string
	if event.IsFX() {
		td := event.TransactionDetails
		if td.CustomerAmount != 0 {
			body = append(body, formatFX(m.f, td.CustomerAmount, td.CustomerCurrency, td.StoreAmount, td.StoreCurrency))
		}
	}

	headline := fmt.Sprintf("A payment of %s was successfully refunded.", m.explicit(refunded, event.EventCurrency()))
	return []Item{
		m.deposit(event, amount, currency, nil),
		m.status(event, status),
		m.main(event, IconCheckmark, headline, body),
	}
}

func (m *Mapper) disputeNeedsResponse(event domain.TimelineEvent) []Item {
	reason := dispute.Reason(domain.DisputeReason(event.Reason)).Display

	var body []string
	if event.EvidenceDueBy > 0 {
		body = []string{"Needs response by " + m.f.FormatDateTime(event.EvidenceDueBy)}
	}
	return []Item{
		m.disputeDeposit(event, -1),
		m.status(event, "Disputed: Needs response"),
		m.withDisputeLink(event, m.main(event, IconCross, fmt.Sprintf("Payment disputed as %s.", reason), body)),
	}
}

// disputeDeposit renders the payout movement of a dispute: sign -1 withholds
// the disputed amount and fee, +1 returns them.
func (m *Mapper) disputeDeposit(event domain.TimelineEvent, sign int64) Item {
	amount, fee, currency := abs(event.Amount), abs(event.Fee), event.EventCurrency()
	if event.IsFX() {
		td := event.TransactionDetails
		amount, fee, currency = abs(td.StoreAmount), abs(td.StoreFee), td.StoreCurrency
	}
	format := m.f.FormatCurrency
	if event.IsFX() {
		format = m.f.FormatExplicitCurrency
	}
	body := []string{
		"Disputed amount: " + format(sign*amount, currency),
		"Fee: " + format(sign*fee, currency),
	}
	return m.deposit(event, sign*(amount+fee), currency, body)
}

// settlement converts an event-currency amount into the amount that moves in
// the payout. For FX events the store-currency projection is used, keeping the
// sign of the given amount.
func (m *Mapper) settlement(event domain.TimelineEvent, amount int64) (int64, string) {
	if !event.IsFX() {
		return amount, event.EventCurrency()
	}
	td := event.TransactionDetails
	store := abs(td.StoreAmount)
	if amount < 0 {
		store = -store
	}
	return store, td.StoreCurrency
}

func (m *Mapper) deposit(event domain.TimelineEvent, amount int64, currency string, body []string) Item {
	formatted := m.f.FormatCurrency(abs(amount), currency)
	if event.IsFX() {
		formatted = m.f.FormatExplicitCurrency(abs(amount), currency)
	}

	item := Item{Date: m.f.Time(event.Datetime), Icon: IconPlus, Body: body}
	if amount < 0 {
		item.Icon = IconMinus
	}

	if event.Deposit != nil && event.Deposit.ID != "" {
		date := m.f.FormatDate(event.Deposit.ArrivalDate)
		if amount < 0 {
			item.Headline = fmt.Sprintf("%s was deducted from your %s payout.", formatted, date)
		} else {
			item.Headline = fmt.Sprintf("%s was added to your %s payout.", formatted, date)
		}
		item.Link = &Link{Text: "View payout", Href: "/payouts/" + event.Deposit.ID}
		return item
	}

	if amount < 0 {
		item.Headline = fmt.Sprintf("%s will be deducted from a future payout.", formatted)
	} else {
		item.Headline = fmt.Sprintf("%s will be added to a future payout.", formatted)
	}
	return item
}

func (m *Mapper) status(event domain.TimelineEvent, status string) Item {
	return Item{
		Date:     m.f.Time(event.Datetime),
		Icon:     IconSync,
		Headline: fmt.Sprintf("Payment status changed to %s.", status),
	}
}

func (m *Mapper) main(event domain.TimelineEvent, icon Icon, headline string, body []string) Item {
	return Item{
		Date:     m.f.Time(event.Datetime),
		Icon:     icon,
		Headline: headline,
		Body:     body,
	}
}

func (m *Mapper) withDisputeLink(event domain.TimelineEvent, item Item) Item {
	if event.DisputeID != "" {
		item.Link = &Link{Text: "View dispute", Href: "/disputes/" + event.DisputeID}
	}
	return item
}

func (m *Mapper) amount(event domain.TimelineEvent) string {
	return m.explicit(event.Amount, event.EventCurrency())
}

func (m *Mapper) explicit(amount int64, currency string) string {
	return m.f.FormatExplicitCurrency(abs(amount), currency)
}

func refundedAmount(event domain.TimelineEvent) int64 {
	if event.AmountRefunded != 0 {
		return abs(event.AmountRefunded)
	}
	return abs(event.Amount)
}

func bank(name string) string {
	if name == "" {
		return genericBank
	}
	return name
}

func admin(user *domain.EventUser) string {
	if user == nil || user.Username == "" {
		return "a store admin"
	}
	return user.Username
}

func valueOrPlaceholder(v string) string {
	if v == "" {
		return locale.Placeholder
	}
	return v
}
