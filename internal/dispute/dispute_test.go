package dispute

import (
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/locale"
)

var testNow = time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

func testFormatter() *locale.Formatter {
	return locale.New(locale.Config{Now: func() time.Time { return testNow }})
}

func TestIsVisaComplianceDispute(t *testing.T) {
	cases := []struct {
		name string
		d    domain.Dispute
		want bool
	}{
		{name: "noncompliant reason", d: domain.Dispute{Reason: domain.ReasonNoncompliant}, want: true},
		{name: "noncompliant with other eligibility", d: domain.Dispute{Reason: domain.ReasonNoncompliant, EnhancedEligibilityTypes: []string{"other"}}, want: true},
		{name: "fraudulent with visa eligibility", d: domain.Dispute{Reason: domain.ReasonFraudulent, EnhancedEligibilityTypes: []string{"visa_compliance"}}, want: true},
		{name: "fraudulent without eligibility", d: domain.Dispute{Reason: domain.ReasonFraudulent, EnhancedEligibilityTypes: []string{}}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsVisaComplianceDispute(tc.d); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	cases := []struct {
		name   string
		d      domain.Dispute
		method domain.PaymentMethodType
		want   Kind
	}{
		{
			name:   "klarna inquiry beats visa",
			d:      domain.Dispute{Status: domain.DisputeWarningNeedsResponse, Reason: domain.ReasonNoncompliant},
			method: domain.PaymentMethodKlarna,
			want:   KindKlarnaInquiry,
		},
		{
			name:   "klarna formal dispute is not a klarna inquiry",
			d:      domain.Dispute{Status: domain.DisputeNeedsResponse, Reason: domain.ReasonGeneral},
			method: domain.PaymentMethodKlarna,
			want:   KindDispute,
		},
		{
			name:   "visa beats inquiry",
			d:      domain.Dispute{Status: domain.DisputeWarningNeedsResponse, Reason: domain.ReasonNoncompliant},
			method: domain.PaymentMethodCard,
			want:   KindVisaCompliance,
		},
		{
			name:   "inquiry",
			d:      domain.Dispute{Status: domain.DisputeWarningNeedsResponse, Reason: domain.ReasonFraudulent},
			method: domain.PaymentMethodCard,
			want:   KindInquiry,
		},
		{
			name:   "dispute",
			d:      domain.Dispute{Status: domain.DisputeNeedsResponse, Reason: domain.ReasonFraudulent},
			method: domain.PaymentMethodCard,
			want:   KindDispute,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.d, tc.method); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	if !IsInquiry(domain.DisputeWarningClosed) || IsInquiry(domain.DisputeLost) {
		t.Fatal("unexpected inquiry classification")
	}
	if !IsAwaitingResponse(domain.DisputeWarningNeedsResponse) || IsAwaitingResponse(domain.DisputeUnderReview) {
		t.Fatal("unexpected awaiting-response classification")
	}
	if !IsUnderReview(domain.DisputeWarningUnderReview) || IsUnderReview(domain.DisputeWon) {
		t.Fatal("unexpected under-review classification")
	}
	if !IsClosed(domain.DisputeChargeRefunded) || IsClosed(domain.DisputeNeedsResponse) {
		t.Fatal("unexpected closed classification")
	}
}

func TestVisaNoticeNamesBank(t *testing.T) {
	d := domain.Dispute{Status: domain.DisputeNeedsResponse, Reason: domain.ReasonNoncompliant}

	withBank := Notice(d, domain.PaymentMethodCard, "Chase Bank")
	if !regexp.MustCompile(`Chase Bank, claims this payment violates Visa.s rules`).MatchString(withBank) {
		t.Fatalf("expected bank-specific claim, got %q", withBank)
	}
	if !regexp.MustCompile(`additional \$500 USD`).MatchString(withBank) {
		t.Fatalf("expected network fee, got %q", withBank)
	}

	generic := Notice(d, domain.PaymentMethodCard, "")
	if strings.Contains(generic, "Chase Bank") {
		t.Fatalf("expected generic notice, got %q", generic)
	}
	if !strings.HasPrefix(generic, "The cardholder's bank claims this payment violates Visa's rules.") {
		t.Fatalf("unexpected generic notice %q", generic)
	}
}

func TestComposeVisaComplianceRequiresAcknowledgement(t *testing.T) {
	f := testFormatter()
	d := domain.Dispute{
		Status:                   domain.DisputeNeedsResponse,
		Reason:                   domain.ReasonFraudulent,
		EnhancedEligibilityTypes: []string{domain.EligibilityVisaCompliance},
		EvidenceDetails:          domain.EvidenceDetails{DueBy: testNow.Add(72 * time.Hour).Unix()},
	}

	n := Compose(f, Input{Dispute: d, PaymentMethod: domain.PaymentMethodCard, BankName: "Chase Bank"})

	if n.Kind != KindVisaCompliance {
		t.Fatalf("expected visa compliance kind, got %s", n.Kind)
	}
	if len(n.Steps) != 2 {
		t.Fatalf("expected exactly two steps, got %v", n.Steps)
	}
	for _, step := range n.Steps {
		if strings.Contains(step, "Email the customer") || strings.Contains(step, "withdraw") {
			t.Fatalf("unexpected step for visa compliance dispute: %q", step)
		}
	}
	if !n.RequiresAcknowledgement || n.ChallengeEnabled(false) || !n.ChallengeEnabled(true) {
		t.Fatalf("expected challenge to be gated on acknowledgement, got %+v", n)
	}
	if n.Countdown != "(3 days left to respond)" {
		t.Fatalf("unexpected countdown %q", n.Countdown)
	}

	d.EvidenceDetails.HasEvidence = true
	n = Compose(f, Input{Dispute: d, PaymentMethod: domain.PaymentMethodCard})
	if n.RequiresAcknowledgement || !n.ChallengeEnabled(false) {
		t.Fatal("expected draft evidence to bypass the acknowledgement")
	}
	if n.Actions[0].Label != "Continue with challenge" {
		t.Fatalf("unexpected challenge label %q", n.Actions[0].Label)
	}

	for _, status := range []domain.DisputeStatus{domain.DisputeUnderReview, domain.DisputeWon, domain.DisputeLost} {
		closed := d
		closed.Status = status
		closed.EvidenceDetails.HasEvidence = false
		n = Compose(f, Input{Dispute: closed, PaymentMethod: domain.PaymentMethodCard})
		if n.RequiresAcknowledgement || n.AcknowledgementText != "" {
			t.Fatalf("expected no acknowledgement for %s visa dispute, got %+v", status, n)
		}
	}
}

func TestComposeKlarnaInquiryHasNoChallenge(t *testing.T) {
	d := domain.Dispute{Status: domain.DisputeWarningNeedsResponse, Reason: domain.ReasonProductNotReceived}

	n := Compose(testFormatter(), Input{Dispute: d, PaymentMethod: domain.PaymentMethodKlarna})

	for _, a := range n.Actions {
		if a.Key == ActionChallenge {
			t.Fatalf("expected no challenge action, got %+v", n.Actions)
		}
	}
	if !strings.Contains(n.NoticeText, "Klarna") {
		t.Fatalf("expected Klarna notice, got %q", n.NoticeText)
	}
}

func TestStepsIncludeCustomerEmailAndDetailsViewDueDate(t *testing.T) {
	f := testFormatter()
	due := time.Date(2024, time.May, 20, 23, 59, 0, 0, time.UTC).Unix()
	d := domain.Dispute{
		Status:          domain.DisputeNeedsResponse,
		Reason:          domain.ReasonProductNotReceived,
		EvidenceDetails: domain.EvidenceDetails{DueBy: due},
		Evidence:        domain.DisputeEvidence{CustomerEmailAddress: "jo@example.com"},
	}

	summary := Steps(f, Input{Dispute: d, PaymentMethod: domain.PaymentMethodCard})
	details := Steps(f, Input{Dispute: d, PaymentMethod: domain.PaymentMethodCard, DetailsView: true})

	want := []string{
		"Email the customer (jo@example.com) to address their concerns.",
		"If the customer agrees, ask them to withdraw the dispute with their bank.",
		"Challenge or accept the dispute.",
	}
	if !reflect.DeepEqual(summary, want) {
		t.Fatalf("unexpected summary steps %v", summary)
	}
	if details[2] != "Challenge or accept the dispute by May 20, 2024." {
		t.Fatalf("unexpected details step %q", details[2])
	}
}

func TestCountdown(t *testing.T) {
	f := testFormatter()
	cases := []struct {
		name string
		ev   domain.EvidenceDetails
		want string
	}{
		{name: "none", ev: domain.EvidenceDetails{}, want: ""},
		{name: "several days", ev: domain.EvidenceDetails{DueBy: testNow.Add(5 * 24 * time.Hour).Unix()}, want: "(5 days left to respond)"},
		{name: "one day", ev: domain.EvidenceDetails{DueBy: testNow.Add(24 * time.Hour).Unix()}, want: "(1 day left to respond)"},
		{name: "today", ev: domain.EvidenceDetails{DueBy: testNow.Add(6 * time.Hour).Unix()}, want: "(Last day today)"},
		{name: "past", ev: domain.EvidenceDetails{DueBy: testNow.Add(-48 * time.Hour).Unix()}, want: "(Past due)"},
		{name: "flagged past due", ev: domain.EvidenceDetails{DueBy: testNow.Add(6 * time.Hour).Unix(), PastDue: true}, want: "(Past due)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Countdown(f, domain.Dispute{EvidenceDetails: tc.ev}); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResolutionFooter(t *testing.T) {
	f := testFormatter()
	submitted := "1714435200" // Apr 30, 2024
	closed := "1715299200"    // May 10, 2024

	cases := []struct {
		name string
		d    domain.Dispute
		bank string
		want string
	}{
		{
			name: "under review with bank",
			d:    domain.Dispute{Status: domain.DisputeUnderReview, Metadata: domain.DisputeMetadata{domain.MetaEvidenceSubmittedAt: submitted}},
			bank: "Chase Bank",
			want: "You submitted evidence for this dispute on Apr 30, 2024. Chase Bank is reviewing the case, which can take 60 days or more.",
		},
		{
			name: "under review without bank",
			d:    domain.Dispute{Status: domain.DisputeUnderReview},
			want: "You submitted evidence for this dispute on –. The cardholder's bank is reviewing the case, which can take 60 days or more.",
		},
		{
			name: "visa compliance won",
			d:    domain.Dispute{Status: domain.DisputeWon, Reason: domain.ReasonNoncompliant, Metadata: domain.DisputeMetadata{domain.MetaDisputeClosedAt: closed}},
			bank: "Chase Bank",
			want: "Good news! Visa decided that you won the dispute on May 10, 2024. The disputed amount and the dispute fee have been credited back to your account.",
		},
		{
			name: "lost accepted by merchant",
			d: domain.Dispute{Status: domain.DisputeLost, Metadata: domain.DisputeMetadata{
				domain.MetaDisputeClosedAt:  closed,
				domain.MetaClosedByMerchant: "1",
			}},
			want: "This dispute was accepted and lost on May 10, 2024. The disputed amount and the dispute fee have been deducted from your account.",
		},
		{
			name: "lost after submission",
			d: domain.Dispute{Status: domain.DisputeLost, Metadata: domain.DisputeMetadata{
				domain.MetaDisputeClosedAt:     closed,
				domain.MetaEvidenceSubmittedAt: submitted,
			}},
			want: "Unfortunately, the cardholder's bank decided that you lost the dispute on May 10, 2024. The disputed amount and the dispute fee have been deducted from your account.",
		},
		{
			name: "lost by non-response",
			d:    domain.Dispute{Status: domain.DisputeLost, Metadata: domain.DisputeMetadata{domain.MetaDisputeClosedAt: closed}},
			want: "This dispute was lost on May 10, 2024 due to non-response. The disputed amount and the dispute fee have been deducted from your account.",
		},
		{
			name: "inquiry closed",
			d:    domain.Dispute{Status: domain.DisputeWarningClosed, Metadata: domain.DisputeMetadata{domain.MetaDisputeClosedAt: closed}},
			bank: "Chase Bank",
			want: "This inquiry was closed on May 10, 2024. Chase Bank did not escalate it to a formal dispute.",
		},
		{
			name: "awaiting response",
			d:    domain.Dispute{Status: domain.DisputeNeedsResponse},
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolutionFooter(f, tc.d, tc.bank); got != tc.want {
				t.Fatalf("unexpected footer\n got: %q\nwant: %q", got, tc.want)
			}
		})
	}
}

func TestFeeUsesFirstDisputeBalanceTransaction(t *testing.T) {
	d := domain.Dispute{BalanceTransactions: []domain.BalanceTransaction{
		{Amount: -6300, Fee: 0, Currency: "usd", ReportingCategory: "charge"},
		{Amount: -6300, Fee: 1500, Currency: "usd", ReportingCategory: "dispute"},
		{Amount: 6300, Fee: -1500, Currency: "usd", ReportingCategory: "dispute"},
	}}

	fee, currency, ok := Fee(d)
	if !ok || fee != 1500 || currency != "usd" {
		t.Fatalf("unexpected fee %d %q %v", fee, currency, ok)
	}

	n := Compose(testFormatter(), Input{Dispute: d})
	if n.Fee != "$15.00" {
		t.Fatalf("unexpected rendered fee %q", n.Fee)
	}
}

func TestReasonFallback(t *testing.T) {
	if got := Reason(domain.ReasonFraudulent).Display; got != "Transaction unauthorized" {
		t.Fatalf("unexpected display %q", got)
	}
	unknown := Reason("card_skimming")
	if unknown.Display != "Card skimming" || unknown.Claim == "" {
		t.Fatalf("unexpected fallback %+v", unknown)
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	f := testFormatter()
	in := Input{
		Dispute: domain.Dispute{
			Status:          domain.DisputeNeedsResponse,
			Reason:          domain.ReasonNoncompliant,
			EvidenceDetails: domain.EvidenceDetails{DueBy: testNow.Add(48 * time.Hour).Unix()},
		},
		PaymentMethod: domain.PaymentMethodCard,
		BankName:      "Chase Bank",
		DetailsView:   true,
	}

	first := Compose(f, in)
	second := Compose(f, in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output, got %+v and %+v", first, second)
	}
}
