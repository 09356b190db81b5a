package domain

import (
	"strconv"
	"strings"
)

// DisputeStatus is the closed set of dispute lifecycle states.
type DisputeStatus string

const (
	DisputeNeedsResponse        DisputeStatus = "needs_response"
	DisputeUnderReview          DisputeStatus = "under_review"
	DisputeChargeRefunded       DisputeStatus = "charge_refunded"
	DisputeWon                  DisputeStatus = "won"
	DisputeLost                 DisputeStatus = "lost"
	DisputeWarningNeedsResponse DisputeStatus = "warning_needs_response"
	DisputeWarningUnderReview   DisputeStatus = "warning_under_review"
	DisputeWarningClosed        DisputeStatus = "warning_closed"
)

// DisputeReason is the card-network reason given for a dispute.
type DisputeReason string

const (
	ReasonBankCannotProcess       DisputeReason = "bank_cannot_process"
	ReasonCheckReturned           DisputeReason = "check_returned"
	ReasonCreditNotProcessed      DisputeReason = "credit_not_processed"
	ReasonCustomerInitiated       DisputeReason = "customer_initiated"
	ReasonDebitNotAuthorized      DisputeReason = "debit_not_authorized"
	ReasonDuplicate               DisputeReason = "duplicate"
	ReasonFraudulent              DisputeReason = "fraudulent"
	ReasonGeneral                 DisputeReason = "general"
	ReasonIncorrectAccountDetails DisputeReason = "incorrect_account_details"
	ReasonInsufficientFunds       DisputeReason = "insufficient_funds"
	ReasonNoncompliant            DisputeReason = "noncompliant"
	ReasonProductNotReceived      DisputeReason = "product_not_received"
	ReasonProductUnacceptable     DisputeReason = "product_unacceptable"
	ReasonSubscriptionCanceled    DisputeReason = "subscription_canceled"
	ReasonUnrecognized            DisputeReason = "unrecognized"
)

// EligibilityVisaCompliance marks a dispute handled under Visa's compliance process.
const EligibilityVisaCompliance = "visa_compliance"

// Metadata keys written by the payments backend on dispute transitions.
const (
	MetaEvidenceSubmittedAt = "__evidence_submitted_at"
	MetaDisputeClosedAt     = "__dispute_closed_at"
	MetaClosedByMerchant    = "__closed_by_merchant"
)

// Dispute is the dispute attached to a charge.
type Dispute struct {
	ID                       string               `json:"id"`
	ChargeID                 string               `json:"charge_id,omitempty"`
	Status                   DisputeStatus        `json:"status"`
	Reason                   DisputeReason        `json:"reason"`
	EnhancedEligibilityTypes []string             `json:"enhanced_eligibility_types"`
	EvidenceDetails          EvidenceDetails      `json:"evidence_details"`
	Evidence                 DisputeEvidence      `json:"evidence"`
	Metadata                 DisputeMetadata      `json:"metadata"`
	BalanceTransactions      []BalanceTransaction `json:"balance_transactions"`
	Amount                   int64                `json:"amount"`
	Currency                 string               `json:"currency"`
	Created                  int64                `json:"created"`
}

// EvidenceDetails summarises the evidence submission window.
type EvidenceDetails struct {
	DueBy           int64 `json:"due_by"`
	HasEvidence     bool  `json:"has_evidence"`
	PastDue         bool  `json:"past_due"`
	SubmissionCount int   `json:"submission_count"`
}

// DisputeEvidence holds the draft evidence fields the narrative reads.
type DisputeEvidence struct {
	CustomerEmailAddress string `json:"customer_email_address,omitempty"`
	CustomerName         string `json:"customer_name,omitempty"`
}

// BalanceTransaction is a ledger movement caused by the dispute.
type BalanceTransaction struct {
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	Fee               int64  `json:"fee"`
	ReportingCategory string `json:"reporting_category"`
}

// DisputeMetadata is the string map the backend annotates disputes with.
type DisputeMetadata map[string]string

// EvidenceSubmittedAt returns the unix time evidence was submitted, if recorded.
func (m DisputeMetadata) EvidenceSubmittedAt() (int64, bool) {
	return m.unix(MetaEvidenceSubmittedAt)
}

// ClosedAt returns the unix time the dispute closed, if recorded.
func (m DisputeMetadata) ClosedAt() (int64, bool) {
	return m.unix(MetaDisputeClosedAt)
}

// ClosedByMerchant reports whether the merchant accepted the dispute.
func (m DisputeMetadata) ClosedByMerchant() bool {
	v := strings.TrimSpace(m[MetaClosedByMerchant])
	return v == "1" || strings.EqualFold(v, "true")
}

// HasEvidenceSubmitted reports whether the submission timestamp key is present.
func (m DisputeMetadata) HasEvidenceSubmitted() bool {
	_, ok := m[MetaEvidenceSubmittedAt]
	return ok
}

func (m DisputeMetadata) unix(key string) (int64, bool) {
	raw, ok := m[key]
	if !ok {
		return 0, false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ts <= 0 {
		return 0, false
	}
	return ts, true
}

// HasEligibility reports whether the dispute carries the given enhanced eligibility type.
func (d Dispute) HasEligibility(kind string) bool {
	for _, t := range d.EnhancedEligibilityTypes {
		if t == kind {
			return true
		}
	}
	return false
}
