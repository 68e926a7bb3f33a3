package psp

import "github.com/shopspring/decimal"

// PSP transaction statuses as reported by the transaction endpoints
const (
	StatusAuthorized             = "authorized"
	StatusSubmittedForSettlement = "submitted_for_settlement"
	StatusSettling               = "settling"
	StatusSettled                = "settled"
	StatusVoided                 = "voided"
	StatusGatewayRejected        = "gateway_rejected"
	StatusProcessorDeclined      = "processor_declined"
	StatusSettlementDeclined     = "settlement_declined"
)

// RiskOutcome describes the PSP's liability-shift indicator for a transaction.
type RiskOutcome string

const (
	// RiskNotApplicable means the instrument is exempt from 3-D Secure,
	// e.g. a non-card wallet.
	RiskNotApplicable RiskOutcome = "not_applicable"
	// RiskLiabilityShifted means fraud liability moved to the issuer.
	RiskLiabilityShifted RiskOutcome = "liability_shifted"
	// RiskNoLiabilityShift means the check ran but liability stayed with
	// the merchant.
	RiskNoLiabilityShift RiskOutcome = "no_liability_shift"
)

// Failure codes carried on unsuccessful results
const (
	FailureInvalidNonce      = "invalid_nonce"
	FailureProcessorDeclined = "processor_declined"
)

// TransactionResult is the immutable outcome of a transaction submission or
// status fetch. Business failures (declines, risk rejections) are expressed
// here as values, not errors.
type TransactionResult struct {
	Success       bool
	TransactionID string
	Status        string
	Amount        decimal.Decimal
	RiskOutcome   RiskOutcome
	VaultToken    string
	FailureCode   string
}
