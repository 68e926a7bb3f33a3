// Package risk holds the local 3-D Secure acceptance policy. The PSP may
// authorize a transaction whose liability did not shift to the issuer; this
// policy decides whether the merchant accepts that exposure.
package risk

import "payment-gateway/internal/psp"

// CodeThreeDSRejected is the stable error code attached to orders when the
// policy rejects a PSP-authorized transaction. Distinct from plain declines
// so the UI can present a specific, translatable message.
const CodeThreeDSRejected = "risk_3ds_rejected"

// Decision is the policy outcome for a transaction result.
type Decision struct {
	Accepted bool
	Code     string
}

// Evaluate applies the 3-D Secure policy to a successful transaction result.
// With the policy disabled every result is accepted. With it enabled, only
// liability-shifted transactions and 3DS-exempt instruments (e.g. non-card
// wallets) pass.
func Evaluate(result *psp.TransactionResult, policyEnabled bool) Decision {
	if !policyEnabled {
		return Decision{Accepted: true}
	}

	switch result.RiskOutcome {
	case psp.RiskLiabilityShifted, psp.RiskNotApplicable:
		return Decision{Accepted: true}
	default:
		return Decision{Accepted: false, Code: CodeThreeDSRejected}
	}
}
