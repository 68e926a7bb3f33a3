package risk

import (
	"testing"

	"payment-gateway/internal/psp"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		outcome  psp.RiskOutcome
		enabled  bool
		accepted bool
	}{
		{"disabled accepts everything", psp.RiskNoLiabilityShift, false, true},
		{"liability shifted", psp.RiskLiabilityShifted, true, true},
		{"exempt instrument", psp.RiskNotApplicable, true, true},
		{"no liability shift", psp.RiskNoLiabilityShift, true, false},
		{"missing indicator", psp.RiskOutcome(""), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(&psp.TransactionResult{Success: true, RiskOutcome: tt.outcome}, tt.enabled)
			assert.Equal(t, tt.accepted, decision.Accepted)
			if tt.accepted {
				assert.Empty(t, decision.Code)
			} else {
				assert.Equal(t, CodeThreeDSRejected, decision.Code)
			}
		})
	}
}
