package psp

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fake nonces accepted by the sandbox environment, mirroring the PSP's
// documented test values.
const (
	NonceValid      = "fake-valid-nonce"
	NonceInvalid    = "fake-invalid-nonce"
	NonceValidDebit = "fake-valid-debit-nonce"
	NonceDeclined   = "fake-processor-declined-nonce"
)

// Sandbox is an in-memory Gateway for development and tests. Transactions
// live only for the process lifetime; Settle and Void drive the settlement
// lifecycle the way the real PSP does asynchronously.
type Sandbox struct {
	creds Credentials

	mu           sync.Mutex
	tokensIssued int
	transactions map[string]*TransactionResult
	vault        map[string]*VaultedMethod
}

func NewSandbox(creds Credentials) *Sandbox {
	return &Sandbox{
		creds:        creds,
		transactions: make(map[string]*TransactionResult),
		vault:        make(map[string]*VaultedMethod),
	}
}

func (s *Sandbox) authenticate() error {
	if s.creds.MerchantID == "" || s.creds.PrivateKey == "" || s.creds.MerchantID == "invalid_id" {
		return &AuthenticationError{Message: "invalid merchant credentials"}
	}
	return nil
}

func (s *Sandbox) GenerateClientToken(ctx context.Context) (string, error) {
	if err := s.authenticate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.tokensIssued++
	s.mu.Unlock()
	return "sandbox_client_token_" + uuid.New().String(), nil
}

// TokensIssued reports how many client tokens were generated. Used by tests
// to verify token caching.
func (s *Sandbox) TokensIssued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokensIssued
}

func (s *Sandbox) SubmitTransaction(ctx context.Context, nonce string, amount decimal.Decimal, opts SubmitOptions) (*TransactionResult, error) {
	if err := s.authenticate(); err != nil {
		return nil, err
	}

	result := &TransactionResult{
		TransactionID: "sandbox_txn_" + uuid.New().String()[:8],
		Amount:        amount,
	}

	switch nonce {
	case NonceValid:
		result.Success = true
		result.Status = StatusSubmittedForSettlement
		if opts.Require3DS {
			result.RiskOutcome = RiskLiabilityShifted
		} else {
			result.RiskOutcome = RiskNotApplicable
		}
	case NonceValidDebit:
		// Authorizes, but the issuer does not participate in 3-D Secure.
		result.Success = true
		result.Status = StatusSubmittedForSettlement
		result.RiskOutcome = RiskNoLiabilityShift
	case NonceDeclined:
		result.Status = StatusProcessorDeclined
		result.FailureCode = FailureProcessorDeclined
	case NonceInvalid:
		result.Status = StatusGatewayRejected
		result.FailureCode = FailureInvalidNonce
	default:
		result.Status = StatusGatewayRejected
		result.FailureCode = FailureInvalidNonce
	}

	if result.Success && (opts.Vault == VaultAll || opts.Vault == VaultOnSuccess) {
		token := "vault_" + uuid.New().String()[:8]
		result.VaultToken = token
		s.mu.Lock()
		s.vault[token] = &VaultedMethod{
			Token:          token,
			CardType:       "Visa",
			Last4:          "1881",
			ExpirationDate: "12/2028",
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	stored := *result
	s.transactions[result.TransactionID] = &stored
	s.mu.Unlock()

	return result, nil
}

func (s *Sandbox) FetchTransaction(ctx context.Context, transactionID string) (*TransactionResult, error) {
	if err := s.authenticate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, &NotFoundError{Kind: "transaction", ID: transactionID}
	}
	out := *txn
	return &out, nil
}

func (s *Sandbox) FindVaultedMethod(ctx context.Context, token string) (*VaultedMethod, error) {
	if err := s.authenticate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	method, ok := s.vault[token]
	if !ok {
		return nil, &NotFoundError{Kind: "payment_method", ID: token}
	}
	out := *method
	return &out, nil
}

func (s *Sandbox) DeleteVaultedMethod(ctx context.Context, token string) error {
	if err := s.authenticate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vault[token]; !ok {
		return &NotFoundError{Kind: "payment_method", ID: token}
	}
	delete(s.vault, token)
	return nil
}

// Settle moves a sandbox transaction to settled, as the real PSP would do
// asynchronously after capture.
func (s *Sandbox) Settle(transactionID string) error {
	return s.setStatus(transactionID, StatusSettled)
}

// Void moves a sandbox transaction to voided.
func (s *Sandbox) Void(transactionID string) error {
	return s.setStatus(transactionID, StatusVoided)
}

func (s *Sandbox) setStatus(transactionID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[transactionID]
	if !ok {
		return fmt.Errorf("sandbox transaction not found: %s", transactionID)
	}
	txn.Status = status
	return nil
}
