package psp

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// VaultPolicy controls whether a submitted instrument is stored in the PSP
// vault for reuse.
type VaultPolicy string

const (
	VaultNever     VaultPolicy = "never"
	VaultOnSuccess VaultPolicy = "on_success"
	VaultAll       VaultPolicy = "all"
)

// ParseVaultPolicy validates a configured vault policy string.
func ParseVaultPolicy(s string) (VaultPolicy, error) {
	switch VaultPolicy(s) {
	case VaultNever, VaultOnSuccess, VaultAll:
		return VaultPolicy(s), nil
	}
	return "", fmt.Errorf("unknown vault policy: %q", s)
}

// SubmitOptions are the per-submission directives sent to the PSP.
type SubmitOptions struct {
	Require3DS bool
	Vault      VaultPolicy
}

// VaultedMethod is a reusable instrument stored PSP-side, referenced locally
// only by its token.
type VaultedMethod struct {
	Token          string `json:"token"`
	CardType       string `json:"card_type"`
	Last4          string `json:"last_4"`
	ExpirationDate string `json:"expiration_date"`
}

// Credentials identify a merchant account at the PSP.
type Credentials struct {
	Environment string
	MerchantID  string
	PublicKey   string
	PrivateKey  string
}

// Fingerprint identifies a credential set without exposing the private key.
// Client tokens are cached under this key so changing credentials naturally
// invalidates the cache.
func (c Credentials) Fingerprint() string {
	return fmt.Sprintf("%s:%s:%s", c.Environment, c.MerchantID, c.PublicKey)
}

// Gateway is the capability boundary to the PSP. Swapping providers means
// swapping the implementing struct, not branching logic.
type Gateway interface {
	GenerateClientToken(ctx context.Context) (string, error)
	SubmitTransaction(ctx context.Context, nonce string, amount decimal.Decimal, opts SubmitOptions) (*TransactionResult, error)
	FetchTransaction(ctx context.Context, transactionID string) (*TransactionResult, error)
	FindVaultedMethod(ctx context.Context, token string) (*VaultedMethod, error)
	DeleteVaultedMethod(ctx context.Context, token string) error
}
