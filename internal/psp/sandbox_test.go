package psp

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sandboxCreds = Credentials{
	Environment: "sandbox",
	MerchantID:  "test_merchant",
	PublicKey:   "pk",
	PrivateKey:  "sk",
}

func TestSandboxClientToken(t *testing.T) {
	sb := NewSandbox(sandboxCreds)

	token, err := sb.GenerateClientToken(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 1, sb.TokensIssued())
}

func TestSandboxInvalidCredentials(t *testing.T) {
	sb := NewSandbox(Credentials{MerchantID: "invalid_id", PrivateKey: "sk"})

	_, err := sb.GenerateClientToken(context.Background())
	require.Error(t, err)

	var authErr *AuthenticationError
	assert.True(t, errors.As(err, &authErr))
}

func TestSandboxSubmitAndFetch(t *testing.T) {
	sb := NewSandbox(sandboxCreds)
	ctx := context.Background()
	amount := decimal.NewFromFloat(10.50)

	result, err := sb.SubmitTransaction(ctx, NonceValid, amount, SubmitOptions{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, amount.Equal(result.Amount))

	fetched, err := sb.FetchTransaction(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmittedForSettlement, fetched.Status)

	require.NoError(t, sb.Settle(result.TransactionID))
	fetched, err = sb.FetchTransaction(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusSettled, fetched.Status)
}

func TestSandboxFetchUnknownTransaction(t *testing.T) {
	sb := NewSandbox(sandboxCreds)

	_, err := sb.FetchTransaction(context.Background(), "txn_unknown")
	require.Error(t, err)

	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestSandboxDeclines(t *testing.T) {
	sb := NewSandbox(sandboxCreds)
	ctx := context.Background()

	result, err := sb.SubmitTransaction(ctx, NonceInvalid, decimal.NewFromInt(5), SubmitOptions{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, FailureInvalidNonce, result.FailureCode)

	result, err = sb.SubmitTransaction(ctx, NonceDeclined, decimal.NewFromInt(5), SubmitOptions{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, FailureProcessorDeclined, result.FailureCode)
}

func TestSandboxVaultLifecycle(t *testing.T) {
	sb := NewSandbox(sandboxCreds)
	ctx := context.Background()

	result, err := sb.SubmitTransaction(ctx, NonceValid, decimal.NewFromInt(20), SubmitOptions{Vault: VaultAll})
	require.NoError(t, err)
	require.NotEmpty(t, result.VaultToken)

	method, err := sb.FindVaultedMethod(ctx, result.VaultToken)
	require.NoError(t, err)
	assert.Equal(t, result.VaultToken, method.Token)

	require.NoError(t, sb.DeleteVaultedMethod(ctx, result.VaultToken))

	_, err = sb.FindVaultedMethod(ctx, result.VaultToken)
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestSandboxNoVaultWithoutDirective(t *testing.T) {
	sb := NewSandbox(sandboxCreds)

	result, err := sb.SubmitTransaction(context.Background(), NonceValid, decimal.NewFromInt(20), SubmitOptions{Vault: VaultNever})
	require.NoError(t, err)
	assert.Empty(t, result.VaultToken)
}

func TestSandboxDebitNonceLiability(t *testing.T) {
	sb := NewSandbox(sandboxCreds)

	result, err := sb.SubmitTransaction(context.Background(), NonceValidDebit, decimal.NewFromInt(20), SubmitOptions{Require3DS: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, RiskNoLiabilityShift, result.RiskOutcome)
}
