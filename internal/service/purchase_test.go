package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"payment-gateway/internal/models"
	"payment-gateway/internal/psp"
	"payment-gateway/internal/risk"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = psp.Credentials{
	Environment: "sandbox",
	MerchantID:  "test_merchant",
	PublicKey:   "test_public",
	PrivateKey:  "test_private",
}

func newPurchaseFixture(t *testing.T, threeDSecure bool, vault psp.VaultPolicy) (*PurchaseService, *psp.Sandbox, *fakeStore, *models.Order) {
	t.Helper()

	sandbox := psp.NewSandbox(testCreds)
	fs := newFakeStore()
	svc := NewPurchaseService(sandbox, testCreds, fs, newFakeTokenCache(), &fakePublisher{}, threeDSecure, vault, time.Hour)

	order := fs.addOrder(&models.Order{
		UserID:       7,
		TotalAmount:  decimal.NewFromFloat(49.99),
		State:        models.OrderStatePayment,
		PaymentState: models.OrderPaymentStateBalanceDue,
	})
	return svc, sandbox, fs, order
}

func TestPurchaseValidNonce(t *testing.T) {
	svc, _, _, order := newPurchaseFixture(t, false, psp.VaultNever)

	result, err := svc.Purchase(context.Background(), psp.NonceValid, order)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.TransactionID)
	assert.Empty(t, result.FailureCode)
	assert.Empty(t, result.VaultToken, "vault policy never must not store the instrument")
}

func TestPurchaseInvalidNonce(t *testing.T) {
	svc, _, fs, order := newPurchaseFixture(t, false, psp.VaultNever)

	result, err := svc.Purchase(context.Background(), psp.NonceInvalid, order)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, psp.FailureInvalidNonce, result.FailureCode)
	assert.True(t, fs.hasOrderError(order.ID, psp.FailureInvalidNonce))
}

func TestPurchaseThreeDSRejection(t *testing.T) {
	svc, sandbox, fs, order := newPurchaseFixture(t, true, psp.VaultAll)

	result, err := svc.Purchase(context.Background(), psp.NonceValidDebit, order)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, risk.CodeThreeDSRejected, result.FailureCode)
	assert.Empty(t, result.VaultToken, "rejected purchase must not reference a vaulted token")
	assert.True(t, fs.hasOrderError(order.ID, risk.CodeThreeDSRejected))

	// The PSP-side authorization stands even though the policy rejected it.
	fetched, err := sandbox.FetchTransaction(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.True(t, fetched.Success)
}

func TestPurchaseThreeDSPassesWithLiabilityShift(t *testing.T) {
	svc, _, _, order := newPurchaseFixture(t, true, psp.VaultNever)

	result, err := svc.Purchase(context.Background(), psp.NonceValid, order)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestPurchaseVaultRoundTrip(t *testing.T) {
	svc, sandbox, _, order := newPurchaseFixture(t, false, psp.VaultAll)

	result, err := svc.Purchase(context.Background(), psp.NonceValid, order)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotEmpty(t, result.VaultToken)

	method, err := sandbox.FindVaultedMethod(context.Background(), result.VaultToken)
	require.NoError(t, err)
	assert.Equal(t, result.VaultToken, method.Token)
}

func TestClientTokenCached(t *testing.T) {
	svc, sandbox, _, order := newPurchaseFixture(t, false, psp.VaultNever)

	_, err := svc.Purchase(context.Background(), psp.NonceValid, order)
	require.NoError(t, err)
	_, err = svc.Purchase(context.Background(), psp.NonceValid, order)
	require.NoError(t, err)

	assert.Equal(t, 1, sandbox.TokensIssued(), "second purchase must reuse the cached client token")
}

func TestClientTokenSharedAcrossInstances(t *testing.T) {
	sandbox := psp.NewSandbox(testCreds)
	cache := newFakeTokenCache()

	first := NewPurchaseService(sandbox, testCreds, newFakeStore(), cache, nil, false, psp.VaultNever, time.Hour)
	second := NewPurchaseService(sandbox, testCreds, newFakeStore(), cache, nil, false, psp.VaultNever, time.Hour)

	_, err := first.ClientToken(context.Background())
	require.NoError(t, err)
	_, err = second.ClientToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sandbox.TokensIssued())
}

func TestClientTokenInvalidCredentials(t *testing.T) {
	badCreds := psp.Credentials{Environment: "sandbox", MerchantID: "invalid_id", PublicKey: "pk", PrivateKey: "sk"}
	sandbox := psp.NewSandbox(badCreds)
	svc := NewPurchaseService(sandbox, badCreds, newFakeStore(), newFakeTokenCache(), nil, false, psp.VaultNever, time.Hour)

	_, err := svc.ClientToken(context.Background())
	require.Error(t, err)

	var authErr *psp.AuthenticationError
	assert.True(t, errors.As(err, &authErr))
}
