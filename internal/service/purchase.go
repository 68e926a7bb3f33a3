package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"payment-gateway/internal/models"
	"payment-gateway/internal/psp"
	"payment-gateway/internal/risk"
	"payment-gateway/internal/util"

	"go.uber.org/zap"
)

// PurchaseService turns a client-supplied payment nonce into an authorized or
// declined transaction. Each call is a single user-initiated attempt; there
// are no retries here.
type PurchaseService struct {
	gateway      psp.Gateway
	creds        psp.Credentials
	store        PurchaseStore
	tokens       TokenCache
	events       EventPublisher
	logger       *zap.Logger
	threeDSecure bool
	vaultPolicy  psp.VaultPolicy
	tokenTTL     time.Duration

	mu                sync.Mutex
	cachedToken       string
	cachedFingerprint string
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	gateway psp.Gateway,
	creds psp.Credentials,
	store PurchaseStore,
	tokens TokenCache,
	events EventPublisher,
	threeDSecure bool,
	vaultPolicy psp.VaultPolicy,
	tokenTTL time.Duration,
) *PurchaseService {
	return &PurchaseService{
		gateway:      gateway,
		creds:        creds,
		store:        store,
		tokens:       tokens,
		events:       events,
		logger:       util.GetLogger(),
		threeDSecure: threeDSecure,
		vaultPolicy:  vaultPolicy,
		tokenTTL:     tokenTTL,
	}
}

// ClientToken returns a PSP client token for the configured credentials,
// generating one lazily and caching it under the credential fingerprint.
// Authentication failures propagate unretried.
func (s *PurchaseService) ClientToken(ctx context.Context) (string, error) {
	fingerprint := s.creds.Fingerprint()

	s.mu.Lock()
	if s.cachedToken != "" && s.cachedFingerprint == fingerprint {
		token := s.cachedToken
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	if s.tokens != nil {
		token, err := s.tokens.GetClientToken(ctx, fingerprint)
		if err != nil {
			s.logger.Warn("Client token cache lookup failed", zap.Error(err))
		} else if token != "" {
			s.remember(fingerprint, token)
			return token, nil
		}
	}

	token, err := s.gateway.GenerateClientToken(ctx)
	if err != nil {
		return "", err
	}

	if s.tokens != nil {
		if err := s.tokens.SetClientToken(ctx, fingerprint, token, s.tokenTTL); err != nil {
			s.logger.Warn("Failed to cache client token", zap.Error(err))
		}
	}
	s.remember(fingerprint, token)
	return token, nil
}

func (s *PurchaseService) remember(fingerprint, token string) {
	s.mu.Lock()
	s.cachedToken = token
	s.cachedFingerprint = fingerprint
	s.mu.Unlock()
}

// Purchase submits the nonce for the order's amount and applies the 3DS risk
// policy. Declines and risk rejections come back as failed results, not
// errors; only authentication and gateway faults are returned as errors.
func (s *PurchaseService) Purchase(ctx context.Context, nonce string, order *models.Order) (*psp.TransactionResult, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.Purchase")
	defer span.End()

	util.PurchaseAttemptsTotal.Inc()

	if _, err := s.ClientToken(ctx); err != nil {
		return nil, err
	}

	result, err := s.gateway.SubmitTransaction(ctx, nonce, order.TotalAmount, psp.SubmitOptions{
		Require3DS: s.threeDSecure,
		Vault:      s.vaultPolicy,
	})
	if err != nil {
		return nil, err
	}

	if !result.Success {
		s.logger.Info("Purchase declined",
			zap.Int64("order_id", order.ID),
			zap.String("code", result.FailureCode))
		util.PurchaseDeclinedTotal.WithLabelValues(result.FailureCode).Inc()

		if err := s.store.AppendOrderError(ctx, order.ID, result.FailureCode, "Payment was declined"); err != nil {
			s.logger.Error("Failed to attach order error", zap.Error(err))
		}
		s.publishDeclined(ctx, order.ID, result.FailureCode)
		return result, nil
	}

	decision := risk.Evaluate(result, s.threeDSecure)
	if !decision.Accepted {
		// The PSP-side authorization stands; the rejection is a local
		// business decision surfaced with its own error code. No void
		// is issued (manual reconciliation handles these).
		s.logger.Warn("Purchase rejected by 3DS policy",
			zap.Int64("order_id", order.ID),
			zap.String("transaction_id", result.TransactionID))
		util.RiskRejectionsTotal.Inc()

		if err := s.store.AppendOrderError(ctx, order.ID, decision.Code, "3-D Secure verification failed"); err != nil {
			s.logger.Error("Failed to attach order error", zap.Error(err))
		}

		s.publishDeclined(ctx, order.ID, decision.Code)

		rejected := *result
		rejected.Success = false
		rejected.FailureCode = decision.Code
		rejected.VaultToken = ""
		return &rejected, nil
	}

	if s.vaultPolicy == psp.VaultNever {
		result.VaultToken = ""
	}

	util.PurchaseSuccessTotal.Inc()
	s.logger.Info("Purchase authorized",
		zap.Int64("order_id", order.ID),
		zap.String("transaction_id", result.TransactionID),
		zap.Bool("vaulted", result.VaultToken != ""))
	return result, nil
}

func (s *PurchaseService) publishDeclined(ctx context.Context, orderID int64, code string) {
	if s.events == nil {
		return
	}
	event := &models.PaymentDeclinedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentDeclined,
			Timestamp: time.Now(),
		},
		OrderID:     orderID,
		FailureCode: code,
	}
	if err := s.events.PublishPaymentDeclined(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentDeclined event", zap.Error(err))
	}
}
