package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"payment-gateway/internal/models"
	"payment-gateway/internal/psp"
	"payment-gateway/internal/redisclient"
	"payment-gateway/internal/service"
	"payment-gateway/internal/store"
	"payment-gateway/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	purchase   *service.PurchaseService
	completion *service.CompletionService
	reconciler *service.Reconciler
	gateway    psp.Gateway
	store      *store.Store
	redis      *redisclient.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(
	purchase *service.PurchaseService,
	completion *service.CompletionService,
	reconciler *service.Reconciler,
	gateway psp.Gateway,
	st *store.Store,
	redis *redisclient.Client,
) *Handler {
	return &Handler{
		purchase:   purchase,
		completion: completion,
		reconciler: reconciler,
		gateway:    gateway,
		store:      st,
		redis:      redis,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/client-token", h.clientToken)
		v1.POST("/orders/:id/purchase", h.purchaseOrder)
		v1.GET("/orders/:id/payment", h.getPayment)
		v1.POST("/reconcile", h.reconcile)
		v1.GET("/reconcile/last", h.lastReconcile)
		v1.GET("/vault/:token", h.getVaultedMethod)
		v1.DELETE("/vault/:token", h.deleteVaultedMethod)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// clientToken returns a PSP client token for the checkout UI
func (h *Handler) clientToken(c *gin.Context) {
	token, err := h.purchase.ClientToken(c.Request.Context())
	if err != nil {
		h.pspError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client_token": token})
}

// PurchaseRequest carries the single-use nonce from the checkout UI
type PurchaseRequest struct {
	Nonce string `json:"nonce" binding:"required"`
}

// purchaseOrder submits the nonce and, on success, completes the order
func (h *Handler) purchaseOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()

	order, err := h.store.GetOrderByID(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if order.State == models.OrderStateComplete || order.State == models.OrderStateCanceled {
		c.JSON(http.StatusConflict, gin.H{"error": "Order is no longer payable", "state": order.State})
		return
	}

	// The surrounding checkout flow normally creates the payment attempt;
	// create one here if it has not.
	payment, err := h.store.GetPaymentByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		payment = &models.Payment{
			OrderID: order.ID,
			State:   models.PaymentStateCheckout,
			Amount:  order.TotalAmount,
		}
		err = h.store.CreatePayment(ctx, payment)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare payment", "details": err.Error()})
		return
	}

	result, err := h.purchase.Purchase(ctx, req.Nonce, order)
	if err != nil {
		h.pspError(c, err)
		return
	}

	completed, err := h.completion.CompleteOrder(ctx, order, result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete order", "details": err.Error()})
		return
	}

	resp := gin.H{
		"success":        result.Success,
		"completed":      completed,
		"transaction_id": result.TransactionID,
		"failure_code":   result.FailureCode,
		"order_state":    order.State,
		"payment_state":  order.PaymentState,
	}
	if !result.Success {
		if orderErrors, err := h.store.GetOrderErrors(ctx, order.ID); err == nil {
			resp["errors"] = orderErrors
		}
	}
	c.JSON(http.StatusOK, resp)
}

// getPayment returns the payment and checkout bookkeeping for an order
func (h *Handler) getPayment(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	payment, err := h.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}

	resp := gin.H{"payment": payment}
	if checkout, err := h.store.GetCheckoutByPaymentID(ctx, payment.ID); err == nil {
		resp["checkout"] = checkout
	}
	c.JSON(http.StatusOK, resp)
}

// reconcile runs a reconciliation pass; invoked by a scheduler or operator
func (h *Handler) reconcile(c *gin.Context) {
	summary, err := h.reconciler.UpdateStates(c.Request.Context())
	if err != nil {
		h.pspError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// lastReconcile returns the recorded summary of the most recent pass
func (h *Handler) lastReconcile(c *gin.Context) {
	if h.redis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No run recorded"})
		return
	}
	raw, err := h.redis.GetLastReconcileRun(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if raw == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No run recorded"})
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(raw))
}

// getVaultedMethod looks up a vaulted instrument by token
func (h *Handler) getVaultedMethod(c *gin.Context) {
	method, err := h.gateway.FindVaultedMethod(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.pspError(c, err)
		return
	}
	c.JSON(http.StatusOK, method)
}

// deleteVaultedMethod removes a vaulted instrument
func (h *Handler) deleteVaultedMethod(c *gin.Context) {
	if err := h.gateway.DeleteVaultedMethod(c.Request.Context(), c.Param("token")); err != nil {
		h.pspError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return id, true
}

// pspError maps the PSP error taxonomy to HTTP statuses
func (h *Handler) pspError(c *gin.Context, err error) {
	var authErr *psp.AuthenticationError
	var notFound *psp.NotFoundError
	var gwErr *psp.GatewayError

	switch {
	case errors.As(err, &authErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "PSP authentication failed"})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &gwErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "PSP unavailable", "details": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
