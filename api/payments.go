package api

import (
	"net/http"

	"github.com/Domenick1991/bookingdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type PaymentHandler struct {
	service booking.PaymentUseCase
	log     logrus.FieldLogger
}

type initiatePaymentRequest struct {
	// Amount may be a JSON number or string; omitted means the booking total.
	Amount *decimal.Decimal `json:"amount"`
	Method string           `json:"payment_method" binding:"required"`
}

type paymentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type paymentRefRequest struct {
	PaymentID int64 `json:"payment_id" binding:"required,gt=0"`
}

func NewPaymentHandler(service booking.PaymentUseCase, log logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings/:id/payments", h.initiate)
	router.GET("/payments/:id", h.get)
	router.PUT("/payments/:id", h.updateStatus)
	router.POST("/payments/:id/cancel", h.cancel)
	router.POST("/payments/retry", h.retry)
	router.POST("/refunds/process", h.refund)
}

func (h *PaymentHandler) initiate(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input := booking.PaymentInput{Method: req.Method}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
			return
		}
		input.Amount = *req.Amount
	}

	p, err := h.service.InitiatePayment(c.Request.Context(), id, input, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResponse(*p))
}

func (h *PaymentHandler) get(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetPayment(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(*p))
}

func (h *PaymentHandler) updateStatus(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req paymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.service.UpdatePaymentStatus(c.Request.Context(), id, req.Status, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(*p))
}

func (h *PaymentHandler) cancel(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.service.CancelPayment(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(*p))
}

func (h *PaymentHandler) retry(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req paymentRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.service.RetryPayment(c.Request.Context(), req.PaymentID, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResponse(*p))
}

func (h *PaymentHandler) refund(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req paymentRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.service.ProcessRefund(c.Request.Context(), req.PaymentID, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toRefundResponse(*res))
}
