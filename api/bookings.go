package api

import (
	"net/http"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/Domenick1991/bookingdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type BookingHandler struct {
	service booking.BookingUseCase
	log     logrus.FieldLogger
}

type createBookingRequest struct {
	UserID   string `json:"user_id"`
	FlightID int64  `json:"flight_id" binding:"required,gt=0"`
}

type addPassengerRequest struct {
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	Email        string `json:"email" binding:"omitempty,email"`
	Type         string `json:"passenger_type"`
	FlightSeatID *int64 `json:"flight_seat_id"`
}

type updateBookingRequest struct {
	AssignedAgent string `json:"assigned_agent" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type forceConfirmRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type contactRequest struct {
	Message string `json:"message"`
}

func NewBookingHandler(service booking.BookingUseCase, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{service: service, log: log}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	bookings := router.Group("/bookings")
	bookings.POST("", h.create)
	bookings.GET("/:id", h.get)
	bookings.PUT("/:id", h.update)
	bookings.GET("/:id/quote", h.quote)
	bookings.POST("/:id/passengers", h.addPassenger)
	bookings.PUT("/:id/status", h.updateStatus)
	bookings.PUT("/:id/force-confirm", h.forceConfirm)
	bookings.POST("/:id/contact-customer", h.contactCustomer)
	bookings.PUT("/:id/extend-hold", h.extendHold)
	bookings.GET("/:id/audit-logs", h.auditTrail)

	router.GET("/review-queue", h.reviewQueue)
	router.POST("/audit-logs", h.recordAudit)
	router.PUT("/seats/:id", h.updateSeat)
}

func (h *BookingHandler) create(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:   req.UserID,
		FlightID: req.FlightID,
	}, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(*b))
}

func (h *BookingHandler) get(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	details, err := h.service.GetBooking(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toDetailsResponse(*details))
}

func (h *BookingHandler) quote(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	details, err := h.service.GetBooking(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, details.Quote)
}

// update is the generic booking edit; the only editable field outside the status machine
// is the assigned agent.
func (h *BookingHandler) update(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.service.AssignAgent(c.Request.Context(), id, req.AssignedAgent, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*b))
}

func (h *BookingHandler) addPassenger(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req addPassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.service.AddPassenger(c.Request.Context(), id, booking.AddPassengerInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Type:         domain.PassengerType(req.Type),
		FlightSeatID: req.FlightSeatID,
	}, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toPassengerResponse(*p))
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.service.UpdateStatus(c.Request.Context(), id, booking.StatusInput{Status: req.Status, Reason: req.Reason}, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*b))
}

func (h *BookingHandler) forceConfirm(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req forceConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.service.ForceConfirm(c.Request.Context(), id, req.Reason, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*b))
}

func (h *BookingHandler) contactCustomer(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req contactRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	b, err := h.service.ContactCustomer(c.Request.Context(), id, req.Message, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*b))
}

func (h *BookingHandler) extendHold(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	b, err := h.service.ExtendHold(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*b))
}
