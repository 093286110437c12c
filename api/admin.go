package api

import (
	"net/http"

	"github.com/Domenick1991/bookingdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type auditRequest struct {
	BookingID int64  `json:"booking_id" binding:"required,gt=0"`
	Action    string `json:"action" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

type seatRequest struct {
	BookingID int64  `json:"booking_id" binding:"required,gt=0"`
	Status    string `json:"status" binding:"required,oneof=available reserved booked"`
}

func (h *BookingHandler) reviewQueue(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	items, err := h.service.ReviewQueue(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	resp := make([]reviewItemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, toReviewItemResponse(it))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) recordAudit(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := h.service.RecordAudit(c.Request.Context(), booking.AuditInput{
		BookingID: req.BookingID,
		Action:    req.Action,
		Reason:    req.Reason,
	}, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toAuditResponse(*entry))
}

func (h *BookingHandler) auditTrail(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entries, err := h.service.AuditTrail(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	resp := make([]auditResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toAuditResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) updateSeat(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req seatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	seat, err := h.service.UpdateSeat(c.Request.Context(), id, booking.SeatInput{BookingID: req.BookingID, Status: req.Status}, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toSeatResponse(*seat))
}
