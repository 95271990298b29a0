package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estatehub/marketplace/internal/models"
	"estatehub/marketplace/internal/services"
	"estatehub/marketplace/internal/utils"
)

// BookingHandler serves the /property booking routes.
type BookingHandler struct {
	bookingService services.IBookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService services.IBookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

type buyNowRequest struct {
	Property string `json:"property" binding:"required,sixid"`
}

type listQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
	Search string `form:"search" binding:"max=100"`
}

type updateStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	Property   string `json:"property" binding:"required,sixid"`
	User       string `json:"user" binding:"required,sixid"`
	InterestID string `json:"interestId" binding:"required,sixid"`
}

type cancelBookingRequest struct {
	Property string `json:"property" binding:"required,sixid"`
	Agent    string `json:"agent" binding:"required,sixid"`
	Message  string `json:"message" binding:"max=2000"`
}

// BuyNow handles POST /property/buy-now
func (h *BookingHandler) BuyNow(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	var req buyNowRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	interest, err := h.bookingService.ExpressInterest(c.Request.Context(), callerID, utils.MustParseSixID(req.Property))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Thank you for showing interest! An agent will contact you soon.",
		"interest": interest,
	})
}

// MyBookings handles GET /property/my/bookings
func (h *BookingHandler) MyBookings(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	var q listQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, err)
		return
	}

	page, err := h.bookingService.MyBookings(c.Request.Context(), callerID, q.Page, q.Limit, q.Search)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ManagedProperties handles GET /property/my/property/manage
func (h *BookingHandler) ManagedProperties(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	var q listQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, err)
		return
	}

	page, err := h.bookingService.ManagedProperties(c.Request.Context(), callerID, q.Page, q.Limit, q.Search)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// UpdateStatus handles POST /property/my/property/manage/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	interest, err := h.bookingService.UpdateInterestStatus(c.Request.Context(),
		callerID,
		utils.MustParseSixID(req.InterestID),
		utils.MustParseSixID(req.User),
		utils.MustParseSixID(req.Property),
		models.InterestStatus(req.Status),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully.", "interest": interest})
}

// CancelBooking handles POST /property/my/bookings/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	var req cancelBookingRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	interest, err := h.bookingService.CancelBooking(c.Request.Context(),
		callerID,
		utils.MustParseSixID(req.Agent),
		utils.MustParseSixID(req.Property),
		req.Message,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your booking has been cancelled successfully", "interest": interest})
}
