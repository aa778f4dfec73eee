package handlers

import (
	"net/http"

	"formhub/middleware"
	"formhub/services"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	ticketService *services.TicketService
	metrics       *middleware.Metrics
}

func NewTicketHandler(ticketService *services.TicketService, metrics *middleware.Metrics) *TicketHandler {
	return &TicketHandler{ticketService: ticketService, metrics: metrics}
}

func (h *TicketHandler) CreateTicket(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req services.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The originating page travels in the Referer header.
	ticketURL, err := h.ticketService.CreateTicket(caller.Email, c.GetHeader("Referer"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TicketsCreated.WithLabelValues(req.Priority).Inc()
	}

	c.JSON(http.StatusCreated, gin.H{"ticket_url": ticketURL})
}
