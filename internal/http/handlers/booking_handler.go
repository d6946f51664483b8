package handlers

import (
	"net/http"

	"busbooking/internal/http/middleware"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the confirmation stage.
type BookingHandler struct {
	Manager *services.Manager
}

// GET /api/bookings/:id
func (h BookingHandler) Get(c *gin.Context) {
	p, err := h.Manager.Session(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	b, err := p.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GET /api/bookings/:id/ticket
func (h BookingHandler) Ticket(c *gin.Context) {
	p, err := h.Manager.Session(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	b, err := p.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	pdf, filename, err := services.TicketService{RequestID: middleware.GetRequestID(c)}.GenerateETicket(b)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
