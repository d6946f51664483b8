package handlers

import (
	"errors"
	"net/http"
	"strings"

	"busbooking/internal/auth"
	"busbooking/internal/domain"
	"busbooking/internal/http/middleware"
	"busbooking/internal/services"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

// ReservationHandler exposes the per-session reservation pipeline.
type ReservationHandler struct {
	Manager *services.Manager
}

type enterRequest struct {
	TripID string `json:"trip_id"`
	// the web client sends camelCase
	TripIDCamel string `json:"tripId"`
}

type paymentRequest struct {
	Method string `json:"method"`
}

func (h ReservationHandler) pipeline(c *gin.Context) (*services.ReservationPipeline, bool) {
	p, err := h.Manager.Session(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		RespondDomainError(c, err)
		return nil, false
	}
	return p, true
}

// POST /api/reservations/enter
func (h ReservationHandler) Enter(c *gin.Context) {
	var req enterRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	tripID := utils.Fallback(req.TripID, strings.TrimSpace(req.TripIDCamel))
	p, ok := h.pipeline(c)
	if !ok {
		return
	}
	seatMap, err := p.EnterFlow(c.Request.Context(), tripID)
	if err != nil {
		if errors.Is(err, domain.ErrAuthRequired) {
			respondDomainError(c, err, gin.H{"returnTo": tripID, "redirect": auth.LoginRedirect(tripID)})
			return
		}
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "reservations", "enter", "trip_id="+tripID)
	c.JSON(http.StatusOK, gin.H{"seatMap": seatMap, "state": p.Snapshot()})
}

// GET /api/reservations/current
func (h ReservationHandler) Current(c *gin.Context) {
	p, ok := h.pipeline(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p.Snapshot())
}

// POST /api/reservations/seats/:seatId
func (h ReservationHandler) ToggleSeat(c *gin.Context) {
	p, ok := h.pipeline(c)
	if !ok {
		return
	}
	seatID := c.Param("seatId")
	selected, err := p.ToggleSeat(c.Request.Context(), seatID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	snap := p.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"seatId":     seatID,
		"selected":   selected,
		"selection":  snap.Selection,
		"total":      snap.Total,
		"totalLabel": snap.TotalLabel,
	})
}

// DELETE /api/reservations/seats
func (h ReservationHandler) ClearSeats(c *gin.Context) {
	p, ok := h.pipeline(c)
	if !ok {
		return
	}
	if err := p.ClearSelection(c.Request.Context()); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p.Snapshot())
}

// POST /api/reservations/confirm
func (h ReservationHandler) Confirm(c *gin.Context) {
	p, ok := h.pipeline(c)
	if !ok {
		return
	}
	res, err := p.ConfirmSelection(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": res, "amount": res.Amount(), "amountLabel": utils.FormatBirr(res.Amount())})
}

// GET /api/reservations/payment
func (h ReservationHandler) EnterPayment(c *gin.Context) {
	p, ok := h.pipeline(c)
	if !ok {
		return
	}
	res, err := p.EnterPayment(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": res, "amount": res.Amount(), "amountLabel": utils.FormatBirr(res.Amount())})
}

// POST /api/reservations/payment
func (h ReservationHandler) SubmitPayment(c *gin.Context) {
	var req paymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	p, ok := h.pipeline(c)
	if !ok {
		return
	}
	booking, err := p.SubmitPayment(c.Request.Context(), req.Method)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "reservations", "payment", "booking_id="+booking.ID)
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// POST /api/reservations/abandon
func (h ReservationHandler) Abandon(c *gin.Context) {
	p, ok := h.pipeline(c)
	if !ok {
		return
	}
	if err := p.Abandon(c.Request.Context()); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p.Snapshot())
}

// GET /api/notifications
func (h ReservationHandler) Notifications(c *gin.Context) {
	p, ok := h.pipeline(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": p.Notifications()})
}
