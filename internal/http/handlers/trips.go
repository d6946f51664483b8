package handlers

import (
	"net/http"

	"busbooking/internal/repositories"

	"github.com/gin-gonic/gin"
)

type TripHandler struct {
	Catalog repositories.TripCatalog
}

// GET /api/trips
func (h TripHandler) List(c *gin.Context) {
	trips, err := h.Catalog.ListTrips(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

// GET /api/trips/:id
func (h TripHandler) Get(c *gin.Context) {
	trip, err := h.Catalog.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}
