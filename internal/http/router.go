package api

import (
	stdhttp "net/http"

	"busbooking/internal/auth"
	intconfig "busbooking/internal/config"
	h "busbooking/internal/http/handlers"
	"busbooking/internal/http/middleware"
	"busbooking/internal/repositories"
	"busbooking/internal/services"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the services mounted by the router.
type Deps struct {
	Manager *services.Manager
	Catalog repositories.TripCatalog
	Users   h.UserStore
	Issuer  auth.TokenIssuer
	Returns auth.ReturnPathStore
}

func NewRouter(env intconfig.Env, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORS(env.CORSOrigins),
		middleware.Session(int(env.SessionTTL.Seconds())),
		middleware.BearerToken(),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Logger().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	reservations := h.ReservationHandler{Manager: deps.Manager}
	bookings := h.BookingHandler{Manager: deps.Manager}
	trips := h.TripHandler{Catalog: deps.Catalog}
	authH := h.AuthHandler{Users: deps.Users, Issuer: deps.Issuer, Returns: deps.Returns}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		a := api.Group("/auth")
		a.POST("/login", authH.Login)
		a.POST("/register", authH.Register)

		t := api.Group("/trips")
		t.GET("", trips.List)
		t.GET("/:id", trips.Get)

		res := api.Group("/reservations")
		res.POST("/enter", reservations.Enter)
		res.GET("/current", reservations.Current)
		res.POST("/seats/:seatId", reservations.ToggleSeat)
		res.DELETE("/seats", reservations.ClearSeats)
		res.POST("/confirm", reservations.Confirm)
		res.GET("/payment", reservations.EnterPayment)
		res.POST("/payment", reservations.SubmitPayment)
		res.POST("/abandon", reservations.Abandon)

		b := api.Group("/bookings")
		b.GET("/:id", bookings.Get)
		b.GET("/:id/ticket", bookings.Ticket)

		api.GET("/notifications", reservations.Notifications)
	}

	h.SetRouter(r)
	return r
}
