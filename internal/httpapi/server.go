package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/terramarya/internal/config"
	"github.com/MarkoPoloResearchLab/terramarya/pkg/booking"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const slotFullMessage = "Lo sentimos, este horario está completo. Por favor intenta otra hora."

// Serve runs an HTTP server for handler until ctx is cancelled.
func Serve(ctx context.Context, logger *zap.Logger, addr string, shutdownTimeout time.Duration, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("http server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter builds the gin engine serving the reservation API.
func NewRouter(cfg config.Config, service *booking.Service, logger *zap.Logger, now func() time.Time) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	handler := &httpHandler{logger: logger, service: service, now: now}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/venues", handler.handleListVenues)
	api.GET("/venues/:id", handler.handleVenue)
	api.GET("/venues/:id/availability", handler.refreshState, handler.handleAvailability)
	api.GET("/venues/:id/reservations", handler.refreshState, handler.handleVenueReservations)
	api.POST("/reservations", handler.handleAddReservation)
	api.GET("/profile", handler.refreshState, handler.handleProfile)
	api.POST("/profile/points", handler.handleAddPoints)

	if cfg.AdminEnabled() {
		admin := api.Group("/admin")
		admin.Use(bearerAuth(cfg.JWTSigningKey), requireRole(roleAdmin), handler.refreshState)
		admin.GET("/dashboard", handler.handleDashboard)
		admin.GET("/reservations", handler.handleAllReservations)
	}

	return router
}

type httpHandler struct {
	logger  *zap.Logger
	service *booking.Service
	now     func() time.Time
}

type reservationRequest struct {
	RestaurantID int               `json:"restaurantId"`
	Date         string            `json:"date"`
	Time         string            `json:"time"`
	Pax          booking.PartySize `json:"pax"`
	Name         string            `json:"name"`
	Phone        string            `json:"phone"`
}

type pointsRequest struct {
	Amount *int `json:"amount"`
}

type profileResponse struct {
	Profile booking.LoyaltyProfile `json:"profile"`
	Status  booking.LoyaltyStatus  `json:"status"`
}

func (handler *httpHandler) handleListVenues(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"venues": handler.service.ListVenues()})
}

func (handler *httpHandler) handleVenue(ctx *gin.Context) {
	venue, ok := handler.lookupVenue(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"venue": venue})
}

func (handler *httpHandler) handleAvailability(ctx *gin.Context) {
	venue, ok := handler.lookupVenue(ctx)
	if !ok {
		return
	}
	date, err := booking.NewSlotDate(ctx.Query("date"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	rawTime := ctx.Query("time")
	if rawTime == "" {
		slots, err := handler.service.AvailableSlots(venue.ID, date)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
		return
	}
	slotTime, err := booking.NewSlotTime(rawTime)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	booked := handler.service.SlotCount(venue.ID, date, slotTime)
	ctx.JSON(http.StatusOK, gin.H{
		"date":      date,
		"time":      slotTime,
		"available": handler.service.CheckAvailability(venue.ID, date, slotTime),
		"booked":    booked,
		"remaining": max(booking.CapacityPerSlot-booked, 0),
	})
}

func (handler *httpHandler) handleVenueReservations(ctx *gin.Context) {
	venue, ok := handler.lookupVenue(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reservations": handler.service.ReservationsByRestaurant(venue.ID)})
}

func (handler *httpHandler) handleAddReservation(ctx *gin.Context) {
	var payload reservationRequest
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		if errors.Is(err, booking.ErrInvalidPartySize) {
			handler.respondError(ctx, err)
			return
		}
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	request, err := booking.NewReservationRequest(payload.RestaurantID, payload.Date, payload.Time, payload.Pax.Int(), payload.Name, payload.Phone)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	reservation, err := handler.service.AddReservation(ctx.Request.Context(), request)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"reservation": reservation})
}

func (handler *httpHandler) handleProfile(ctx *gin.Context) {
	profile := handler.service.CurrentProfile()
	ctx.JSON(http.StatusOK, profileResponse{Profile: profile, Status: profile.Status()})
}

func (handler *httpHandler) handleAddPoints(ctx *gin.Context) {
	var payload pointsRequest
	if err := ctx.ShouldBindJSON(&payload); err != nil || payload.Amount == nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body with amount"))
		return
	}
	profile, err := handler.service.AddPoints(ctx.Request.Context(), *payload.Amount)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, profileResponse{Profile: profile, Status: profile.Status()})
}

func (handler *httpHandler) handleDashboard(ctx *gin.Context) {
	handler.logAdminAccess(ctx)
	date := booking.DateOf(handler.now())
	if rawDate := ctx.Query("date"); rawDate != "" {
		parsed, err := booking.NewSlotDate(rawDate)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		date = parsed
	}
	venueFilter := booking.AllVenues
	if rawVenue := ctx.Query("venue"); rawVenue != "" && rawVenue != "all" {
		venueID, err := booking.ParseVenueID(rawVenue)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		if _, err := handler.service.Venue(venueID); err != nil {
			handler.respondError(ctx, err)
			return
		}
		venueFilter = venueID
	}
	ctx.JSON(http.StatusOK, gin.H{"summary": handler.service.DailySummary(date, venueFilter)})
}

func (handler *httpHandler) handleAllReservations(ctx *gin.Context) {
	handler.logAdminAccess(ctx)
	ctx.JSON(http.StatusOK, gin.H{"reservations": handler.service.Reservations()})
}

// refreshState reloads persisted state so reads see writes made by other instances sharing the store.
func (handler *httpHandler) refreshState(ctx *gin.Context) {
	if err := handler.service.Refresh(ctx.Request.Context()); err != nil {
		handler.logger.Warn("state refresh failed, serving cached state", zap.String("path", ctx.FullPath()), zap.Error(err))
	}
	ctx.Next()
}

func (handler *httpHandler) logAdminAccess(ctx *gin.Context) {
	handler.logger.Info("admin request",
		zap.String("subject", ctx.GetString(contextKeySubject)),
		zap.String("path", ctx.FullPath()),
	)
}

func (handler *httpHandler) lookupVenue(ctx *gin.Context) (booking.Venue, bool) {
	venueID, err := booking.ParseVenueID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return booking.Venue{}, false
	}
	venue, err := handler.service.Venue(venueID)
	if err != nil {
		handler.respondError(ctx, err)
		return booking.Venue{}, false
	}
	return venue, true
}

func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	statusCode, code, message := classifyError(err)
	if statusCode == http.StatusInternalServerError {
		handler.logger.Error("request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
	}
	ctx.JSON(statusCode, errorResponse(code, message))
}

func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, booking.ErrSlotFull):
		return http.StatusConflict, "slot_full", slotFullMessage
	case errors.Is(err, booking.ErrUnknownVenue):
		return http.StatusNotFound, "unknown_venue", "venue not found"
	case errors.Is(err, booking.ErrInvalidVenueID):
		return http.StatusBadRequest, "invalid_venue", err.Error()
	case errors.Is(err, booking.ErrInvalidDate):
		return http.StatusBadRequest, "invalid_date", err.Error()
	case errors.Is(err, booking.ErrInvalidTime):
		return http.StatusBadRequest, "invalid_time", err.Error()
	case errors.Is(err, booking.ErrInvalidPartySize):
		return http.StatusBadRequest, "invalid_party_size", err.Error()
	case errors.Is(err, booking.ErrInvalidContactName):
		return http.StatusBadRequest, "invalid_name", err.Error()
	case errors.Is(err, booking.ErrInvalidPhone):
		return http.StatusBadRequest, "invalid_phone", err.Error()
	case errors.Is(err, booking.ErrInvalidPoints):
		return http.StatusBadRequest, "invalid_points", err.Error()
	default:
		return http.StatusInternalServerError, "internal_error", "request failed"
	}
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
