package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"cinereserve/internal/domain"
	"cinereserve/internal/inventory"
	"cinereserve/internal/layout"
	redisrepo "cinereserve/internal/repository/redis"
	"cinereserve/internal/service"
	"cinereserve/internal/service/catalog"
	"cinereserve/internal/service/query"
	"cinereserve/internal/service/reservation"
	"cinereserve/internal/service/ticketing"
	"cinereserve/internal/session"
	"cinereserve/internal/ticket"
)

// IdempotencyStore is what the hold handler needs to replay a request
// that carries an Idempotency-Key it has seen before.
type IdempotencyStore interface {
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	SaveResult(ctx context.Context, key string, jsonPayload string) error
	GetResult(ctx context.Context, key string) (string, bool, error)
	Release(ctx context.Context, key string) error
}

func NewRouter(
	svcs *service.Services,
	idem IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/showtimes/:id/availability", handleAvailability(svcs))
	r.GET("/showtimes/:id/seats", handleListSeats(svcs))
	r.POST("/showtimes/:id/holds", handleCreateHold(svcs, idem))

	r.GET("/sessions/:id/quote", handleQuote(svcs))
	r.POST("/sessions/:id/confirm", handleConfirm(svcs))
	r.POST("/sessions/:id/cancel", handleCancel(svcs))
	r.POST("/sessions/:id/ticket", handleIssueTicket(svcs))

	r.GET("/tickets/:code", handleGetTicket(svcs))
	r.GET("/tickets/:code/qr", handleTicketQR(svcs))
	r.POST("/tickets/verify", handleVerifyTicket(svcs))

	// Admin-API
	// TODO: add admin middleware
	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/rooms", handleCreateRoom(svcs))
		adminGroup.POST("/showtimes", handleCreateShowtime(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Availability counters for a showtime
// @Param    id  path  int  true  "Showtime ID"
// @Success  200  {object}  domain.ShowtimeCounts
// @Failure  404  {object}  ErrorResponse
// @Router   /showtimes/{id}/availability [get]
func handleAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showtimeID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		counts, err := svcs.Query.Availability(c.Request.Context(), showtimeID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeCachedJSON(c, http.StatusOK, counts, "public, max-age=5")
	}
}

// @Summary  List showtime seats with state and price
// @Param    id     path   int     true  "Showtime ID"
// @Param    only   query  string  false "free"
// @Param    limit  query  int     false "page size"
// @Param    offset query  int     false "offset"
// @Success  200  {array}   query.SeatView
// @Router   /showtimes/{id}/seats [get]
func handleListSeats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showtimeID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		onlyFree := c.Query("only") == "free" || c.Query("only_free") == "true"
		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		seats, err := svcs.Query.Seats(c.Request.Context(), showtimeID, onlyFree, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeCachedJSON(c, http.StatusOK, seats, "public, max-age=5")
	}
}

// @Summary  Open a seat hold (idempotent)
// @Param    id  path  int  true  "Showtime ID"
// @Param    req body  CreateHoldRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} CreateHoldResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "seats unavailable / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /showtimes/{id}/holds [post]
func handleCreateHold(
	svcs *service.Services,
	idem IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		showtimeID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req CreateHoldRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemHold(showtimeID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		seatIDs := make([]domain.SeatID, len(req.SeatIDs))
		for i, s := range req.SeatIDs {
			seatIDs[i] = domain.SeatID(s)
		}

		rlKey := "ip:" + c.ClientIP()

		sess, err := svcs.Reservation.OpenHold(c.Request.Context(), showtimeID, seatIDs, rlKey)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if errors.Is(err, reservation.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
				return
			}
			respondErr(c, err)
			return
		}

		resp := CreateHoldResponse{
			SessionID: sess.ID().String(),
			ExpiresAt: sess.ExpiresAt(),
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Quote the held seats
// @Param    id  path  string  true  "Session ID (uuid)"
// @Success  200 {object} domain.Quote
// @Router   /sessions/{id}/quote [get]
func handleQuote(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		q, err := svcs.Ticketing.Quote(c.Request.Context(), sid)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, q)
	}
}

// @Summary  Confirm a session
// @Param    id  path  string  true  "Session ID (uuid)"
// @Success  200 {object} SessionStatusResponse
// @Failure  409 {object} ErrorResponse
// @Router   /sessions/{id}/confirm [post]
func handleConfirm(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Reservation.Confirm(c.Request.Context(), sid); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, SessionStatusResponse{
			SessionID: sid.String(),
			Status:    string(domain.SessionConfirmed),
		})
	}
}

// @Summary  Cancel a session
// @Param    id  path  string  true  "Session ID (uuid)"
// @Success  200 {object} SessionStatusResponse
// @Router   /sessions/{id}/cancel [post]
func handleCancel(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Reservation.Cancel(c.Request.Context(), sid); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, SessionStatusResponse{
			SessionID: sid.String(),
			Status:    string(domain.SessionCancelled),
		})
	}
}

// @Summary  Issue the ticket for a confirmed session
// @Param    id  path  string  true  "Session ID (uuid)"
// @Success  201 {object} domain.Ticket
// @Failure  409 {object} ErrorResponse "already issued / seats lost"
// @Router   /sessions/{id}/ticket [post]
func handleIssueTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		t, err := svcs.Ticketing.Issue(c.Request.Context(), sid)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

// @Summary  Get ticket by confirmation code
// @Param    code  path  string  true  "Confirmation code"
// @Success  200 {object} domain.Ticket
// @Router   /tickets/{code} [get]
func handleGetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Ticketing.GetTicket(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Ticket QR code as PNG
// @Param    code  path  string  true  "Confirmation code"
// @Produce  png
// @Success  200
// @Router   /tickets/{code}/qr [get]
func handleTicketQR(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Ticketing.GetTicket(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondErr(c, err)
			return
		}
		png, err := qrcode.Encode(t.QRPayload, qrcode.Medium, 256)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}

// @Summary  Verify a scanned QR payload against the stored ticket
// @Param    req body  VerifyTicketRequest true "payload"
// @Success  200 {object} VerifyTicketResponse
// @Router   /tickets/verify [post]
func handleVerifyTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		valid, err := svcs.Ticketing.VerifyPayload(c.Request.Context(), req.Code, req.Payload)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, VerifyTicketResponse{Valid: valid})
	}
}

// @Summary  Create room with row definitions
// @Param    req body  CreateRoomRequest true "payload"
// @Success  201 {object} CreateRoomResponse
// @Failure  400 {object} ErrorResponse "structural error in rows"
// @Router   /admin/rooms [post]
func handleCreateRoom(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		rows := make([]domain.RowDef, len(req.Rows))
		for i, r := range req.Rows {
			rows[i] = domain.RowDef{
				Letter:     r.Letter,
				Number:     r.Number,
				Type:       domain.SeatType(r.Type),
				Multiplier: r.Multiplier,
				SeatCount:  r.SeatCount,
				Active:     r.Active,
			}
		}
		id, err := svcs.Catalog.CreateRoom(c.Request.Context(), req.Cinema, req.Name, rows)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateRoomResponse{RoomID: id})
	}
}

// @Summary  Create showtime and freeze its seat inventory
// @Param    req body  CreateShowtimeRequest true "payload"
// @Success  201 {object} CreateShowtimeResponse
// @Router   /admin/showtimes [post]
func handleCreateShowtime(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateShowtimeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		startsAt, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		id, err := svcs.Catalog.CreateShowtime(
			c.Request.Context(),
			req.RoomID,
			req.Movie,
			startsAt,
			req.BasePrice,
			req.Surcharge,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateShowtimeResponse{ShowtimeID: id})
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func seatStrings(ids []domain.SeatID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var unavailable inventory.SeatsUnavailableError
	if errors.As(err, &unavailable) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "seats unavailable",
			Seats: seatStrings(unavailable.SeatIDs),
		})
		return
	}

	var notFound inventory.SeatsNotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "seats not found",
			Seats: seatStrings(notFound.SeatIDs),
		})
		return
	}

	var ownership inventory.OwnershipError
	if errors.As(err, &ownership) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: ownership.Error(),
			Seats: []string{string(ownership.SeatID)},
		})
		return
	}

	var expired session.ExpiredError
	if errors.As(err, &expired) {
		c.JSON(http.StatusGone, ErrorResponse{Error: expired.Error()})
		return
	}

	var invalidState session.InvalidStateError
	if errors.As(err, &invalidState) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: invalidState.Error()})
		return
	}

	var issued ticket.AlreadyIssuedError
	if errors.As(err, &issued) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: issued.Error()})
		return
	}

	var exhausted ticket.CodeGenerationExhaustedError
	if errors.As(err, &exhausted) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: exhausted.Error()})
		return
	}

	var dupRow layout.DuplicateRowError
	if errors.As(err, &dupRow) {
		badRequest(c, dupRow.Error())
		return
	}

	var badRow layout.InvalidSeatCountError
	if errors.As(err, &badRow) {
		badRequest(c, badRow.Error())
		return
	}

	switch {
	case errors.Is(err, session.ErrNoSeats),
		errors.Is(err, session.ErrDuplicateSeats):
		badRequest(c, err.Error())
	case errors.Is(err, reservation.ErrShowtimeNotFound),
		errors.Is(err, query.ErrShowtimeNotFound),
		errors.Is(err, ticketing.ErrShowtimeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "showtime not found"})
	case errors.Is(err, reservation.ErrSessionNotFound),
		errors.Is(err, ticketing.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
	case errors.Is(err, ticketing.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
	case errors.Is(err, catalog.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
	case errors.Is(err, catalog.ErrNoActiveRows):
		badRequest(c, catalog.ErrNoActiveRows.Error())
	case errors.Is(err, catalog.ErrShowtimeExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "showtime already exists"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
