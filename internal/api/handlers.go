package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Victor-talka/talka-history/internal/config"
	"github.com/Victor-talka/talka-history/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler holds all handlers and dependencies
type Handler struct {
	db                  *gorm.DB
	cfg                 *config.Config
	importService       *services.ImportService
	conversationService *services.ConversationService
	userService         *services.UserService
	partnerService      *services.PartnerService
	log                 *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	db *gorm.DB,
	cfg *config.Config,
	importService *services.ImportService,
	conversationService *services.ConversationService,
	userService *services.UserService,
	partnerService *services.PartnerService,
	log *zap.Logger,
) *Handler {
	return &Handler{
		db:                  db,
		cfg:                 cfg,
		importService:       importService,
		conversationService: conversationService,
		userService:         userService,
		partnerService:      partnerService,
		log:                 log,
	}
}

// HealthCheck handles health check endpoint
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadyCheck handles readiness check endpoint
func (h *Handler) ReadyCheck(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database_connection_failed",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database_ping_failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// errorResponse sends a standardized error response
func (h *Handler) errorResponse(c *gin.Context, status int, message string, err error) {
	requestID := c.GetString("request_id")

	if err != nil {
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("message", message),
			zap.Error(err),
			zap.String("request_id", requestID),
		}
		if status >= http.StatusInternalServerError {
			h.log.Error("Request error", fields...)
		} else {
			h.log.Debug("Request rejected", fields...)
		}
	}

	c.JSON(status, gin.H{
		"error":      message,
		"request_id": requestID,
	})
}

// serviceError maps a service error to its HTTP status. Client errors
// echo the service message; server errors use fallback.
func (h *Handler) serviceError(c *gin.Context, fallback string, err error) {
	status := statusFor(err)
	message := fallback
	if status < http.StatusInternalServerError {
		message = err.Error()
	}
	h.errorResponse(c, status, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
