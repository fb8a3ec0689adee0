package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type identityResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
}

type accountResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	AccountStatus string    `json:"account_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *Server) handleHealth(c *gin.Context) {
	mode := "no-db"
	if s.store.Available() {
		mode = "db"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": mode})
}

func (s *Server) handleMe(c *gin.Context) {
	identity, ok := IdentityFromGin(c)
	if !ok {
		writeUnauthorized(c)
		return
	}
	c.JSON(http.StatusOK, identityResponse{
		ID:      identity.ID,
		Email:   identity.Email,
		Role:    string(identity.Role),
		Purpose: identity.Purpose,
	})
}

func (s *Server) handleAdminGetAccount(c *gin.Context) {
	if s.identities == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "account store unavailable")
		return
	}
	record, err := s.identities.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "account not found")
			return
		}
		s.logger.ErrorContext(c.Request.Context(), "account lookup failed",
			slog.String("event", "account.lookup_failed"),
			slog.String("error", err.Error()),
		)
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	c.JSON(http.StatusOK, accountResponse{
		ID:            record.ID,
		Email:         record.Email,
		Role:          string(record.Role),
		AccountStatus: string(record.Status),
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	})
}

func (s *Server) handleNoRoute(c *gin.Context) {
	writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
