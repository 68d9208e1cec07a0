// server/internal/api/handlers/user_handler.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"waste-collection-api-server/internal/api/middleware"
	"waste-collection-api-server/internal/database"
	"waste-collection-api-server/internal/models"
)

// UserDirectory stores platform accounts. *database.UserStore satisfies it.
type UserDirectory interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	Upsert(ctx context.Context, u models.User) (bool, error)
}

// TokenIssuer signs access tokens. *auth.Manager satisfies it.
type TokenIssuer interface {
	GenerateJWT(userID string, role models.Role, facilityID string) (string, error)
}

type UserHandler struct {
	Users  UserDirectory
	Tokens TokenIssuer
	Logger *slog.Logger
}

type CreateUserRequest struct {
	Email      string      `json:"email" binding:"required,email"`
	Name       string      `json:"name" binding:"required"`
	Role       models.Role `json:"role" binding:"required"`
	FacilityID string      `json:"facilityId"`
}

func (r CreateUserRequest) validate() error {
	switch r.Role {
	case models.RoleResident, models.RoleBusiness, models.RoleDriver,
		models.RoleRecycler, models.RoleCouncil, models.RoleAdmin:
	default:
		return fmt.Errorf("unknown role %q", r.Role)
	}
	if r.Role == models.RoleRecycler && r.FacilityID == "" {
		return errors.New("facilityId is required for recyclers")
	}
	return nil
}

// CreateUser provisions an account and returns its first access token.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		UserID:     fmt.Sprintf("%s-%s", req.Role, uuid.New().String()[:8]),
		Email:      req.Email,
		Name:       req.Name,
		Role:       req.Role,
		FacilityID: req.FacilityID,
		Status:     "active",
	}
	if _, err := h.Users.Upsert(c.Request.Context(), user); err != nil {
		h.Logger.Error("create user failed", "email", req.Email, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := h.Tokens.GenerateJWT(user.UserID, user.Role, user.FacilityID)
	if err != nil {
		h.Logger.Error("issue token failed", "userId", user.UserID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User created but token could not be issued"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// GetMe returns the caller's account record.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := c.GetString(middleware.KeyUserID)
	user, err := h.Users.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.Logger.Error("get user failed", "userId", userID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}
	c.JSON(http.StatusOK, user)
}
