package api

import (
	"net/http"

	"github.com/Victor-talka/talka-history/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks a username and password
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.serviceError(c, "Login failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

// ListUsers lists all accounts
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		h.serviceError(c, "Failed to list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser returns one account
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to get user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser creates an account
func (h *Handler) CreateUser(c *gin.Context) {
	var in services.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), in)
	if err != nil {
		h.serviceError(c, "Failed to create user", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateUser applies a partial update to an account
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}

	var in services.UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		h.serviceError(c, "Failed to update user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser deletes an account and its conversations
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		h.serviceError(c, "Failed to delete user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}

// InitAdmin creates the configured admin account if it is missing
func (h *Handler) InitAdmin(c *gin.Context) {
	created, err := h.userService.EnsureAdmin(c.Request.Context())
	if err != nil {
		h.serviceError(c, "Failed to create admin user", err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "Admin user already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Admin user created successfully"})
}
