package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trackswift/internal/auth"
	"trackswift/internal/database"
	"trackswift/internal/middleware"
	"trackswift/internal/models"
)

func (h *Handler) emailTaken(ctx context.Context, tenantID, email, exceptID string) (bool, error) {
	var n int64
	q := database.Scoped(ctx, h.db, tenantID).Model(&models.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// --- GET: /api/auth/users ---
func (h *Handler) ListUsers(c *gin.Context) {
	_, tenantID := middleware.Identity(c)
	users := []models.User{}
	if err := database.Scoped(c.Request.Context(), h.db, tenantID).Order("created_at asc").Find(&users).Error; err != nil {
		h.internalError(c, err, "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// --- POST: /api/auth/users ---
func (h *Handler) CreateUser(c *gin.Context) {
	var input models.UserInput
	if !bind(c, &input) {
		return
	}
	if len(input.Password) < auth.MinPasswordLength {
		respondError(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	user, ok := h.insertUser(c, input.Username, input.Email, input.Password, input.Role, input.IsActive)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, user)
}

// --- POST: /api/auth/invite ---
// Invite creates an active user with a generated password, returned once.
func (h *Handler) Invite(c *gin.Context) {
	var input models.InviteRequest
	if !bind(c, &input) {
		return
	}
	if input.Role == "" {
		input.Role = models.RoleUser
	}
	password, err := auth.TemporaryPassword()
	if err != nil {
		h.internalError(c, err, "Failed to generate password")
		return
	}
	user, ok := h.insertUser(c, input.Username, input.Email, password, input.Role, true)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, models.InviteResponse{User: *user, TemporaryPassword: password})
}

func (h *Handler) insertUser(c *gin.Context, username, email, password, role string, active bool) (*models.User, bool) {
	_, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()
	email = strings.ToLower(strings.TrimSpace(email))

	taken, err := h.emailTaken(ctx, tenantID, email, "")
	if err != nil {
		h.internalError(c, err, "Failed to create user")
		return nil, false
	}
	if taken {
		respondError(c, http.StatusConflict, "A user with this email already exists")
		return nil, false
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		h.internalError(c, err, "Failed to hash password")
		return nil, false
	}
	user := models.User{
		TenantID:     tenantID,
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		IsActive:     active,
	}
	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		h.internalError(c, err, "Failed to create user")
		return nil, false
	}
	h.audit(c, "create", "user", user.ID)
	return &user, true
}

// --- PUT: /api/auth/users/:id ---
// The password changes only when a new one is sent.
func (h *Handler) UpdateUser(c *gin.Context) {
	userID, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var user models.User
	if err := database.FindOne(ctx, h.db, tenantID, c.Param("id"), &user); err != nil {
		h.notFoundOr(c, err, "User")
		return
	}

	var input models.UserInput
	if !bind(c, &input) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	taken, err := h.emailTaken(ctx, tenantID, email, user.ID)
	if err != nil {
		h.internalError(c, err, "Failed to update user")
		return
	}
	if taken {
		respondError(c, http.StatusConflict, "A user with this email already exists")
		return
	}
	if user.ID == userID && (input.Role != models.RoleAdmin || !input.IsActive) {
		respondError(c, http.StatusBadRequest, "You cannot demote or deactivate yourself")
		return
	}

	user.Username = strings.TrimSpace(input.Username)
	user.Email = email
	user.Role = input.Role
	user.IsActive = input.IsActive
	if input.Password != "" {
		if len(input.Password) < auth.MinPasswordLength {
			respondError(c, http.StatusBadRequest, "Password must be at least 6 characters")
			return
		}
		hashed, err := auth.HashPassword(input.Password)
		if err != nil {
			h.internalError(c, err, "Failed to hash password")
			return
		}
		user.PasswordHash = hashed
	}

	if err := h.db.WithContext(ctx).Save(&user).Error; err != nil {
		h.internalError(c, err, "Failed to update user")
		return
	}
	h.audit(c, "update", "user", user.ID)
	c.JSON(http.StatusOK, user)
}

// --- DELETE: /api/auth/users/:id ---
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	id := c.Param("id")
	if id == userID {
		respondError(c, http.StatusBadRequest, "You cannot delete your own account")
		return
	}
	var user models.User
	if err := database.FindOne(ctx, h.db, tenantID, id, &user); err != nil {
		h.notFoundOr(c, err, "User")
		return
	}
	if err := h.db.WithContext(ctx).Delete(&user).Error; err != nil {
		h.internalError(c, err, "Failed to delete user")
		return
	}
	h.audit(c, "delete", "user", user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
