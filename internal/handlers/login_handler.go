package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"trackswift/internal/auth"
	"trackswift/internal/middleware"
	"trackswift/internal/models"
)

var errCompanyTaken = errors.New("company already registered")

// --- POST: /api/auth/login ---
func (h *Handler) Login(c *gin.Context) {
	var input models.LoginRequest
	// 1. Validate Input JSON
	if !bind(c, &input) {
		return
	}
	ctx := c.Request.Context()

	// 2. Find the company, then the user inside it
	var tenant models.Tenant
	if err := h.db.WithContext(ctx).Where("company_name = ?", strings.TrimSpace(input.CompanyName)).First(&tenant).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	var user models.User
	err := h.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenant.ID, strings.ToLower(strings.TrimSpace(input.Email))).
		First(&user).Error
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 3. Verify Password (Bcrypt)
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.IsActive {
		respondError(c, http.StatusForbidden, "Account is deactivated")
		return
	}

	// 4. Generate JWT Token
	h.respondWithToken(c, http.StatusOK, user, tenant)
}

// --- POST: /api/auth/register ---
// Register creates a company and its first administrator.
func (h *Handler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if !bind(c, &input) {
		return
	}

	// 1. Hash the Password
	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		h.internalError(c, err, "Failed to hash password")
		return
	}

	tenant := models.Tenant{
		CompanyName: strings.TrimSpace(input.CompanyName),
		Currency:    h.opts.DefaultCurrency,
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	user := models.User{
		Username:     strings.SplitN(email, "@", 2)[0],
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hashed,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}

	// 2. Tenant and admin land together or not at all
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Tenant{}).Where("company_name = ?", tenant.CompanyName).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return errCompanyTaken
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		user.TenantID = tenant.ID
		return tx.Create(&user).Error
	})
	if errors.Is(err, errCompanyTaken) {
		respondError(c, http.StatusConflict, "Company name is already registered")
		return
	}
	if err != nil {
		h.internalError(c, err, "Registration failed")
		return
	}

	h.log.Info().Str("tenant_id", tenant.ID).Str("company", tenant.CompanyName).Msg("tenant registered")
	h.respondWithToken(c, http.StatusCreated, user, tenant)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user models.User, tenant models.Tenant) {
	token, err := h.tokens.GenerateToken(user.ID, tenant.ID, user.Role)
	if err != nil {
		h.internalError(c, err, "Failed to generate token")
		return
	}
	user.CompanyName = tenant.CompanyName
	c.JSON(status, models.AuthResponse{Token: token, User: user})
}

// --- GET: /api/auth/verify ---
func (h *Handler) Verify(c *gin.Context) {
	userID, tenantID := middleware.Identity(c)
	ctx := c.Request.Context()

	var user models.User
	if err := h.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", userID, tenantID).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if !user.IsActive {
		respondError(c, http.StatusUnauthorized, "Account is deactivated")
		return
	}
	var tenant models.Tenant
	if err := h.db.WithContext(ctx).First(&tenant, "id = ?", tenantID).Error; err == nil {
		user.CompanyName = tenant.CompanyName
	}
	c.JSON(http.StatusOK, models.VerifyResponse{Valid: true, User: user})
}
