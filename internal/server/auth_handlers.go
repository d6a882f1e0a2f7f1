package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopadmin-dev/shopadmin/internal/auth"
	"github.com/shopadmin-dev/shopadmin/internal/models"
)

const fieldRequired = "This field is required."

// LoginRequest represents a login request. Email may also be a username.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	User    *UserDetail `json:"user"`
}

// UserDetail represents the logged-in admin returned by login
type UserDetail struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse carries a new access token and the rotated refresh token
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func fieldErrors(fields map[string]string) gin.H {
	body := gin.H{}
	for field, message := range fields {
		body[field] = []string{message}
	}
	return body
}

// validationErrors maps validator failures onto field-keyed messages. Field
// names come from json tags, see registerValidators.
func validationErrors(err error) gin.H {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nonFieldError(err.Error())
	}

	fields := map[string]string{}
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = fieldRequired
		case "max":
			fields[fe.Field()] = fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		case "gte":
			fields[fe.Field()] = fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
		case "orderstatus":
			fields[fe.Field()] = fmt.Sprintf("%q is not a valid choice.", fe.Value())
		default:
			fields[fe.Field()] = "Invalid value."
		}
	}
	return fieldErrors(fields)
}

func nonFieldError(message string) gin.H {
	return gin.H{"non_field_errors": []string{message}}
}

func subjectFor(user *models.User) auth.Subject {
	return auth.Subject{
		UserID:      user.ID,
		Email:       user.Email,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
	}
}

// @Summary Admin login
// @Description Exchanges staff credentials for an access and refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Router /auth/login/ [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	missing := map[string]string{}
	if req.Email == "" {
		missing["email"] = fieldRequired
	}
	if req.Password == "" {
		missing["password"] = fieldRequired
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, fieldErrors(missing))
		return
	}

	var user models.User
	err := s.db.Where("LOWER(email) = LOWER(?) OR username = ?", req.Email, req.Email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}
	if err != nil || !user.IsActive || auth.VerifyPassword(req.Password, user.PasswordHash) != nil {
		s.logger.Info().Str("email", req.Email).Msg("Login rejected")
		c.JSON(http.StatusBadRequest, nonFieldError("Invalid credentials"))
		return
	}

	if !user.IsStaff && !user.IsSuperuser {
		s.logger.Info().Uint("user_id", user.ID).Msg("Login rejected for non-staff user")
		c.JSON(http.StatusBadRequest, nonFieldError("Access denied. Admin privileges required."))
		return
	}

	access, err := s.tokens.GenerateAccessToken(subjectFor(&user))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to generate token"})
		return
	}
	refresh, _, err := s.tokens.GenerateRefreshToken(subjectFor(&user))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to generate token"})
		return
	}

	s.logger.Info().Uint("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		Access:  access,
		Refresh: refresh,
		User: &UserDetail{
			ID:          user.ID,
			Email:       user.Email,
			Username:    user.Username,
			FirstName:   user.FirstName,
			LastName:    user.LastName,
			IsStaff:     user.IsStaff,
			IsSuperuser: user.IsSuperuser,
		},
	})
}

// @Summary Refresh access token
// @Description Issues a new access token. The refresh token is rotated and the old one blacklisted.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh request"
// @Success 200 {object} RefreshResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/refresh/ [post]
func (s *Server) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return
	}
	if req.Refresh == "" {
		c.JSON(http.StatusBadRequest, fieldErrors(map[string]string{"refresh": fieldRequired}))
		return
	}

	claims, err := s.tokens.ValidateToken(req.Refresh, auth.TokenTypeRefresh)
	if err != nil {
		respondWithDetail(c, s.logger, http.StatusUnauthorized, err, "Token is invalid or expired", codeTokenNotValid)
		return
	}

	var user models.User
	if err := models.FindByID(s.db, claims.UserID, &user); err != nil || !user.IsActive {
		respondWithDetail(c, s.logger, http.StatusUnauthorized, ErrUserNotFound, "No active account found with the given credentials", "no_active_account")
		return
	}

	// Blacklisting the presented token and checking it was not already
	// blacklisted happen in one insert
	entry := models.BlacklistedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Msg("Failed to blacklist refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}
	rotated := result.RowsAffected == 1
	if !rotated {
		respondWithDetail(c, s.logger, http.StatusUnauthorized, auth.ErrInvalidToken, "Token is blacklisted", codeTokenNotValid)
		return
	}

	access, err := s.tokens.GenerateAccessToken(subjectFor(&user))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to generate token"})
		return
	}
	refresh, _, err := s.tokens.GenerateRefreshToken(subjectFor(&user))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to generate token"})
		return
	}

	s.logger.Debug().Uint("user_id", user.ID).Msg("Refresh token rotated")
	c.JSON(http.StatusOK, RefreshResponse{Access: access, Refresh: refresh})
}
