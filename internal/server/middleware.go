package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/shopadmin-dev/shopadmin/internal/auth"
	"github.com/shopadmin-dev/shopadmin/internal/models"
)

const (
	bearerPrefix = "Bearer "

	detailTokenNotValid  = "Given token not valid for any token type"
	detailNoCredentials  = "Authentication credentials were not provided."
	detailUserNotFound   = "User not found"
	detailUserInactive   = "User is inactive"
	detailPermission     = "You do not have permission to perform this action."
	codeTokenNotValid    = "token_not_valid"
	codeNotAuthenticated = "not_authenticated"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserInactive      = errors.New("user is inactive")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// respondWithDetail aborts with the {"detail": ...} body API clients expect
func respondWithDetail(c *gin.Context, log zerolog.Logger, statusCode int, err error, detail, code string) {
	log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(detail)
	body := gin.H{"detail": detail}
	if code != "" {
		body["code"] = code
	}
	c.AbortWithStatusJSON(statusCode, body)
}

// JWTAuthMiddleware validates access tokens and loads the caller's session
func JWTAuthMiddleware(tokens *auth.TokenIssuer, db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			if errors.Is(err, ErrMissingAuthHeader) {
				respondWithDetail(c, log, http.StatusUnauthorized, err, detailNoCredentials, codeNotAuthenticated)
				return
			}
			respondWithDetail(c, log, http.StatusUnauthorized, err, detailTokenNotValid, codeTokenNotValid)
			return
		}

		claims, err := tokens.ValidateToken(token, auth.TokenTypeAccess)
		if err != nil {
			respondWithDetail(c, log, http.StatusUnauthorized, err, detailTokenNotValid, codeTokenNotValid)
			return
		}

		// Verify user still exists and is active
		var user models.User
		if err := models.FindByID(db, claims.UserID, &user); err != nil {
			respondWithDetail(c, log, http.StatusUnauthorized, ErrUserNotFound, detailUserNotFound, "user_not_found")
			return
		}
		if !user.IsActive {
			respondWithDetail(c, log, http.StatusUnauthorized, ErrUserInactive, detailUserInactive, "user_inactive")
			return
		}

		setSession(c, &auth.SessionData{
			UserID:      user.ID,
			Email:       user.Email,
			IsStaff:     user.IsStaff,
			IsSuperuser: user.IsSuperuser,
		})

		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is staff
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithDetail(c, log, http.StatusUnauthorized, errors.New("no session"), detailNoCredentials, codeNotAuthenticated)
			return
		}

		if !sessionData.IsAdmin() {
			respondWithDetail(c, log, http.StatusForbidden, errors.New("not staff"), detailPermission, "")
			return
		}

		c.Next()
	}
}
