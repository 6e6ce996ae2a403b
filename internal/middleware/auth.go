package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"aptracker/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by RequireRole.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextUserName = "userName"
)

const accessTokenCookie = "access_token"

// Claims is the subset of the access token the API relies on.
type Claims struct {
	Subject string
	Role    string
	Name    string
}

// Auth validates HS256 access tokens issued at login.
type Auth struct {
	secret       []byte
	secureCookie bool
}

// NewAuth builds the validator. secureCookie marks cookies Secure and
// SameSite=None for cross-origin production deployments.
func NewAuth(secret string, secureCookie bool) *Auth {
	return &Auth{secret: []byte(secret), secureCookie: secureCookie}
}

// Parse verifies a token string and extracts its claims.
func (a *Auth) Parse(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}
	role, ok := mc["role"].(string)
	if !ok || role == "" {
		return Claims{}, errors.New("role not found in token")
	}
	sub, _ := mc["sub"].(string)
	name, _ := mc["name"].(string)
	return Claims{Subject: sub, Role: role, Name: name}, nil
}

// SetTokenCookie stores the access token as an HttpOnly cookie.
func (a *Auth) SetTokenCookie(c *gin.Context, token string, ttl time.Duration) {
	a.cookieMode(c)
	c.SetCookie(accessTokenCookie, token, int(ttl.Seconds()), "/", "", a.secureCookie, true)
}

// ClearTokenCookie removes the access token cookie.
func (a *Auth) ClearTokenCookie(c *gin.Context) {
	a.cookieMode(c)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", a.secureCookie, true)
}

func (a *Auth) cookieMode(c *gin.Context) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	if a.secureCookie {
		c.SetSameSite(http.SameSiteNoneMode)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
}

// RequireRole validates the JWT and checks the user's role is in allowedRoles.
// No roles means any authenticated user.
func (a *Auth) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try cookie first, fallback to Authorization header
		tokenString, cookieErr := c.Cookie(accessTokenCookie)
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		claims, err := a.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		if len(allowedRoles) > 0 {
			roleAllowed := false
			for _, role := range allowedRoles {
				if claims.Role == role {
					roleAllowed = true
					break
				}
			}
			if !roleAllowed {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
				return
			}
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextUserName, claims.Name)

		c.Next()
	}
}

// CurrentUser returns what RequireRole stored on the context.
func CurrentUser(c *gin.Context) Claims {
	return Claims{
		Subject: c.GetString(ContextUserID),
		Role:    c.GetString(ContextUserRole),
		Name:    c.GetString(ContextUserName),
	}
}
