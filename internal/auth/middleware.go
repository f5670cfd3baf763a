package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/entities"
)

// Context keys for auth data
const (
	ContextKeyPrincipal    = "auth_principal"
	ContextKeySessionError = "auth_session_error"
)

// Principal is the authenticated user attached to one request.
type Principal struct {
	UserID uint
	Email  string
	Role   entities.UserRole
}

// Can reports whether the principal holds one of the roles.
func (p Principal) Can(required ...entities.UserRole) bool {
	return Can(p.Role, required...)
}

// Middleware resolves the session into a Principal.
type Middleware struct {
	service  *Service
	sessions *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessions *SessionManager) *Middleware {
	return &Middleware{service: service, sessions: sessions}
}

// Handler attaches a Principal when the session belongs to an active user.
// Sessions of deleted or suspended users are destroyed and the reason is kept
// on the context for the session check endpoint. Requests without a session
// pass through; RequireAuth gates the routes that need one.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := m.sessions.GetUserID(c.Request)
		if userID == 0 {
			c.Next()
			return
		}

		user, err := m.service.CheckSession(c.Request.Context(), userID)
		if err != nil {
			if _, ok := apperrors.As(err); !ok {
				log.Printf("Failed to resolve session user %d: %v", userID, err)
				c.Next()
				return
			}
			if destroyErr := m.sessions.DestroySession(c.Request); destroyErr != nil {
				log.Printf("Failed to destroy session: %v", destroyErr)
			}
			c.Set(ContextKeySessionError, err)
			c.Next()
			return
		}

		c.Set(ContextKeyPrincipal, Principal{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		})
		c.Next()
	}
}

// RequireAuth rejects requests without a principal.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authentication required",
			})
			return
		}
		c.Next()
	}
}

// RequireRole rejects requests whose principal holds none of the roles.
func RequireRole(message string, roles ...entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authentication required",
			})
			return
		}
		if !p.Can(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": message,
			})
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the request's principal, if any.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	if v, exists := c.Get(ContextKeyPrincipal); exists {
		if p, ok := v.(Principal); ok {
			return p, true
		}
	}
	return Principal{}, false
}

// SessionError returns why the request's session was dropped, or nil.
func SessionError(c *gin.Context) error {
	if v, exists := c.Get(ContextKeySessionError); exists {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return nil
}

// IsSessionRejection reports whether err is one of the session check failures.
func IsSessionRejection(err error) bool {
	return errors.Is(err, ErrSessionInvalid) || errors.Is(err, ErrAccountSuspended)
}
