package auth

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/audit"
	"github.com/mrlokans/booktrack/internal/entities"
)

// Handlers serves /api/auth.
type Handlers struct {
	service  *Service
	sessions *SessionManager
	limiter  *RateLimiter
	audit    *audit.Service
}

// NewHandlers creates the auth controller. limiter may be nil to disable throttling.
func NewHandlers(service *Service, sessions *SessionManager, limiter *RateLimiter, auditService *audit.Service) *Handlers {
	return &Handlers{
		service:  service,
		sessions: sessions,
		limiter:  limiter,
		audit:    auditService,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userSummary struct {
	ID        uint              `json:"id"`
	Email     string            `json:"email"`
	FullName  string            `json:"full_name"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Role      entities.UserRole `json:"role"`
}

func summarize(u *entities.User) userSummary {
	return userSummary{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

// Handle dispatches on method and the action query parameter.
func (h *Handlers) Handle(c *gin.Context) {
	action := c.Query("action")
	switch c.Request.Method {
	case http.MethodPost:
		switch action {
		case "login":
			h.Login(c)
		case "register":
			h.Register(c)
		default:
			fail(c, http.StatusBadRequest, "Invalid action")
		}
	case http.MethodGet:
		if action == "check" {
			h.Check(c)
			return
		}
		fail(c, http.StatusBadRequest, "Invalid action")
	case http.MethodDelete:
		if action == "logout" {
			h.Logout(c)
			return
		}
		fail(c, http.StatusBadRequest, "Invalid action")
	default:
		fail(c, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// Login handles POST ?action=login.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	// A malformed body is treated like missing credentials.
	_ = c.ShouldBindJSON(&req)

	ip := c.ClientIP()
	if h.limiter != nil && req.Email != "" {
		if allowed, retryAfter := h.limiter.Allow(ip, req.Email); !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			fail(c, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
			return
		}
	}

	user, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) && h.limiter != nil {
			if locked, _ := h.limiter.RecordFailure(ip, req.Email); locked {
				h.audit.LogAsync(audit.Event{
					Action:  "Login locked out",
					Details: req.Email,
					Level:   entities.LogLevelWarning,
					IP:      ip,
				})
			}
		}
		writeError(c, err)
		return
	}

	if h.limiter != nil {
		h.limiter.RecordSuccess(ip, req.Email)
	}

	if err := h.sessions.CreateSession(c.Request, user); err != nil {
		log.Printf("Failed to create session for user %d: %v", user.ID, err)
		fail(c, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.audit.LogAsync(audit.Event{UserID: user.ID, Action: "User logged in", Level: entities.LogLevelInfo, IP: ip})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    summarize(user),
	})
}

// Register handles POST ?action=register.
func (h *Handlers) Register(c *gin.Context) {
	var reg Registration
	_ = c.ShouldBindJSON(&reg)

	user, err := h.service.Register(c.Request.Context(), reg)
	if err != nil {
		writeError(c, err)
		return
	}

	h.audit.LogAsync(audit.Event{UserID: user.ID, Action: "New user registered", Level: entities.LogLevelInfo, IP: c.ClientIP()})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful",
		"user_id": user.ID,
	})
}

// Check handles GET ?action=check.
func (h *Handlers) Check(c *gin.Context) {
	p, ok := PrincipalFrom(c)
	if !ok {
		if err := SessionError(c); err != nil {
			writeError(c, err)
			return
		}
		writeError(c, ErrNotAuthenticated)
		return
	}

	user, err := h.service.CheckSession(c.Request.Context(), p.UserID)
	if err != nil {
		if IsSessionRejection(err) {
			_ = h.sessions.DestroySession(c.Request)
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    summarize(user),
	})
}

// Logout handles DELETE ?action=logout.
func (h *Handlers) Logout(c *gin.Context) {
	if p, ok := PrincipalFrom(c); ok {
		h.audit.LogAsync(audit.Event{UserID: p.UserID, Action: "User logged out", Level: entities.LogLevelInfo, IP: c.ClientIP()})
	}

	if err := h.sessions.DestroySession(c.Request); err != nil {
		log.Printf("Failed to destroy session: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func writeError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok && appErr.Kind != apperrors.KindServer {
		fail(c, appErr.Kind.HTTPStatus(), appErr.Message)
		return
	}
	log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	fail(c, http.StatusInternalServerError, "Internal server error")
}
