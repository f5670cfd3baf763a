package http

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/entities"
	"github.com/mrlokans/booktrack/internal/services"
)

const dateLayout = "2006-01-02"

// --- Response Helpers ---
//
// Every response is an envelope {success, message?, ...payload}.

// respond writes a success envelope merged with payload.
func respond(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func respondOK(c *gin.Context, payload gin.H) {
	respond(c, http.StatusOK, "", payload)
}

func respondMessage(c *gin.Context, message string) {
	respond(c, http.StatusOK, message, nil)
}

func respondCreated(c *gin.Context, message string, payload gin.H) {
	respond(c, http.StatusCreated, message, payload)
}

// respondError sends a failure envelope with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

func respondMethodNotAllowed(c *gin.Context) {
	respondError(c, http.StatusMethodNotAllowed, "Method not allowed")
}

// writeError maps service errors to responses. Expected failures carry their
// own message; anything else is logged and answered with a generic 500 so
// database text never reaches the client.
func writeError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok && appErr.Kind != apperrors.KindServer {
		respondError(c, appErr.Kind.HTTPStatus(), appErr.Message)
		return
	}
	log.Printf("Internal error [%s] %s %s: %v", RequestID(c), c.Request.Method, c.Request.URL.Path, err)
	respondError(c, http.StatusInternalServerError, "Internal server error")
}

// --- Principal ---

// actorFrom builds the service actor for the request's principal.
func actorFrom(c *gin.Context) (services.Actor, bool) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		return services.Actor{IP: c.ClientIP()}, false
	}
	return services.Actor{UserID: p.UserID, Role: p.Role, IP: c.ClientIP()}, true
}

// requireActor returns the actor or answers 401.
func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
	}
	return actor, ok
}

// requireRole returns the actor or answers 401/403.
func requireRole(c *gin.Context, message string, roles ...entities.UserRole) (services.Actor, bool) {
	actor, ok := requireActor(c)
	if !ok {
		return actor, false
	}
	if !auth.Can(actor.Role, roles...) {
		respondError(c, http.StatusForbidden, message)
		return actor, false
	}
	return actor, true
}

// --- Parameter Parsing ---

// queryID reads an optional unsigned id from the query string. Missing
// values yield 0; malformed ones answer 400 and return false.
func queryID(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryInt reads a non-negative integer, falling back to def when missing or invalid.
func queryInt(c *gin.Context, name string, def int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			return v
		}
	}
	return def
}

// parsePage reads limit/offset with a default and an upper bound on limit.
func parsePage(c *gin.Context, defLimit, maxLimit int) (int, int) {
	limit := queryInt(c, "limit", defLimit)
	if limit <= 0 {
		limit = defLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit, queryInt(c, "offset", 0)
}

// bindJSON decodes an optional JSON body. An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, "Invalid JSON body")
		return false
	}
	return true
}
