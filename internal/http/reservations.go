package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/services"
)

// ReservationsController serves /api/reservations. Every action needs a session.
type ReservationsController struct {
	circulation *services.CirculationService
}

func NewReservationsController(circulation *services.CirculationService) *ReservationsController {
	return &ReservationsController{circulation: circulation}
}

type reserveRequest struct {
	BookID     uint `json:"book_id"`
	ExpiryDays int  `json:"expiry_days"`
}

func (rc *ReservationsController) Handle(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	action := c.Query("action")

	switch c.Request.Method {
	case http.MethodPost:
		if action != "create" {
			respondBadRequest(c, "Invalid action")
			return
		}
		rc.Create(c, actor)
	case http.MethodDelete:
		rc.Cancel(c, actor)
	case http.MethodGet:
		switch {
		case c.Query("id") != "":
			rc.Get(c, actor)
		case action == "my":
			rc.My(c, actor)
		default:
			rc.List(c, actor)
		}
	default:
		respondMethodNotAllowed(c)
	}
}

// Create handles POST /api/reservations?action=create
func (rc *ReservationsController) Create(c *gin.Context, actor services.Actor) {
	var req reserveRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := rc.circulation.Reserve(c.Request.Context(), actor, req.BookID, req.ExpiryDays)
	if err != nil {
		writeError(c, err)
		return
	}
	respondCreated(c, "Book reserved successfully", gin.H{
		"reservation_id": res.ReservationID,
		"expiry_date":    res.ExpiryDate.Format(dateLayout),
		"status":         res.Status,
	})
}

// Cancel handles DELETE /api/reservations?id=
func (rc *ReservationsController) Cancel(c *gin.Context, actor services.Actor) {
	id, ok := queryID(c, "id")
	if !ok {
		return
	}
	if id == 0 {
		respondBadRequest(c, "Reservation ID required")
		return
	}
	if err := rc.circulation.CancelReservation(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	respondMessage(c, "Reservation cancelled successfully")
}

// My handles GET /api/reservations?action=my
func (rc *ReservationsController) My(c *gin.Context, actor services.Actor) {
	list, err := rc.circulation.MyReservations(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, listPayload("reservations", newReservationViews(list, rc.circulation.Now(), false), len(list)))
}

// Get handles GET /api/reservations?id=
func (rc *ReservationsController) Get(c *gin.Context, actor services.Actor) {
	id, ok := queryID(c, "id")
	if !ok {
		return
	}
	res, err := rc.circulation.GetReservation(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	withOwner := auth.Can(actor.Role, auth.CatalogStaff...)
	respondOK(c, gin.H{"reservation": newReservationView(res, rc.circulation.Now(), withOwner)})
}

// List handles GET /api/reservations (catalog staff)
func (rc *ReservationsController) List(c *gin.Context, actor services.Actor) {
	limit, offset := parsePage(c, 0, 0)
	list, err := rc.circulation.AllReservations(c.Request.Context(), actor, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, listPayload("reservations", newReservationViews(list, rc.circulation.Now(), true), len(list)))
}
