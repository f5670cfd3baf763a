package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/entities"
	"github.com/mrlokans/booktrack/internal/services"
)

// BorrowingsController serves /api/borrowings. Every action needs a session.
type BorrowingsController struct {
	circulation *services.CirculationService
}

func NewBorrowingsController(circulation *services.CirculationService) *BorrowingsController {
	return &BorrowingsController{circulation: circulation}
}

type borrowRequest struct {
	BookID  uint `json:"book_id"`
	DueDays int  `json:"due_days"`
}

type returnRequest struct {
	BorrowingID uint `json:"borrowing_id"`
	BookID      uint `json:"book_id"`
}

func (bc *BorrowingsController) Handle(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	action := c.Query("action")

	switch c.Request.Method {
	case http.MethodPost:
		switch action {
		case "borrow":
			bc.Borrow(c, actor)
		case "return":
			bc.Return(c, actor)
		default:
			respondBadRequest(c, "Invalid action")
		}
	case http.MethodGet:
		switch {
		case c.Query("id") != "":
			bc.Get(c, actor)
		case action == "my":
			bc.My(c, actor)
		default:
			bc.List(c, actor)
		}
	default:
		respondMethodNotAllowed(c)
	}
}

// Borrow handles POST /api/borrowings?action=borrow
func (bc *BorrowingsController) Borrow(c *gin.Context, actor services.Actor) {
	var req borrowRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := bc.circulation.Borrow(c.Request.Context(), actor, req.BookID, req.DueDays)
	if err != nil {
		writeError(c, err)
		return
	}
	respondCreated(c, "Book borrowed successfully", gin.H{
		"borrowing_id": res.BorrowingID,
		"due_date":     res.DueDate.Format(dateLayout),
	})
}

// Return handles POST /api/borrowings?action=return
func (bc *BorrowingsController) Return(c *gin.Context, actor services.Actor) {
	var req returnRequest
	if !bindJSON(c, &req) {
		return
	}

	var (
		res *services.ReturnResult
		err error
	)
	switch {
	case req.BorrowingID != 0:
		res, err = bc.circulation.ReturnByBorrowing(c.Request.Context(), actor, req.BorrowingID)
	case req.BookID != 0:
		res, err = bc.circulation.ReturnByBook(c.Request.Context(), actor, req.BookID)
	default:
		err = services.ErrReturnTargetRequired
	}
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Book returned successfully", gin.H{"fine_amount": res.FineAmount})
}

// My handles GET /api/borrowings?action=my[&status=]
func (bc *BorrowingsController) My(c *gin.Context, actor services.Actor) {
	list, err := bc.circulation.MyBorrowings(c.Request.Context(), actor, entities.BorrowingStatus(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, listPayload("borrowings", newBorrowingViews(list, bc.circulation.Today(), false), len(list)))
}

// Get handles GET /api/borrowings?id=
func (bc *BorrowingsController) Get(c *gin.Context, actor services.Actor) {
	id, ok := queryID(c, "id")
	if !ok {
		return
	}
	b, err := bc.circulation.GetBorrowing(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	withBorrower := auth.Can(actor.Role, auth.Administrators...)
	respondOK(c, gin.H{"borrowing": newBorrowingView(b, bc.circulation.Today(), withBorrower)})
}

// List handles GET /api/borrowings (administrators)
func (bc *BorrowingsController) List(c *gin.Context, actor services.Actor) {
	limit, offset := parsePage(c, 0, 0)
	list, err := bc.circulation.AllBorrowings(c.Request.Context(), actor, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, listPayload("borrowings", newBorrowingViews(list, bc.circulation.Today(), true), len(list)))
}
