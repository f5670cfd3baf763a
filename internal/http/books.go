package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/database/books"
	"github.com/mrlokans/booktrack/internal/entities"
	"github.com/mrlokans/booktrack/internal/services"
)

// BooksController serves /api/books. Reads are public; writes need catalog staff.
type BooksController struct {
	catalog *services.CatalogService
}

func NewBooksController(catalog *services.CatalogService) *BooksController {
	return &BooksController{catalog: catalog}
}

// Handle dispatches on method, id and action.
func (bc *BooksController) Handle(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		switch {
		case c.Query("action") == "search":
			bc.Search(c)
		case c.Query("action") == "categories":
			bc.Categories(c)
		case c.Query("id") != "":
			bc.Get(c)
		default:
			bc.List(c)
		}
	case http.MethodPost:
		bc.Create(c)
	case http.MethodPut:
		bc.Update(c)
	case http.MethodDelete:
		bc.Delete(c)
	default:
		respondMethodNotAllowed(c)
	}
}

// List handles GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	limit, offset := parsePage(c, books.DefaultPageSize, books.MaxPageSize)
	list, err := bc.catalog.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, listPayload("books", newBookViews(list), len(list)))
}

// Search handles GET /api/books?action=search&q=&category=&availability=
func (bc *BooksController) Search(c *gin.Context) {
	limit, offset := parsePage(c, books.DefaultPageSize, books.MaxPageSize)
	list, err := bc.catalog.Search(c.Request.Context(), books.Query{
		Text:         c.Query("q"),
		Category:     c.Query("category"),
		Availability: entities.Availability(c.Query("availability")),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, listPayload("books", newBookViews(list), len(list)))
}

// Categories handles GET /api/books?action=categories
func (bc *BooksController) Categories(c *gin.Context) {
	list, err := bc.catalog.Categories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, listPayload("categories", list, len(list)))
}

// Get handles GET /api/books?id=
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := queryID(c, "id")
	if !ok {
		return
	}
	book, err := bc.catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, gin.H{"book": newBookView(book)})
}

// Create handles POST /api/books
func (bc *BooksController) Create(c *gin.Context) {
	actor, ok := requireStaff(c)
	if !ok {
		return
	}
	var patch books.Patch
	if !bindJSON(c, &patch) {
		return
	}
	book, err := bc.catalog.Create(c.Request.Context(), actor, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	respondCreated(c, "Book added successfully", gin.H{"book_id": book.ID})
}

// Update handles PUT /api/books?id=
func (bc *BooksController) Update(c *gin.Context) {
	actor, ok := requireStaff(c)
	if !ok {
		return
	}
	id, ok := bc.requireID(c)
	if !ok {
		return
	}
	var patch books.Patch
	if !bindJSON(c, &patch) {
		return
	}
	if _, err := bc.catalog.Update(c.Request.Context(), actor, id, patch); err != nil {
		writeError(c, err)
		return
	}
	respondMessage(c, "Book updated successfully")
}

// Delete handles DELETE /api/books?id=
func (bc *BooksController) Delete(c *gin.Context) {
	actor, ok := requireStaff(c)
	if !ok {
		return
	}
	id, ok := bc.requireID(c)
	if !ok {
		return
	}
	if err := bc.catalog.Delete(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	respondMessage(c, "Book deleted successfully")
}

func requireStaff(c *gin.Context) (services.Actor, bool) {
	return requireRole(c, "Admin access required", auth.CatalogStaff...)
}

func (bc *BooksController) requireID(c *gin.Context) (uint, bool) {
	id, ok := queryID(c, "id")
	if !ok {
		return 0, false
	}
	if id == 0 {
		respondBadRequest(c, "Book ID required")
		return 0, false
	}
	return id, true
}
