package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/services"
)

// BookmarksController serves /api/bookmarks.
type BookmarksController struct {
	bookmarks *services.BookmarkService
}

func NewBookmarksController(bookmarks *services.BookmarkService) *BookmarksController {
	return &BookmarksController{bookmarks: bookmarks}
}

func (bc *BookmarksController) Handle(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	switch c.Request.Method {
	case http.MethodGet:
		list, err := bc.bookmarks.List(c.Request.Context(), actor)
		if err != nil {
			writeError(c, err)
			return
		}
		respondOK(c, listPayload("bookmarks", newBookmarkViews(list), len(list)))
	case http.MethodPost:
		bookID, ok := queryID(c, "book_id")
		if !ok {
			return
		}
		bookmark, err := bc.bookmarks.Add(c.Request.Context(), actor, bookID)
		if err != nil {
			writeError(c, err)
			return
		}
		respondCreated(c, "Book bookmarked successfully", gin.H{"bookmark_id": bookmark.ID})
	case http.MethodDelete:
		bookID, ok := queryID(c, "book_id")
		if !ok {
			return
		}
		if err := bc.bookmarks.Remove(c.Request.Context(), actor, bookID); err != nil {
			writeError(c, err)
			return
		}
		respondMessage(c, "Bookmark removed successfully")
	default:
		respondMethodNotAllowed(c)
	}
}
