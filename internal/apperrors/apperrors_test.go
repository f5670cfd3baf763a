package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindServer, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("borrow: %w", Conflict("already reserved"))
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, KindServer, KindOf(errors.New("boom")))
	assert.Equal(t, KindServer, KindOf(nil))
}

func TestError_Is(t *testing.T) {
	sentinel := NotFound("Book not found")

	assert.True(t, errors.Is(fmt.Errorf("x: %w", NotFound("Book not found")), sentinel))
	assert.False(t, errors.Is(NotFound("User not found"), sentinel))
	assert.False(t, errors.Is(Validation("Book not found"), sentinel))
}

func TestServer_UnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Server("Failed to save", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to save: disk full", err.Error())

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "Failed to save", appErr.Message)
}
