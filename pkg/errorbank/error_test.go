package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"bad request", BadRequest("x"), http.StatusBadRequest},
		{"validation", Validation(map[string][]string{"code": {"bad"}}), http.StatusBadRequest},
		{"unauthorized", Unauthorized("x"), http.StatusUnauthorized},
		{"forbidden", Forbidden("x"), http.StatusForbidden},
		{"conflict", Conflict("x"), http.StatusConflict},
		{"not found", NotFound("x"), http.StatusNotFound},
		{"internal", Internal("x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode())
		})
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")
	appErr := From(cause)
	require.NotNil(t, appErr)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)

	wrapped := fmt.Errorf("outer: %w", NotFound("missing"))
	assert.Equal(t, KindNotFound, From(wrapped).Kind())
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(cause, KindNotFound))
	assert.Nil(t, From(nil))
}

func TestValidationCarriesFields(t *testing.T) {
	err := Validation(map[string][]string{
		"name": {"This field is required."},
		"code": {"Ensure this field has no more than 4 characters."},
	})
	assert.Len(t, err.Fields(), 2)
	assert.Equal(t, "validation failed: [code name]", err.Error())
}
