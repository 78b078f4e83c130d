package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesCopies(t *testing.T) {
	custom := ErrAlreadyAssigned.WithMessage("Someone else got it")
	wrapped := fmt.Errorf("accept: %w", custom)

	assert.True(t, errors.Is(wrapped, ErrAlreadyAssigned))
	assert.False(t, errors.Is(wrapped, ErrNotPending))
	assert.True(t, HasCode(wrapped, CodeAlreadyAssigned))

	// оригинал не изменился
	assert.Equal(t, "Project is already assigned", ErrAlreadyAssigned.Message)
}

func TestAppError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := DatabaseError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func serve(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	HandleError(c, err)
	return w
}

func TestHandleError_Envelope(t *testing.T) {
	w := serve(ValidationError(map[string]string{"email": "This field is required"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, CodeValidationFailed, body.Code)
	assert.Equal(t, map[string]interface{}{"email": "This field is required"}, body.Details)
}

func TestHandleError_HidesInternals(t *testing.T) {
	w := serve(errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
	assert.Contains(t, w.Body.String(), string(CodeInternalError))
}
