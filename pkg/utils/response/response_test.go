package response

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-report/pkg/utils/errors"
	"github.com/kart-io/sentinel-report/pkg/utils/json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/analyze-document", nil)
	return c, w
}

func TestFailWritesErrnoStatus(t *testing.T) {
	c, w := newContext()
	c.Set(RequestIDKey, "req-1")

	Fail(c, errors.ErrExtraction.WithCause(fmt.Errorf("malformed PDF")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, c.IsAborted())

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Failed to extract text from document: malformed PDF", body.Error)
	assert.Equal(t, errors.ErrExtraction.Code, body.Code)
	assert.Equal(t, "req-1", body.RequestID)
}

func TestFailPlainErrorIsInternal(t *testing.T) {
	c, w := newContext()

	Fail(c, fmt.Errorf("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"Internal server error: boom"`)
}
