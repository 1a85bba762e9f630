package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/sentinel-report/pkg/options/server/http"
)

func testOptions() *options.Options {
	opts := options.NewOptions()
	opts.Addr = "127.0.0.1:0"
	opts.Mode = gin.TestMode
	return opts
}

func TestNoRouteReturnsJSONError(t *testing.T) {
	s := NewServer(testOptions(), Config{})

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestStartServeStop(t *testing.T) {
	s := NewServer(testOptions(), Config{})
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())
	require.NotNil(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr().String() + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))
}

func TestStartFailsOnBusyAddress(t *testing.T) {
	first := NewServer(testOptions(), Config{})
	require.NoError(t, first.Start(context.Background()))
	defer first.Stop(context.Background())

	opts := testOptions()
	opts.Addr = first.Addr().String()
	second := NewServer(opts, Config{})
	assert.Error(t, second.Start(context.Background()))
}
