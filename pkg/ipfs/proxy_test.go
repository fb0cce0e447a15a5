package ipfs

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gitlab.com/distributed_lab/logan/v3"
)

func TestProxyHandler(t *testing.T) {
	gateway := NewMockGateway(t)
	router := newRouter(logan.New(), gateway, time.Second)

	t.Run("liveness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/liveness", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("streams resolved content", func(t *testing.T) {
		gateway.On("GetReader", mock.Anything, "/ipfs/QmMeta").
			Return(io.NopCloser(strings.NewReader(`{"name":"X"}`)), nil).
			Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ipfs/QmMeta", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `{"name":"X"}`, rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("not found on every gateway", func(t *testing.T) {
		gateway.On("GetReader", mock.Anything, "/ipfs/QmMissing").
			Return(nil, &ResolutionFailedError{
				ResourceID: "QmMissing",
				Attempts:   []AttemptError{{Gateway: "g1", StatusCode: http.StatusNotFound}},
			}).
			Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ipfs/QmMissing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
