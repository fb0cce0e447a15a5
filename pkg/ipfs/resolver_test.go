package ipfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type gatewayStub struct {
	mu     sync.Mutex
	hits   []string
	status map[string]int
	body   string
}

func newGatewayStub(t *testing.T, body string, status map[string]int) (*gatewayStub, *httptest.Server) {
	stub := &gatewayStub{status: status, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.hits = append(stub.hits, r.URL.Path)
		stub.mu.Unlock()

		for prefix, code := range stub.status {
			if len(r.URL.Path) >= len(prefix) && r.URL.Path[:len(prefix)] == prefix {
				w.WriteHeader(code)
				return
			}
		}
		_, _ = w.Write([]byte(stub.body))
	}))
	t.Cleanup(srv.Close)
	return stub, srv
}

func (s *gatewayStub) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.hits...)
}

type countingObserver struct {
	ok, failed int
}

func (c *countingObserver) ObserveAttempt(_ string, ok bool) {
	if ok {
		c.ok++
		return
	}
	c.failed++
}

func gateways(t *testing.T, base string, names ...string) GatewayList {
	prefixes := make([]string, 0, len(names))
	for _, name := range names {
		prefixes = append(prefixes, base+"/"+name)
	}
	list, err := NewGatewayList(prefixes...)
	require.NoError(t, err)
	return list
}

func TestResolverFallback(t *testing.T) {
	t.Run("second gateway serves after first returns 500", func(t *testing.T) {
		stub, srv := newGatewayStub(t, `{"name":"X"}`, map[string]int{"/g1/": http.StatusInternalServerError})
		r := NewResolver(logan.New(), srv.Client(), gateways(t, srv.URL, "g1", "g2"), ResolverOpts{})

		body, err := r.Get(context.Background(), "ipfs://Qm123")
		require.NoError(t, err)
		assert.Equal(t, `{"name":"X"}`, string(body))
		assert.Equal(t, []string{"/g1/Qm123", "/g2/Qm123"}, stub.calls())
	})

	t.Run("no attempts after success", func(t *testing.T) {
		for k := 0; k < 4; k++ {
			failing := map[string]int{}
			names := []string{"g0", "g1", "g2", "g3", "g4"}
			for i := 0; i < k; i++ {
				failing["/"+names[i]+"/"] = http.StatusBadGateway
			}
			stub, srv := newGatewayStub(t, "ok", failing)
			observer := &countingObserver{}
			r := NewResolver(logan.New(), srv.Client(), gateways(t, srv.URL, names...), ResolverOpts{Observer: observer})

			body, err := r.Get(context.Background(), "Qmabc")
			require.NoError(t, err)
			assert.Equal(t, "ok", string(body))
			assert.Len(t, stub.calls(), k+1)
			assert.Equal(t, k, observer.failed)
			assert.Equal(t, 1, observer.ok)
		}
	})

	t.Run("all gateways fail", func(t *testing.T) {
		stub, srv := newGatewayStub(t, "", map[string]int{
			"/g1/": http.StatusInternalServerError,
			"/g2/": http.StatusTooManyRequests,
			"/g3/": http.StatusServiceUnavailable,
		})
		r := NewResolver(logan.New(), srv.Client(), gateways(t, srv.URL, "g1", "g2", "g3"), ResolverOpts{})

		_, err := r.Get(context.Background(), "ipfs://Qm123")
		require.Error(t, err)
		assert.Len(t, stub.calls(), 3)

		failed, ok := AsResolutionFailed(err)
		require.True(t, ok)
		assert.Len(t, failed.Attempts, 3)
		assert.Equal(t, http.StatusServiceUnavailable, failed.Attempts[2].StatusCode)
		assert.Equal(t, failed.Attempts[2], failed.LastError())
		assert.ErrorIs(t, err, ErrResolutionFailed)
		assert.False(t, IsNotFound(err))
	})

	t.Run("all gateways answer not found", func(t *testing.T) {
		_, srv := newGatewayStub(t, "", map[string]int{
			"/g1/": http.StatusNotFound,
			"/g2/": http.StatusNotFound,
		})
		r := NewResolver(logan.New(), srv.Client(), gateways(t, srv.URL, "g1", "g2"), ResolverOpts{})

		_, err := r.Get(context.Background(), "Qm404")
		assert.True(t, IsNotFound(err))
	})

	t.Run("transport error moves on", func(t *testing.T) {
		_, srv := newGatewayStub(t, "ok", nil)
		list, err := NewGatewayList("http://127.0.0.1:1/ipfs", srv.URL+"/g2")
		require.NoError(t, err)
		r := NewResolver(logan.New(), srv.Client(), list, ResolverOpts{})

		body, err := r.Get(context.Background(), "Qm1")
		require.NoError(t, err)
		assert.Equal(t, "ok", string(body))
	})
}

func TestResolverPolicy(t *testing.T) {
	t.Run("passes repeat the whole list", func(t *testing.T) {
		stub, srv := newGatewayStub(t, "", map[string]int{
			"/g1/": http.StatusInternalServerError,
			"/g2/": http.StatusInternalServerError,
		})
		r := NewResolver(logan.New(), srv.Client(), gateways(t, srv.URL, "g1", "g2"), ResolverOpts{Passes: 2})

		_, err := r.Get(context.Background(), "Qm1")
		require.Error(t, err)
		assert.Equal(t, []string{"/g1/Qm1", "/g2/Qm1", "/g1/Qm1", "/g2/Qm1"}, stub.calls())
	})

	t.Run("every call restarts from first gateway", func(t *testing.T) {
		stub, srv := newGatewayStub(t, "ok", map[string]int{"/g1/": http.StatusInternalServerError})
		r := NewResolver(logan.New(), srv.Client(), gateways(t, srv.URL, "g1", "g2"), ResolverOpts{})

		for i := 0; i < 2; i++ {
			_, err := r.Get(context.Background(), "Qm1")
			require.NoError(t, err)
		}
		assert.Equal(t, []string{"/g1/Qm1", "/g2/Qm1", "/g1/Qm1", "/g2/Qm1"}, stub.calls())
	})

	t.Run("sticky starts from last good gateway", func(t *testing.T) {
		stub, srv := newGatewayStub(t, "ok", map[string]int{"/g1/": http.StatusInternalServerError})
		r := NewResolver(logan.New(), srv.Client(), gateways(t, srv.URL, "g1", "g2", "g3"), ResolverOpts{Sticky: true})

		for i := 0; i < 2; i++ {
			_, err := r.Get(context.Background(), "Qm1")
			require.NoError(t, err)
		}
		assert.Equal(t, []string{"/g1/Qm1", "/g2/Qm1", "/g2/Qm1"}, stub.calls())
	})

	t.Run("cancelled context stops iteration", func(t *testing.T) {
		stub, srv := newGatewayStub(t, "ok", nil)
		r := NewResolver(logan.New(), srv.Client(), gateways(t, srv.URL, "g1"), ResolverOpts{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.Get(ctx, "Qm1")
		assert.Equal(t, context.Canceled, errors.Cause(err))
		assert.Empty(t, stub.calls())
	})

	t.Run("locate returns serving url", func(t *testing.T) {
		_, srv := newGatewayStub(t, "img", map[string]int{"/g1/": http.StatusNotFound})
		r := NewResolver(logan.New(), srv.Client(), gateways(t, srv.URL, "g1", "g2"), ResolverOpts{})

		url, err := r.Locate(context.Background(), "ipfs://QmImage")
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/g2/QmImage", url)
	})
}

func TestGatewayList(t *testing.T) {
	_, err := NewGatewayList()
	assert.Error(t, err)

	_, err = NewGatewayList("https://ipfs.io/ipfs/", " ")
	assert.Error(t, err)

	_, err = NewGatewayList("ftp://example.com/")
	assert.Error(t, err)

	list, err := NewGatewayList("https://ipfs.io/ipfs", "https://dweb.link/ipfs/")
	require.NoError(t, err)
	assert.Equal(t, GatewayList{"https://ipfs.io/ipfs/", "https://dweb.link/ipfs/"}, list)

	assert.Equal(t, "Qm1/meta.json", TrimResourceID("/ipfs/Qm1/meta.json"))
	assert.Equal(t, "Qm1", TrimResourceID("ipfs://Qm1"))
	assert.Equal(t, "Qm1", TrimResourceID("Qm1"))
}
