package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rarimo/nft-reward-svc/pkg/ipfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func TestClientResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("payload"))
		case "/created":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("created"))
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	gateway := ipfs.NewMockGateway(t)
	c := NewClient(srv.Client(), gateway, 5*time.Second)
	ctx := context.Background()

	t.Run("direct http 2xx", func(t *testing.T) {
		body, err := c.Resolve(ctx, ContentURI(srv.URL+"/ok"))
		require.NoError(t, err)
		assert.Equal(t, "payload", string(body))

		body, err = c.Resolve(ctx, ContentURI(srv.URL+"/created"))
		require.NoError(t, err)
		assert.Equal(t, "created", string(body))
	})

	t.Run("direct http failure", func(t *testing.T) {
		_, err := c.Resolve(ctx, ContentURI(srv.URL+"/forbidden"))
		assert.Error(t, err)

		_, err = c.Resolve(ctx, ContentURI(srv.URL+"/missing"))
		assert.Equal(t, ipfs.ErrNotFound, errors.Cause(err))
	})

	t.Run("ipfs goes through gateway", func(t *testing.T) {
		gateway.On("Get", mock.Anything, "Qm123").Return([]byte(`{"name":"X"}`), nil).Once()

		body, err := c.Resolve(ctx, "ipfs://Qm123")
		require.NoError(t, err)
		assert.Equal(t, `{"name":"X"}`, string(body))
	})

	t.Run("data uri", func(t *testing.T) {
		body, err := c.Resolve(ctx, "data:application/json;base64,eyJuYW1lIjoiWCJ9")
		require.NoError(t, err)
		assert.Equal(t, `{"name":"X"}`, string(body))

		_, err = c.Resolve(ctx, "data:image/png;base64,AAAA")
		assert.Error(t, err)
	})

	t.Run("unknown schema", func(t *testing.T) {
		_, err := c.Resolve(ctx, "ftp://example.com/a")
		assert.Error(t, err)

		_, err = c.Resolve(ctx, "")
		assert.Error(t, err)
	})
}

func TestLoadMetadata(t *testing.T) {
	gateway := ipfs.NewMockGateway(t)
	c := NewClient(http.DefaultClient, gateway, 5*time.Second)

	gateway.On("Get", mock.Anything, "QmMeta").
		Return([]byte("\xEF\xBB\xBF"+`{"name":"Skull","image_url":"https://ipfs.io/ipfs/QmImg","attributes":[{"trait_type":"Level","value":3}]}`), nil).
		Once()

	var record Record
	err := c.LoadMetadata(context.Background(), "ipfs://QmMeta", &record)
	require.NoError(t, err)

	assert.Equal(t, ContentURI("ipfs://QmMeta"), record.URI)
	assert.Equal(t, "Skull", record.Name)
	assert.Equal(t, DefaultDescription, record.Description)
	assert.Equal(t, ContentURI("ipfs://QmImg"), record.Image)
	assert.Equal(t, []Attribute{{TraitType: "Level", Value: "3"}}, record.Attributes)
}
