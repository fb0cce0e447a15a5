package metadata

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/rarimo/nft-reward-svc/pkg/ipfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func newTestCache(t *testing.T) (*CachedLoader, *ipfs.MockGateway) {
	gateway := ipfs.NewMockGateway(t)
	return NewCachedLoader(logan.New(), NewClient(nil, gateway, 5*time.Second)), gateway
}

func TestCachedLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("ipfs document is fetched once", func(t *testing.T) {
		cached, gateway := newTestCache(t)
		gateway.On("Get", mock.Anything, "QmDoc").
			Return([]byte(`{"name":"Sunset","image":"ipfs://QmImg","attributes":[{"trait_type":"mood","value":"calm"}]}`), nil).
			Once()

		var first Record
		require.NoError(t, cached.LoadMetadata(ctx, "ipfs://QmDoc", &first))

		var second Record
		require.NoError(t, cached.LoadMetadata(ctx, "https://ipfs.io/ipfs/QmDoc", &second))

		assert.Equal(t, "Sunset", second.Name)
		assert.Equal(t, ContentURI("ipfs://QmImg"), second.Image)
		assert.Equal(t, first.Attributes, second.Attributes)
		assert.Equal(t, ContentURI("ipfs://QmDoc"), second.URI)
		assert.Equal(t, 1, cached.Len())

		second.Attributes[0].Value = "changed"
		var third Record
		require.NoError(t, cached.LoadMetadata(ctx, "ipfs://QmDoc", &third))
		assert.Equal(t, "calm", third.Attributes[0].Value)
	})

	t.Run("missing image outcome is cached", func(t *testing.T) {
		cached, gateway := newTestCache(t)
		gateway.On("Get", mock.Anything, "QmNoImg").Return([]byte(`{"name":"Bare"}`), nil).Once()

		var first Record
		assert.Equal(t, ErrNoImg, errors.Cause(cached.LoadMetadata(ctx, "ipfs://QmNoImg", &first)))

		var second Record
		assert.Equal(t, ErrNoImg, errors.Cause(cached.LoadMetadata(ctx, "ipfs://QmNoImg", &second)))
		assert.Equal(t, "Bare", second.Name)
		assert.Equal(t, PlaceholderImage, second.ImageURL)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		cached, gateway := newTestCache(t)
		gateway.On("Get", mock.Anything, "QmFlaky").Return(nil, ipfs.ErrNotFound).Once()
		gateway.On("Get", mock.Anything, "QmFlaky").Return([]byte(`{"name":"Back","image":"ipfs://QmImg"}`), nil).Once()

		var record Record
		assert.Error(t, cached.LoadMetadata(ctx, "ipfs://QmFlaky", &record))
		assert.Equal(t, 0, cached.Len())

		require.NoError(t, cached.LoadMetadata(ctx, "ipfs://QmFlaky", &record))
		assert.Equal(t, "Back", record.Name)
	})

	t.Run("broken entry is refetched", func(t *testing.T) {
		cached, gateway := newTestCache(t)
		cached.entries["ipfs://QmBroken"] = []byte{0xc1}
		gateway.On("Get", mock.Anything, "QmBroken").Return([]byte(`{"name":"Fixed","image":"ipfs://QmImg"}`), nil).Once()

		var record Record
		require.NoError(t, cached.LoadMetadata(ctx, "ipfs://QmBroken", &record))
		assert.Equal(t, "Fixed", record.Name)
	})

	t.Run("fetcher over cache repeats documents without refetching", func(t *testing.T) {
		cached, gateway := newTestCache(t)
		gateway.On("Get", mock.Anything, "QmShared").Return([]byte(`{"name":"Twin","image":"data:image/png;base64,AA=="}`), nil).Once()

		f := NewFetcher(logan.New(), cached, 1)
		records := f.FetchAll(ctx, []Request{
			{TokenID: big.NewInt(1), URI: "ipfs://QmShared"},
			{TokenID: big.NewInt(2), URI: "ipfs://QmShared"},
		})

		require.Len(t, records, 2)
		assert.Equal(t, "Twin", records[0].Name)
		assert.Equal(t, "Twin", records[1].Name)
		assert.False(t, records[1].Placeholder)
	})
}
