package metadata

import (
	"context"
	"io"
	"math/big"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rarimo/nft-reward-svc/pkg/ipfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func newTestFetcher(t *testing.T) (*Fetcher, *ipfs.MockGateway) {
	gateway := ipfs.NewMockGateway(t)
	client := NewClient(http.DefaultClient, gateway, 5*time.Second)
	return NewFetcher(logan.New(), client, 4), gateway
}

func TestFetchMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("always failing resolver yields placeholder", func(t *testing.T) {
		f, gateway := newTestFetcher(t)
		gateway.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("gateway down"))

		record := f.FetchMetadata(ctx, big.NewInt(7), "ipfs://QmGone")
		assert.Equal(t, "NFT #7", record.Name)
		assert.Equal(t, "Metadata unavailable", record.Description)
		assert.Equal(t, ContentURI(PlaceholderImage), record.Image)
		assert.Equal(t, PlaceholderImage, record.ImageURL)
		assert.True(t, record.Placeholder)

		again := f.FetchMetadata(ctx, big.NewInt(7), "ipfs://QmGone")
		assert.Equal(t, record, again)
	})

	t.Run("invalid json yields placeholder", func(t *testing.T) {
		f, gateway := newTestFetcher(t)
		gateway.On("Get", mock.Anything, "QmBroken").Return([]byte("<html>"), nil)

		record := f.FetchMetadata(ctx, big.NewInt(1), "ipfs://QmBroken")
		assert.True(t, record.Placeholder)
		assert.Equal(t, "NFT #1", record.Name)
	})

	t.Run("image resolved through gateway", func(t *testing.T) {
		f, gateway := newTestFetcher(t)
		gateway.On("Get", mock.Anything, "QmMeta").
			Return([]byte(`{"name":"Art","description":"Nice","image":"ipfs://QmImg"}`), nil)
		gateway.On("GetReader", mock.Anything, "QmImg").
			Return(io.NopCloser(strings.NewReader("png")), nil)

		record := f.FetchMetadata(ctx, big.NewInt(2), "ipfs://QmMeta")
		assert.False(t, record.Placeholder)
		assert.Equal(t, "Art", record.Name)
		assert.Equal(t, "Nice", record.Description)
		assert.Equal(t, ContentURI("ipfs://QmImg"), record.Image)
		assert.Equal(t, "https://ipfs.io/ipfs/QmImg", record.ImageURL)
	})

	t.Run("unreachable image keeps metadata", func(t *testing.T) {
		f, gateway := newTestFetcher(t)
		gateway.On("Get", mock.Anything, "QmMeta").
			Return([]byte(`{"image":"ipfs://QmImg"}`), nil)
		gateway.On("GetReader", mock.Anything, "QmImg").
			Return(nil, &ipfs.ResolutionFailedError{ResourceID: "QmImg"})

		record := f.FetchMetadata(ctx, big.NewInt(3), "ipfs://QmMeta")
		assert.False(t, record.Placeholder)
		assert.Equal(t, DefaultName, record.Name)
		assert.Equal(t, DefaultDescription, record.Description)
		assert.Equal(t, PlaceholderImage, record.ImageURL)
	})

	t.Run("metadata without image", func(t *testing.T) {
		f, gateway := newTestFetcher(t)
		gateway.On("Get", mock.Anything, "QmNoImg").Return([]byte(`{"name":"Bare"}`), nil)

		record := f.FetchMetadata(ctx, big.NewInt(4), "ipfs://QmNoImg")
		assert.False(t, record.Placeholder)
		assert.Equal(t, "Bare", record.Name)
		assert.Equal(t, PlaceholderImage, record.ImageURL)
	})
}

func TestFetchAll(t *testing.T) {
	f, gateway := newTestFetcher(t)

	gateway.On("Get", mock.Anything, "QmA").Return([]byte(`{"name":"A","image":"data:application/json,{}"}`), nil)
	gateway.On("Get", mock.Anything, "QmB").Return(nil, errors.New("timeout"))
	gateway.On("Get", mock.Anything, "QmC").Return([]byte(`{"name":"C","image":"data:application/json,{}"}`), nil)

	records := f.FetchAll(context.Background(), []Request{
		{TokenID: big.NewInt(10), URI: "ipfs://QmA"},
		{TokenID: big.NewInt(11), URI: "ipfs://QmB"},
		{TokenID: big.NewInt(12), URI: "ipfs://QmC"},
	})

	if !assert.Len(t, records, 3) {
		return
	}
	assert.Equal(t, "A", records[0].Name)
	assert.Equal(t, "NFT #11", records[1].Name)
	assert.True(t, records[1].Placeholder)
	assert.Equal(t, "C", records[2].Name)
}
