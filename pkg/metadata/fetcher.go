package metadata

import (
	"context"
	"math/big"

	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"golang.org/x/sync/errgroup"
)

const defaultFetchConcurrency = 8

type Loader interface {
	LoadMetadata(ctx context.Context, uri ContentURI, out interface{}) error
	Locate(ctx context.Context, uri ContentURI) (string, error)
}

// Fetcher turns token uris into displayable records. It never fails: any
// resolution or parsing problem is logged and replaced by a placeholder.
type Fetcher struct {
	log         *logan.Entry
	loader      Loader
	concurrency int
}

func NewFetcher(log *logan.Entry, loader Loader, concurrency int) *Fetcher {
	if concurrency < 1 {
		concurrency = defaultFetchConcurrency
	}

	return &Fetcher{
		log:         log,
		loader:      loader,
		concurrency: concurrency,
	}
}

type Request struct {
	TokenID *big.Int
	URI     ContentURI
}

func (f *Fetcher) FetchMetadata(ctx context.Context, tokenID *big.Int, uri ContentURI) *Record {
	log := f.log.WithFields(logan.F{
		"token_id": tokenIDString(tokenID),
		"uri":      string(uri),
	})

	var record Record
	err := f.loader.LoadMetadata(ctx, uri, &record)
	switch errors.Cause(err) {
	case nil:
	case ErrNoImg:
		log.Debug("metadata has no image, using placeholder")
		return &record
	default:
		log.WithError(err).Warn("metadata unavailable, using placeholder")
		placeholder := Placeholder(tokenID)
		placeholder.URI = uri
		return placeholder
	}

	imageURL, err := f.loader.Locate(ctx, record.Image)
	if err != nil {
		log.WithError(err).WithField("image", string(record.Image)).Warn("image unavailable, using placeholder")
		imageURL = PlaceholderImage
	}
	record.ImageURL = imageURL

	return &record
}

// FetchAll fetches metadata for every request concurrently. The i-th record
// always belongs to the i-th request.
func (f *Fetcher) FetchAll(ctx context.Context, requests []Request) []*Record {
	records := make([]*Record, len(requests))

	var group errgroup.Group
	group.SetLimit(f.concurrency)

	for i, req := range requests {
		i, req := i, req
		group.Go(func() error {
			records[i] = f.FetchMetadata(ctx, req.TokenID, req.URI)
			return nil
		})
	}

	_ = group.Wait()
	return records
}
