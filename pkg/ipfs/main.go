package ipfs

import (
	"context"
	"errors"
	"io"
)

//go:generate mockery --case underscore --name Gateway --inpackage
type Gateway interface {
	Get(ctx context.Context, resourceID string) ([]byte, error)
	GetReader(ctx context.Context, resourceID string) (io.ReadCloser, error)
}

// Locator is implemented by gateways able to tell at which URL a resource
// was reachable.
type Locator interface {
	Locate(ctx context.Context, resourceID string) (string, error)
}

var (
	ErrNotFound         = errors.New("not found")
	ErrResolutionFailed = errors.New("all gateways failed")
)
