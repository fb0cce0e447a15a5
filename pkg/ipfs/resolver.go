package ipfs

import (
	"context"
	"io"
	"net/http"
	"sync"

	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const maxBodySize = 10 << 20 // 10 MB

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// AttemptObserver is notified about every gateway attempt.
type AttemptObserver interface {
	ObserveAttempt(gateway string, ok bool)
}

type ResolverOpts struct {
	// Passes is the number of full passes over the gateway list, 1 if unset.
	Passes int
	// Sticky makes a call start from the gateway that served the previous
	// successful call. Remaining gateways are still tried in list order.
	Sticky   bool
	Observer AttemptObserver
}

// Resolver fetches content ids through an ordered list of HTTP gateways, one
// gateway at a time, returning the first successful response.
type Resolver struct {
	log      *logan.Entry
	client   HttpClient
	gateways GatewayList
	opts     ResolverOpts

	mu       sync.Mutex
	lastGood int
}

func NewResolver(log *logan.Entry, client HttpClient, gateways GatewayList, opts ResolverOpts) *Resolver {
	if len(gateways) == 0 {
		panic(errors.New("resolver requires at least one gateway"))
	}
	if opts.Passes < 1 {
		opts.Passes = 1
	}

	return &Resolver{
		log:      log,
		client:   client,
		gateways: gateways,
		opts:     opts,
	}
}

func (r *Resolver) Gateways() GatewayList {
	return r.gateways
}

func (r *Resolver) Get(ctx context.Context, resourceID string) ([]byte, error) {
	body, err := r.GetReader(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	result, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read body", logan.F{
			"resource_id": resourceID,
		})
	}

	return result, nil
}

func (r *Resolver) GetReader(ctx context.Context, resourceID string) (io.ReadCloser, error) {
	body, _, err := r.resolve(ctx, resourceID)
	return body, err
}

func (r *Resolver) Locate(ctx context.Context, resourceID string) (string, error) {
	body, url, err := r.resolve(ctx, resourceID)
	if err != nil {
		return "", err
	}
	body.Close()

	return url, nil
}

func (r *Resolver) resolve(ctx context.Context, resourceID string) (io.ReadCloser, string, error) {
	resourceID = TrimResourceID(resourceID)
	if resourceID == "" {
		return nil, "", errors.New("empty resource id")
	}

	failed := &ResolutionFailedError{ResourceID: resourceID}
	order := r.order()

	for pass := 0; pass < r.opts.Passes; pass++ {
		for _, idx := range order {
			if err := ctx.Err(); err != nil {
				return nil, "", errors.Wrap(err, "resolution aborted", logan.F{
					"resource_id": resourceID,
					"attempts":    len(failed.Attempts),
				})
			}

			url := r.gateways.URL(idx, resourceID)
			body, attemptErr := r.fetch(ctx, url)
			if r.opts.Observer != nil {
				r.opts.Observer.ObserveAttempt(r.gateways[idx], attemptErr == nil)
			}

			if attemptErr == nil {
				r.remember(idx)
				return body, url, nil
			}

			attemptErr.Gateway = r.gateways[idx]
			failed.Attempts = append(failed.Attempts, *attemptErr)

			r.log.WithFields(logan.F{
				"gateway":     r.gateways[idx],
				"resource_id": resourceID,
				"status_code": attemptErr.StatusCode,
				"pass":        pass,
			}).WithError(attemptErr.Err).Debug("gateway attempt failed")
		}
	}

	return nil, "", failed
}

func (r *Resolver) fetch(ctx context.Context, url string) (io.ReadCloser, *AttemptError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &AttemptError{Err: errors.Wrap(err, "failed to create request")}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &AttemptError{Err: errors.Wrap(err, "failed to perform request")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, &AttemptError{
			StatusCode: resp.StatusCode,
			Err: errors.From(errors.New("unexpected status code"), logan.F{
				"status_code": resp.StatusCode,
			}),
		}
	}

	return resp.Body, nil
}

func (r *Resolver) order() []int {
	start := 0
	if r.opts.Sticky {
		r.mu.Lock()
		start = r.lastGood
		r.mu.Unlock()
	}

	order := make([]int, 0, len(r.gateways))
	order = append(order, start)
	for idx := range r.gateways {
		if idx != start {
			order = append(order, idx)
		}
	}
	return order
}

func (r *Resolver) remember(idx int) {
	if !r.opts.Sticky {
		return
	}
	r.mu.Lock()
	r.lastGood = idx
	r.mu.Unlock()
}
