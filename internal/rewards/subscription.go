package rewards

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rarimo/nft-reward-svc/internal/metrics"
	"github.com/rarimo/nft-reward-svc/pkg/gobind"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/distributed_lab/running"
)

const maxAbnormalPeriod = 30 * time.Second

// Unsubscribe stops a subscription and waits for an in-flight handler call
// to return. Calls after the first are no-ops. It must not be called from the
// subscription's own handler.
type Unsubscribe func()

type subscription struct {
	*Watcher
	log     *logan.Entry
	event   string
	cursor  uint64
	handler Handler
	dedup   *Dedup
}

// Subscribe delivers every eventName log from fromBlock on to handler, in
// chain order, skipping logs already present in dedup. A nil dedup gets a
// fresh set.
func (w *Watcher) Subscribe(ctx context.Context, eventName string, fromBlock uint64, handler Handler, dedup *Dedup) (Unsubscribe, error) {
	if _, err := w.contract.EventID(eventName); err != nil {
		return nil, errors.Wrap(err, "failed to subscribe")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	if dedup == nil {
		dedup = NewDedup()
	}

	s := &subscription{
		Watcher: w,
		log: w.log.WithFields(logan.F{
			"event": eventName,
			"mode":  string(w.opts.Mode),
		}),
		event:   eventName,
		cursor:  fromBlock,
		handler: handler,
		dedup:   dedup,
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		s.run(ctx)
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}, nil
}

// Follow replays reward history from fromBlock up to the current head, then
// keeps delivering new reward events. Events seen in both phases are
// delivered once. A fromBlock past the head skips history and the live part
// starts at fromBlock.
func (w *Watcher) Follow(ctx context.Context, fromBlock uint64, handler Handler) (Unsubscribe, error) {
	head, err := w.source.BlockNumber(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recent block")
	}

	dedup := NewDedup()

	history, err := w.history(ctx, gobind.EventNFTMintedWithReward, fromBlock, head)
	if err != nil {
		return nil, errors.Wrap(err, "failed to replay history")
	}

	for _, log := range history {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if dedup.Add(log.Raw) {
			handler(log)
		}
	}

	liveFrom := head
	if fromBlock > head {
		liveFrom = fromBlock
	}

	return w.Subscribe(ctx, gobind.EventNFTMintedWithReward, liveFrom, handler, dedup)
}

func (s *subscription) run(ctx context.Context) {
	s.log.WithField("from_block", s.cursor).Info("subscription started")
	defer s.log.Info("subscription finished")

	runner, name := s.poll, "rewards-poll"
	if s.opts.Mode == ModePush {
		runner, name = s.push, "rewards-push"
	}

	running.WithBackOff(ctx, s.log, name, runner, s.opts.PollPeriod, s.opts.PollPeriod, maxAbnormalPeriod)
}

// poll delivers logs of every complete window between the cursor and the
// head minus BlockWindow.
func (s *subscription) poll(ctx context.Context) error {
	head, err := s.source.BlockNumber(ctx)
	if err != nil {
		metrics.RPCConnection.Set(metrics.RPCDisconnected)
		return errors.Wrap(err, "failed to get recent block")
	}

	if head < s.opts.BlockWindow {
		return nil
	}

	return s.catchUp(ctx, head-s.opts.BlockWindow)
}

func (s *subscription) catchUp(ctx context.Context, lastBlock uint64) error {
	if lastBlock < s.cursor {
		s.log.Debugf("Skipping window: start %d > finish %d", s.cursor, lastBlock)
		return nil
	}

	for s.cursor <= lastBlock {
		end := s.cursor + MaxBlocksPerRequest - 1
		if end > lastBlock {
			end = lastBlock
		}

		logs, err := s.window(ctx, s.event, s.cursor, end)
		if err != nil {
			return err
		}

		for _, raw := range logs {
			if !s.deliver(ctx, raw) {
				return nil
			}
		}

		// End in FilterLogs is inclusive
		s.cursor = end + 1
		s.prune()
	}

	return nil
}

// push subscribes to new logs, backfills from the cursor to the head and then
// listens on the subscription until it fails or ctx is done. Logs present in
// both the backfill and the subscription are delivered once.
func (s *subscription) push(ctx context.Context) error {
	query, err := s.contract.FilterQuery(s.event, nil, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build log query")
	}

	const chanelBufSize = 10
	sink := make(chan types.Log, chanelBufSize)

	sub, err := s.source.SubscribeFilterLogs(ctx, query, sink)
	if err != nil {
		metrics.RPCConnection.Set(metrics.RPCDisconnected)
		return errors.Wrap(err, "failed to subscribe to logs")
	}
	defer sub.Unsubscribe()

	metrics.RPCConnection.Set(metrics.RPCAvailable)

	head, err := s.source.BlockNumber(ctx)
	if err != nil {
		metrics.RPCConnection.Set(metrics.RPCDisconnected)
		return errors.Wrap(err, "failed to get recent block")
	}

	if err := s.catchUp(ctx, head); err != nil {
		return errors.Wrap(err, "failed to backfill subscription")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			metrics.RPCConnection.Set(metrics.RPCDisconnected)
			return errors.Wrap(err, "log subscription failed")
		case raw := <-sink:
			if !s.deliver(ctx, raw) {
				return nil
			}
			// the block may still have undelivered logs, dedup covers a replay of it
			if raw.BlockNumber > s.cursor {
				s.cursor = raw.BlockNumber
				s.prune()
			}
		}
	}
}

// prune forgets delivered logs that are too old to be replayed.
func (s *subscription) prune() {
	if s.cursor > dedupDepth {
		s.dedup.Prune(s.cursor - dedupDepth)
	}
}

// deliver hands a log to the handler unless it is foreign, removed or a
// duplicate. It returns false once ctx is done.
func (s *subscription) deliver(ctx context.Context, raw types.Log) bool {
	if ctx.Err() != nil {
		return false
	}
	if raw.Removed {
		return true
	}

	decoded := s.contract.Decode(raw)
	if decoded.Event != s.event {
		return true
	}

	if !s.dedup.Add(raw) {
		s.log.WithFields(logan.F{
			"tx_hash":   raw.TxHash.Hex(),
			"log_index": raw.Index,
		}).Debug("skipping duplicate log")
		return true
	}

	s.log.WithFields(logan.F{
		"tx_hash":      raw.TxHash.Hex(),
		"block_number": raw.BlockNumber,
		"log_index":    raw.Index,
	}).Debug("got event")

	metrics.EventsDelivered.WithLabelValues(s.event).Inc()
	s.handler(decoded)

	return true
}
