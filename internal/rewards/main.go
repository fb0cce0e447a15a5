package rewards

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rarimo/nft-reward-svc/internal/amount"
	"github.com/rarimo/nft-reward-svc/internal/metrics"
	"github.com/rarimo/nft-reward-svc/pkg/gobind"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const MaxBlocksPerRequest = 100

type Mode string

const (
	ModePoll Mode = "poll"
	ModePush Mode = "push"
)

const defaultPollPeriod = 5 * time.Second

type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

type Decoder interface {
	Address() common.Address
	EventID(name string) (common.Hash, error)
	FilterQuery(name string, from, to *big.Int, query ...[]interface{}) (ethereum.FilterQuery, error)
	Decode(log types.Log) gobind.DecodedLog
}

type TokenReader interface {
	BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error)
	Decimals(opts *bind.CallOpts) (uint8, error)
	Symbol(opts *bind.CallOpts) (string, error)
}

type Opts struct {
	// BlockWindow is how many blocks poll mode stays behind the head.
	BlockWindow uint64
	PollPeriod  time.Duration
	Mode        Mode
}

// Handler receives decoded logs of one subscription, one call at a time.
type Handler func(log gobind.DecodedLog)

// Event is a decoded NFTMintedWithReward log.
type Event struct {
	TokenID     *big.Int       `json:"token_id"`
	Creator     common.Address `json:"creator"`
	Amount      *big.Int       `json:"amount"`
	BlockNumber uint64         `json:"block_number"`
	TxHash      common.Hash    `json:"tx_hash"`
	LogIndex    uint           `json:"log_index"`
}

func EventFromLog(log gobind.DecodedLog) (Event, bool) {
	if log.Event != gobind.EventNFTMintedWithReward || log.Minted == nil {
		return Event{}, false
	}

	return Event{
		TokenID:     log.Minted.TokenId,
		Creator:     log.Minted.Creator,
		Amount:      log.Minted.Reward,
		BlockNumber: log.Raw.BlockNumber,
		TxHash:      log.Raw.TxHash,
		LogIndex:    log.Raw.Index,
	}, true
}

type Balance struct {
	Owner    common.Address `json:"owner"`
	Amount   *big.Int       `json:"amount"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol"`
}

func (b Balance) String() string {
	return amount.Format(b.Amount, b.Decimals) + " " + b.Symbol
}

// Watcher reads reward history and follows new events of the ArtNFT contract.
type Watcher struct {
	log      *logan.Entry
	source   LogSource
	contract Decoder
	token    TokenReader
	opts     Opts
}

func NewWatcher(log *logan.Entry, source LogSource, contract Decoder, token TokenReader, opts Opts) *Watcher {
	if opts.PollPeriod <= 0 {
		opts.PollPeriod = defaultPollPeriod
	}
	if opts.Mode == "" {
		opts.Mode = ModePoll
	}

	return &Watcher{
		log:      log,
		source:   source,
		contract: contract,
		token:    token,
		opts:     opts,
	}
}

// History returns the reward events of blocks [from, to] in chain order.
func (w *Watcher) History(ctx context.Context, from, to uint64) ([]Event, error) {
	logs, err := w.history(ctx, gobind.EventNFTMintedWithReward, from, to)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(logs))
	for _, log := range logs {
		if event, ok := EventFromLog(log); ok {
			events = append(events, event)
		}
	}

	return events, nil
}

// Rewards returns reward events of a single creator from fromBlock up to the
// current head.
func (w *Watcher) Rewards(ctx context.Context, creator common.Address, fromBlock uint64) ([]Event, error) {
	head, err := w.source.BlockNumber(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recent block")
	}

	events, err := w.History(ctx, fromBlock, head)
	if err != nil {
		return nil, err
	}

	result := make([]Event, 0, len(events))
	for _, event := range events {
		if event.Creator == creator {
			result = append(result, event)
		}
	}

	return result, nil
}

// RewardOf finds the mint event of tokenID. It returns nil when the token
// has no such event since fromBlock.
func (w *Watcher) RewardOf(ctx context.Context, tokenID *big.Int, fromBlock uint64) (*Event, error) {
	query, err := w.contract.FilterQuery(gobind.EventNFTMintedWithReward, new(big.Int).SetUint64(fromBlock), nil, []interface{}{tokenID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build reward query")
	}

	logs, err := w.source.FilterLogs(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to filter reward logs", logan.F{
			"token_id": tokenID.String(),
		})
	}

	for _, raw := range logs {
		if raw.Removed {
			continue
		}
		if event, ok := EventFromLog(w.contract.Decode(raw)); ok {
			return &event, nil
		}
	}

	return nil, nil
}

func (w *Watcher) Balance(ctx context.Context, owner common.Address) (*Balance, error) {
	if w.token == nil {
		return nil, errors.New("reward token is not configured")
	}

	opts := &bind.CallOpts{Context: ctx}

	balance, err := w.token.BalanceOf(opts, owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward balance", logan.F{
			"owner": owner.Hex(),
		})
	}

	decimals, err := w.token.Decimals(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward token decimals")
	}

	symbol, err := w.token.Symbol(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward token symbol")
	}

	return &Balance{
		Owner:    owner,
		Amount:   balance,
		Decimals: decimals,
		Symbol:   symbol,
	}, nil
}

func (w *Watcher) history(ctx context.Context, event string, from, to uint64) ([]gobind.DecodedLog, error) {
	var result []gobind.DecodedLog

	for start := from; start <= to; start += MaxBlocksPerRequest {
		end := start + MaxBlocksPerRequest - 1
		if end > to {
			end = to
		}

		logs, err := w.window(ctx, event, start, end)
		if err != nil {
			return nil, err
		}

		for _, raw := range logs {
			if raw.Removed {
				continue
			}
			if decoded := w.contract.Decode(raw); decoded.Event == event {
				result = append(result, decoded)
			}
		}

		if end == to {
			break
		}
	}

	return result, nil
}

// window fetches raw logs of blocks [from, to], both inclusive.
func (w *Watcher) window(ctx context.Context, event string, from, to uint64) ([]types.Log, error) {
	query, err := w.contract.FilterQuery(event, new(big.Int).SetUint64(from), new(big.Int).SetUint64(to))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build log query")
	}

	logs, err := w.source.FilterLogs(ctx, query)
	if err != nil {
		metrics.RPCConnection.Set(metrics.RPCDisconnected)
		return nil, errors.Wrap(err, "failed to filter logs", logan.F{
			"event": event,
			"from":  from,
			"to":    to,
		})
	}

	metrics.RPCConnection.Set(metrics.RPCAvailable)
	return logs, nil
}
