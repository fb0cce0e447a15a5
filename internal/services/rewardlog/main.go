package rewardlog

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rarimo/nft-reward-svc/internal/amount"
	"github.com/rarimo/nft-reward-svc/internal/config"
	"github.com/rarimo/nft-reward-svc/internal/rewards"
	"github.com/rarimo/nft-reward-svc/pkg/gobind"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/distributed_lab/running"
)

const (
	defaultDecimals = 18

	defaultBackOff = time.Second
	maxBackOff     = 30 * time.Second
)

// NewWatcher builds the reward watcher of the configured contracts.
func NewWatcher(cfg config.Config) *rewards.Watcher {
	eth := cfg.Ethereum()

	var token rewards.TokenReader
	if eth.TokenContract != (common.Address{}) {
		token = gobind.NewCreatorToken(eth.TokenContract, eth.RPCClient)
	}

	return rewards.NewWatcher(
		cfg.Log().WithField("who", "reward-watcher"),
		eth.RPCClient,
		gobind.NewArtNFT(eth.NFTContract, eth.RPCClient),
		token,
		eth.WatcherOpts(),
	)
}

// RunRewardLog replays reward events from the configured start block and
// logs every new one until ctx is done.
func RunRewardLog(ctx context.Context, cfg config.Config) {
	const runnerName = "reward_log"

	log := cfg.Log().WithField("who", runnerName)
	eth := cfg.Ethereum()
	watcher := NewWatcher(cfg)

	decimals := uint8(defaultDecimals)
	if eth.TokenContract != (common.Address{}) {
		running.UntilSuccess(ctx, log, "reward-decimals", func(ctx context.Context) (bool, error) {
			d, err := gobind.NewCreatorToken(eth.TokenContract, eth.RPCClient).Decimals(&bind.CallOpts{Context: ctx})
			if err != nil {
				return false, errors.Wrap(err, "failed to get reward token decimals")
			}
			decimals = d
			return true, nil
		}, defaultBackOff, maxBackOff)
	}

	handler := func(raw gobind.DecodedLog) {
		event, ok := rewards.EventFromLog(raw)
		if !ok {
			return
		}

		log.WithFields(logan.F{
			"token_id":     event.TokenID.String(),
			"creator":      event.Creator.Hex(),
			"amount":       amount.Format(event.Amount, decimals),
			"block_number": event.BlockNumber,
			"tx_hash":      event.TxHash.Hex(),
			"log_index":    event.LogIndex,
		}).Info("reward minted")
	}

	var unsubscribe rewards.Unsubscribe
	running.UntilSuccess(ctx, log, "reward-follow", func(ctx context.Context) (bool, error) {
		var err error
		unsubscribe, err = watcher.Follow(ctx, eth.StartFromBlock, handler)
		if err != nil {
			return false, errors.Wrap(err, "failed to follow rewards", logan.F{
				"from_block": eth.StartFromBlock,
			})
		}
		return true, nil
	}, defaultBackOff, maxBackOff)

	<-ctx.Done()
	if unsubscribe != nil {
		unsubscribe()
	}
}
