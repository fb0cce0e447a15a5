package config

import (
	"context"
	"math/big"
	"reflect"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rarimo/nft-reward-svc/internal/rewards"
	"github.com/spf13/cast"
	"gitlab.com/distributed_lab/figure"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Ethereum struct {
	RPCClient *ethclient.Client `fig:"rpc,required"`
	ChainID   *big.Int          `fig:"chain_id"`

	NFTContract   common.Address `fig:"nft_contract,required"`
	TokenContract common.Address `fig:"token_contract"`

	BlockWindow    uint64        `fig:"block_window"`
	DeployBlock    uint64        `fig:"deploy_block"`
	StartFromBlock uint64        `fig:"start_from_block"`
	PollPeriod     time.Duration `fig:"poll_period"`
	LiveMode       rewards.Mode  `fig:"live_mode"`
}

func (e *Ethereum) WatcherOpts() rewards.Opts {
	return rewards.Opts{
		BlockWindow: e.BlockWindow,
		PollPeriod:  e.PollPeriod,
		Mode:        e.LiveMode,
	}
}

func (c *config) Ethereum() *Ethereum {
	return c.ethereum.Do(func() interface{} {
		cfg := Ethereum{
			PollPeriod: 5 * time.Second,
			LiveMode:   rewards.ModePoll,
		}

		err := figure.
			Out(&cfg).
			With(figure.BaseHooks, evmHooks).
			From(kv.MustGetStringMap(c.getter, "evm")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out evm config"))
		}

		if cfg.ChainID == nil {
			cfg.ChainID, err = cfg.RPCClient.ChainID(context.TODO())
			if err != nil {
				panic(errors.Wrap(err, "failed to fetch chain id"))
			}
		}

		if cfg.StartFromBlock == 0 {
			block, err := cfg.RPCClient.BlockNumber(context.TODO())
			if err != nil {
				panic(errors.Wrap(err, "failed to fetch last block"))
			}

			cfg.StartFromBlock = block
		}

		return &cfg
	}).(*Ethereum)
}

var evmHooks = figure.Hooks{
	"common.Address": func(raw interface{}) (reflect.Value, error) {
		v, err := cast.ToStringE(raw)
		if err != nil {
			return reflect.Value{}, errors.Wrap(err, "expected string")
		}
		if !common.IsHexAddress(v) {
			return reflect.Value{}, errors.From(errors.New("invalid address"), logan.F{
				"value": v,
			})
		}

		return reflect.ValueOf(common.HexToAddress(v)), nil
	},
	"*ethclient.Client": func(raw interface{}) (reflect.Value, error) {
		v, err := cast.ToStringE(raw)
		if err != nil {
			return reflect.Value{}, errors.Wrap(err, "expected string")
		}

		client, err := ethclient.Dial(v)
		if err != nil {
			return reflect.Value{}, errors.Wrap(err, "failed to dial eth rpc")
		}

		return reflect.ValueOf(client), nil
	},
	"*big.Int": func(raw interface{}) (reflect.Value, error) {
		v, err := cast.ToStringE(raw)
		if err != nil {
			return reflect.Value{}, errors.Wrap(err, "expected number")
		}

		result, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return reflect.Value{}, errors.From(errors.New("invalid integer"), logan.F{
				"value": v,
			})
		}

		return reflect.ValueOf(result), nil
	},
	"rewards.Mode": func(raw interface{}) (reflect.Value, error) {
		v, err := cast.ToStringE(raw)
		if err != nil {
			return reflect.Value{}, errors.Wrap(err, "expected string")
		}

		switch mode := rewards.Mode(v); mode {
		case rewards.ModePoll, rewards.ModePush:
			return reflect.ValueOf(mode), nil
		default:
			return reflect.Value{}, errors.From(errors.New("unknown live mode"), logan.F{
				"value": v,
			})
		}
	},
}
