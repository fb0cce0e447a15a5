package config

import (
	"crypto/ecdsa"
	"reflect"

	"github.com/rarimo/nft-reward-svc/internal/wallet"
	"github.com/spf13/cast"
	"gitlab.com/distributed_lab/figure"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Wallet is the configured signing account, nil when no private key is set.
func (c *config) Wallet() *wallet.Session {
	return c.wallet.Do(func() interface{} {
		var cfg struct {
			PrivateKey *ecdsa.PrivateKey `fig:"private_key"`
		}

		err := figure.
			Out(&cfg).
			With(figure.BaseHooks, walletHooks).
			From(kv.MustGetStringMap(c.getter, "wallet")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out wallet config"))
		}

		if cfg.PrivateKey == nil {
			c.Log().Warn("wallet private key is not configured, minting is disabled")
			return (*wallet.Session)(nil)
		}

		return wallet.NewSession(cfg.PrivateKey, c.Ethereum().ChainID)
	}).(*wallet.Session)
}

var walletHooks = figure.Hooks{
	"*ecdsa.PrivateKey": func(raw interface{}) (reflect.Value, error) {
		v, err := cast.ToStringE(raw)
		if err != nil {
			return reflect.Value{}, errors.Wrap(err, "expected string")
		}

		key, err := wallet.ParseKey(v)
		if err != nil {
			return reflect.Value{}, err
		}

		return reflect.ValueOf(key), nil
	},
}
