package ipfs

import (
	"net/http"
	"reflect"
	"time"

	"github.com/spf13/cast"
	"gitlab.com/distributed_lab/figure"
	"gitlab.com/distributed_lab/kit/comfig"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type IPFSer interface {
	IPFS() *Resolver
}

type ipfser struct {
	getter   kv.Getter
	logger   comfig.Logger
	observer AttemptObserver
	once     comfig.Once
}

func NewIPFSer(getter kv.Getter, logger comfig.Logger, observer AttemptObserver) IPFSer {
	return &ipfser{
		getter:   getter,
		logger:   logger,
		observer: observer,
	}
}

type GatewayConfig struct {
	Gateways GatewayList   `fig:"gateways"`
	Timeout  time.Duration `fig:"timeout"`
	Passes   int           `fig:"passes"`
	Sticky   bool          `fig:"sticky"`
}

func (c *ipfser) IPFS() *Resolver {
	return c.once.Do(func() interface{} {
		config := GatewayConfig{
			Gateways: DefaultGateways,
			Timeout:  30 * time.Second,
			Passes:   1,
		}

		err := figure.
			Out(&config).
			With(figure.BaseHooks, gatewayListHook).
			From(kv.MustGetStringMap(c.getter, "ipfs")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out ipfs"))
		}

		return NewResolver(
			c.logger.Log().WithField("who", "ipfs-resolver"),
			&http.Client{Timeout: config.Timeout},
			config.Gateways,
			ResolverOpts{
				Passes:   config.Passes,
				Sticky:   config.Sticky,
				Observer: c.observer,
			},
		)
	}).(*Resolver)
}

var gatewayListHook = figure.Hooks{
	"ipfs.GatewayList": func(value interface{}) (reflect.Value, error) {
		raw, err := cast.ToStringSliceE(value)
		if err != nil {
			return reflect.Value{}, errors.Wrap(err, "expected list of gateway prefixes")
		}

		list, err := NewGatewayList(raw...)
		if err != nil {
			return reflect.Value{}, errors.Wrap(err, "invalid gateway list")
		}

		return reflect.ValueOf(list), nil
	},
}
