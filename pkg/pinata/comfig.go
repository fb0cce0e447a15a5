package pinata

import (
	"net/http"
	"net/url"
	"time"

	"gitlab.com/distributed_lab/figure"
	"gitlab.com/distributed_lab/kit/comfig"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Pinater interface {
	Pinata() *Client
}

type pinater struct {
	getter kv.Getter
	once   comfig.Once
}

func NewPinater(getter kv.Getter) Pinater {
	return &pinater{
		getter: getter,
	}
}

func (c *pinater) Pinata() *Client {
	return c.once.Do(func() interface{} {
		var config struct {
			APIURL    *url.URL      `fig:"api_url"`
			APIKey    string        `fig:"api_key,required"`
			SecretKey string        `fig:"secret_key,required"`
			Timeout   time.Duration `fig:"timeout"`
		}

		err := figure.
			Out(&config).
			From(kv.MustGetStringMap(c.getter, "pinata")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out pinata"))
		}

		if config.APIURL == nil {
			config.APIURL, _ = url.Parse(DefaultAPIURL)
		}
		if config.Timeout == 0 {
			config.Timeout = time.Minute
		}

		return NewClient(&http.Client{Timeout: config.Timeout}, config.APIURL, config.APIKey, config.SecretKey)
	}).(*Client)
}
