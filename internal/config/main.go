package config

import (
	"github.com/rarimo/nft-reward-svc/internal/metrics"
	"github.com/rarimo/nft-reward-svc/internal/wallet"
	"github.com/rarimo/nft-reward-svc/pkg/ipfs"
	"github.com/rarimo/nft-reward-svc/pkg/pinata"
	"gitlab.com/distributed_lab/kit/comfig"
	"gitlab.com/distributed_lab/kit/kv"
)

type Config interface {
	comfig.Logger
	comfig.Listenerer
	ipfs.IPFSer
	pinata.Pinater

	Ethereum() *Ethereum
	Wallet() *wallet.Session
}

type config struct {
	comfig.Logger
	comfig.Listenerer
	ipfs.IPFSer
	pinata.Pinater

	getter   kv.Getter
	ethereum comfig.Once
	wallet   comfig.Once
}

func New(getter kv.Getter) Config {
	logger := comfig.NewLogger(getter, comfig.LoggerOpts{})

	return &config{
		getter:     getter,
		Logger:     logger,
		Listenerer: comfig.NewListenerer(getter),
		IPFSer:     ipfs.NewIPFSer(getter, logger, metrics.GatewayObserver{}),
		Pinater:    pinata.NewPinater(getter),
	}
}
