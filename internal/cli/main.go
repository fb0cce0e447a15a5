package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/alecthomas/kingpin"
	"github.com/rarimo/nft-reward-svc/internal/config"
	"github.com/rarimo/nft-reward-svc/internal/services/rewardlog"
	"github.com/rarimo/nft-reward-svc/pkg/ipfs"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func Run(args []string) bool {
	log := logan.New()

	defer func() {
		if rvr := recover(); rvr != nil {
			log.WithRecover(rvr).Error("app panicked")
		}
	}()

	cfg := config.New(kv.MustFromEnv())
	log = cfg.Log()

	app := kingpin.New("nft-reward-svc", "")

	runCmd := app.Command("run", "run command")

	allCmd := runCmd.Command("all", "run all services (ipfs proxy, reward log)")
	proxyCmd := runCmd.Command("proxy", "run ipfs gateway proxy")
	rewardsCmd := runCmd.Command("rewards", "run reward event log")

	mintCmd := app.Command("mint", "mint an nft")

	mintFileCmd := mintCmd.Command("file", "upload an image with its metadata and mint it")
	mintFilePath := mintFileCmd.Arg("path", "image file").Required().ExistingFile()
	mintFileName := mintFileCmd.Flag("name", "nft name").Default(defaultNFTName).String()
	mintFileDescription := mintFileCmd.Flag("description", "nft description").Default(defaultNFTDescription).String()

	mintURICmd := mintCmd.Command("uri", "mint an nft with already pinned metadata")
	mintURI := mintURICmd.Arg("uri", "metadata uri").Required().String()

	mintAwaitCmd := mintCmd.Command("await", "wait for a submitted mint transaction")
	mintAwaitHash := mintAwaitCmd.Arg("tx_hash", "transaction hash").Required().String()

	galleryCmd := app.Command("gallery", "list nfts with their metadata")
	galleryOwner := galleryCmd.Flag("owner", "list only nfts of this owner").String()
	galleryMine := galleryCmd.Flag("mine", "list only nfts of the configured wallet").Bool()

	balanceCmd := app.Command("balance", "show reward token balance")
	balanceOwner := balanceCmd.Flag("owner", "account, the configured wallet by default").String()

	cmd, err := app.Parse(args[1:])
	if err != nil {
		log.WithError(err).Error("failed to parse arguments")
		return false
	}

	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := func(f func(ctx context.Context, cfg config.Config), name string) {
		wg.Add(1)
		go func() {
			defer func() {
				wg.Done()
				cfg.Log().WithField("who", name).Info("finished routine")
			}()

			cfg.Log().WithField("who", name).Info("starting routine")
			f(ctx, cfg)
		}()
	}

	runProxy := func(ctx context.Context, cfg config.Config) {
		ipfs.RunProxy(ctx, cfg)
	}

	// one shot commands are cancelled by the same signals as runners
	do := func(f func(ctx context.Context) error) bool {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		if err := f(ctx); err != nil {
			log.WithError(err).Error("command failed")
			return false
		}
		return true
	}

	commands := newCommands(cfg)

	switch cmd {
	case allCmd.FullCommand():
		cfg.Log().Info("starting all services")
		run(runProxy, "ipfs-proxy")
		run(rewardlog.RunRewardLog, "reward-log")
	case proxyCmd.FullCommand():
		run(runProxy, "ipfs-proxy")
	case rewardsCmd.FullCommand():
		run(rewardlog.RunRewardLog, "reward-log")
	case mintFileCmd.FullCommand():
		return do(func(ctx context.Context) error {
			return commands.mintFile(ctx, *mintFilePath, *mintFileName, *mintFileDescription)
		})
	case mintURICmd.FullCommand():
		return do(func(ctx context.Context) error {
			return commands.mintURI(ctx, *mintURI)
		})
	case mintAwaitCmd.FullCommand():
		return do(func(ctx context.Context) error {
			return commands.await(ctx, *mintAwaitHash)
		})
	case galleryCmd.FullCommand():
		return do(func(ctx context.Context) error {
			return commands.gallery(ctx, *galleryOwner, *galleryMine)
		})
	case balanceCmd.FullCommand():
		return do(func(ctx context.Context) error {
			return commands.balance(ctx, *balanceOwner)
		})
	default:
		panic(errors.From(errors.New("unknown command"), logan.F{
			"raw_command": cmd,
		}))
	}

	gracefulStop := make(chan os.Signal, 1)
	signal.Notify(gracefulStop, syscall.SIGTERM, syscall.SIGINT)

	wgch := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgch)
	}()

	select {
	case <-wgch:
		cfg.Log().Warn("all services stopped")
	case <-gracefulStop:
		cfg.Log().Info("received signal to stop")
		cancel()
		<-wgch
	}

	return true
}
