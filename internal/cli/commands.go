package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rarimo/nft-reward-svc/internal/amount"
	"github.com/rarimo/nft-reward-svc/internal/config"
	"github.com/rarimo/nft-reward-svc/internal/gallery"
	"github.com/rarimo/nft-reward-svc/internal/mint"
	"github.com/rarimo/nft-reward-svc/internal/rewards"
	"github.com/rarimo/nft-reward-svc/internal/services/rewardlog"
	"github.com/rarimo/nft-reward-svc/pkg/gobind"
	"github.com/rarimo/nft-reward-svc/pkg/metadata"
	"github.com/rarimo/nft-reward-svc/pkg/pinata"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	defaultNFTName        = "Untitled NFT"
	defaultNFTDescription = "No description provided"

	metadataTimeout = time.Minute
	rewardDecimals  = 18
)

type commands struct {
	cfg config.Config
	log *logan.Entry
}

func newCommands(cfg config.Config) *commands {
	return &commands{
		cfg: cfg,
		log: cfg.Log(),
	}
}

func (c *commands) nft() *gobind.ArtNFT {
	eth := c.cfg.Ethereum()
	return gobind.NewArtNFT(eth.NFTContract, eth.RPCClient)
}

func (c *commands) minter() *mint.Minter {
	return mint.NewMinter(c.log.WithField("who", "minter"), c.nft(), c.cfg.Ethereum().RPCClient, c.cfg.Wallet())
}

func (c *commands) watcher() *rewards.Watcher {
	return rewardlog.NewWatcher(c.cfg)
}

func (c *commands) mintFile(ctx context.Context, path, name, description string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open image", logan.F{
			"path": path,
		})
	}
	defer file.Close()

	pins := c.cfg.Pinata()

	image, err := pins.UploadFile(ctx, filepath.Base(path), file)
	if err != nil {
		return errors.Wrap(err, "failed to upload image")
	}
	c.log.WithField("image", string(image)).Info("image pinned")

	uri, err := pins.UploadJSON(ctx, pinata.NewMetadataDocument(name, description, image, time.Now()))
	if err != nil {
		return errors.Wrap(err, "failed to upload metadata")
	}
	c.log.WithField("uri", string(uri)).Info("metadata pinned")

	return c.mintURI(ctx, string(uri))
}

func (c *commands) mintURI(ctx context.Context, uri string) error {
	result, err := c.minter().Mint(ctx, metadata.ContentURI(uri))
	if err != nil {
		return errors.Wrap(err, "failed to mint")
	}

	return c.printMint(ctx, result)
}

func (c *commands) await(ctx context.Context, hash string) error {
	result, err := c.minter().Await(ctx, common.HexToHash(hash))
	if err != nil {
		return errors.Wrap(err, "failed to await mint")
	}

	return c.printMint(ctx, result)
}

func (c *commands) printMint(ctx context.Context, result *mint.Result) error {
	return printJSON(struct {
		*mint.Result
		RewardDisplay string `json:"reward_display"`
	}{
		Result:        result,
		RewardDisplay: amount.Format(result.Reward, c.decimals(ctx)),
	})
}

func (c *commands) gallery(ctx context.Context, owner string, mine bool) error {
	var filter *common.Address

	switch {
	case mine:
		address, err := c.cfg.Wallet().Address()
		if err != nil {
			return errors.Wrap(err, "failed to get wallet address")
		}
		filter = &address
	case owner != "":
		address, err := parseAddress(owner)
		if err != nil {
			return err
		}
		filter = &address
	}

	log := c.log.WithField("who", "gallery")
	loader := metadata.NewCachedLoader(log, metadata.NewClient(http.DefaultClient, c.cfg.IPFS(), metadataTimeout))
	fetcher := metadata.NewFetcher(log, loader, 0)
	nfts, err := gallery.
		NewLoader(log, c.nft(), c.watcher(), fetcher, c.cfg.Ethereum().DeployBlock).
		Load(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "failed to load gallery")
	}

	return printJSON(nfts)
}

func (c *commands) balance(ctx context.Context, owner string) error {
	var (
		address common.Address
		err     error
	)

	if owner != "" {
		address, err = parseAddress(owner)
	} else {
		address, err = c.cfg.Wallet().Address()
	}
	if err != nil {
		return errors.Wrap(err, "failed to resolve account")
	}

	balance, err := c.watcher().Balance(ctx, address)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}

	return printJSON(struct {
		*rewards.Balance
		Display string `json:"display"`
	}{
		Balance: balance,
		Display: balance.String(),
	})
}

// decimals of the reward token, 18 when it cannot be read.
func (c *commands) decimals(ctx context.Context) uint8 {
	eth := c.cfg.Ethereum()
	if eth.TokenContract == (common.Address{}) {
		return rewardDecimals
	}

	token := gobind.NewCreatorToken(eth.TokenContract, eth.RPCClient)
	decimals, err := token.Decimals(&bind.CallOpts{Context: ctx})
	if err != nil {
		c.log.WithError(err).Warn("failed to get reward token decimals")
		return rewardDecimals
	}

	return decimals
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.From(errors.New("invalid address"), logan.F{
			"address": raw,
		})
	}
	return common.HexToAddress(raw), nil
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(v), "failed to print result")
}
