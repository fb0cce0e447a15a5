package gallery

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rarimo/nft-reward-svc/internal/rewards"
	"github.com/rarimo/nft-reward-svc/pkg/metadata"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type NFTReader interface {
	GetAllTokenIds(opts *bind.CallOpts) ([]*big.Int, error)
	BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error)
	TokenOfOwnerByIndex(opts *bind.CallOpts, owner common.Address, index *big.Int) (*big.Int, error)
	TokenURI(opts *bind.CallOpts, tokenID *big.Int) (string, error)
	GetCreator(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error)
}

type RewardFinder interface {
	RewardOf(ctx context.Context, tokenID *big.Int, fromBlock uint64) (*rewards.Event, error)
}

type MetadataFetcher interface {
	FetchAll(ctx context.Context, requests []metadata.Request) []*metadata.Record
}

// NFT is a gallery entry.
type NFT struct {
	TokenID  *big.Int            `json:"token_id"`
	Creator  common.Address      `json:"creator"`
	TokenURI metadata.ContentURI `json:"token_uri"`
	Metadata *metadata.Record    `json:"metadata"`
	Reward   *big.Int            `json:"reward,omitempty"`
}

type Loader struct {
	log       *logan.Entry
	nft       NFTReader
	rewards   RewardFinder
	fetcher   MetadataFetcher
	fromBlock uint64
}

// NewLoader creates a gallery loader. rewards may be nil, then entries carry
// no reward.
func NewLoader(log *logan.Entry, nft NFTReader, rewards RewardFinder, fetcher MetadataFetcher, fromBlock uint64) *Loader {
	return &Loader{
		log:       log,
		nft:       nft,
		rewards:   rewards,
		fetcher:   fetcher,
		fromBlock: fromBlock,
	}
}

// Load lists the tokens of owner, or every minted token when owner is nil,
// with their metadata. A token whose chain data cannot be read is still
// listed, with placeholder metadata.
func (l *Loader) Load(ctx context.Context, owner *common.Address) ([]NFT, error) {
	ids, err := l.TokenIDs(ctx, owner)
	if err != nil {
		return nil, err
	}

	nfts := make([]NFT, len(ids))
	requests := make([]metadata.Request, len(ids))

	for i, id := range ids {
		nfts[i] = l.token(ctx, id, owner)
		requests[i] = metadata.Request{
			TokenID: id,
			URI:     nfts[i].TokenURI,
		}
	}

	records := l.fetcher.FetchAll(ctx, requests)
	for i := range nfts {
		nfts[i].Metadata = records[i]
	}

	return nfts, nil
}

// TokenIDs enumerates token ids in contract order, dropping repeats.
func (l *Loader) TokenIDs(ctx context.Context, owner *common.Address) ([]*big.Int, error) {
	opts := &bind.CallOpts{Context: ctx}

	var ids []*big.Int
	if owner == nil {
		all, err := l.nft.GetAllTokenIds(opts)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get all token ids")
		}
		ids = all
	} else {
		balance, err := l.nft.BalanceOf(opts, *owner)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get balance", logan.F{
				"owner": owner.Hex(),
			})
		}

		for i := int64(0); i < balance.Int64(); i++ {
			id, err := l.nft.TokenOfOwnerByIndex(opts, *owner, big.NewInt(i))
			if err != nil {
				return nil, errors.Wrap(err, "failed to get token of owner", logan.F{
					"owner": owner.Hex(),
					"index": i,
				})
			}
			ids = append(ids, id)
		}
	}

	seen := make(map[string]struct{}, len(ids))
	result := make([]*big.Int, 0, len(ids))
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, ok := seen[id.String()]; ok {
			continue
		}
		seen[id.String()] = struct{}{}
		result = append(result, id)
	}

	return result, nil
}
