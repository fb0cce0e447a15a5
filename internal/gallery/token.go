package gallery

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rarimo/nft-reward-svc/pkg/metadata"
	"gitlab.com/distributed_lab/logan/v3"
)

// token reads the on-chain part of a gallery entry. Read failures are logged
// and leave the matching fields empty.
func (l *Loader) token(ctx context.Context, tokenID *big.Int, owner *common.Address) NFT {
	log := l.log.WithField("token_id", tokenID.String())
	opts := &bind.CallOpts{Context: ctx}

	result := NFT{TokenID: tokenID}

	uri, err := l.nft.TokenURI(opts, tokenID)
	if err != nil {
		log.WithError(err).Warn("failed to get token uri")
	} else {
		result.TokenURI = metadata.ContentURI(uri)
	}

	creator, err := l.nft.GetCreator(opts, tokenID)
	switch {
	case err == nil:
		result.Creator = creator
	case owner != nil:
		log.WithError(err).Debug("failed to get creator, falling back to owner")
		result.Creator = *owner
	default:
		log.WithError(err).Warn("failed to get creator")
	}

	if l.rewards == nil {
		return result
	}

	event, err := l.rewards.RewardOf(ctx, tokenID, l.fromBlock)
	if err != nil {
		log.WithError(err).WithFields(logan.F{
			"from_block": l.fromBlock,
		}).Warn("failed to find mint reward")
		return result
	}
	if event != nil {
		result.Reward = event.Amount
	}

	return result
}
