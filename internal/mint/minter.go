package mint

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rarimo/nft-reward-svc/pkg/gobind"
	"github.com/rarimo/nft-reward-svc/pkg/metadata"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type NFTContract interface {
	Address() common.Address
	MintNFT(opts *bind.TransactOpts, tokenURI string) (*types.Transaction, error)
	Decode(log types.Log) gobind.DecodedLog
}

type Backend interface {
	bind.DeployBackend
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
}

type Signer interface {
	Signer(ctx context.Context) (*bind.TransactOpts, error)
}

type Result struct {
	TokenID     *big.Int       `json:"token_id"`
	Creator     common.Address `json:"creator"`
	Reward      *big.Int       `json:"reward"`
	TxHash      common.Hash    `json:"tx_hash"`
	BlockNumber uint64         `json:"block_number"`
	LogIndex    uint           `json:"log_index"`
}

type Minter struct {
	log     *logan.Entry
	nft     NFTContract
	backend Backend
	signer  Signer
}

func NewMinter(log *logan.Entry, nft NFTContract, backend Backend, signer Signer) *Minter {
	return &Minter{
		log:     log,
		nft:     nft,
		backend: backend,
		signer:  signer,
	}
}

// Mint submits mintNFT(uri) and blocks until the transaction is mined or ctx
// is done. A cancelled wait leaves the transaction pending; the returned error
// carries its hash so the caller can Await it later.
func (m *Minter) Mint(ctx context.Context, uri metadata.ContentURI) (*Result, error) {
	if m.signer == nil {
		return nil, ErrNoActiveWallet
	}

	opts, err := m.signer.Signer(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := m.nft.MintNFT(opts, string(uri))
	if err != nil {
		return nil, classify(err)
	}

	m.log.WithFields(logan.F{
		"tx_hash": tx.Hash().Hex(),
		"uri":     string(uri),
		"from":    opts.From.Hex(),
	}).Info("mint transaction submitted")

	return m.wait(ctx, tx)
}

// Await resumes waiting for a mint transaction submitted earlier.
func (m *Minter) Await(ctx context.Context, hash common.Hash) (*Result, error) {
	tx, _, err := m.backend.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Cause(err) == ethereum.NotFound {
			return nil, errors.From(ErrTransactionFailed, logan.F{
				"tx_hash": hash.Hex(),
				"reason":  "transaction is unknown to the node",
			})
		}
		return nil, errors.Wrap(err, "failed to get transaction", logan.F{
			"tx_hash": hash.Hex(),
		})
	}

	return m.wait(ctx, tx)
}

func (m *Minter) wait(ctx context.Context, tx *types.Transaction) (*Result, error) {
	receipt, err := bind.WaitMined(ctx, m.backend, tx)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("stopped waiting for mint transaction %s, it may still be mined", tx.Hash().Hex()))
	}

	return m.Decode(receipt)
}

// Decode extracts the mint result from the first NFTMintedWithReward log of
// the receipt.
func (m *Minter) Decode(receipt *types.Receipt) (*Result, error) {
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, errors.From(ErrTransactionFailed, logan.F{
			"tx_hash": receipt.TxHash.Hex(),
			"reason":  "transaction reverted",
		})
	}

	for _, raw := range receipt.Logs {
		if raw == nil {
			continue
		}

		decoded := m.nft.Decode(*raw)
		if decoded.Event != gobind.EventNFTMintedWithReward {
			continue
		}

		result := &Result{
			TokenID:     decoded.Minted.TokenId,
			Creator:     decoded.Minted.Creator,
			Reward:      decoded.Minted.Reward,
			TxHash:      receipt.TxHash,
			BlockNumber: raw.BlockNumber,
			LogIndex:    raw.Index,
		}

		m.log.WithFields(logan.F{
			"tx_hash":  receipt.TxHash.Hex(),
			"token_id": result.TokenID.String(),
			"creator":  result.Creator.Hex(),
			"reward":   result.Reward.String(),
		}).Info("nft minted")

		return result, nil
	}

	return nil, errors.From(ErrNoMintEventFound, logan.F{
		"tx_hash":  receipt.TxHash.Hex(),
		"logs":     len(receipt.Logs),
		"contract": m.nft.Address().Hex(),
	})
}
