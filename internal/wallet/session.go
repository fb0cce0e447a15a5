package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var ErrNoActiveWallet = errors.New("no active wallet")

// Session is a connected signing account. A nil session is valid and means
// no wallet is connected.
type Session struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

func NewSession(key *ecdsa.PrivateKey, chainID *big.Int) *Session {
	if key == nil {
		return nil
	}

	return &Session{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).Set(chainID),
	}
}

// ParseKey decodes a hex private key, with or without the 0x prefix.
func ParseKey(raw string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}
	return key, nil
}

func (s *Session) Connected() bool {
	return s != nil && s.key != nil
}

func (s *Session) Address() (common.Address, error) {
	if !s.Connected() {
		return common.Address{}, ErrNoActiveWallet
	}
	return s.address, nil
}

// Signer returns fresh transaction options bound to ctx.
func (s *Session) Signer(ctx context.Context) (*bind.TransactOpts, error) {
	if !s.Connected() {
		return nil, ErrNoActiveWallet
	}

	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create transactor", logan.F{
			"chain_id": s.chainID.String(),
		})
	}
	opts.Context = ctx

	return opts, nil
}
