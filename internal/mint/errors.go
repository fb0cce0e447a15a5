package mint

import (
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rarimo/nft-reward-svc/internal/wallet"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// EIP-1193 code for a request the user refused to sign.
const userRejectedCode = 4001

var (
	ErrNoActiveWallet      = wallet.ErrNoActiveWallet
	ErrTransactionRejected = errors.New("transaction rejected by user")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNoMintEventFound    = errors.New("mint event not found in receipt")
	ErrTransactionFailed   = errors.New("transaction failed")
)

// classify maps a submission error onto one of the sentinels. The sentinel
// is the cause of the result, the original message goes into the fields.
func classify(err error) error {
	sentinel := ErrTransactionFailed

	if coded, ok := errors.Cause(err).(rpc.Error); ok && coded.ErrorCode() == userRejectedCode {
		sentinel = ErrTransactionRejected
	} else {
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"), strings.Contains(msg, "denied transaction"):
			sentinel = ErrTransactionRejected
		case strings.Contains(msg, "insufficient funds"):
			sentinel = ErrInsufficientFunds
		}
	}

	return errors.From(sentinel, logan.F{
		"reason": err.Error(),
	})
}
