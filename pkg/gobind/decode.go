package gobind

import (
	"github.com/ethereum/go-ethereum/core/types"
)

// DecodedLog is a log tagged with the ArtNFT event it carries. Event is empty
// for logs the contract did not emit or that failed to decode.
type DecodedLog struct {
	Raw   types.Log
	Event string

	Minted   *ArtNFTNFTMintedWithReward
	Transfer *ArtNFTTransfer
}

func (d DecodedLog) Decoded() bool {
	return d.Event != ""
}

// Decode matches the log against the contract events. Logs of other contracts
// are left undecoded even when their topic matches, since ERC20 and ERC721
// share the Transfer signature.
func (a *ArtNFT) Decode(log types.Log) DecodedLog {
	result := DecodedLog{Raw: log}

	if log.Address != a.address || len(log.Topics) == 0 {
		return result
	}

	event, err := artNFTABI.EventByID(log.Topics[0])
	if err != nil {
		return result
	}

	switch event.Name {
	case EventNFTMintedWithReward:
		minted, err := a.ParseNFTMintedWithReward(log)
		if err != nil {
			return result
		}
		result.Event, result.Minted = event.Name, minted
	case EventTransfer:
		transfer, err := a.ParseTransfer(log)
		if err != nil {
			return result
		}
		result.Event, result.Transfer = event.Name, transfer
	}

	return result
}
