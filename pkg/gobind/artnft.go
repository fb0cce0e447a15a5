package gobind

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	EventNFTMintedWithReward = "NFTMintedWithReward"
	EventTransfer            = "Transfer"
)

// ArtNFTABI is the subset of the ArtNFT contract interface used by the service.
const ArtNFTABI = `[
	{"type":"function","name":"mintNFT","stateMutability":"nonpayable","inputs":[{"name":"tokenURI","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"getCreator","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getAllTokenIds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"event","name":"NFTMintedWithReward","anonymous":false,"inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"creator","type":"address","indexed":true},{"name":"reward","type":"uint256","indexed":false}]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"tokenId","type":"uint256","indexed":true}]}
]`

var artNFTABI = mustParseABI(ArtNFTABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(errors.Wrap(err, "failed to parse abi"))
	}
	return parsed
}

// ArtNFTNFTMintedWithReward represents a NFTMintedWithReward event raised by the ArtNFT contract.
type ArtNFTNFTMintedWithReward struct {
	TokenId *big.Int
	Creator common.Address
	Reward  *big.Int
	Raw     types.Log
}

// ArtNFTTransfer represents a Transfer event raised by the ArtNFT contract.
type ArtNFTTransfer struct {
	From    common.Address
	To      common.Address
	TokenId *big.Int
	Raw     types.Log
}

type ArtNFT struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewArtNFT binds the contract at address. A nil backend is allowed when only
// log decoding is needed.
func NewArtNFT(address common.Address, backend bind.ContractBackend) *ArtNFT {
	var (
		caller     bind.ContractCaller
		transactor bind.ContractTransactor
		filterer   bind.ContractFilterer
	)
	if backend != nil {
		caller, transactor, filterer = backend, backend, backend
	}

	return &ArtNFT{
		address:  address,
		contract: bind.NewBoundContract(address, artNFTABI, caller, transactor, filterer),
	}
}

func (a *ArtNFT) Address() common.Address {
	return a.address
}

// MintNFT is a paid mutator transaction binding the contract method mintNFT.
//
// Solidity: function mintNFT(string tokenURI) returns(uint256)
func (a *ArtNFT) MintNFT(opts *bind.TransactOpts, tokenURI string) (*types.Transaction, error) {
	return a.contract.Transact(opts, "mintNFT", tokenURI)
}

func (a *ArtNFT) TokenURI(opts *bind.CallOpts, tokenID *big.Int) (string, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "tokenURI", tokenID); err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (a *ArtNFT) GetCreator(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error) {
	return a.callAddress(opts, "getCreator", tokenID)
}

func (a *ArtNFT) OwnerOf(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error) {
	return a.callAddress(opts, "ownerOf", tokenID)
}

func (a *ArtNFT) BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error) {
	return callBigInt(a.contract, opts, "balanceOf", owner)
}

func (a *ArtNFT) TokenOfOwnerByIndex(opts *bind.CallOpts, owner common.Address, index *big.Int) (*big.Int, error) {
	return callBigInt(a.contract, opts, "tokenOfOwnerByIndex", owner, index)
}

func (a *ArtNFT) GetAllTokenIds(opts *bind.CallOpts) ([]*big.Int, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "getAllTokenIds"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

func (a *ArtNFT) callAddress(opts *bind.CallOpts, method string, params ...interface{}) (common.Address, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, method, params...); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func callBigInt(contract *bind.BoundContract, opts *bind.CallOpts, method string, params ...interface{}) (*big.Int, error) {
	var out []interface{}
	if err := contract.Call(opts, &out, method, params...); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// ParseNFTMintedWithReward is a log parse operation binding the contract event.
//
// Solidity: event NFTMintedWithReward(uint256 indexed tokenId, address indexed creator, uint256 reward)
func (a *ArtNFT) ParseNFTMintedWithReward(log types.Log) (*ArtNFTNFTMintedWithReward, error) {
	event := new(ArtNFTNFTMintedWithReward)
	if err := a.contract.UnpackLog(event, EventNFTMintedWithReward, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseTransfer is a log parse operation binding the contract event.
//
// Solidity: event Transfer(address indexed from, address indexed to, uint256 indexed tokenId)
func (a *ArtNFT) ParseTransfer(log types.Log) (*ArtNFTTransfer, error) {
	event := new(ArtNFTTransfer)
	if err := a.contract.UnpackLog(event, EventTransfer, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// EventID returns the topic of the named event.
func (a *ArtNFT) EventID(name string) (common.Hash, error) {
	event, ok := artNFTABI.Events[name]
	if !ok {
		return common.Hash{}, errors.From(errors.New("unknown event"), logan.F{
			"event": name,
		})
	}
	return event.ID, nil
}

// FilterQuery builds a log filter for the named event. Each query slice holds
// the accepted values of the next indexed argument, nil matches any.
func (a *ArtNFT) FilterQuery(name string, from, to *big.Int, query ...[]interface{}) (ethereum.FilterQuery, error) {
	id, err := a.EventID(name)
	if err != nil {
		return ethereum.FilterQuery{}, err
	}

	topics, err := abi.MakeTopics(query...)
	if err != nil {
		return ethereum.FilterQuery{}, errors.Wrap(err, "failed to make topics", logan.F{
			"event": name,
		})
	}

	return ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []common.Address{a.address},
		Topics:    append([][]common.Hash{{id}}, topics...),
	}, nil
}
