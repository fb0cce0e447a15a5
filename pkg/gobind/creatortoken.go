package gobind

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// CreatorTokenABI is the ERC20 read interface of the reward token.
const CreatorTokenABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

var creatorTokenABI = mustParseABI(CreatorTokenABI)

type CreatorToken struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewCreatorToken(address common.Address, caller bind.ContractCaller) *CreatorToken {
	return &CreatorToken{
		address:  address,
		contract: bind.NewBoundContract(address, creatorTokenABI, caller, nil, nil),
	}
}

func (c *CreatorToken) Address() common.Address {
	return c.address
}

func (c *CreatorToken) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	return callBigInt(c.contract, opts, "balanceOf", account)
}

func (c *CreatorToken) Decimals(opts *bind.CallOpts) (uint8, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, "decimals"); err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

func (c *CreatorToken) Symbol(opts *bind.CallOpts) (string, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, "symbol"); err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}
