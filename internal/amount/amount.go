package amount

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Format renders base units as a decimal string with at least one fractional
// digit, so 10^18 with 18 decimals is "1.0".
func Format(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0.0"
	}

	result := decimal.NewFromBigInt(value, -int32(decimals)).String()
	if !strings.Contains(result, ".") {
		result += ".0"
	}

	return result
}

// Parse converts a decimal string into base units. Values with more
// fractional digits than decimals allows are rejected.
func Parse(value string, decimals uint8) (*big.Int, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse amount", logan.F{
			"value": value,
		})
	}

	scaled := parsed.Mul(decimal.New(1, int32(decimals)))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, errors.From(errors.New("too many fractional digits"), logan.F{
			"value":    value,
			"decimals": decimals,
		})
	}

	return scaled.BigInt(), nil
}
