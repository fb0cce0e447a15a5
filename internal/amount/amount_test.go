package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	oneToken, ok := new(big.Int).SetString("1000000000000000000", 10)
	require.True(t, ok)

	cases := []struct {
		name     string
		value    *big.Int
		decimals uint8
		expected string
	}{
		{"one token", oneToken, 18, "1.0"},
		{"mint reward", new(big.Int).Mul(big.NewInt(100), oneToken), 18, "100.0"},
		{"fraction", big.NewInt(1500000000000000000), 18, "1.5"},
		{"smallest unit", big.NewInt(1), 18, "0.000000000000000001"},
		{"zero", big.NewInt(0), 18, "0.0"},
		{"no decimals", big.NewInt(42), 0, "42.0"},
		{"six decimals", big.NewInt(2500000), 6, "2.5"},
		{"nil", nil, 18, "0.0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Format(tc.value, tc.decimals))
		})
	}
}

func TestParse(t *testing.T) {
	value, err := Parse("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", value.String())

	value, err = Parse("100", 18)
	require.NoError(t, err)
	assert.Equal(t, "1.0", Format(new(big.Int).Div(value, big.NewInt(100)), 18))

	_, err = Parse("0.1234567", 6)
	assert.Error(t, err)

	_, err = Parse("abc", 18)
	assert.Error(t, err)
}
