package util

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of decimals between wei and ether.
const EtherDecimals = 18

// WeiToEther converts a wei amount to ether. A nil amount is zero.
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals)
}

// EtherToWei converts an ether amount to wei, truncating anything below one wei.
func EtherToWei(ether decimal.Decimal) *big.Int {
	return ether.Shift(EtherDecimals).Truncate(0).BigInt()
}

// NormalizeAddress returns the checksummed form of a hex address so that
// the same account always maps to the same key. Other strings are trimmed
// and returned as is.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if common.IsHexAddress(address) {
		return common.HexToAddress(address).Hex()
	}
	return address
}

// IsValidAddress reports whether s is a 0x-prefixed 20 byte hex address.
func IsValidAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}
