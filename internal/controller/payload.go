package controller

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Loan payload layout: one direction byte followed by the prior peg weight as
// a 32-byte big-endian integer. The payload round-trips through the lender so
// the callback can act without reading controller state that the loan itself
// may have perturbed.
const payloadLen = 33

const (
	directionSellPeg byte = 0x01
	directionBuyPeg  byte = 0x02
)

func encodePayload(sellPeg bool, priorWeight sdkmath.Int) []byte {
	buf := make([]byte, payloadLen)
	if sellPeg {
		buf[0] = directionSellPeg
	} else {
		buf[0] = directionBuyPeg
	}
	priorWeight.BigInt().FillBytes(buf[1:])
	return buf
}

func decodePayload(payload []byte) (sellPeg bool, priorWeight sdkmath.Int, err error) {
	if len(payload) != payloadLen {
		return false, sdkmath.ZeroInt(), ErrBadPayload
	}
	switch payload[0] {
	case directionSellPeg:
		sellPeg = true
	case directionBuyPeg:
		sellPeg = false
	default:
		return false, sdkmath.ZeroInt(), ErrBadPayload
	}
	priorWeight = sdkmath.NewIntFromBigInt(new(big.Int).SetBytes(payload[1:]))
	return sellPeg, priorWeight, nil
}
