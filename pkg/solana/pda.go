package solana

import (
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
)

// PumpFunProgramID is the pump.fun launchpad program.
var PumpFunProgramID = solanago.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

var seedBondingCurve = []byte("bonding-curve")

// BondingCurveAddress derives the pump.fun bonding curve account of a mint.
func BondingCurveAddress(mint string) (string, error) {
	key, err := solanago.PublicKeyFromBase58(mint)
	if err != nil {
		return "", fmt.Errorf("invalid mint %q: %w", mint, err)
	}
	addr, _, err := solanago.FindProgramAddress([][]byte{seedBondingCurve, key[:]}, PumpFunProgramID)
	if err != nil {
		return "", fmt.Errorf("failed to find bonding curve PDA: %w", err)
	}
	return addr.String(), nil
}
