package utils

import (
	"os"
	"strconv"
)

// PlatformFeePercent returns the platform fee percentage, from
// PLATFORM_FEE_PERCENT (default 5). Values outside [0,100] fall back to 5.
func PlatformFeePercent() float64 {
	pct := 5.0
	if s := os.Getenv("PLATFORM_FEE_PERCENT"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 0 && v <= 100 {
			pct = v
		}
	}
	return pct
}

// CalculateFee splits a gross donation amount into the platform fee and the
// net amount credited to the project. Computed once when the donation is
// created; the stored split never changes even if the fee config does.
func CalculateFee(amount float64) (fee, net float64) {
	fee = RoundFloat(amount*PlatformFeePercent()/100, 2)
	net = RoundFloat(amount-fee, 2)
	return fee, net
}
