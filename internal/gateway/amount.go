package gateway

import "strings"

// zeroDecimal lists currencies the gateway expects in whole units.
var zeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

// IsZeroDecimal reports whether currency has no minor unit at the gateway.
func IsZeroDecimal(currency string) bool {
	return zeroDecimal[strings.ToUpper(strings.TrimSpace(currency))]
}

// ToGatewayAmount converts stored minor units (two decimals) into the
// gateway's smallest unit for currency, rounding half up.
func ToGatewayAmount(minor int64, currency string) int64 {
	if !IsZeroDecimal(currency) {
		return minor
	}
	return (minor + 50) / 100
}

// FromGatewayAmount is the inverse of ToGatewayAmount.
func FromGatewayAmount(amount int64, currency string) int64 {
	if !IsZeroDecimal(currency) {
		return amount
	}
	return amount * 100
}
