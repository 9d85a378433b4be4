package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const btpScheme = "btp://"

// IsHexAddress accepts 40 hex characters with or without the 0x prefix.
func IsHexAddress(s string) bool {
	return common.IsHexAddress(s)
}

// NormalizeAddress returns the checksummed 0x form of a hex address.
func NormalizeAddress(s string) string {
	return common.HexToAddress(s).Hex()
}

// SameAddress compares two hex addresses ignoring case and prefix.
func SameAddress(a, b string) bool {
	if !IsHexAddress(a) || !IsHexAddress(b) {
		return false
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}

// SplitNetwork splits a network address like "0x97.bsc" into its chain id and label.
func SplitNetwork(net string) (id, label string, ok bool) {
	i := strings.LastIndex(net, ".")
	if i <= 0 || i == len(net)-1 {
		return "", "", false
	}
	id, label = net[:i], net[i+1:]
	if strings.ContainsAny(id, "/ ") || strings.ContainsAny(label, "/ ") {
		return "", "", false
	}
	return id, label, true
}

func IsNetworkAddress(net string) bool {
	_, _, ok := SplitNetwork(net)
	return ok
}

// BtpAddress builds btp://<network>/<contract>.
func BtpAddress(net, contract string) string {
	return btpScheme + net + "/" + contract
}

func ParseBtpAddress(s string) (net, contract string, err error) {
	if !strings.HasPrefix(s, btpScheme) {
		return "", "", fmt.Errorf("btp address must start with %s: %s", btpScheme, s)
	}
	rest := strings.TrimPrefix(s, btpScheme)
	i := strings.Index(rest, "/")
	if i < 0 {
		return "", "", fmt.Errorf("btp address has no contract part: %s", s)
	}
	net, contract = rest[:i], rest[i+1:]
	if !IsNetworkAddress(net) {
		return "", "", fmt.Errorf("invalid network in btp address: %s", s)
	}
	if contract == "" {
		return "", "", fmt.Errorf("btp address has empty contract: %s", s)
	}
	return net, contract, nil
}
