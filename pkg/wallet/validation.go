package wallet

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// addressRegex is a regular expression for validating the basic format of Ethereum-style addresses.
	// It checks for a "0x" prefix followed by exactly 40 hexadecimal characters.
	addressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")
)

// ValidateAddress validates an Ethereum address string. Mixed-case input
// must carry a valid EIP-55 checksum; all-lower or all-upper hex is
// accepted as unchecksummed.
//
// Example:
//
//	if err := ValidateAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e"); err != nil {
//	    log.Fatal(err)
//	}
func ValidateAddress(address string) error {
	if !addressRegex.MatchString(address) {
		return NewWalletError(
			ErrCodeInvalidAddress,
			fmt.Sprintf("invalid address format: %q", address),
			nil,
			"",
		)
	}

	body := address[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}

	if address != common.HexToAddress(address).Hex() {
		return NewWalletError(
			ErrCodeInvalidAddress,
			fmt.Sprintf("invalid address checksum: %q", address),
			nil,
			"",
		)
	}

	return nil
}

// ParseAddress validates address and converts it to a common.Address.
func ParseAddress(address string) (common.Address, error) {
	address = strings.TrimSpace(address)
	if err := ValidateAddress(address); err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(address), nil
}

// ParseAddressList splits a comma separated address list, validating every
// entry. Empty entries are ignored.
func ParseAddressList(list string) ([]common.Address, error) {
	var out []common.Address
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := ParseAddress(part)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
