package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ethereumAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	ethereumTxHashRegex  = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)
	urlRegex             = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	rpcURLRegex          = regexp.MustCompile(`^(https?|wss?)://[^\s/$.?#].[^\s]*$`)
)

// ValidateAddress validates a blockchain address format
func ValidateAddress(address string, chain string) error {
	if address == "" {
		return errors.New("address cannot be empty")
	}

	switch strings.ToLower(chain) {
	case "ethereum", "evm", "":
		return validateEthereumAddress(address)
	default:
		return errors.New("unsupported chain: " + chain)
	}
}

// validateEthereumAddress validates Ethereum address format
func validateEthereumAddress(address string) error {
	if !ethereumAddressRegex.MatchString(address) {
		return errors.New("invalid Ethereum address format")
	}
	return nil
}

// ValidateTxHash validates transaction hash format
func ValidateTxHash(txHash string) error {
	if txHash == "" {
		return errors.New("transaction hash cannot be empty")
	}
	if !ethereumTxHashRegex.MatchString(txHash) {
		return errors.New("invalid Ethereum transaction hash")
	}
	return nil
}

// ValidateMessage accepts any valid UTF-8 text, including the empty string.
// Length is bounded only by the gas limit of the transaction.
func ValidateMessage(message string) error {
	if !utf8.ValidString(message) {
		return errors.New("message is not valid UTF-8")
	}
	return nil
}

// ValidateURL validates URL format
func ValidateURL(url string) error {
	if url == "" {
		return errors.New("URL cannot be empty")
	}

	if !urlRegex.MatchString(url) {
		return errors.New("invalid URL format")
	}

	return nil
}

// ValidateRPCURL is ValidateURL that also accepts websocket endpoints.
func ValidateRPCURL(url string) error {
	if url == "" {
		return errors.New("URL cannot be empty")
	}

	if !rpcURLRegex.MatchString(url) {
		return errors.New("invalid RPC URL format")
	}

	return nil
}
