package validation

import (
	"strings"
	"testing"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		chain   string
		wantErr bool
	}{
		{"checksummed", "0x048f3eD92C2fD09B6350f915CdaB5b479B484323", "ethereum", false},
		{"lowercase evm", "0x048f3ed92c2fd09b6350f915cdab5b479b484323", "evm", false},
		{"empty", "", "ethereum", true},
		{"short", "0x048f3e", "ethereum", true},
		{"no prefix", "048f3eD92C2fD09B6350f915CdaB5b479B484323", "ethereum", true},
		{"other chain", "0x048f3eD92C2fD09B6350f915CdaB5b479B484323", "bitcoin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateAddress(tt.address, tt.chain); (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{"empty", "", false},
		{"unicode", "gm 👋", false},
		{"invalid utf8", "\xff\xfe", true},
		{"long", strings.Repeat("a", 64*1024), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateMessage(tt.message); (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRPCURL(t *testing.T) {
	for _, url := range []string{"http://localhost:8545", "https://rpc.sepolia.org", "wss://node/ws"} {
		if err := ValidateRPCURL(url); err != nil {
			t.Errorf("ValidateRPCURL(%q) error = %v", url, err)
		}
	}
	for _, url := range []string{"", "ftp://node", "localhost:8545"} {
		if err := ValidateRPCURL(url); err == nil {
			t.Errorf("ValidateRPCURL(%q) error = nil", url)
		}
	}
	if err := ValidateURL("wss://node"); err == nil {
		t.Error("ValidateURL should reject websocket URLs")
	}
}

func TestValidateTxHash(t *testing.T) {
	if err := ValidateTxHash("0x" + strings.Repeat("ab", 32)); err != nil {
		t.Errorf("ValidateTxHash() error = %v", err)
	}
	if err := ValidateTxHash("0x1234"); err == nil {
		t.Error("ValidateTxHash(short) error = nil")
	}
}
