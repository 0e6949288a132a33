package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"wave-portal/internal/models"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Sender signs and broadcasts a contract call.
type Sender interface {
	Send(ctx context.Context, to common.Address, data []byte, gasLimit uint64) (common.Hash, error)
}

// WalletTransactor is a wallet that signs and broadcasts on the user's behalf.
type WalletTransactor interface {
	SendTransaction(ctx context.Context, from, to common.Address, gas uint64, data []byte) (common.Hash, error)
}

// WalletSender delegates signing to the wallet provider, from the account
// that is connected at the time of sending.
type WalletSender struct {
	wallet  WalletTransactor
	account func() models.Account
}

func NewWalletSender(wallet WalletTransactor, account func() models.Account) *WalletSender {
	return &WalletSender{wallet: wallet, account: account}
}

func (s *WalletSender) Send(ctx context.Context, to common.Address, data []byte, gasLimit uint64) (common.Hash, error) {
	var from common.Address
	if acc := s.account(); acc.IsSet() {
		from = acc.Address()
	}
	return s.wallet.SendTransaction(ctx, from, to, gasLimit, data)
}

// KeyedSender signs locally with a private key, for headless use.
type KeyedSender struct {
	backend bind.ContractTransactor
	key     *ecdsa.PrivateKey
	chainID *big.Int
}

// NewKeyedSender parses a hex private key, with or without 0x prefix.
func NewKeyedSender(backend bind.ContractTransactor, hexKey string, chainID *big.Int) (*KeyedSender, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &KeyedSender{backend: backend, key: key, chainID: chainID}, nil
}

// Account is the address the key signs for.
func (s *KeyedSender) Account() models.Account {
	return models.Account(crypto.PubkeyToAddress(s.key.PublicKey).Hex())
}

func (s *KeyedSender) Send(ctx context.Context, to common.Address, data []byte, gasLimit uint64) (common.Hash, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	opts.GasLimit = gasLimit

	contract := bind.NewBoundContract(to, abi.ABI{}, nil, s.backend, nil)
	tx, err := contract.RawTransact(opts, data)
	if err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}
