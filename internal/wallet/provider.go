package wallet

import (
	"context"
	"fmt"

	"wave-portal/internal/rpc"
	"wave-portal/internal/validation"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RPCProvider is a wallet reachable over JSON-RPC that manages accounts and
// signs for them (a signer such as Clef, or a node with managed accounts).
type RPCProvider struct {
	client *rpc.Client
}

func NewRPCProvider(client *rpc.Client) *RPCProvider {
	return &RPCProvider{client: client}
}

// Accounts calls the non-prompting eth_accounts.
func (p *RPCProvider) Accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.client.Call(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("eth_accounts: %w", err)
	}
	return accounts, nil
}

// RequestAccounts calls the prompting eth_requestAccounts.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.client.Call(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, fmt.Errorf("eth_requestAccounts: %w", err)
	}
	return accounts, nil
}

// SendTransaction asks the wallet to sign and broadcast a transaction.
func (p *RPCProvider) SendTransaction(ctx context.Context, from, to common.Address, gas uint64, data []byte) (common.Hash, error) {
	args := map[string]interface{}{
		"to":   to,
		"gas":  hexutil.Uint64(gas),
		"data": hexutil.Bytes(data),
	}
	// Without a connected account the wallet picks or rejects the sender.
	if from != (common.Address{}) {
		args["from"] = from
	}

	var hash string
	if err := p.client.Call(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction: %w", err)
	}
	if err := validation.ValidateTxHash(hash); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction returned %q: %w", hash, err)
	}
	return common.HexToHash(hash), nil
}

// LocalProvider stands in for a wallet when transactions are signed with a
// locally held key. Its single account is always authorized.
type LocalProvider struct {
	account string
}

func NewLocalProvider(account string) *LocalProvider {
	return &LocalProvider{account: account}
}

func (p *LocalProvider) Accounts(context.Context) ([]string, error) {
	return []string{p.account}, nil
}

func (p *LocalProvider) RequestAccounts(context.Context) ([]string, error) {
	return []string{p.account}, nil
}
