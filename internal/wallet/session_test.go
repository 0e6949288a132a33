package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"wave-portal/internal/models"
	"wave-portal/internal/rpc"
	"wave-portal/internal/rpc/rpctest"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

const testAccount = "0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5"

// MockProvider is a hand-written WalletProvider for testing
type MockProvider struct {
	accounts     []string
	accountsErr  error
	requested    []string
	requestErr   error
	requestCalls int
	mu           sync.Mutex
}

func (m *MockProvider) Accounts(context.Context) ([]string, error) {
	return m.accounts, m.accountsErr
}

func (m *MockProvider) RequestAccounts(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCalls++
	return m.requested, m.requestErr
}

func newTestSession(provider *MockProvider) *Session {
	logger := zerolog.New(nil)
	if provider == nil {
		return NewSession(nil, &logger)
	}
	return NewSession(provider, &logger)
}

func TestSession_DiscoverAccount(t *testing.T) {
	tests := []struct {
		name     string
		provider *MockProvider
		want     models.Account
	}{
		{
			name:     "no provider",
			provider: nil,
			want:     "",
		},
		{
			name:     "query fault",
			provider: &MockProvider{accountsErr: errors.New("connection refused")},
			want:     "",
		},
		{
			name:     "no authorized accounts",
			provider: &MockProvider{accounts: []string{}},
			want:     "",
		},
		{
			name:     "invalid account",
			provider: &MockProvider{accounts: []string{"not-an-address"}},
			want:     "",
		},
		{
			name: "first account wins",
			provider: &MockProvider{accounts: []string{
				"0x95222290dd7278aa3ddd389cc1e1d165cc4bafe5",
				"0x00000000219ab540356cBB839Cbe05303d7705Fa",
			}},
			want: testAccount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := newTestSession(tt.provider)
			if got := session.DiscoverAccount(context.Background()); got != tt.want {
				t.Errorf("DiscoverAccount() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSession_DiscoverAccountNeverPrompts(t *testing.T) {
	provider := &MockProvider{accounts: []string{testAccount}}
	session := newTestSession(provider)

	session.DiscoverAccount(context.Background())

	if provider.requestCalls != 0 {
		t.Errorf("RequestAccounts called %d times, want 0", provider.requestCalls)
	}
}

func TestSession_Connect(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		session := newTestSession(nil)
		account, err := session.Connect(context.Background())
		if !errors.Is(err, models.ErrProviderUnavailable) {
			t.Fatalf("Connect() error = %v, want ErrProviderUnavailable", err)
		}
		if account.IsSet() {
			t.Errorf("Connect() account = %q, want unset", account)
		}
	})

	t.Run("user rejects", func(t *testing.T) {
		provider := &MockProvider{requestErr: errors.New("user rejected the request")}
		session := newTestSession(provider)
		account, err := session.Connect(context.Background())
		if !errors.Is(err, models.ErrConnectionDenied) {
			t.Fatalf("Connect() error = %v, want ErrConnectionDenied", err)
		}
		if account.IsSet() {
			t.Errorf("Connect() account = %q, want unset", account)
		}
	})

	t.Run("retry after rejection", func(t *testing.T) {
		provider := &MockProvider{requestErr: errors.New("user rejected the request")}
		session := newTestSession(provider)
		if _, err := session.Connect(context.Background()); err == nil {
			t.Fatal("first Connect() expected error")
		}

		provider.requestErr = nil
		provider.requested = []string{testAccount}
		account, err := session.Connect(context.Background())
		if err != nil {
			t.Fatalf("second Connect() error = %v", err)
		}
		if account != testAccount {
			t.Errorf("Connect() account = %q, want %q", account, testAccount)
		}
	})

	t.Run("empty authorization", func(t *testing.T) {
		session := newTestSession(&MockProvider{requested: []string{}})
		if _, err := session.Connect(context.Background()); !errors.Is(err, models.ErrConnectionDenied) {
			t.Errorf("Connect() error = %v, want ErrConnectionDenied", err)
		}
	})

	t.Run("first entry becomes the account", func(t *testing.T) {
		session := newTestSession(&MockProvider{requested: []string{
			testAccount,
			"0x00000000219ab540356cBB839Cbe05303d7705Fa",
		}})
		account, err := session.Connect(context.Background())
		if err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
		if account != testAccount {
			t.Errorf("Connect() account = %q, want %q", account, testAccount)
		}
	})
}

func newRPCProvider(t *testing.T, server *rpctest.Server) *RPCProvider {
	t.Helper()
	logger := zerolog.New(nil)
	client, err := rpc.Dial(context.Background(), server.URL, rpc.Options{
		MaxRetries:  1,
		RetryDelay:  time.Millisecond,
		HTTPTimeout: time.Second,
	}, &logger)
	if err != nil {
		t.Fatalf("rpc.Dial() error = %v", err)
	}
	t.Cleanup(client.Close)
	return NewRPCProvider(client)
}

func TestRPCProvider_SessionOverJSONRPC(t *testing.T) {
	server := rpctest.NewServer()
	defer server.Close()
	server.Result("eth_accounts", []string{})
	server.Result("eth_requestAccounts", []string{testAccount})

	logger := zerolog.New(nil)
	session := NewSession(newRPCProvider(t, server), &logger)

	if got := session.DiscoverAccount(context.Background()); got.IsSet() {
		t.Errorf("DiscoverAccount() = %q, want unset", got)
	}

	account, err := session.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if account != testAccount {
		t.Errorf("Connect() = %q, want %q", account, testAccount)
	}
}

func TestRPCProvider_RejectionIsConnectionDenied(t *testing.T) {
	server := rpctest.NewServer()
	defer server.Close()
	server.Fail("eth_requestAccounts", 4001, "User rejected the request.")

	logger := zerolog.New(nil)
	session := NewSession(newRPCProvider(t, server), &logger)

	if _, err := session.Connect(context.Background()); !errors.Is(err, models.ErrConnectionDenied) {
		t.Errorf("Connect() error = %v, want ErrConnectionDenied", err)
	}
}

func TestRPCProvider_SendTransaction(t *testing.T) {
	server := rpctest.NewServer()
	defer server.Close()

	wantHash := common.HexToHash("0xabc123")
	var gotArgs map[string]string
	server.Handle("eth_sendTransaction", func(params []json.RawMessage) (interface{}, *rpctest.Error) {
		if len(params) != 1 {
			return nil, &rpctest.Error{Code: -32602, Message: "invalid params"}
		}
		if err := json.Unmarshal(params[0], &gotArgs); err != nil {
			return nil, &rpctest.Error{Code: -32602, Message: err.Error()}
		}
		return wantHash.Hex(), nil
	})

	provider := newRPCProvider(t, server)
	from := common.HexToAddress(testAccount)
	to := common.HexToAddress("0x048f3eD92C2fD09B6350f915CdaB5b479B484323")

	hash, err := provider.SendTransaction(context.Background(), from, to, 300000, []byte{0x01, 0x02})
	if err != nil {
		t.Fatalf("SendTransaction() error = %v", err)
	}
	if hash != wantHash {
		t.Errorf("SendTransaction() hash = %s, want %s", hash.Hex(), wantHash.Hex())
	}
	if gotArgs["gas"] != "0x493e0" {
		t.Errorf("gas = %q, want %q", gotArgs["gas"], "0x493e0")
	}
	if gotArgs["data"] != "0x0102" {
		t.Errorf("data = %q, want %q", gotArgs["data"], "0x0102")
	}
	if !common.IsHexAddress(gotArgs["from"]) || common.HexToAddress(gotArgs["from"]) != from {
		t.Errorf("from = %q, want %s", gotArgs["from"], from.Hex())
	}
}

func TestLocalProvider_AccountIsAlwaysAuthorized(t *testing.T) {
	logger := zerolog.Nop()
	session := NewSession(NewLocalProvider(testAccount), &logger)

	if got := session.DiscoverAccount(context.Background()); got != models.Account(testAccount) {
		t.Errorf("DiscoverAccount() = %q, want %q", got, testAccount)
	}
	got, err := session.Connect(context.Background())
	if err != nil || got != models.Account(testAccount) {
		t.Errorf("Connect() = %q, %v", got, err)
	}
}

func TestRPCProvider_SendTransactionMalformedHash(t *testing.T) {
	server := rpctest.NewServer()
	defer server.Close()
	server.Result("eth_sendTransaction", "0x1234")

	provider := newRPCProvider(t, server)
	_, err := provider.SendTransaction(context.Background(), common.Address{}, common.HexToAddress(testAccount), 21000, nil)
	if err == nil {
		t.Error("SendTransaction() error = nil for a malformed hash")
	}
}
