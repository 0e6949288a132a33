package wallet

import (
	"context"
	"fmt"

	"wave-portal/internal/interfaces"
	"wave-portal/internal/models"
	"wave-portal/internal/validation"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// Session discovers and authorizes the wallet account. A nil provider means
// the environment has no wallet, which is an expected state.
type Session struct {
	provider interfaces.WalletProvider
	logger   *zerolog.Logger
}

func NewSession(provider interfaces.WalletProvider, logger *zerolog.Logger) *Session {
	return &Session{
		provider: provider,
		logger:   logger,
	}
}

// HasProvider reports whether a wallet provider is present.
func (s *Session) HasProvider() bool {
	return s.provider != nil
}

// DiscoverAccount returns the first already authorized account without
// prompting. It never fails: a missing provider, an empty list or a transport
// fault all yield the zero Account.
func (s *Session) DiscoverAccount(ctx context.Context) models.Account {
	if s.provider == nil {
		s.logger.Warn().Msg("No wallet provider present, make sure a wallet endpoint is configured")
		return ""
	}

	accounts, err := s.provider.Accounts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to query authorized accounts")
		return ""
	}

	if len(accounts) == 0 {
		s.logger.Info().Msg("No authorized account found")
		return ""
	}

	account, err := normalize(accounts[0])
	if err != nil {
		s.logger.Error().Err(err).Str("account", accounts[0]).Msg("Wallet returned an invalid account")
		return ""
	}

	s.logger.Info().Str("account", account.String()).Msg("Found an authorized account")
	return account
}

// Connect prompts the wallet for account access. It returns
// ErrProviderUnavailable when there is no wallet and ErrConnectionDenied,
// wrapping the cause, for any other failure.
func (s *Session) Connect(ctx context.Context) (models.Account, error) {
	if s.provider == nil {
		s.logger.Error().Msg("Cannot connect: no wallet provider present")
		return "", models.ErrProviderUnavailable
	}

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Wallet connection failed")
		return "", fmt.Errorf("%w: %v", models.ErrConnectionDenied, err)
	}

	if len(accounts) == 0 {
		s.logger.Error().Msg("Wallet authorized no accounts")
		return "", fmt.Errorf("%w: no accounts returned", models.ErrConnectionDenied)
	}

	account, err := normalize(accounts[0])
	if err != nil {
		s.logger.Error().Err(err).Str("account", accounts[0]).Msg("Wallet returned an invalid account")
		return "", fmt.Errorf("%w: %v", models.ErrConnectionDenied, err)
	}

	s.logger.Info().Str("account", account.String()).Msg("Connected")
	return account, nil
}

func normalize(address string) (models.Account, error) {
	if err := validation.ValidateAddress(address, "ethereum"); err != nil {
		return "", err
	}
	return models.Account(common.HexToAddress(address).Hex()), nil
}
