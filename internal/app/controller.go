package app

import (
	"context"
	"errors"
	"sync"

	"wave-portal/internal/metrics"
	"wave-portal/internal/models"

	"github.com/rs/zerolog"
)

// Session discovers and authorizes the wallet account.
type Session interface {
	HasProvider() bool
	DiscoverAccount(ctx context.Context) models.Account
	Connect(ctx context.Context) (models.Account, error)
}

// History is the wave log the controller seeds and exposes.
type History interface {
	Load(ctx context.Context)
	Records() []models.Record
}

// Submitter composes and sends waves.
type Submitter interface {
	SetMessage(message string)
	Pending() models.PendingSubmission
	SubmitWave(ctx context.Context) models.Phase
}

// State is everything a view renders.
type State struct {
	Account models.Account           `json:"account"`
	Records []models.Record          `json:"records"`
	Pending models.PendingSubmission `json:"pending"`
}

// Controller owns the application state. Views read it through State and
// change it only through Connect, SetMessage and SubmitWave.
type Controller struct {
	session    Session
	history    History
	submission Submitter
	logger     *zerolog.Logger

	mu      sync.RWMutex
	account models.Account
}

func NewController(session Session, history History, submission Submitter, logger *zerolog.Logger) *Controller {
	return &Controller{
		session:    session,
		history:    history,
		submission: submission,
		logger:     logger,
	}
}

// Start runs account discovery in the background and, if an account is
// already authorized, loads the history. All outcomes are handled inside the
// task; the returned channel closes when it finishes and may be ignored.
func (c *Controller) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error().Interface("panic", r).Msg("Start-up task panicked, recovering")
			}
		}()

		account := c.session.DiscoverAccount(ctx)
		if !account.IsSet() {
			return
		}
		if !c.setAccount(account, false) {
			// A concurrent Connect already set the account and loaded.
			return
		}
		c.history.Load(ctx)
	}()
	return done
}

// Connect prompts the wallet and, on success, makes the returned address the
// account and loads the history. ErrProviderUnavailable is the one error a
// view must surface as a blocking notice.
func (c *Controller) Connect(ctx context.Context) (models.Account, error) {
	account, err := c.session.Connect(ctx)
	if err != nil {
		if errors.Is(err, models.ErrProviderUnavailable) {
			c.logger.Error().Err(err).Msg("Get a wallet! No wallet provider is configured")
		} else {
			c.logger.Warn().Err(err).Msg("Wallet connection was not established, try again")
		}
		return "", err
	}

	c.setAccount(account, true)
	c.history.Load(ctx)
	return account, nil
}

// setAccount stores account. Without overwrite it only fills an unset slot and
// reports whether it did.
func (c *Controller) setAccount(account models.Account, overwrite bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.account.IsSet() && !overwrite {
		return false
	}
	c.account = account
	metrics.WalletConnected.Set(1)
	return true
}

// Account returns the connected account, or the zero Account.
func (c *Controller) Account() models.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account
}

func (c *Controller) SetMessage(message string) {
	c.submission.SetMessage(message)
}

// SubmitWave sends the composed message and waits for the outcome.
func (c *Controller) SubmitWave(ctx context.Context) models.Phase {
	return c.submission.SubmitWave(ctx)
}

// State returns a snapshot for rendering.
func (c *Controller) State() State {
	return State{
		Account: c.Account(),
		Records: c.history.Records(),
		Pending: c.submission.Pending(),
	}
}
