package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wave-portal/internal/app"
	"wave-portal/internal/config"
	"wave-portal/internal/database"
	"wave-portal/internal/emitters"
	"wave-portal/internal/events"
	"wave-portal/internal/health"
	"wave-portal/internal/history"
	"wave-portal/internal/interfaces"
	"wave-portal/internal/ledger"
	"wave-portal/internal/logger"
	"wave-portal/internal/models"
	"wave-portal/internal/rpc"
	"wave-portal/internal/submission"
	"wave-portal/internal/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/pflag"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().Error().Interface("panic", r).Msg("Application panicked, recovering")
			os.Exit(1)
		}
	}()

	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts); err != nil {
		logger.GetLogger().Error().Err(err).Msg("Exiting")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	if opts.History {
		return printArchive(ctx, cfg, opts.Limit)
	}

	rpcOpts := rpc.Options{
		ApiKey:      cfg.Ledger.ApiKey,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		HTTPTimeout: cfg.HTTP.Timeout,
	}
	ledgerRPC, err := rpc.Dial(ctx, cfg.Ledger.RpcEndpoint, rpcOpts, logger.Component("ledger-rpc"))
	if err != nil {
		return fmt.Errorf("failed to connect to ledger node: %w", err)
	}
	defer ledgerRPC.Close()
	eth := ethclient.NewClient(ledgerRPC.Raw())

	// controller is assigned below; the wallet sender reads the connected
	// account only when a wave is sent.
	var controller *app.Controller

	var provider interfaces.WalletProvider
	var sender ledger.Sender
	switch {
	case cfg.Ledger.PrivateKey != "":
		chainID, err := resolveChainID(ctx, cfg, eth)
		if err != nil {
			return err
		}
		keyed, err := ledger.NewKeyedSender(eth, cfg.Ledger.PrivateKey, chainID)
		if err != nil {
			return fmt.Errorf("LEDGER_PRIVATE_KEY: %w", err)
		}
		provider = wallet.NewLocalProvider(keyed.Account().String())
		sender = keyed
	case cfg.Wallet.RpcEndpoint != "":
		walletRPC, err := rpc.Dial(ctx, cfg.Wallet.RpcEndpoint, rpc.Options{
			ApiKey:      cfg.Wallet.ApiKey,
			RateLimit:   cfg.Wallet.RateLimit,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  cfg.RetryDelay,
			HTTPTimeout: cfg.HTTP.Timeout,
		}, logger.Component("wallet-rpc"))
		if err != nil {
			return fmt.Errorf("failed to connect to wallet: %w", err)
		}
		defer walletRPC.Close()
		rpcProvider := wallet.NewRPCProvider(walletRPC)
		provider = rpcProvider
		sender = ledger.NewWalletSender(rpcProvider, func() models.Account { return controller.Account() })
	}

	contract, err := ledger.NewClient(
		common.HexToAddress(cfg.Ledger.ContractAddress),
		eth,
		sender,
		cfg.Ledger.PollInterval,
		logger.Component("ledger"),
	)
	if err != nil {
		return err
	}

	emitter, closeEmitters, err := buildEmitter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEmitters()

	store := history.NewStore(contract, emitter, logger.Component("history")).WithSubscriptionContext(ctx)
	defer store.Close()

	session := wallet.NewSession(provider, logger.Component("wallet"))
	workflow := submission.NewWorkflow(contract, session.HasProvider, cfg.Ledger.GasLimit, logger.Component("submission"))
	controller = app.NewController(session, store, workflow, logger.Component("app"))

	if opts.Watch && cfg.Health.Port > 0 {
		server := health.NewServer(cfg.Health.Port, store, controller.State, logger.Component("health"))
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	<-controller.Start(ctx)

	if opts.Connect {
		if _, err := controller.Connect(ctx); err != nil {
			return err
		}
	}

	if opts.HasMessage {
		controller.SetMessage(opts.Message)
		if phase := controller.SubmitWave(ctx); phase != models.PhaseConfirmed {
			return fmt.Errorf("wave %s: %s", phase, controller.State().Pending.Err)
		}
	}

	if opts.Watch {
		logger.GetLogger().Info().Msg("Following new waves, press Ctrl+C to stop")
		<-ctx.Done()
		return nil
	}

	printRecords(controller.State())
	return nil
}

func resolveChainID(ctx context.Context, cfg *config.Config, eth *ethclient.Client) (*big.Int, error) {
	if cfg.Ledger.ChainID > 0 {
		return big.NewInt(cfg.Ledger.ChainID), nil
	}
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	return chainID, nil
}

// buildEmitter fans every history record out to the configured sinks.
func buildEmitter(ctx context.Context, cfg *config.Config) (interfaces.RecordEmitter, func(), error) {
	var sinks events.MultiEmitter
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.HasEmitter("log") {
		sinks = append(sinks, &events.LogEmitter{
			Logger:          logger.Component("waves"),
			ExplorerBaseURL: cfg.Ledger.ExplorerBaseURL,
		})
	}
	if cfg.HasEmitter("kafka") {
		kafka := emitters.NewKafkaEmitter(cfg.Kafka)
		sinks = append(sinks, kafka)
		closers = append(closers, func() { _ = kafka.Close() })
	}
	if cfg.HasEmitter("redis") {
		redis, err := emitters.NewRedisEmitter(ctx, cfg.Redis)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, redis)
		closers = append(closers, func() { _ = redis.Close() })
	}
	if cfg.HasEmitter("postgres") {
		if err := openArchive(cfg); err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, database.NewEmitter(logger.SessionID()))
		closers = append(closers, func() { _ = database.Close() })
	}

	return sinks, closeAll, nil
}

func openArchive(cfg *config.Config) error {
	if err := database.InitDB(cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.RunMigrations(cfg.Database); err != nil {
		_ = database.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func printArchive(ctx context.Context, cfg *config.Config, limit int) error {
	if err := openArchive(cfg); err != nil {
		return err
	}
	defer database.Close()

	waves, err := database.GetWaves(ctx, limit, 0)
	if err != nil {
		return fmt.Errorf("failed to read archived waves: %w", err)
	}
	for _, w := range waves {
		fmt.Printf("%s  %s  %s\n", w.Timestamp.UTC().Format(time.RFC3339), w.Sender, w.Message)
	}
	return nil
}

func printRecords(state app.State) {
	if !state.Account.IsSet() {
		fmt.Println("No wallet connected. Run with --connect to see waves.")
		return
	}
	fmt.Printf("Connected as %s, %d waves\n", state.Account, len(state.Records))
	for _, r := range state.Records {
		fmt.Printf("%s  %s  %s\n", r.Timestamp.Format(time.RFC3339), r.Sender, r.Message)
	}
}
