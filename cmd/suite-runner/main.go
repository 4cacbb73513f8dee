package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/nft-suite/internal/adapter"
	"github.com/feral-file/nft-suite/internal/artifact"
	"github.com/feral-file/nft-suite/internal/chain"
	"github.com/feral-file/nft-suite/internal/config"
	"github.com/feral-file/nft-suite/internal/logger"
	"github.com/feral-file/nft-suite/internal/providers/jetstream"
	"github.com/feral-file/nft-suite/internal/report"
	"github.com/feral-file/nft-suite/internal/signer"
	"github.com/feral-file/nft-suite/internal/store"
	"github.com/feral-file/nft-suite/internal/suite"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	suitesFlag = flag.String("suites", "", "Comma separated suites to run, overrides suites.names")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadRunnerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *suitesFlag != "" {
		cfg.Suites.Names = strings.Split(*suitesFlag, ",")
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid config: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "suite-runner",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting suite runner", zap.Strings("suites", cfg.Suites.Names))

	suiteNames, err := cfg.SuiteNames()
	if err != nil {
		logger.ErrorCtx(ctx, err)
		return 1
	}

	// Connect to the node
	client, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to dial %s: %w", cfg.Ethereum.RPCURL, err))
		return 1
	}
	defer client.Close()

	nodeChainID, err := chain.WaitForNode(ctx, client, cfg.Ethereum.NodeWaitTimeout)
	if err != nil {
		logger.ErrorCtx(ctx, err)
		return 1
	}
	if cfg.Ethereum.ChainID != 0 && nodeChainID.Uint64() != cfg.Ethereum.ChainID {
		logger.ErrorCtx(ctx, fmt.Errorf("node chain id %s does not match configured %d", nodeChainID, cfg.Ethereum.ChainID))
		return 1
	}

	// Initialize signers
	signerOpts := signer.Options{GasLimit: cfg.Ethereum.GasLimit}
	if cfg.Ethereum.GasPrice > 0 {
		signerOpts.GasPrice = new(big.Int).SetUint64(cfg.Ethereum.GasPrice)
	}
	signers, err := signer.New(cfg.Signers.PrivateKeys, cfg.Signers.Labels, nodeChainID, signerOpts)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to initialize signers: %w", err))
		return 1
	}
	for _, account := range signers.Accounts() {
		logger.DebugCtx(ctx, "Loaded signer", zap.String("account", account.String()))
	}

	// Load artifacts and build suites
	jsonAdapter := adapter.NewJSON()
	loader := artifact.NewLoader(jsonAdapter)
	suites := make([]suite.Suite, 0, len(suiteNames))
	for _, name := range suiteNames {
		art, err := loader.Load(cfg.Artifacts.Path(name))
		if err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to load %s artifact: %w", name, err))
			return 1
		}
		s, err := suite.Build(name, art)
		if err != nil {
			logger.ErrorCtx(ctx, err)
			return 1
		}
		suites = append(suites, s)
	}

	// Initialize report sinks
	out := &outputs{
		builder:   report.NewBuilder(jsonAdapter, adapter.NewJCS()),
		reportDir: cfg.Suites.ReportDir,
	}

	if cfg.Database.Enabled() {
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to connect to database: %w", err), zap.String("host", cfg.Database.Host))
			return 1
		}
		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime); err != nil {
			logger.ErrorCtx(ctx, err)
			return 1
		}
		out.store = store.NewPGStore(db, jsonAdapter)
		if err := out.store.AutoMigrate(ctx); err != nil {
			logger.ErrorCtx(ctx, err)
			return 1
		}
		logger.InfoCtx(ctx, "Connected to database", zap.String("dbname", cfg.Database.DBName))
	}

	if cfg.NATS.Enabled() {
		publisher, err := jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), out.builder)
		if err != nil {
			logger.ErrorCtx(ctx, err)
			return 1
		}
		defer publisher.Close()
		out.publisher = publisher
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("stream", cfg.NATS.StreamName))
	}

	// Run suites
	transactor := chain.NewTransactor(client, chain.Config{
		ReceiptTimeout:      cfg.Ethereum.ReceiptTimeout,
		ReceiptPollInterval: cfg.Ethereum.ReceiptPollInterval,
	})
	runner := suite.NewRunner(suite.Config{
		ChainID:     nodeChainID.Uint64(),
		TokenURI:    cfg.Suites.TokenURI,
		FailFast:    cfg.Suites.FailFast,
		StepTimeout: cfg.Suites.StepTimeout,
		PoolSize:    cfg.Worker.WorkerPoolSize,
	}, transactor, signers, adapter.NewClock())

	runs := runner.RunAll(ctx, suites)

	reports, err := out.deliver(ctx, runs)
	for _, r := range reports {
		fmt.Println(r.Summary())
	}
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to deliver reports: %w", err))
		return 1
	}

	if anyFailed(reports) {
		return 1
	}
	logger.InfoCtx(ctx, "All suites passed")
	return 0
}
