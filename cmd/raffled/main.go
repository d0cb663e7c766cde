package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	grpcZap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/goodnatureofminers/rafflekeeper/internal/clock"
	"github.com/goodnatureofminers/rafflekeeper/internal/deploy"
	"github.com/goodnatureofminers/rafflekeeper/internal/event"
	"github.com/goodnatureofminers/rafflekeeper/internal/ledger"
	"github.com/goodnatureofminers/rafflekeeper/internal/metrics"
	"github.com/goodnatureofminers/rafflekeeper/internal/model"
	"github.com/goodnatureofminers/rafflekeeper/internal/repository/clickhouse"
	"github.com/goodnatureofminers/rafflekeeper/internal/service/fulfiller"
	"github.com/goodnatureofminers/rafflekeeper/internal/service/journal"
	"github.com/goodnatureofminers/rafflekeeper/internal/service/keeper"
	"github.com/goodnatureofminers/rafflekeeper/internal/transport"
	"github.com/goodnatureofminers/rafflekeeper/internal/vrf"
	"github.com/goodnatureofminers/rafflekeeper/pkg/batcher"
)

type config struct {
	Network       string `long:"network" env:"RAFFLED_NETWORK" default:"hardhat" description:"Network name from the network table"`
	NetworksFile  string `long:"networks-file" env:"RAFFLED_NETWORKS_FILE" description:"Network table YAML; the built-in table is used when empty"`
	Deployer      string `long:"deployer" env:"RAFFLED_DEPLOYER" default:"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" description:"Deployer account address"`
	SubFundAmount string `long:"sub-fund-amount" env:"RAFFLED_SUB_FUND_AMOUNT" default:"2" description:"LINK, in ether units, a development subscription is funded with"`

	DeploymentsDir    string `long:"deployments-dir" env:"RAFFLED_DEPLOYMENTS_DIR" default:"deployments" description:"Directory for deployment records"`
	UpdateFrontEnd    bool   `long:"update-front-end" env:"RAFFLED_UPDATE_FRONT_END" description:"Write raffle address and ABI into the front end constants"`
	FrontEndAddresses string `long:"front-end-addresses" env:"RAFFLED_FRONT_END_ADDRESSES" default:"../nextjs-smartcontract-lottery-fcc/constants/contractAddresses.json" description:"Front end contract addresses file"`
	FrontEndABI       string `long:"front-end-abi" env:"RAFFLED_FRONT_END_ABI" default:"../nextjs-smartcontract-lottery-fcc/constants/abi.json" description:"Front end ABI file"`
	EtherscanAPIKey   string `long:"etherscan-api-key" env:"RAFFLED_ETHERSCAN_API_KEY" description:"Queue live deployments for block explorer verification when set"`

	DevAccounts      []string      `long:"dev-account" env:"RAFFLED_DEV_ACCOUNTS" env-delim:"," default:"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" default:"0x70997970C51812dc3A010C7d01b50e0d17dc79C8" default:"0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC" description:"Accounts funded on development chains"`
	RefuseAccounts   []string      `long:"refuse-account" env:"RAFFLED_REFUSE_ACCOUNTS" env-delim:"," description:"Development accounts that reject incoming transfers"`
	DevAccountFunds  string        `long:"dev-account-funds" env:"RAFFLED_DEV_ACCOUNT_FUNDS" default:"10000" description:"Ether each development account is funded with"`
	ClickhouseDSN    string        `long:"clickhouse-dsn" env:"RAFFLED_CLICKHOUSE_DSN" description:"ClickHouse DSN for the event journal; journal is disabled when empty"`
	HTTPAddr         string        `long:"http-addr" env:"RAFFLED_HTTP_ADDR" default:":8080" description:"HTTP listen address"`
	GRPCAddr         string        `long:"grpc-addr" env:"RAFFLED_GRPC_ADDR" default:":9090" description:"gRPC health listen address"`
	BlockTime        time.Duration `long:"block-time" env:"RAFFLED_BLOCK_TIME" default:"1s" description:"Simulated block interval"`
	KeeperInterval   time.Duration `long:"keeper-interval" env:"RAFFLED_KEEPER_INTERVAL" default:"5s" description:"Upkeep check interval"`
	FulfillInterval  time.Duration `long:"fulfill-interval" env:"RAFFLED_FULFILL_INTERVAL" default:"2s" description:"VRF fulfilment poll interval"`
	MinConfirmations uint16        `long:"min-confirmations" env:"RAFFLED_MIN_CONFIRMATIONS" default:"3" description:"Minimum confirmations before a request is fulfilled"`
	FulfillWorkers   int           `long:"fulfill-workers" env:"RAFFLED_FULFILL_WORKERS" default:"4" description:"Concurrent fulfilments"`
	JournalBuffer    int           `long:"journal-buffer" env:"RAFFLED_JOURNAL_BUFFER" default:"1024" description:"Event bus buffer for the journal"`
	JournalBatch     int           `long:"journal-batch" env:"RAFFLED_JOURNAL_BATCH" default:"500" description:"Events per ClickHouse insert"`
	JournalFlush     time.Duration `long:"journal-flush" env:"RAFFLED_JOURNAL_FLUSH" default:"2s" description:"Max delay before buffered events are written"`
	JournalRPS       int           `long:"journal-rps" env:"RAFFLED_JOURNAL_RPS" default:"0" description:"Insert rate limit, 0 disables"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config{}
	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("raffled failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	grpcZap.ReplaceGrpcLoggerV2(logger)
	gin.SetMode(gin.ReleaseMode)

	networks, err := deploy.LoadNetworks(cfg.NetworksFile)
	if err != nil {
		return err
	}
	if !common.IsHexAddress(cfg.Deployer) {
		return fmt.Errorf("invalid deployer address %q", cfg.Deployer)
	}
	subFund, err := model.ParseEther(cfg.SubFundAmount)
	if err != nil {
		return fmt.Errorf("parse sub fund amount: %w", err)
	}

	bus := event.NewBus()
	accounts := ledger.New()
	clk := clock.System{}
	vrfMetrics := metrics.NewContract("vrf_coordinator")

	var (
		journalSvc *journal.Service
		winners    transport.Winners
	)
	if cfg.ClickhouseDSN != "" {
		repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, metrics.NewClickhouseRepository("raffle_events"))
		if err != nil {
			return err
		}
		defer func() {
			if err := repo.Close(); err != nil {
				logger.Warn("close clickhouse", zap.Error(err))
			}
		}()
		// Subscribed before deploying, so deployment events reach the journal.
		journalSvc, err = journal.NewService(journal.Config{
			Buffer: cfg.JournalBuffer,
			Batch: batcher.Config{
				FlushSize:     cfg.JournalBatch,
				FlushInterval: cfg.JournalFlush,
				RPS:           cfg.JournalRPS,
			},
		}, bus, repo, metrics.NewJournal(), logger)
		if err != nil {
			return err
		}
		winners = repo
	}

	deployer, err := deploy.New(deploy.Config{
		Network:        cfg.Network,
		Deployer:       common.HexToAddress(cfg.Deployer),
		SubFundAmount:  subFund,
		Records:        deploy.RecordStore{Dir: cfg.DeploymentsDir},
		UpdateFrontEnd: cfg.UpdateFrontEnd,
		FrontEnd: deploy.FrontEnd{
			AddressesFile: cfg.FrontEndAddresses,
			ABIFile:       cfg.FrontEndABI,
		},
		Verify: cfg.EtherscanAPIKey != "",
	}, networks, deploy.Host{
		Ledger:        accounts,
		Clock:         clk,
		Publisher:     bus,
		RaffleMetrics: metrics.NewContract("raffle"),
		VRFMetrics:    vrfMetrics,
	}, logger)
	if err != nil {
		return err
	}

	if deployer.IsDevelopment() {
		if err := fundDevAccounts(accounts, cfg.DevAccounts, cfg.DevAccountFunds); err != nil {
			return err
		}
		if err := refuseAccounts(accounts, cfg.RefuseAccounts); err != nil {
			return err
		}
	} else {
		coordinator, err := vrf.New(vrf.Config{Address: deployer.Network().Coordinator()}, clk, bus, vrfMetrics, logger)
		if err != nil {
			return err
		}
		deployer.RegisterCoordinator(coordinator)
	}

	deployment, err := deployer.Run(ctx)
	if err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	logger.Info("raffle deployed",
		zap.String("network", deployment.Network.Name),
		zap.String("raffle", deployment.Raffle.Address().Hex()),
		zap.String("coordinator", deployment.Coordinator.Address().Hex()),
		zap.Uint64("subscription_id", deployment.SubscriptionID),
	)
	if err := deployment.CheckSubscription(); err != nil {
		logger.Error("raffle cannot request randomness, upkeeps will fail until the subscription lists it",
			zap.Error(err))
	}

	signals := startBlockSignal(ctx, cfg.BlockTime, 2)

	keeperSvc, err := keeper.NewService(deployment.Raffle, metrics.NewKeeper(), cfg.KeeperInterval, logger, signals[0])
	if err != nil {
		return err
	}

	var fulfillerSvc *fulfiller.Service
	if deployer.IsDevelopment() {
		fulfillerSvc, err = fulfiller.NewService(fulfiller.Config{
			MinConfirmations: cfg.MinConfirmations,
			BlockTime:        cfg.BlockTime,
			PollInterval:     cfg.FulfillInterval,
			Workers:          cfg.FulfillWorkers,
		}, deployment.Coordinator, clk, metrics.NewFulfiller(), logger, signals[1])
		if err != nil {
			return err
		}
	}

	handler, err := transport.NewHTTPHandler(
		deployment.Raffle,
		accounts,
		winners,
		transport.Contracts{
			Network:        deployment.Network.Name,
			ChainID:        deployment.Network.ChainID,
			Raffle:         deployment.Raffle.Address(),
			Coordinator:    deployment.Coordinator.Address(),
			SubscriptionID: deployment.SubscriptionID,
			Events:         deployment.EventTopics,
		},
		metrics.NewHTTP(),
		logger,
	)
	if err != nil {
		return err
	}

	grpcServer, health := transport.NewGRPCServer(logger)
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return keeperSvc.Run(gctx) })
	if fulfillerSvc != nil {
		g.Go(func() error { return fulfillerSvc.Run(gctx) })
	}
	if journalSvc != nil {
		g.Go(func() error { return journalSvc.Run(gctx) })
	}
	g.Go(func() error {
		logger.Info("grpc server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
		grpcServer.GracefulStop()
		return nil
	})

	health.SetServing()
	logger.Info("raffled running", zap.String("network", deployment.Network.Name))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("raffled stopped")
	return nil
}

func fundDevAccounts(accounts *ledger.Ledger, addrs []string, funds string) error {
	amount, err := model.ParseEther(funds)
	if err != nil {
		return fmt.Errorf("parse dev account funds: %w", err)
	}
	for _, addr := range addrs {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid dev account %q", addr)
		}
		if err := accounts.Fund(common.HexToAddress(addr), new(big.Int).Set(amount)); err != nil {
			return fmt.Errorf("fund %s: %w", addr, err)
		}
	}
	return nil
}

func refuseAccounts(accounts *ledger.Ledger, addrs []string) error {
	for _, addr := range addrs {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid refusing account %q", addr)
		}
		accounts.Refuse(common.HexToAddress(addr))
	}
	return nil
}
