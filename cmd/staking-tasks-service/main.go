package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/cmd/staking-tasks-service/cli"
	"github.com/ubi-economy/staking-tasks-service/cmd/staking-tasks-service/scripts"
	"github.com/ubi-economy/staking-tasks-service/internal/api"
	"github.com/ubi-economy/staking-tasks-service/internal/chain"
	"github.com/ubi-economy/staking-tasks-service/internal/config"
	"github.com/ubi-economy/staking-tasks-service/internal/db"
	"github.com/ubi-economy/staking-tasks-service/internal/db/model"
	"github.com/ubi-economy/staking-tasks-service/internal/observability/healthcheck"
	"github.com/ubi-economy/staking-tasks-service/internal/observability/metrics"
	"github.com/ubi-economy/staking-tasks-service/internal/queue"
	"github.com/ubi-economy/staking-tasks-service/internal/services"
	"github.com/ubi-economy/staking-tasks-service/internal/tasks"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
)

const shutdownTimeout = 30 * time.Second

func init() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("failed to load .env file")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// setup cli commands and flags
	if err := cli.Setup(); err != nil {
		log.Fatal().Err(err).Msg("error while setting up cli")
	}

	// load config
	cfgPath := cli.GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	logLevel, err := zerolog.ParseLevel(cfg.Service.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("error while parsing log level")
	}
	zerolog.SetGlobalLevel(logLevel)

	metrics.Init(cfg.Metrics)

	deploymentPath := cli.GetDeploymentPath()
	deployment, err := types.NewDeployment(deploymentPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading deployment file: %s", deploymentPath))
	}
	networkDeployment, err := deployment.ForNetwork(cfg.Service.Network)
	if err != nil {
		log.Fatal().Err(err).Msg("error while selecting network deployment")
	}

	mainGateway, err := chain.NewEthGateway(ctx, "main", &cfg.MainChain)
	if err != nil {
		log.Fatal().Err(err).Msg("error while connecting to main chain")
	}
	defer mainGateway.Close()
	sideGateway, err := chain.NewEthGateway(ctx, "side", &cfg.SideChain)
	if err != nil {
		log.Fatal().Err(err).Msg("error while connecting to side chain")
	}
	defer sideGateway.Close()

	addresses, err := services.ResolveAddresses(ctx, mainGateway, networkDeployment)
	if err != nil {
		log.Fatal().Err(err).Msg("error while resolving contract addresses")
	}

	err = model.Setup(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up task run db model")
	}
	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while connecting to task run db")
	}

	queues, err := queue.New(cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up outcome queue")
	}

	gateways := services.Gateways{Main: mainGateway, Side: sideGateway}
	svc, err := services.New(ctx, cfg, addresses, gateways, dbClient, queues)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up staking tasks services layer")
	}
	if cfg.Collection.MockInterest {
		mocker, err := services.NewInterestMocker(mainGateway, addresses, mainGateway.Accounts()[0])
		if err != nil {
			log.Fatal().Err(err).Msg("error while setting up interest mock")
		}
		svc.Collection.SetInterestMocker(mocker)
		log.Warn().Int64("chainId", cfg.MainChain.ChainID).Msg("interest mock enabled")
	}

	recorders := []tasks.OutcomeRecorder{
		tasks.RecorderFunc(svc.SaveTaskRun),
		tasks.RecorderFunc(svc.PublishTaskRun),
	}
	taskList := map[string]*tasks.RecurringTask{
		services.CollectionTaskName: tasks.NewRecurringTask(
			services.CollectionTaskName, cfg.Collection.Schedule, svc.Collection, recorders...,
		).WithFailureFloor(cfg.Service.FailureFloor),
		services.FishingTaskName: tasks.NewRecurringTask(
			services.FishingTaskName, cfg.Fishing.Schedule, svc.Fishing, recorders...,
		).WithFailureFloor(cfg.Service.FailureFloor),
	}

	// Check if the run-once flag is set
	if name := cli.GetRunOnceTask(); name != "" {
		taskName, err := scripts.ResolveTaskName(name)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid run-once task")
		}
		if err := scripts.RunOnce(ctx, taskList[taskName]); err != nil {
			log.Fatal().Err(err).Msg("run-once task failed")
		}
		return
	}

	scheduler := tasks.NewScheduler(cfg.Service.MinRescheduleDelay)
	enabled := map[string]bool{
		services.CollectionTaskName: cfg.Collection.Enabled,
		services.FishingTaskName:    cfg.Fishing.Enabled,
	}
	for name, task := range taskList {
		if !enabled[name] {
			log.Info().Str("task", name).Msg("task disabled")
			continue
		}
		if err := scheduler.Register(task); err != nil {
			log.Fatal().Err(err).Msg("error while registering task")
		}
	}
	scheduler.Start()

	if err := healthcheck.StartHealthCheckCron(ctx, queues, cfg.Service.HealthCheckInterval); err != nil {
		log.Fatal().Err(err).Msg("error while starting health check cron")
	}

	apiServer, err := api.New(ctx, cfg, svc, scheduler)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up ops api")
	}
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("error while starting ops api")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error while stopping ops api")
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tasks did not stop in time")
	}
	if err := queues.Close(); err != nil {
		log.Error().Err(err).Msg("error while closing outcome queue")
	}
	if err := dbClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error while disconnecting task run db")
	}
}
