package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-ledger/api"
	"github.com/carson-networks/finance-ledger/internal/amqp"
	"github.com/carson-networks/finance-ledger/internal/config"
	"github.com/carson-networks/finance-ledger/internal/logging"
	"github.com/carson-networks/finance-ledger/internal/operator"
	"github.com/carson-networks/finance-ledger/internal/service"
	"github.com/carson-networks/finance-ledger/internal/storage"
)

func main() {
	logger := logging.SetupLogging()
	logger.Info("finance-ledger starting")

	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logrus.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}

	store, err := storage.NewStorage(envConfig)
	if err != nil {
		logger.WithError(err).Fatal("storage.NewStorage")
		return
	}
	defer store.Close()

	delegator := operator.NewOperatorDelegator(store, envConfig.OperatorWorkers)
	delegator.Start()
	defer delegator.Stop()

	var notifier service.ChangeNotifier
	if envConfig.AMQPURL != "" {
		client, err := amqp.NewClient(envConfig.AMQPURL, envConfig.AMQPExchange, envConfig.AMQPRoutingKey, logger)
		if err != nil {
			logger.WithError(err).Fatal("amqp.NewClient")
			return
		}
		defer client.Close()
		notifier = client
	}

	svc := service.NewService(store, delegator, notifier, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpRest := api.Rest{
		Logger:  logger,
		Port:    envConfig.Port,
		Service: svc,
		Storage: store,
	}
	if err := httpRest.Serve(ctx); err != nil {
		logger.WithError(err).Error("api.Rest.Serve")
	}
	logger.Info("finance-ledger stopped")
}
