package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/microearn/backend/internal/auth"
	"github.com/microearn/backend/internal/config"
	"github.com/microearn/backend/internal/dashboard"
	"github.com/microearn/backend/internal/database"
	"github.com/microearn/backend/internal/ledger"
	"github.com/microearn/backend/internal/notify"
	"github.com/microearn/backend/internal/payments"
	"github.com/microearn/backend/internal/repository"
	"github.com/microearn/backend/internal/router"
	"github.com/microearn/backend/internal/submissions"
	"github.com/microearn/backend/internal/tasks"
	"github.com/microearn/backend/internal/validate"
	"github.com/microearn/backend/internal/withdrawals"
)

// app is the fully wired service graph.
type app struct {
	pool     *pgxpool.Pool
	river    *river.Client[pgx.Tx]
	handler  http.Handler
	auth     auth.Service
	tasks    *tasks.Service
	accounts *repository.AccountRepo
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	pool, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to PostgreSQL")

	accounts := repository.NewAccountRepo(pool)
	led := ledger.NewService(accounts, repository.NewLedgerRepo(pool))
	notifications := repository.NewNotificationRepo(pool)

	// Job insert funcs are bound after the River client exists; the workers
	// need the services and the services need the insert funcs.
	var insertMu sync.Mutex
	var client *river.Client[pgx.Tx]
	insert := func(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) error {
		insertMu.Lock()
		c := client
		insertMu.Unlock()
		if c == nil {
			return fmt.Errorf("river client not wired")
		}
		_, err := c.Insert(ctx, args, opts)
		return err
	}
	sink := notify.NewQueueSink(func(ctx context.Context, args notify.DeliverArgs) error {
		return insert(ctx, args, nil)
	}, logger)
	settleEnqueue := func(ctx context.Context, args payments.SettleArgs) error {
		return insert(ctx, args, &river.InsertOpts{
			UniqueOpts: river.UniqueOpts{ByArgs: true, ByPeriod: 10 * time.Minute},
		})
	}

	provider := payments.NewStripeProvider(payments.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		BaseURL:       cfg.Stripe.APIBase,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
	}, nil)
	identity, err := auth.NewFirebaseProvider(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.FirebaseCredentialsFile)
	if err != nil {
		pool.Close()
		return nil, err
	}

	submissionRepo := repository.NewSubmissionRepo(pool)
	taskSvc := tasks.NewService(pool, repository.NewTaskRepo(pool), led, logger)
	taskSvc.UseSubmissions(submissionRepo)
	subSvc := submissions.NewService(pool, submissionRepo, taskSvc, led, sink, logger)
	paySvc := payments.NewService(pool, repository.NewPaymentRepo(pool), provider, led, sink, settleEnqueue, cfg.Stripe.Currency, logger)
	wdSvc := withdrawals.NewService(pool, repository.NewWithdrawalRepo(pool), led, sink, logger)
	authSvc := auth.NewService(pool, accounts, led, identity, auth.Options{
		Secret:   []byte(cfg.Auth.JWTSecret),
		TokenTTL: cfg.Auth.TokenTTL,
	}, logger)

	workers := river.NewWorkers()
	river.AddWorker(workers, notify.NewDeliverWorker(notifications))
	river.AddWorker(workers, payments.NewSettleWorker(paySvc))

	c, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.Queue.MaxWorkers},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create river client: %w", err)
	}
	insertMu.Lock()
	client = c
	insertMu.Unlock()

	validator, err := validate.New()
	if err != nil {
		pool.Close()
		return nil, err
	}

	handler := router.New(router.Handlers{
		Auth:        auth.NewHandler(authSvc, validator, logger),
		Dashboard:   dashboard.NewHandler(accounts, led, logger),
		Tasks:       tasks.NewHandler(taskSvc, validator, logger),
		Submissions: submissions.NewHandler(subSvc, validator, logger),
		Payments:    payments.NewHandler(paySvc, validator, logger),
		Withdrawals: withdrawals.NewHandler(wdSvc, validator, logger),
		Notify:      notify.NewHandler(notify.NewService(notifications), logger),
	}, authSvc, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Metrics:        cfg.Metrics.Enabled,
		Log:            logger,
	})

	return &app{
		pool:     pool,
		river:    c,
		handler:  handler,
		auth:     authSvc,
		tasks:    taskSvc,
		accounts: accounts,
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}
