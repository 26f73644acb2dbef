package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waypoint/account"
	"waypoint/bizerror"
	"waypoint/client/es"
	"waypoint/common"
	"waypoint/event"
	"waypoint/eventbus"
	"waypoint/execution"
	"waypoint/indices"
	"waypoint/infra/tracing"
	"waypoint/notify"
	"waypoint/session"
	"waypoint/sessions"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultRedispatchSchedule = "@every 5m"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		return serve(port)
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 80, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func serve(port int) error {
	closer, err := tracing.InitGlobalTracer(common.GetServiceName())
	if err != nil {
		return fmt.Errorf("init tracer failed: %w", err)
	}
	defer closer.Close()

	ds, err := startDataSource()
	if err != nil {
		return err
	}
	defer ds.Stop()

	events := event.NewGormStore(ds)
	accounts := account.NewAccounts(ds)
	directory := notify.NewGormDirectory(ds)
	for _, m := range []interface{ Migrate() error }{events, accounts, directory} {
		if err := m.Migrate(); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
	}

	definitions, err := loadDefinitions()
	if err != nil {
		return err
	}
	services := make([]*execution.Service, 0, len(definitions))
	baseline := map[string][]string{}
	for _, d := range definitions {
		services = append(services, d.NewService(execution.NewGormRepository(ds, d.StatusTable), events))
		baseline[d.Workflow()] = d.Table.Notify
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := notify.NewDispatcher(baseline, directory, notify.LogSender{})
	bus, err := eventbus.NewFromEnv()
	if err != nil {
		return fmt.Errorf("event bus: %w", err)
	}
	if bus != nil {
		defer bus.Close()
		for _, s := range services {
			s.Subscribe(bus.Handler())
		}
		go func() {
			if err := bus.Consume(ctx, dispatcher.Dispatch); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("event bus consumer stopped")
			}
		}()
	} else {
		logrus.Info("REDIS_ADDR not set, notifications are dispatched in process")
		for _, s := range services {
			s.Subscribe(dispatcher.Handler())
		}
	}

	searchEnabled := os.Getenv("ELASTICSEARCH_URL") != ""
	if searchEnabled {
		if _, err := es.CreateClientFromEnv(); err != nil {
			return fmt.Errorf("elasticsearch client: %w", err)
		}
		if err := indices.CreateEventIndex(ctx); err != nil {
			logrus.WithError(err).Warn("create event index failed")
		}
		for _, s := range services {
			s.Subscribe(indices.IndexEventHandler)
		}
	}

	schedule := os.Getenv("WAYPOINT_REDISPATCH_SCHEDULE")
	if schedule == "" {
		schedule = defaultRedispatchSchedule
	}
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, func() {
		if err := execution.RedispatchRoutineFunc(services, nil); err != nil {
			logrus.WithError(err).Error("scheduled redispatch failed")
		}
	}); err != nil {
		return fmt.Errorf("%w: redispatch schedule %q: %v", bizerror.ErrConfiguration, schedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	engine := gin.Default()
	engine.Use(bizerror.ErrorHandling())
	engine.Use(tracing.TracingIngress())

	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": common.GetServiceName()})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessions.RegisterSessionsRestAPI(engine, accounts.Authenticate)
	execution.RegisterExecutionRestAPI(engine, services, session.SimpleAuthFilter())
	if searchEnabled {
		indices.RegisterIndicesRestAPI(engine, services, session.SimpleAuthFilter())
	}

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: engine}
	go func() {
		logrus.Infof("%s listening on %s", common.GetServiceName(), srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
