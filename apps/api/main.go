package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/apps/di"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/reconcile"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	c, err := di.New(context.Background(), conf, "api")
	if err != nil {
		log.Fatalf("setting up dependencies: %v", err)
	}
	logger := c.Logger
	defer func() {
		if err = c.Close(); err != nil {
			logger.Error("closing dependencies", err)
		}
	}()

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build),
		"env", conf.Env, "engine", conf.Database.Engine, "authMode", conf.Auth.Mode)
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Reconciler

	if conf.ReconcileSchedule != "" {
		sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		if _, err = sched.AddFunc(conf.ReconcileSchedule, reconcileJob(c.ReconcileSvc, logger)); err != nil {
			logger.Fatal("invalid reconcile schedule", "schedule", conf.ReconcileSchedule, err)
		}
		sched.Start()
		defer func() { <-sched.Stop().Done() }()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(conf.Server.Address, nil, &echoapi.Deps{
		Conf:       conf,
		Logger:     logger,
		Verifier:   c.Verifier,
		CourseSvc:  c.CourseSvc,
		ChapterSvc: c.ChapterSvc,
		QuizSvc:    c.QuizSvc,
	})
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error("server error", err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error("could not stop server gracefully", err)
			if err = server.Close(); err != nil {
				logger.Error("could not force stop server", err)
			}
		}
	}
}

// reconcileJob repairs leftovers of interrupted multi-step writes on every tick.
func reconcileJob(svc *reconcile.Service, logger core.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		rep, err := svc.Run(ctx, true)
		if err != nil {
			logger.Error("reconcile run failed", err)
			return
		}
		if len(rep.Issues) > 0 {
			logger.Warn("reconcile fixed inconsistencies", "issues", len(rep.Issues), "coursesScanned", rep.CoursesScanned)
		}
	}
}
