package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/kazi/api/echo"
	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/assignment"
	"github.com/trezcool/kazi/services/canvas"
	logsvc "github.com/trezcool/kazi/services/logger"
	notifsvc "github.com/trezcool/kazi/services/notification"
	remindersvc "github.com/trezcool/kazi/services/reminder"
	aisvc "github.com/trezcool/kazi/services/summarizer"
	syncsvc "github.com/trezcool/kazi/services/sync"
	"github.com/trezcool/kazi/storage/jsonstore"
)

func main() {
	conf := core.LoadConfig()

	std := log.New(os.Stdout, fmt.Sprintf("%s - ", conf.AppName), log.LstdFlags|log.Lshortfile)
	var logger core.Logger
	if conf.RollbarToken != "" && !conf.Debug {
		logger = logsvc.NewRollbarLogger(std, conf)
	} else {
		logger = logsvc.NewStdLogger(std)
	}

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	// =========================================================================
	// Storage & Services

	store := jsonstore.Open(conf.DataFile, logger)
	asgSvc := assignment.NewService(store)

	fetcher := canvas.NewClient(conf.Canvas)
	syncer := syncsvc.NewRunner(fetcher, store, logger)

	notifSvc := notifsvc.NewService(logger, notificationChannels(conf, std)...)
	reminders := remindersvc.NewJob(store, notifSvc, logger)

	summarizer := aisvc.NewService(conf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if fetcher.Configured() {
		syncer.StartAutoSync(ctx, conf.AutoSyncInterval)
	} else {
		logger.Warn("Canvas is not configured; remote sync disabled")
	}
	reminders.Start(ctx, conf.ReminderInterval)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	if conf.Debug {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(&echoapi.Options{
		Addr:          conf.Server.Addr,
		Debug:         conf.Debug,
		TestMode:      conf.TestMode,
		AssignmentSvc: asgSvc,
		Syncer:        syncer,
		Summarizer:    summarizer,
		Logger:        logger,
		Validate:      validate,
	})
	logger.Info(fmt.Sprintf("API server listening on %s", conf.Server.Addr))
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		cancel()

		// give outstanding requests a deadline for completion
		shutCtx, shutCancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer shutCancel()

		if err := server.Shutdown(shutCtx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// notificationChannels assembles the delivery channels enabled by the
// configuration. The console channel is always on so reminders are visible in
// the server logs; the rest switch on when their credentials are present.
func notificationChannels(conf *core.Config, std *log.Logger) []notifsvc.Channel {
	channels := []notifsvc.Channel{
		notifsvc.NewConsoleChannel(std),
		notifsvc.NewDesktopChannel(),
	}
	if conf.Bark.Key != "" {
		channels = append(channels, notifsvc.NewBarkChannel(conf))
	}
	if conf.SendgridApiKey != "" && conf.ReminderEmail != "" {
		channels = append(channels, notifsvc.NewEmailChannel(conf))
	}
	return channels
}
