package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/juho05/log"

	"github.com/juho05/melodeon/config"
	"github.com/juho05/melodeon/handlers"
	"github.com/juho05/melodeon/scanner"
)

func run(conf config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, closeCache, err := scanner.NewFromConfig(ctx, conf)
	if err != nil {
		return err
	}
	defer closeCache.Close()

	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		s.Run(ctx, scanner.RunOptions{
			StartupScan: conf.StartupScan,
			Interval:    conf.ScanInterval,
			Watch:       conf.WatchMusicDir,
		})
	}()

	handler := handlers.New(ctx, s)

	server := http.Server{
		Addr:              conf.ListenAddr,
		Handler:           handler,
		ErrorLog:          log.NewStdLogger(log.ERROR),
		ReadHeaderTimeout: 10 * time.Second,
	}

	closed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		timeout, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
		log.Info("Shutting down...")
		server.Shutdown(timeout)
		cancel()
		<-scanDone
		cancelTimeout()
		close(closed)
	}()

	log.Infof("Listening on http://%s...", conf.ListenAddr)
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	if err == nil {
		<-closed
	}
	return err
}

func main() {
	_ = godotenv.Load()

	conf, errs := config.Load(os.Environ())
	if len(errs) > 0 {
		for _, e := range errs {
			log.Errorf("ERROR: %s", e)
		}
		log.Fatalf("ERROR: failed to load config")
	}

	log.SetSeverity(conf.LogLevel)
	log.SetOutput(conf.LogFile)

	err := run(conf)
	if err != nil {
		log.Fatalf("ERROR: %s", err)
	}
	log.Info("Shutdown complete.")
}
