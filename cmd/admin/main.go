package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/juho05/log"

	"github.com/juho05/melodeon/config"
	"github.com/juho05/melodeon/scanner"
)

const usage = "<command>\n\nCOMMANDS:\n  scan [--full]\n  replaygain <file>\n  convert-playlists"

func run(ctx context.Context, args []string, conf config.Config) error {
	if len(args) < 2 {
		fmt.Println("USAGE:", args[0], usage)
		os.Exit(1)
	}

	s, closeCache, err := scanner.NewFromConfig(ctx, conf)
	if err != nil {
		return err
	}
	defer closeCache.Close()

	switch args[1] {
	case "scan":
		err = scan(ctx, args, s)
	case "replaygain":
		err = replayGain(ctx, args, s)
	case "convert-playlists":
		err = convertPlaylists(s)
	default:
		fmt.Println("Unknown command")
		fmt.Println("USAGE:", args[0], usage)
		os.Exit(1)
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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Args, conf)
	if err != nil {
		log.Fatalf("%s", err)
	}
}
