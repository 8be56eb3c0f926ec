// bridgectl is the operator CLI for the bridge: connection testing and the
// one-off v3 protocol migration.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/quizlink/quizlink-bridge/internal/activity"
	"github.com/quizlink/quizlink-bridge/internal/config"
	"github.com/quizlink/quizlink-bridge/internal/db"
	"github.com/quizlink/quizlink-bridge/internal/remote"
	"github.com/quizlink/quizlink-bridge/internal/token"
)

const usage = `usage: bridgectl <command>

commands:
  ping         check that the configured keys are accepted by the quiz service
  upgrade-v3   perform the v3 protocol migration (id -> username mapping)
`

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("v", false, "verbose progress output")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	signer := token.NewSigner(cfg.SecretAccessKey)
	client := remote.NewClient(cfg.BaseURL, cfg.AccessKeyID, config.Version, signer, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch flag.Arg(0) {
	case "ping":
		connected, err := client.Ping(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("ping failed")
			connected = false
		}
		if !connected {
			fmt.Println("disconnected")
			os.Exit(1)
		}
		fmt.Println("connected")

	case "upgrade-v3":
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		store := activity.NewSQLStore(dbh, cfg.DBDriver)

		ids, err := client.UpgradeStep1(ctx)
		if err != nil {
			log.Fatalf("upgrade step 1: %v", err)
		}
		logger.Debug().Int("users", len(ids)).Msg("step 1 complete")

		mapping, err := store.UsernamesByID(ctx, ids)
		if err != nil {
			log.Fatalf("resolve usernames: %v", err)
		}
		if err := client.UpgradeStep2(ctx, mapping); err != nil {
			log.Fatalf("upgrade step 2: %v", err)
		}
		fmt.Printf("migrated %d of %d users\n", len(mapping), len(ids))

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}
