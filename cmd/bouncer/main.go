package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "bouncer",
		Usage:   "bot account classification daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "reddit-endpoint",
			Usage:   "base URL of the reddit JSON API (or compatible proxy)",
			Value:   "https://www.reddit.com",
			EnvVars: []string{"BOUNCER_REDDIT_ENDPOINT"},
		},
		&cli.IntFlag{
			Name:    "reddit-rate-limit",
			Usage:   "max requests per second to the reddit API",
			Value:   8,
			EnvVars: []string{"BOUNCER_REDDIT_RATE_LIMIT"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL; empty means in-memory stores",
			EnvVars: []string{"BOUNCER_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "sqlite path for classification records",
			Value:   "data/bouncer/status.sqlite",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "subreddit",
			Usage:   "subreddit whose event stream gets monitored",
			Value:   "all",
			EnvVars: []string{"BOUNCER_SUBREDDIT"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3990",
			EnvVars: []string{"BOUNCER_METRICS_LISTEN"},
		},
		&cli.DurationFlag{
			Name:    "tick-interval",
			Usage:   "how often the queue consumers and event poller run",
			Value:   time.Minute,
			EnvVars: []string{"BOUNCER_TICK_INTERVAL"},
		},
		&cli.DurationFlag{
			Name:    "drain-budget",
			Usage:   "soft wall-clock limit for one queue drain",
			Value:   30 * time.Second,
			EnvVars: []string{"BOUNCER_DRAIN_BUDGET"},
		},
		&cli.StringFlag{
			Name:    "sets-file-json",
			Usage:   "file path of JSON file containing initial rule settings",
			EnvVars: []string{"BOUNCER_SETS_FILE_JSON"},
		},
		&cli.IntFlag{
			Name:    "poll-limit",
			Usage:   "max events fetched per poll",
			Value:   100,
			EnvVars: []string{"BOUNCER_POLL_LIMIT"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		// Enable OTLP HTTP exporter
		// For relevant environment variables:
		// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace#readme-environment-variables
		// At a minimum, you need to set
		// OTEL_EXPORTER_OTLP_ENDPOINT=http://localhost:4318
		if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
			slog.Info("setting up trace exporter", "endpoint", ep)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exp, err := otlptracehttp.New(ctx)
			if err != nil {
				return fmt.Errorf("failed to create trace exporter: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := exp.Shutdown(ctx); err != nil {
					slog.Error("failed to shutdown trace exporter", "error", err)
				}
			}()

			tp := tracesdk.NewTracerProvider(
				tracesdk.WithBatcher(exp),
				tracesdk.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String("bouncer"),
					attribute.String("env", os.Getenv("ENVIRONMENT")),         // DataDog
					attribute.String("environment", os.Getenv("ENVIRONMENT")), // Others
					attribute.Int64("ID", 1),
				)),
			)
			otel.SetTracerProvider(tp)
		}

		srv, err := NewServer(Config{
			Logger:          logger,
			RedisURL:        cctx.String("redis-url"),
			DatabaseURL:     cctx.String("database-url"),
			RedditEndpoint:  cctx.String("reddit-endpoint"),
			RedditRateLimit: cctx.Int("reddit-rate-limit"),
			Subreddit:       cctx.String("subreddit"),
			TickInterval:    cctx.Duration("tick-interval"),
			DrainBudget:     cctx.Duration("drain-budget"),
			SetsFileJSON:    cctx.String("sets-file-json"),
			PollLimit:       cctx.Int("poll-limit"),
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run classification service: %w", err)
		}
		return nil
	},
}
