// skimmer: content-risk scoring daemon. Wires the scoring engine to its
// external collaborators and exposes it over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/riskmod/riskmod/casestore"
	"github.com/riskmod/riskmod/embed"
	"github.com/riskmod/riskmod/engine"
	"github.com/riskmod/riskmod/lexical"
	"github.com/riskmod/riskmod/scorer"
	"github.com/riskmod/riskmod/segment"

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
		Name:    "skimmer",
		Usage:   "content-risk scoring daemon (skims the trash off the stream)",
		Version: versioninfo.Short(),
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
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the scoring API",
			Value:   ":3899",
			EnvVars: []string{"SKIMMER_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3898",
			EnvVars: []string{"SKIMMER_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for the case store; in-memory store when empty",
			EnvVars: []string{"SKIMMER_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "classifier-host",
			Usage:   "base URL of the pretrained classifier service",
			Value:   "http://localhost:8801",
			EnvVars: []string{"SKIMMER_CLASSIFIER_HOST"},
		},
		&cli.StringFlag{
			Name:    "classifier-api-key",
			EnvVars: []string{"SKIMMER_CLASSIFIER_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "judge-host",
			Usage:   "base URL of the LLM judge service",
			Value:   "http://localhost:8802",
			EnvVars: []string{"SKIMMER_JUDGE_HOST"},
		},
		&cli.StringFlag{
			Name:    "judge-api-key",
			EnvVars: []string{"SKIMMER_JUDGE_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "judge-model",
			Value:   "risk-judge-small",
			EnvVars: []string{"SKIMMER_JUDGE_MODEL"},
		},
		&cli.StringFlag{
			Name:    "embed-host",
			Usage:   "base URL of the embedding service",
			Value:   "http://localhost:8803",
			EnvVars: []string{"SKIMMER_EMBED_HOST"},
		},
		&cli.StringFlag{
			Name:    "embed-api-key",
			EnvVars: []string{"SKIMMER_EMBED_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "embed-model",
			Value:   "text-embed-base",
			EnvVars: []string{"SKIMMER_EMBED_MODEL"},
		},
		&cli.DurationFlag{
			Name:    "scorer-timeout",
			Usage:   "per-call timeout for classifier, judge, and embedding requests",
			Value:   5 * time.Second,
			EnvVars: []string{"SKIMMER_SCORER_TIMEOUT"},
		},
		&cli.IntFlag{
			Name:    "scorer-rate-limit",
			Usage:   "max requests per second to each scoring service",
			Value:   50,
			EnvVars: []string{"SKIMMER_SCORER_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "embed-cache-size",
			Value:   10_000,
			EnvVars: []string{"SKIMMER_EMBED_CACHE_SIZE"},
		},
		&cli.IntFlag{
			Name:    "writer-queue-size",
			Value:   256,
			EnvVars: []string{"SKIMMER_WRITER_QUEUE_SIZE"},
		},
		&cli.StringFlag{
			Name:    "backfill-json",
			Usage:   "path to a JSON file of labeled cases to seed the store with",
			EnvVars: []string{"SKIMMER_BACKFILL_JSON"},
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
		if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
			slog.Info("setting up trace exporter", "endpoint", ep)
			exp, err := otlptracehttp.New(ctx)
			if err != nil {
				return fmt.Errorf("creating trace exporter: %w", err)
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := exp.Shutdown(sctx); err != nil {
					slog.Error("failed to shutdown trace exporter", "err", err)
				}
			}()

			tp := tracesdk.NewTracerProvider(
				tracesdk.WithBatcher(exp),
				tracesdk.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String("skimmer"),
					attribute.String("env", os.Getenv("ENVIRONMENT")),
					attribute.String("environment", os.Getenv("ENVIRONMENT")),
				)),
			)
			otel.SetTracerProvider(tp)
		}

		var cases casestore.CaseStore
		if redisURL := cctx.String("redis-url"); redisURL != "" {
			rcs, err := casestore.NewRedisCaseStore(redisURL, 30*time.Minute)
			if err != nil {
				return fmt.Errorf("initializing redis case store: %w", err)
			}
			cases = rcs
			logger.Info("using redis case store")
		} else {
			cases = casestore.NewMemCaseStore()
			logger.Info("using in-memory case store (not persistent)")
		}

		timeout := cctx.Duration("scorer-timeout")
		rateLimit := cctx.Int("scorer-rate-limit")

		var embedder embed.Embedder = embed.NewHTTPEmbedder(
			cctx.String("embed-host"),
			cctx.String("embed-api-key"),
			cctx.String("embed-model"),
			timeout,
		)
		embedder, err := embed.NewCachedEmbedder(embedder, cctx.Int("embed-cache-size"))
		if err != nil {
			return err
		}

		cfg := engine.DefaultConfig()
		cfg.ScorerTimeout = timeout

		eng := &engine.Engine{
			Logger:    logger,
			Segmenter: segment.NewSegmenter(),
			Lexical:   lexical.NewScorer(),
			Classifier: scorer.NewHTTPClassifier(
				cctx.String("classifier-host"),
				cctx.String("classifier-api-key"),
				timeout,
				rateLimit,
			),
			Judge: scorer.NewHTTPJudge(
				cctx.String("judge-host"),
				cctx.String("judge-api-key"),
				cctx.String("judge-model"),
				timeout,
				rateLimit,
			),
			Embedder: embedder,
			Cases:    cases,
			Config:   cfg,
		}
		eng.Writer = engine.NewCaseWriter(logger, cases, embedder, cctx.Int("writer-queue-size"))

		if path := cctx.String("backfill-json"); path != "" {
			n, err := backfillFromFile(ctx, eng, path)
			if err != nil {
				return fmt.Errorf("seeding case store: %w", err)
			}
			logger.Info("seeded case store from backfill file", "path", path, "cases", n)
		}

		srv := NewServer(eng, logger)

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "err", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		return srv.Run(ctx, cctx.String("bind"))
	},
}
