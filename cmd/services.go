package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lexi/internal/cache/rediscache"
	"github.com/abhisek/lexi/internal/content"
	"github.com/abhisek/lexi/internal/evaluate"
	"github.com/abhisek/lexi/internal/events"
	"github.com/abhisek/lexi/internal/llm"
	"github.com/abhisek/lexi/internal/store"
	"github.com/abhisek/lexi/internal/store/mongostore"
)

const closeTimeout = 5 * time.Second

// services bundles everything the front ends share. Build it with
// openServices and release it with Close.
type services struct {
	Store     *store.Store
	Repo      store.ProgressRepo
	Catalog   *content.Catalog
	Evaluator *evaluate.Evaluator
	Logger    *slog.Logger

	closers []func()
}

// serviceOpts selects which optional services to build.
type serviceOpts struct {
	// WithEvaluator builds the LLM provider and answer evaluator.
	WithEvaluator bool
}

// openStore opens the SQL store named by --db, LEXI_DB or the default path.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// openServices builds the progress repository and, on request, the
// evaluator. Progress lives in MongoDB when LEXI_MONGO_URI is set and in the
// SQL store otherwise; LLM request events always go to the SQL store.
// LEXI_AMQP_URL adds progress event publishing and LEXI_REDIS_URL moves the
// verdict cache to Redis.
func openServices(ctx context.Context, cmd *cobra.Command, opts serviceOpts) (*services, error) {
	logger := slog.Default()
	st, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	svc := &services{
		Store:   st,
		Repo:    st.ProgressRepo(),
		Catalog: content.Default(),
		Logger:  logger,
	}
	svc.closers = append(svc.closers, func() { st.Close() })

	if uri := os.Getenv("LEXI_MONGO_URI"); uri != "" {
		dbName := os.Getenv("LEXI_MONGO_DB")
		if dbName == "" {
			dbName = "lexi"
		}
		ms, err := mongostore.Open(ctx, uri, dbName)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		svc.Repo = ms
		svc.closers = append(svc.closers, func() {
			cctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			_ = ms.Close(cctx)
		})
		logger.Info("progress stored in mongo", "database", dbName)
	}

	if url := os.Getenv("LEXI_AMQP_URL"); url != "" {
		exchange := os.Getenv("LEXI_AMQP_EXCHANGE")
		if exchange == "" {
			exchange = events.DefaultExchange
		}
		pub, err := events.Dial(url, exchange)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("connect amqp: %w", err)
		}
		svc.Repo = events.NewPublishingRepo(svc.Repo, pub, logger)
		svc.closers = append(svc.closers, func() { _ = pub.Close() })
		logger.Info("publishing progress events", "exchange", exchange)
	}

	if opts.WithEvaluator {
		if err := svc.buildEvaluator(ctx); err != nil {
			svc.Close()
			return nil, err
		}
	}
	return svc, nil
}

func (s *services) buildEvaluator(ctx context.Context) error {
	var cache evaluate.Cache = evaluate.NewMemoryCache()
	if url := os.Getenv("LEXI_REDIS_URL"); url != "" {
		rc, err := rediscache.Open(ctx, url, rediscache.DefaultTTL)
		if err != nil {
			return fmt.Errorf("open redis cache: %w", err)
		}
		cache = rc
		s.closers = append(s.closers, func() { _ = rc.Close() })
	}

	provider, err := llm.NewProviderFromEnv(ctx, s.Store.EventRepo(), s.Logger)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			return fmt.Errorf("LLM provider: %w", err)
		}
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Answers will be checked with simple matching rules.")
		provider = nil
	}

	s.Evaluator = evaluate.New(provider, evaluate.DefaultConfig(),
		evaluate.WithCache(cache),
		evaluate.WithLogger(s.Logger),
	)
	return nil
}

// Close releases services in reverse order of creation.
func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
