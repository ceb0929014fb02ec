package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inkmark-app/inkmark/internal/gemini"
	"github.com/inkmark-app/inkmark/internal/openai"
	"github.com/inkmark-app/inkmark/internal/pipeline"
	"github.com/inkmark-app/inkmark/internal/providers"
	"github.com/inkmark-app/inkmark/internal/segment"
	"github.com/inkmark-app/inkmark/internal/transcribe"
)

// Default models per provider, used when LLM_MODEL is not set.
const (
	defaultGeminiModel = "gemini-2.0-flash"
	defaultOpenAIModel = "gpt-4o-mini"
)

// engineFlags binds every engine knob to cobra flags. Provider identity and
// credentials come from the environment (.env is loaded by the root command);
// the numeric knobs are flags so a single run can be tuned without editing
// configuration.
type engineFlags struct {
	concurrency    int
	lineRetries    int
	pageRetries    int
	requestsPerSec float64
	maxAttempts    int
	timeoutSec     int
	cacheTTLSec    int
	cacheEntries   int
	cacheBytes     int
	maxDimension   int
	sliceFormat    string
	sliceQuality   int
	segmentCache   int
	workerScan     bool
}

func (f *engineFlags) register(cmd *cobra.Command) {
	f.registerOn(cmd.Flags())
}

// registerPersistent exposes the engine knobs to a command and all of its
// subcommands.
func (f *engineFlags) registerPersistent(cmd *cobra.Command) {
	f.registerOn(cmd.PersistentFlags())
}

func (f *engineFlags) registerOn(flags *pflag.FlagSet) {
	flags.IntVar(&f.concurrency, "concurrency", transcribe.DefaultPageConcurrency, "Pages to transcribe in parallel")
	flags.IntVar(&f.lineRetries, "line-retries", transcribe.DefaultMaxLineRetries, "Retries per line-level provider call")
	flags.IntVar(&f.pageRetries, "page-retries", transcribe.DefaultMaxPageRetries, "Retries per whole-page pipeline")
	flags.Float64Var(&f.requestsPerSec, "rps", pipeline.DefaultRequestsPerSecond, "Provider requests per second")
	flags.IntVar(&f.maxAttempts, "max-attempts", pipeline.DefaultMaxAttempts, "HTTP attempts per provider call")
	flags.IntVar(&f.timeoutSec, "timeout", int(pipeline.DefaultAttemptTimeout/time.Second), "Per-attempt timeout in seconds")
	flags.IntVar(&f.cacheTTLSec, "cache-ttl", int(pipeline.DefaultCacheTTL/time.Second), "Response cache TTL in seconds (0 disables)")
	flags.IntVar(&f.cacheEntries, "cache-entries", pipeline.DefaultCacheMaxEntries, "Response cache entry cap")
	flags.IntVar(&f.cacheBytes, "cache-bytes", pipeline.DefaultCacheMaxBytes, "Response cache byte budget")
	flags.IntVar(&f.maxDimension, "max-dimension", segment.DefaultMaxImageDimension, "Longest page edge before scanning")
	flags.StringVar(&f.sliceFormat, "slice-format", segment.DefaultFormat, "Line slice encoding (png or jpeg)")
	flags.IntVar(&f.sliceQuality, "slice-quality", segment.DefaultQuality, "JPEG quality for line slices")
	flags.IntVar(&f.segmentCache, "segment-cache", segment.DefaultCacheSize, "Segmentation result cache size (0 disables)")
	flags.BoolVar(&f.workerScan, "worker-scan", false, "Offload the pixel scan to a worker goroutine")
}

// buildEngine assembles the pipeline, backend, and engine from flags and
// environment. Returns the engine plus the provider and model tags for
// logging and job metadata.
func (f *engineFlags) buildEngine(ctx context.Context) (*transcribe.Engine, string, string, error) {
	cfg := providerConfigFromEnv()

	policy := pipeline.DefaultPolicy()
	policy.MaxAttempts = f.maxAttempts
	policy.AttemptTimeout = time.Duration(f.timeoutSec) * time.Second
	policy.CacheTTL = time.Duration(f.cacheTTLSec) * time.Second

	pipe := pipeline.New(cfg.Provider,
		pipeline.WithPolicy(policy),
		pipeline.WithLimiter(pipeline.NewLimiter(f.requestsPerSec)),
		pipeline.WithCache(pipeline.NewCache(f.cacheEntries, f.cacheBytes)),
	)

	var client providers.Client
	switch cfg.Provider {
	case providers.ProviderGemini:
		c, err := gemini.New(ctx, cfg, pipe)
		if err != nil {
			return nil, "", "", err
		}
		client = c
	case providers.ProviderOpenAI:
		client = openai.New(cfg, pipe)
	default:
		return nil, "", "", fmt.Errorf("unknown provider %q (supported: gemini, openai)", cfg.Provider)
	}

	opts := transcribe.DefaultOptions()
	opts.MaxLineRetries = f.lineRetries
	opts.MaxPageRetries = f.pageRetries
	opts.PageConcurrency = f.concurrency
	opts.Segment.MaxImageDimension = f.maxDimension
	opts.Segment.Format = f.sliceFormat
	opts.Segment.Quality = f.sliceQuality
	opts.Segment.CacheSize = f.segmentCache
	opts.Segment.UseWorker = f.workerScan

	return transcribe.New(client, opts), cfg.Provider, cfg.Model, nil
}

// providerConfigFromEnv reads the backend selection and credentials.
func providerConfigFromEnv() providers.Config {
	cfg := providers.Config{
		Provider: os.Getenv("LLM_PROVIDER"),
		Model:    os.Getenv("LLM_MODEL"),
	}
	if cfg.Provider == "" {
		cfg.Provider = providers.ProviderGemini
	}

	switch cfg.Provider {
	case providers.ProviderOpenAI:
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
		if cfg.Model == "" {
			cfg.Model = defaultOpenAIModel
		}
	default:
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		cfg.BaseURL = os.Getenv("GEMINI_BASE_URL")
		if cfg.Model == "" {
			cfg.Model = defaultGeminiModel
		}
	}
	return cfg
}
