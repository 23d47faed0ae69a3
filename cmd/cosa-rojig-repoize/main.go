package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
	"github.com/cgwalters/cosa-rojig-repoize/internal/arch"
	"github.com/cgwalters/cosa-rojig-repoize/internal/config"
	"github.com/cgwalters/cosa-rojig-repoize/internal/cosa"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage/localstore"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage/s3store"
	"github.com/cgwalters/cosa-rojig-repoize/internal/sync/sync"
)

var (
	// Set by the release build
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// archDetector resolves the architecture when --arch is not given.
	// Nil runs `cosa basearch`.
	archDetector arch.Detector
)

// flags holds the raw command line values. Only flags the user actually set
// override the config file.
type flags struct {
	cfgFile        string
	history        int
	arch           string
	region         string
	profile        string
	endpoint       string
	forcePathStyle bool
	httpTimeout    time.Duration
	dryRun         bool
	logLevel       string
	logFormat      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "cosa-rojig-repoize [flags] <cosa_stream> <s3url>",
		Short: "Synchronize rojig RPMs from a coreos-assembler build stream into a repository",
		Long: `cosa-rojig-repoize reads the builds.json index of a coreos-assembler build
stream, finds the recent builds that produced a rojig RPM and copies every RPM
the target repository does not hold yet.

The target is an S3 location (s3://bucket/prefix) or a local directory
(file:///path). The id of the last synchronized build is kept next to the
RPMs in cosa-rojig-repoize-state.json.`,
		Args:         cobra.MaximumNArgs(2),
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, f, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.cfgFile, "config", "", "YAML config file")
	fs.IntVar(&f.history, "history", config.DefaultHistory, "number of builds to inspect")
	fs.StringVar(&f.arch, "arch", "", "target architecture (default: cosa basearch)")
	fs.StringVar(&f.region, "region", "", "AWS region (default "+s3store.DefaultRegion+")")
	fs.StringVar(&f.profile, "profile", "", "AWS shared config profile")
	fs.StringVar(&f.endpoint, "endpoint", "", "custom S3 endpoint URL")
	fs.BoolVar(&f.forcePathStyle, "force-path-style", false, "use path-style S3 addressing")
	fs.DurationVar(&f.httpTimeout, "http-timeout", 0, "timeout for each build stream request (0 disables)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "show what would be uploaded without writing")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "text", "log format (text, json)")

	return cmd
}

func runSync(cmd *cobra.Command, f *flags, args []string) error {
	ctx, cancel := setupSignalHandler(cmd.Context())
	defer cancel()

	cfg, err := resolveConfig(cmd, f, args)
	if err != nil {
		return err
	}

	logger, err := setupLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}

	loc, err := storage.ParseLocation(cfg.Target)
	if err != nil {
		return err
	}

	archName, err := arch.Resolve(ctx, cfg.Arch, archDetector)
	if err != nil {
		return err
	}

	client, err := cosa.NewClient(cfg.Stream,
		cosa.WithTimeout(cfg.HTTPTimeout),
		cosa.WithLogger(logger))
	if err != nil {
		return err
	}

	store, err := openStore(ctx, loc, cfg, logger)
	if err != nil {
		return err
	}

	logger.Debug("starting sync",
		"stream", client.BaseURL(),
		"target", loc.String(),
		"arch", archName,
		"history", cfg.History,
		"dry_run", cfg.DryRun)

	manager := sync.NewManager(client, store, sync.WithLogger(logger))
	result, err := manager.Sync(ctx, &sync.Config{
		Location: loc,
		Arch:     archName,
		History:  cfg.History,
		DryRun:   cfg.DryRun,
	})
	if err != nil {
		logger.Error("sync failed", "error", err)
		return err
	}

	printResult(cmd.OutOrStdout(), loc, result)
	return nil
}

// resolveConfig loads the config file, if any, then applies set flags and
// positional arguments over it.
func resolveConfig(cmd *cobra.Command, f *flags, args []string) (*config.Config, error) {
	cfg := config.Default()
	if f.cfgFile != "" {
		loaded, err := config.Load(f.cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("history") {
		cfg.History = f.history
	}
	if changed("arch") {
		cfg.Arch = f.arch
	}
	if changed("region") {
		cfg.AWS.Region = f.region
	}
	if changed("profile") {
		cfg.AWS.Profile = f.profile
	}
	if changed("endpoint") {
		cfg.AWS.Endpoint = f.endpoint
	}
	if changed("force-path-style") {
		cfg.AWS.ForcePathStyle = f.forcePathStyle
	}
	if changed("http-timeout") {
		cfg.HTTPTimeout = f.httpTimeout
	}
	if changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}

	if len(args) > 0 {
		cfg.Stream = args[0]
	}
	if len(args) > 1 {
		cfg.Target = args[1]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(ctx context.Context, loc storage.Location, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch loc.Scheme {
	case storage.SchemeS3:
		return s3store.New(ctx, loc.Bucket,
			s3store.WithRegion(cfg.AWS.Region),
			s3store.WithProfile(cfg.AWS.Profile),
			s3store.WithEndpoint(cfg.AWS.Endpoint),
			s3store.WithForcePathStyle(cfg.AWS.ForcePathStyle),
			s3store.WithLogger(logger))
	case storage.SchemeFile:
		return localstore.NewOS(localstore.WithLogger(logger)), nil
	default:
		return nil, repoerrors.NewConfigError("store",
			fmt.Errorf("%w: unsupported scheme %q", repoerrors.ErrInvalidURL, loc.Scheme))
	}
}

func printResult(w io.Writer, loc storage.Location, result *sync.Result) {
	switch result.Status {
	case sync.StatusNoRojigBuilds:
		fmt.Fprintln(w, "No rojig builds found!")
	case sync.StatusDryRun:
		fmt.Fprintf(w, "Dry run: %d rpms to upload to %s", len(result.Transfers), loc)
		if result.StateUpdated {
			fmt.Fprintf(w, ", sync state would move to %s", result.Latest)
		}
		fmt.Fprintln(w)
	case sync.StatusSynced:
		fmt.Fprintf(w, "Completed sync to %s\n", result.Latest)
	default:
		fmt.Fprintf(w, "Already synchronized at %s\n", result.Latest)
	}
}

func setupLogger(w io.Writer, lc config.LogConfig) (*slog.Logger, error) {
	level, err := lc.SlogLevel()
	if err != nil {
		return nil, repoerrors.NewConfigError("logger", err)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if lc.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler), nil
}

func setupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
