package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/modelfilter/internal/adapter"
	"github.com/everstacklabs/modelfilter/internal/cache"
	"github.com/everstacklabs/modelfilter/internal/catalog"
	"github.com/everstacklabs/modelfilter/internal/config"
	"github.com/everstacklabs/modelfilter/internal/filter"
	"github.com/everstacklabs/modelfilter/internal/httpclient"
	"github.com/everstacklabs/modelfilter/internal/policy"
	"github.com/everstacklabs/modelfilter/internal/report"
	"github.com/everstacklabs/modelfilter/internal/validate"

	openrouterSource "github.com/everstacklabs/modelfilter/internal/adapter/providers/openrouter"
	snapshotSource "github.com/everstacklabs/modelfilter/internal/adapter/providers/snapshot"
)

// Exit codes.
const (
	ExitError       = 1
	ExitUnavailable = 3
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "modelfilter",
		Short:         "Filter the OpenRouter model catalog",
		Long:          "Fetches the OpenRouter model catalog and filters it by capability, deprecation and variant status.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("source", "", "catalog source: openrouter or snapshot (default: from config)")
	rootCmd.PersistentFlags().String("snapshot", "", "read the catalog from a saved /models response instead of the API")
	rootCmd.PersistentFlags().String("policy", "", "variant policy YAML file (default: from config)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the HTTP response cache")

	rootCmd.AddCommand(
		filterCmd(),
		explainCmd(),
		validateCmd(),
		policyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, catalog.ErrUnavailable) {
		return ExitUnavailable
	}
	return ExitError
}

func addRequestFlags(cmd *cobra.Command, withSort bool) {
	cmd.Flags().StringP("capabilities", "c", "", fmt.Sprintf("required capabilities, comma separated (%s, multimodal, all)", joinNames()))
	cmd.Flags().Bool("include-deprecated", false, "keep deprecated models")
	cmd.Flags().Bool("include-problematic", false, "keep stale or duplicate variants of a canonical model")
	if withSort {
		cmd.Flags().StringP("sort", "s", "none", "sort order: none, price_asc, price_desc, name_asc, name_desc, context_asc, context_desc")
	}
	cmd.Flags().StringP("output", "o", "table", "output format: table, markdown, json, yaml")
}

func filterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print the filtered, sorted model list",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			req, err := requestFromFlags(cmd)
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			snap, err := rt.fetch(cmd.Context())
			if err != nil {
				return err
			}

			res, err := filter.Filter(snap.Records, req, filter.WithPolicy(rt.policy), filter.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			for _, d := range res.Diagnostics {
				slog.Debug("dropped record", "diagnostic", d.String())
			}

			return report.WriteModels(cmd.OutOrStdout(), res, format)
		},
	}
	addRequestFlags(cmd, true)
	return cmd
}

func explainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain [model-id...]",
		Short: "Show which pipeline stage kept or dropped each record",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			req, err := requestFromFlags(cmd)
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			snap, err := rt.fetch(cmd.Context())
			if err != nil {
				return err
			}

			decisions, err := filter.Explain(snap.Records, req, filter.WithPolicy(rt.policy))
			if err != nil {
				return err
			}
			decisions = selectDecisions(decisions, args)
			if len(args) > 0 && len(decisions) == 0 {
				return fmt.Errorf("no catalog record matches %v", args)
			}

			return report.WriteDecisions(cmd.OutOrStdout(), decisions, format)
		},
	}
	addRequestFlags(cmd, false)
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report data-quality issues in the catalog (CI check)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			snap, err := rt.fetch(cmd.Context())
			if err != nil {
				return err
			}

			result := validate.ValidateSnapshot(snap.Records, rt.policy)
			fmt.Fprintln(cmd.OutOrStdout(), validate.FormatResult(result))

			return result.Err()
		},
	}
}

func policyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the effective variant policy as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			return writePolicy(cmd.OutOrStdout(), rt.policy)
		},
	}
}

// app is the per-invocation wiring shared by every command.
type app struct {
	cfg    *config.Config
	policy *policy.Policy
	source adapter.Source
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyFlagOverrides(cmd, cfg)
	configureLogging(cmd.ErrOrStderr(), cfg)

	pol := policy.Default()
	if cfg.PolicyFile != "" {
		pol, err = policy.Load(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		slog.Debug("loaded variant policy", "path", cfg.PolicyFile)
	}

	src, err := configureSource(cfg)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, policy: pol, source: src}, nil
}

func (rt *app) fetch(ctx context.Context) (*catalog.Snapshot, error) {
	return adapter.Fetch(ctx, rt.source)
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if v, _ := flags.GetString("source"); v != "" {
		cfg.Source = v
	}
	if v, _ := flags.GetString("snapshot"); v != "" {
		cfg.SnapshotPath = v
		if !flags.Changed("source") {
			cfg.Source = "snapshot"
		}
	}
	if v, _ := flags.GetString("policy"); v != "" {
		cfg.PolicyFile = v
	}
	if v, _ := flags.GetBool("no-cache"); v {
		cfg.NoCache = true
	}
}

func configureLogging(w io.Writer, cfg *config.Config) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func configureSource(cfg *config.Config) (adapter.Source, error) {
	src, err := adapter.Get(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, adapter.List())
	}

	switch s := src.(type) {
	case *openrouterSource.OpenRouter:
		s.Configure(cfg.OpenRouter.APIKey, cfg.OpenRouter.BaseURL, newHTTPClient(cfg))
	case *snapshotSource.Snapshot:
		s.Configure(cfg.SnapshotPath)
	}
	return src, nil
}

func newHTTPClient(cfg *config.Config) *httpclient.Client {
	timeout, _ := cfg.OpenRouter.TimeoutDuration()
	opts := []httpclient.Option{
		httpclient.WithRateLimit(cfg.RateLimit),
		httpclient.WithTimeout(timeout),
		httpclient.WithLogger(slog.Default()),
	}

	if cfg.NoCache {
		opts = append(opts, httpclient.WithNoCache())
	} else {
		ttl, _ := cfg.CacheTTLDuration()
		fc, err := cache.New(cfg.CacheDir, ttl)
		if err != nil {
			slog.Warn("failed to create cache, continuing without", "error", err)
		} else {
			opts = append(opts, httpclient.WithCache(fc))
		}
	}
	return httpclient.New(opts...)
}

func requestFromFlags(cmd *cobra.Command) (filter.Request, error) {
	var req filter.Request
	flags := cmd.Flags()

	caps, _ := flags.GetString("capabilities")
	c, err := filter.ParseCapabilities(caps)
	if err != nil {
		return req, err
	}
	req.Capabilities = c

	req.IncludeDeprecated, _ = flags.GetBool("include-deprecated")
	req.IncludeProblematicVariants, _ = flags.GetBool("include-problematic")

	if flags.Lookup("sort") != nil {
		s, _ := flags.GetString("sort")
		key, err := filter.ParseSortKey(s)
		if err != nil {
			return req, err
		}
		req.SortOrder = key
	}
	return req, req.Validate()
}

func outputFormat(cmd *cobra.Command) (report.Format, error) {
	s, _ := cmd.Flags().GetString("output")
	return report.ParseFormat(s)
}

func selectDecisions(decisions []filter.Decision, ids []string) []filter.Decision {
	if len(ids) == 0 {
		return decisions
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []filter.Decision
	for _, d := range decisions {
		if want[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

func writePolicy(w io.Writer, p *policy.Policy) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}

func joinNames() string {
	return strings.Join(filter.CapabilityNames(), ", ")
}
