/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/trustbloc/shc-go/healthcard"
	"github.com/trustbloc/shc-go/internal/config"
	"github.com/trustbloc/shc-go/internal/output"
	"github.com/trustbloc/shc-go/keyset"
	"github.com/trustbloc/shc-go/metrics"
	"github.com/trustbloc/shc-go/terminology"
	"github.com/trustbloc/shc-go/trust"
)

type rootOptions struct {
	configFile string
	jsonOutput bool
	noColor    bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "shc",
		Short: "Verify SMART Health Cards",
		Long: "Decodes SMART Health Card JWS values, verifies their ES256 signatures against the " +
			"issuer's published key set and explains the FHIR content they carry.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	cmd.AddCommand(
		newVerifyCmd(opts),
		newLookupCmd(opts),
		newIssuersCmd(opts),
		newServeCmd(opts),
	)

	return cmd
}

func (o *rootOptions) printer(w io.Writer) *output.Printer {
	return output.New(w, output.Options{JSON: o.jsonOutput, Verbose: o.verbose})
}

// app holds the components built from the configuration.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	service  *healthcard.Service
}

func (o *rootOptions) newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}

	if o.verbose {
		cfg.Log.Level = "debug"
	}

	logger := cfg.Log.NewLogger(logOut)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	directory, err := loadDirectory(ctx, cfg.Trust, logger)
	if err != nil {
		return nil, err
	}

	termOpts := []terminology.Opt{
		terminology.WithLogger(logger),
		terminology.WithMetrics(m),
		terminology.WithTimeout(cfg.Terminology.Timeout),
	}

	if cfg.Terminology.Server != "" {
		termOpts = append(termOpts, terminology.WithServer(cfg.Terminology.Server))
	}

	if cfg.Terminology.Username != "" {
		termOpts = append(termOpts,
			terminology.WithBasicAuth(cfg.Terminology.Username, cfg.Terminology.Password))
	}

	service := healthcard.NewService(
		healthcard.WithDirectory(directory),
		healthcard.WithTerminology(terminology.New(termOpts...)),
		healthcard.WithResultCache(cfg.Cache.Size, cfg.Cache.TTL),
		healthcard.WithModelOptions(
			healthcard.WithKeySetResolver(keyset.NewResolver(keyset.WithTimeout(cfg.KeySet.Timeout))),
			healthcard.WithLogger(logger),
			healthcard.WithMetrics(m),
		),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		service:  service,
	}, nil
}

func loadDirectory(ctx context.Context, cfg config.Trust, logger *slog.Logger) (*trust.Directory, error) {
	directory := trust.NewDirectory(trust.WithLogger(logger))

	if !cfg.SkipBundled {
		if err := directory.Load(); err != nil {
			return nil, err
		}
	}

	if cfg.DirectoryFile != "" {
		if err := directory.LoadFile(cfg.DirectoryFile); err != nil {
			return nil, err
		}
	}

	if cfg.DirectoryURL != "" {
		if err := directory.LoadURL(ctx, cfg.DirectoryURL); err != nil {
			return nil, err
		}
	}

	return directory, nil
}

// readInput returns the JWS named by arg: a file path, "-" or nothing for stdin, or the value
// itself. All whitespace is removed so that wrapped values can be pasted.
func readInput(arg string, stdin io.Reader) (string, error) {
	var raw string

	switch {
	case arg == "" || arg == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}

		raw = string(b)
	default:
		if _, statErr := os.Stat(arg); statErr == nil {
			b, err := os.ReadFile(arg) // #nosec G304 - path comes from the operator
			if err != nil {
				return "", fmt.Errorf("reading file %s: %w", arg, err)
			}

			raw = string(b)
		} else {
			raw = arg
		}
	}

	jws := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, raw)

	if jws == "" {
		return "", fmt.Errorf("no input provided (use a file path, a JWS value, or pipe to stdin)")
	}

	return jws, nil
}
