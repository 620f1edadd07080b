// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package sanitize wires the CLI surface onto the sanitize engine: flag
// parsing, config/logger bootstrap, device selection/confirmation, and
// writing one certificate JSON file per device.
package sanitize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/config"
	"github.com/stratastor/rodent/internal/constants"
	"github.com/stratastor/rodent/pkg/lifecycle"
	"github.com/stratastor/rodent/pkg/sanitize/classify"
	"github.com/stratastor/rodent/pkg/sanitize/driver"
	"github.com/stratastor/rodent/pkg/sanitize/methods"
	"github.com/stratastor/rodent/pkg/sanitize/metrics"
	"github.com/stratastor/rodent/pkg/sanitize/mounts"
	"github.com/stratastor/rodent/pkg/sanitize/orchestrator"
	"github.com/stratastor/rodent/pkg/sanitize/probe"
	"github.com/stratastor/rodent/pkg/sanitize/runner"
	"github.com/stratastor/rodent/pkg/sanitize/types"
	"github.com/stratastor/rodent/pkg/sanitize/verify"
)

var (
	methodName  string
	devices     []string
	allDevices  bool
	confirm     bool
	logLevel    string
	outputDir   string
	showVersion bool
	detach      bool
	metricsAddr string
)

func NewSanitizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize",
		Short: "Erase storage devices with a certified method and emit a JSON certificate record",
		RunE:  runSanitize,
	}

	cmd.Flags().StringVarP(&methodName, "method", "m", "", "Sanitize method: BASIC, BASELINE or ENHANCED (case-insensitive)")
	cmd.Flags().StringArrayVarP(&devices, "device", "d", nil, "Device path to sanitize, repeatable")
	cmd.Flags().BoolVarP(&allDevices, "all", "a", false, "Sanitize every disk device found under /dev")
	cmd.Flags().BoolVar(&confirm, "confirm", true, "Prompt for confirmation before wiping")
	cmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Override the configured log level")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to write sanitize records into")
	cmd.Flags().BoolVar(&showVersion, "version", false, "Print the version and exit")
	cmd.Flags().BoolVar(&detach, "detach", false, "Run the bulk wipe as a background daemon (long jobs only; implies --confirm=false)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to expose Prometheus metrics on, e.g. :9090 (enables metrics)")
	cmd.MarkFlagsMutuallyExclusive("device", "all")

	return cmd
}

func runSanitize(cmd *cobra.Command, args []string) error {
	if showVersion {
		fmt.Println(constants.Version)
		return nil
	}

	if detach {
		return runDetached(cmd, args)
	}

	return runCore(cmd, args)
}

// runDetached reborns the process in the background the way cmd/serve's
// --detach does, then runs the same core logic in the child. A detached
// bulk wipe cannot prompt on a terminal that is no longer attached, so it
// forces confirm off, whatever --confirm or the config file say.
func runDetached(cmd *cobra.Command, args []string) error {
	confirm = false

	ctx := &daemon.Context{
		PidFileName: "/var/run/rodent-sanitize.pid",
		PidFilePerm: 0644,
		LogFileName: "/var/log/rodent-sanitize.log",
		LogFilePerm: 0640,
		WorkDir:     "/",
		Umask:       027,
	}

	d, err := ctx.Reborn()
	if err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}
	if d != nil {
		fmt.Println("rodent-sanitize is running in the background")
		return nil
	}
	defer ctx.Release()

	return runCore(cmd, args)
}

func runCore(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	level := cfg.Logger.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	l, err := logger.NewTag(logger.Config{LogLevel: level}, "sanitize")
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	dir := cfg.Sanitize.OutputDir
	if outputDir != "" {
		dir = outputDir
	}
	if dir == "" {
		dir = config.GetOutputDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	catalog := methods.NewCatalog()
	if cfg.Sanitize.MethodsOverrides != "" {
		if err := catalog.LoadOverrides(cfg.Sanitize.MethodsOverrides); err != nil {
			return fmt.Errorf("loading method overrides: %w", err)
		}
	}
	chosenMethod := methodName
	if chosenMethod == "" {
		chosenMethod = methods.Basic
	}
	method, err := catalog.Lookup(chosenMethod)
	if err != nil {
		return err
	}

	r := runner.New(l, cfg.Sanitize.UseSudo)
	p := probe.New(l, r)
	c := classify.New(l)
	v := verify.New(l, r)
	mc := mounts.New(l, r)

	addr := cfg.Metrics.Addr
	enableMetrics := cfg.Metrics.Enabled
	if metricsAddr != "" {
		addr = metricsAddr
		enableMetrics = true
	}

	var m *metrics.Metrics
	if enableMetrics {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		go serveMetrics(l, reg, addr)
	}

	orch := orchestrator.New(l, r, p, c, v, mc, catalog, m, cfg.Sanitize.SampleCount, constants.Version)

	requireConfirm := cfg.Sanitize.RequireConfirm
	if cmd.Flags().Changed("confirm") || detach {
		requireConfirm = confirm
	}
	drv := driver.New(l, p, orch, requireConfirm, os.Stdin, os.Stdout)

	selected, err := driver.SelectDevices(devices, allDevices)
	if err != nil {
		return err
	}

	// A SIGINT is only honored at the confirmation prompt, matching the
	// original's behavior of never intercepting signals once erasure
	// commands are running (see DESIGN.md Open Question (c)).
	confirmCtx, cancelConfirm := context.WithCancel(cmd.Context())
	go lifecycle.HandleSignals(confirmCtx, cancelConfirm)

	if err := drv.Confirm(confirmCtx, selected); err != nil {
		cancelConfirm()
		return err
	}
	cancelConfirm()

	records, err := drv.Run(context.Background(), selected, method)
	if err != nil {
		return fmt.Errorf("running sanitize: %w", err)
	}

	for _, rec := range records {
		if err := writeRecord(dir, rec); err != nil {
			l.Error("failed to write sanitize record", "device", rec.DeviceInfo.DevPath, "err", err)
		}
	}

	return nil
}

// writeRecord serializes rec to <dir>/<today>_<serial>.json, per spec §6's
// output naming convention.
func writeRecord(dir string, rec *types.SanitizeRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	serial := "unknown"
	if rec.DeviceInfo != nil && rec.DeviceInfo.Serial != "" {
		serial = rec.DeviceInfo.Serial
	}
	name := fmt.Sprintf("%s_%s.json", time.Now().Format("2006-01-02"), serial)

	return os.WriteFile(filepath.Join(dir, name), data, 0644)
}

func serveMetrics(l logger.Logger, reg *prometheus.Registry, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		l.Error("metrics server stopped", "err", err)
	}
}
