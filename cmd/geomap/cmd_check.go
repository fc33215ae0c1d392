package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"geomap/internal/config"
	"geomap/internal/geom"
	"geomap/internal/graph"
	"geomap/internal/load"
	"geomap/internal/metrics"
	"geomap/internal/spatial"
	"geomap/internal/validate"
)

// errViolations makes check exit non-zero without printing usage.
var errViolations = errors.New("consistency check failed")

var (
	checkMax    int
	metricsOut  string
	repairLinks bool
	bboxSep     string
	tileLevel   int
	force       bool
)

var checkCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Load files into one data set and run the consistency checker",
	Long: `Loads every file into a single data set, concurrently, and scans it for
missing back-links, incomplete or coordinate-less primitives, spatial index
drift, dangling references and degenerate ways.

Exits non-zero when an error-level violation is found. Warnings are printed
but do not fail the check.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

var bboxCmd = &cobra.Command{
	Use:          "bbox [file...]",
	Short:        "Print the bounding box of the loaded files as minX,minY,maxX,maxY",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBBox,
}

var tileCmd = &cobra.Command{
	Use:   "tile [lat] [lon]",
	Short: "Print the quad tile containing a coordinate and its extent",
	Args:  cobra.ExactArgs(2),
	RunE:  runTile,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the config path",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	checkCmd.Flags().IntVar(&checkMax, "max", 0, "Violations to print before only counting (default from config)")
	checkCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile")
	checkCmd.Flags().BoolVar(&repairLinks, "repair", false, "Restore missing referrer links before checking")
	bboxCmd.Flags().StringVar(&bboxSep, "sep", ",", "Separator between the four values")
	tileCmd.Flags().IntVar(&tileLevel, "level", spatial.DefaultMaxLevel, "Tile level, 0 is the whole world")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
}

// loadAll imports paths into a new data set, stopping early on SIGINT.
func loadAll(cmd *cobra.Command, paths []string, m *metrics.Metrics) (*graph.DataSet, load.Stats, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := filepath.Base(paths[0])
	if len(paths) > 1 {
		name = fmt.Sprintf("%s+%d", name, len(paths)-1)
	}
	ds := graph.New(
		graph.WithName(name),
		graph.WithLogger(logger),
		graph.WithMaxLevel(cfg.Index.MaxLevel),
	)
	st, err := load.Files(ctx, ds, paths, load.WithLogger(logger), load.WithMetrics(m))
	if err != nil {
		return nil, st, err
	}
	logger.Info("loaded", zap.Strings("files", paths), zap.Stringer("stats", st))
	return ds, st, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	m := metrics.New()
	ds, st, err := loadAll(cmd, args, m)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if repairLinks {
		fmt.Fprintf(out, "repaired %d referrer links\n", validate.Repair(ds))
	}

	limit := checkMax
	if limit <= 0 {
		limit = cfg.Check.MaxReports
	}
	r := validate.Run(ds,
		validate.WithMaxReports(limit),
		validate.WithLogger(logger),
		validate.WithMetrics(m))
	ds.Read(func() { m.SetPrimitives(ds.Counts()) })

	fmt.Fprint(out, r.String())
	fmt.Fprintf(out, "%s: %d violations, %d errors\n", st, r.Total(), r.Errors())

	path := metricsOut
	if path == "" {
		path = cfg.Check.MetricsOut
	}
	if path != "" {
		if err := m.WriteTextfile(path); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if r.Errors() > 0 || r.Fault != "" {
		return errViolations
	}
	return nil
}

func runBBox(cmd *cobra.Command, args []string) error {
	ds, _, err := loadAll(cmd, args, nil)
	if err != nil {
		return err
	}
	var box geom.BBox
	ds.Read(func() { box = ds.BBox() })
	if !box.IsValid() {
		return errors.New("no coordinates in input")
	}
	fmt.Fprintln(cmd.OutOrStdout(), box.Format(bboxSep))
	return nil
}

func runTile(cmd *cobra.Command, args []string) error {
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid longitude: %w", err)
	}
	id, ok := geom.TileIndex(geom.LL(lat, lon), tileLevel)
	if !ok {
		return fmt.Errorf("no tile for %s at level %d", geom.LL(lat, lon), tileLevel)
	}
	x, y := geom.TileCell(id)
	fmt.Fprintf(cmd.OutOrStdout(), "tile %d level %d x %d y %d bbox %s\n",
		id, tileLevel, x, y, geom.TileBBox(id, tileLevel).Format(","))
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", cfgPath)
	}
	if err := config.DefaultConfig().Save(cfgPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfgPath)
	return nil
}
