package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"geomap/internal/config"
	"geomap/internal/logging"
	"geomap/internal/metrics"
	"geomap/internal/tui"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "geomap [file]",
	Short: "geomap - terminal viewer and consistency checker for geospatial data",
	Long: `geomap loads GeoJSON, WKT, CSV, KML and OSM XML files into a primitive
graph of nodes, ways and relations.

Run with a file (or none) to start the interactive viewer. Use the check
command to validate files from scripts or CI.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(".env"); err != nil {
			return err
		}
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if verbose {
			c.Log.Level = "debug"
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		// the viewer owns the terminal
		if cmd == rootCmd {
			logger, err = logging.ForTerminalUI(cfg.Log)
		} else {
			logger, err = logging.New(cfg.Log)
		}
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runView,
}

var watch bool

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the file when it changes")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(bboxCmd)
	rootCmd.AddCommand(tileCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runView starts the interactive viewer.
func runView(cmd *cobra.Command, args []string) error {
	opts := tui.Options{
		Logger:     logger,
		MaxLevel:   cfg.Index.MaxLevel,
		MaxReports: cfg.Check.MaxReports,
		Watch:      cfg.View.Watch || watch,
		Debounce:   cfg.GetDebounce(),
		Help:       cfg.View.Help,
	}
	if cfg.Check.MetricsOut != "" {
		opts.Metrics = metrics.New()
	}

	var m tui.Model
	if len(args) == 1 {
		m = tui.NewWithPath(args[0], opts)
	} else {
		m = tui.New(opts)
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	if fm, ok := final.(tui.Model); ok {
		if cerr := fm.Close(); cerr != nil {
			logger.Warn("close viewer", zap.Error(cerr))
		}
	}
	if err != nil {
		return err
	}
	if opts.Metrics != nil {
		return opts.Metrics.WriteTextfile(cfg.Check.MetricsOut)
	}
	return nil
}
