package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fno-returns/internal/config"
	"fno-returns/internal/ledger"
	"fno-returns/internal/logging"
	"fno-returns/internal/models"
	"fno-returns/internal/report"
	"fno-returns/internal/store"
	"fno-returns/internal/symbol"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2024-06-30"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger

	// Store is opened on first use by the commands that need history.
	Store     store.ReportStore
	openStore func(path string) (store.ReportStore, error)
	newLogger func(cfg *config.Config) zerolog.Logger
}

// NewRootCmd creates the root command for the CLI. A nil cfg is loaded
// before the command runs, from --config or FNORETURNS_CONFIG_DIR; logger
// serves until then and is replaced by one built from the loaded config.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		openStore: func(path string) (store.ReportStore, error) {
			return store.NewSQLiteStore(path)
		},
		newLogger: LoggerFor,
	}

	rootCmd := &cobra.Command{
		Use:   "fnoreturns",
		Short: "F&O trade-ledger returns reporter",
		Long: `fnoreturns reads broker F&O trade-ledger exports and reports monthly,
calendar-year and financial-year (April-March) average returns, with a
total compounded return netted against the ledger's charges.

Use 'fnoreturns report <ledger.csv>' to get started.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			if app.Config == nil && dir == "" {
				dir = os.Getenv(config.EnvPrefix + "_CONFIG_DIR")
			}
			if app.Config == nil || (dir != "" && dir != app.ConfigDir) {
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.ConfigDir = dir
				app.Logger = app.newLogger(loaded)
				app.Logger.Debug().Str("dir", app.configDir()).Msg("Config loaded")
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/fno-returns)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(newReportCmd(app))
	rootCmd.AddCommand(newDecodeCmd(app))
	rootCmd.AddCommand(newClassifyCmd(app))
	rootCmd.AddCommand(newNetCmd(app))
	rootCmd.AddCommand(newROICmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// LoggerFor builds the application logger from the [logging] section.
func LoggerFor(cfg *config.Config) zerolog.Logger {
	return logging.NewLoggerWithConfig(logging.LogConfig{
		Level:      cfg.Logging.Level,
		Console:    true,
		File:       cfg.Logging.File,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
	})
}

// history opens the report store on first use.
func (a *App) history() (store.ReportStore, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	s, err := a.openStore(a.Config.Store.Path)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("Report store opened")
	a.Store = s
	return s, nil
}

// Close releases the report store if it was opened.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	return err
}

// output builds an Output honouring the report settings.
func (a *App) output(cmd *cobra.Command) *Output {
	out := NewOutput(cmd)
	if !a.Config.Report.ColorEnabled {
		out.SetColor(false)
	}
	out.SetPrecision(a.Config.Report.Precision)
	return out
}

func (a *App) decoder() symbol.Decoder {
	return symbol.NewDecoder(a.Config.Symbol.RootLength)
}

func (a *App) columns() ledger.Columns {
	return ledger.Columns{
		Symbol:       a.Config.Ledger.SymbolColumn,
		Return:       a.Config.Ledger.ReturnColumn,
		Notional:     a.Config.Ledger.NotionalColumn,
		ChargesToken: a.Config.Ledger.ChargesToken,
	}
}

func (a *App) reportOptions() report.Options {
	opts := report.DefaultOptions()
	opts.Decoder = a.decoder()
	opts.Buckets = []models.ClassBucket{models.BucketFutures, models.BucketOptions, models.BucketAll}
	return opts
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("fnoreturns v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir := app.configDir()
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": dir, "file": app.Config.Path})
			}
			output.Println(dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func (a *App) configDir() string {
	if a.ConfigDir != "" {
		return a.ConfigDir
	}
	return config.DefaultConfigDir()
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Ledger")
	output.Printf("  Symbol column:   %s\n", cfg.Ledger.SymbolColumn)
	output.Printf("  Return column:   %s\n", cfg.Ledger.ReturnColumn)
	output.Printf("  Notional column: %s\n", cfg.Ledger.NotionalColumn)
	output.Printf("  Charges token:   %s\n", cfg.Ledger.ChargesToken)
	output.Println()

	output.Bold("Symbol")
	if cfg.Symbol.RootLength == symbol.DetectRoot {
		output.Printf("  Root length:     detect\n")
	} else {
		output.Printf("  Root length:     %d\n", cfg.Symbol.RootLength)
	}
	output.Println()

	output.Bold("Report")
	output.Printf("  Fiscal order:    %v\n", cfg.Report.FiscalOrder)
	output.Printf("  Precision:       %d\n", cfg.Report.Precision)
	output.Printf("  Color:           %v\n", cfg.Report.ColorEnabled)
	output.Printf("  Workers:         %d\n", cfg.Report.Workers)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  File:            %v (%s)\n", cfg.Logging.File, cfg.Logging.FilePath)
	output.Println()

	output.Bold("Store")
	output.Printf("  Path:            %s\n", cfg.Store.Path)
}
