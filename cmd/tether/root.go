package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tether",
	Short: "Companion bridge core for a wearable device",
	Long: `Tether dispatches decoded companion-app messages to a wearable's
notification, alarm, and media-state subsystems. The run command reads
one JSON message per line on stdin (the transport collaborator's job on
a real device) and writes diagnostic replies on stdout.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// config holds the user-tunable bridge settings.
type config struct {
	NotifyLevel    int           `mapstructure:"notify_level"`
	NotifyDuration time.Duration `mapstructure:"notify_duration"`
	Filters        []string      `mapstructure:"filters"`
	SpoolDir       string        `mapstructure:"spool_dir"`
}

// loadConfig reads tether.yaml from the working directory, with
// environment variable overrides. A missing file just means defaults.
func loadConfig() *config {
	viper.AddConfigPath(".")
	viper.SetConfigName("tether")
	viper.SetDefault("notify_level", 2)
	viper.SetDefault("notify_duration", 500*time.Millisecond)
	viper.SetDefault("spool_dir", ".tether")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		slog.Debug("no config file, using defaults", "err", err)
	}

	var cfg config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("error unmarshalling config", slog.String("err", err.Error()))
		os.Exit(1)
	}
	return &cfg
}
