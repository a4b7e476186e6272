// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/provide-io/craftlaunch/internal/config"
	"github.com/provide-io/craftlaunch/pkg/engine"
	"github.com/provide-io/craftlaunch/pkg/jvm"
	"github.com/provide-io/craftlaunch/pkg/logging"
	"github.com/provide-io/craftlaunch/pkg/platform"
)

const version = "1.0.0"

var (
	configPath   string
	logLevel     string
	instanceRoot string
	versionFlag  bool

	cfg       *config.Config
	logger    hclog.Logger
	logCloser io.Closer

	rootCmd *cobra.Command

	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

func getBuildTimestamp() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func init() {
	rootCmd = &cobra.Command{
		Use:               "craftlaunch",
		Short:             "Launch installed game versions",
		Long:              `Resolve a version descriptor, pick a Java runtime, extract natives and start the game.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if versionFlag {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			return cmd.Help()
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", engine.ErrInvalidRequest, err)
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to config.toml (default: $CRAFTLAUNCH_CONFIG or the user config dir)")
	pf.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error; json:<level> for JSON)")
	pf.StringVar(&instanceRoot, "instance", "", "Game directory (default: the platform's standard location)")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	rootCmd.AddCommand(
		newLaunchCmd(),
		newPlanCmd(),
		newResolveCmd(),
		newRuntimesCmd(),
		newVersionsCmd(),
		newNativesCmd(),
		newConfigCmd(),
	)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "craftlaunch %s\n", version)
	fmt.Fprintf(w, "Built: %s\n", getBuildTimestamp())
	fmt.Fprintf(w, "Platform: %s\n", platform.Current())
}

// setup loads configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if instanceRoot != "" {
		cfg.InstanceRoot = instanceRoot
	}
	if abs, err := filepath.Abs(cfg.InstanceRoot); err == nil {
		cfg.InstanceRoot = abs
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	} else {
		cfg.LogLevel = logging.GetLogLevel(cfg.LogLevel)
	}

	logger, logCloser, err = logging.New(logging.Options{
		Name:     "craftlaunch",
		Level:    cfg.LogLevel,
		JSON:     cfg.JSONLog,
		FilePath: cfg.LogPath,
	})
	if err != nil {
		return err
	}
	logger.Debug("⚙️ Configuration loaded", "instance", cfg.InstanceRoot, "command", cmd.Name())
	return nil
}

func newEngine() *engine.Engine {
	return engine.New(engine.Config{
		InstanceRoot:     cfg.InstanceRoot,
		Platform:         platform.Current(),
		RuntimeRoots:     cfg.RuntimeRoots,
		AutoAcquire:      cfg.AutoAcquire,
		NativesRetention: cfg.NativesRetention.Std(),
		FirstGrace:       cfg.FirstGrace.Std(),
		SecondGrace:      cfg.SecondGrace.Std(),
		Env:              cfg.SupervisorEnv(),
	}, logger)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", engine.ErrInvalidRequest, err)
		}
		return nil
	}
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			debug.PrintStack()
			code = engine.ExitPanic
		}
	}()
	defer func() {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	}()

	// Handle --version before configuration is loaded
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion(os.Stdout)
		return engine.ExitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return engine.ExitOK
	}

	errColor.Fprintf(os.Stderr, "✗ %s: ", engine.Classify(err))
	fmt.Fprintln(os.Stderr, err)
	var unavailable *jvm.UnavailableError
	if errors.As(err, &unavailable) && len(unavailable.Installed) > 0 {
		dimColor.Fprintf(os.Stderr, "  Installed Java majors: %v. Set java_path to pick one.\n", unavailable.Installed)
	}
	return engine.ExitCode(err)
}

func main() {
	os.Exit(run())
}
