// SPDX-License-Identifier: Apache-2.0
package main

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/provide-io/craftlaunch/internal/instance"
	"github.com/provide-io/craftlaunch/pkg/argv"
	"github.com/provide-io/craftlaunch/pkg/credentials"
	"github.com/provide-io/craftlaunch/pkg/descriptor"
	"github.com/provide-io/craftlaunch/pkg/engine"
	"github.com/provide-io/craftlaunch/pkg/jvm"
	"github.com/provide-io/craftlaunch/pkg/platform"
	"github.com/provide-io/craftlaunch/pkg/supervisor"
)

type launchFlags struct {
	credentialsPath string
	offline         bool
	username        string
	javaPath        string
	memory          string
	width           int
	height          int
	jvmArgs         []string
	noAcquire       bool
	features        []string
}

func (f *launchFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.credentialsPath, "credentials", "", "JSON file with playerName, accountId, accessToken")
	fs.BoolVar(&f.offline, "offline", false, "Launch with offline credentials (requires --username)")
	fs.StringVarP(&f.username, "username", "u", "", "Player name for offline play")
	fs.StringVar(&f.javaPath, "java", "", "Java executable to use instead of automatic selection")
	fs.StringVarP(&f.memory, "memory", "m", "", "Maximum heap, e.g. 4G")
	fs.IntVar(&f.width, "width", 0, "Window width")
	fs.IntVar(&f.height, "height", 0, "Window height")
	fs.StringArrayVar(&f.jvmArgs, "jvm-arg", nil, "Extra JVM argument (repeatable)")
	fs.BoolVar(&f.noAcquire, "no-acquire", false, "Never download a Java runtime")
	fs.StringSliceVar(&f.features, "feature", nil, "Enable a rule feature flag (e.g. is_quick_play_singleplayer)")
}

func (f *launchFlags) provider() (credentials.Provider, error) {
	switch {
	case f.credentialsPath != "" && f.offline:
		return nil, fmt.Errorf("%w: --credentials and --offline are mutually exclusive", engine.ErrInvalidRequest)
	case f.credentialsPath != "":
		return credentials.FileProvider{Path: f.credentialsPath}, nil
	case f.offline && f.username != "":
		return credentials.Static(credentials.Offline(f.username)), nil
	case f.offline:
		return nil, fmt.Errorf("%w: --offline requires --username", engine.ErrInvalidRequest)
	default:
		return nil, fmt.Errorf("%w: pass --credentials FILE or --offline --username NAME", engine.ErrInvalidRequest)
	}
}

// request merges flags over configuration.
func (f *launchFlags) request(cmd *cobra.Command, id string) (engine.Request, error) {
	provider, err := f.provider()
	if err != nil {
		return engine.Request{}, err
	}

	if cmd.Flags().Changed("memory") {
		cfg.Memory = f.memory
	}
	if cmd.Flags().Changed("width") || cmd.Flags().Changed("height") {
		cfg.Width, cfg.Height = f.width, f.height
	}
	if f.javaPath != "" {
		cfg.JavaPath = f.javaPath
	}
	if f.noAcquire {
		cfg.AutoAcquire = false
	}
	if err := cfg.Validate(); err != nil {
		return engine.Request{}, fmt.Errorf("%w: %v", engine.ErrInvalidRequest, err)
	}

	id, err = catalog().ResolveAlias(id)
	if err != nil {
		return engine.Request{}, fmt.Errorf("%w: %v", engine.ErrInvalidRequest, err)
	}

	opts := cfg.PlanOptions()
	opts.ExtraJVMArgs = append(opts.ExtraJVMArgs, f.jvmArgs...)

	features := make(map[string]bool, len(f.features))
	for _, name := range f.features {
		features[name] = true
	}
	return engine.Request{
		VersionID:   id,
		Credentials: provider,
		Options:     opts,
		JavaPath:    cfg.JavaPath,
		Features:    features,
	}, nil
}

func catalog() *instance.Catalog {
	return instance.NewCatalog(descriptor.NewPaths(cfg.InstanceRoot),
		descriptor.Environment{Platform: platform.Current()}, logger)
}

// ensureInstance creates the instance skeleton a launch writes into.
func ensureInstance() error {
	if err := instance.Ensure(cfg.InstanceRoot); err != nil {
		return err
	}
	logger.Trace("📁 Instance layout ready", "root", cfg.InstanceRoot)
	return nil
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		warnColor.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", w)
	}
}

func newLaunchCmd() *cobra.Command {
	flags := &launchFlags{}
	cmd := &cobra.Command{
		Use:   "launch <version|latest>",
		Short: "Launch a version and confirm it starts",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureInstance(); err != nil {
				return err
			}
			req, err := flags.request(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := newEngine().Launch(cmd.Context(), req)
			if res != nil {
				printWarnings(cmd, res.Warnings)
			}
			if err != nil {
				var failure *supervisor.Failure
				if errors.As(err, &failure) {
					for _, line := range failure.StderrTail {
						dimColor.Fprintf(cmd.ErrOrStderr(), "  │ %s\n", line)
					}
					dimColor.Fprintf(cmd.ErrOrStderr(), "  Logs: %s\n", failure.StderrLog)
				}
				return err
			}

			okColor.Fprintf(cmd.OutOrStdout(), "✓ Launched %s", res.Descriptor.ID)
			fmt.Fprintf(cmd.OutOrStdout(), " (pid %d, Java %d)\n", res.Outcome.PID, res.Runtime.Major)
			dimColor.Fprintf(cmd.OutOrStdout(), "  stdout: %s\n  stderr: %s\n", res.Outcome.StdoutLog, res.Outcome.StderrLog)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newPlanCmd() *cobra.Command {
	flags := &launchFlags{}
	var oneLine bool
	cmd := &cobra.Command{
		Use:   "plan <version|latest>",
		Short: "Build the launch command without starting the game",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureInstance(); err != nil {
				return err
			}
			req, err := flags.request(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := newEngine().Plan(cmd.Context(), req)
			if res != nil {
				printWarnings(cmd, res.Warnings)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			redacted := res.Plan.Redacted()
			if oneLine {
				fmt.Fprintln(out, argv.Join(redacted))
				return nil
			}
			for i, arg := range redacted {
				if i == res.Plan.MainClassIndex()+1 {
					okColor.Fprintln(out, arg)
					continue
				}
				fmt.Fprintln(out, arg)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&oneLine, "one-line", false, "Print the command as a single shell-quoted line")
	return cmd
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <version|latest>",
		Short: "Print the merged descriptor as JSON",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := catalog().ResolveAlias(args[0])
			if err != nil {
				return fmt.Errorf("%w: %v", engine.ErrInvalidRequest, err)
			}
			d, err := newEngine().Resolve(id)
			if err != nil {
				return err
			}
			data, err := sonic.ConfigStd.MarshalIndent(d, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode descriptor: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newRuntimesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runtimes",
		Short: "List discovered Java runtimes",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			found := newEngine().Registry().Discover(cmd.Context())
			if len(found) == 0 {
				warnColor.Fprintln(cmd.ErrOrStderr(), "⚠ No Java runtimes found")
				return nil
			}
			for _, major := range jvm.Majors(found) {
				okColor.Fprintf(cmd.OutOrStdout(), "Java %-3d", major)
				fmt.Fprintf(cmd.OutOrStdout(), " %s\n", found[major])
			}
			return nil
		},
	}
}

func newVersionsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List versions in the instance, newest first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			versions, err := catalog().List(!all)
			if err != nil {
				return err
			}
			for _, v := range versions {
				mark := okColor.Sprint("✓")
				if !v.Installed {
					mark = warnColor.Sprint("…")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-32s %s\n", mark, v.ID, dimColor.Sprint(v.Type))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include versions that are not fully installed")
	return cmd
}

func newNativesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "natives",
		Short: "Manage the native library cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "gc",
		Short: "Remove expired native sessions now",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := newEngine().Natives().Reap("")
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "✓ Removed %d native session(s)\n", n)
			return nil
		},
	})
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := cfg.Encode()
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
