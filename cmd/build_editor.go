package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lcj0117/bsf/build-tools/pkg"
	"github.com/lcj0117/bsf/build-tools/pkg/editorbuild"
)

var buildEditorCmd = &cobra.Command{
	Use:   "build-editor [configuration]",
	Short: "Builds and packages the editor",
	Long: `Builds the engine solution with MSBuild for DebugRelease and Release on x64 and then runs
the package script. Make sure MSBuild is installed and the path is valid.

The optional configuration argument (e.g. DebugRelease, Release) is passed on to the package
script. Settings are read from the first build_editor.star or build_editor.yml found in the current
directory or its parents unless --config is given; flags override both.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}

		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger := zerolog.New(NewConsoleWriter(cmd.ErrOrStderr())).Level(level)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		ctx = editorbuild.WithLogger(ctx, &logger)

		cfg, err := loadBuildConfig(ctx, cmd, args)
		if err != nil {
			return err
		}

		opts := editorbuild.Options{
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		}
		opts.DryRun, err = cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		opts.Strict, err = cmd.Flags().GetBool("strict")
		if err != nil {
			return err
		}

		opts.Progress, err = cmd.Flags().GetBool("progress")
		if err != nil {
			return err
		}

		pkg.PrintTask("Building editor")
		report, err := editorbuild.Run(ctx, cfg, opts)
		if report != nil {
			printReport(report)
		}
		return err
	},
}

var buildFlagFields = map[string]func(*editorbuild.Config) *string{
	"msbuild-path":        func(c *editorbuild.Config) *string { return &c.MSBuildPath },
	"solution":            func(c *editorbuild.Config) *string { return &c.Solution },
	"debug-configuration": func(c *editorbuild.Config) *string { return &c.DebugConfiguration },
	"platform":            func(c *editorbuild.Config) *string { return &c.Platform },
	"package-script":      func(c *editorbuild.Config) *string { return &c.PackageScript },
	"package-interpreter": func(c *editorbuild.Config) *string { return &c.PackageInterpreter },
	"workdir":             func(c *editorbuild.Config) *string { return &c.WorkDir },
}

func loadBuildConfig(ctx context.Context, cmd *cobra.Command, args []string) (editorbuild.Config, error) {
	cfg := editorbuild.DefaultConfig()

	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return cfg, err
	}

	if cfgPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return cfg, eris.Wrap(err, "Failed to retrieve the current working directory")
		}

		cfgPath, err = pkg.FindUp(wd, editorbuild.ConfigFileNames...)
		if err != nil {
			return cfg, err
		}
	}

	if cfgPath != "" {
		editorbuild.Logger(ctx).Debug().Str("path", cfgPath).Msgf("Loading %s", cfgPath)
		cfg, err = editorbuild.LoadFile(ctx, cfgPath, cfg)
		if err != nil {
			return cfg, err
		}
	}

	for name, field := range buildFlagFields {
		if !cmd.Flags().Changed(name) {
			continue
		}

		value, err := cmd.Flags().GetString(name)
		if err != nil {
			return cfg, err
		}
		*field(&cfg) = value
	}

	if len(args) > 0 {
		cfg.PackageConfiguration = args[0]
	}

	return cfg, nil
}

func printReport(report *editorbuild.Report) {
	pkg.PrintTask(fmt.Sprintf("Summary (run %s)", report.RunID))
	if !report.ToolPathValid {
		pkg.PrintError("MSBuild path is not valid: " + report.ToolPath)
	}

	for _, step := range report.Steps {
		switch {
		case step.Skipped:
			pkg.PrintSubtask(step.Step.Name + ": skipped (dry run)")
		case step.Failed():
			pkg.PrintError(fmt.Sprintf("%s: %v", step.Step.Name, step.Error()))
		default:
			pkg.PrintSubtask(fmt.Sprintf("%s: ok (%s)", step.Step.Name, step.Duration.Round(time.Millisecond)))
		}
	}
}

func init() {
	flags := buildEditorCmd.Flags()
	flags.StringP("config", "c", "", "path to a build_editor.star or build_editor.yml file")
	flags.String("msbuild-path", editorbuild.DefaultMSBuildPath, "directory containing msbuild")
	flags.String("solution", editorbuild.DefaultSolution, "solution file to build")
	flags.String("debug-configuration", editorbuild.DefaultConfiguration, "configuration of the first build; the second one is always Release")
	flags.String("platform", editorbuild.DefaultPlatform, "target platform")
	flags.String("package-script", editorbuild.DefaultPackageScript, "script invoked after both builds")
	flags.String("package-interpreter", "", "interpreter used to run the package script (e.g. python)")
	flags.String("workdir", "", "directory the commands run in (defaults to the current directory)")
	flags.BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	flags.Bool("strict", false, "abort if the MSBuild path is invalid or a command fails")
	flags.Bool("progress", false, "show a progress bar")
	flags.BoolP("verbose", "v", false, "enable debug output")

	rootCmd.AddCommand(buildEditorCmd)
}
