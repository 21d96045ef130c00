package editorbuild

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/lcj0117/bsf/build-tools/pkg/posix"
)

// ErrInvalidToolPath is returned in strict mode if the MSBuild directory doesn't exist
var ErrInvalidToolPath = eris.New("MSBuild path is not valid")

// Options controls how Run executes the plan
type Options struct {
	// DryRun only logs the commands
	DryRun bool
	// Strict aborts on a missing MSBuild path or the first failing step
	Strict bool
	// Progress shows a progress bar on Stderr
	Progress bool
	Stdout   io.Writer
	Stderr   io.Writer
	// ExecHandler runs the external programs. Defaults to interp.DefaultExecHandler. mv, rm and
	// mkdir are always served by posix.ExecHandler.
	ExecHandler interp.ExecHandlerFunc
}

// openHandler keeps "> /dev/null" in package scripts working on Windows
func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return interp.DefaultOpenHandler()(ctx, path, flag, perm)
}

func getProgressBar(steps int, stderr io.Writer, visible bool) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		visible = false
	}

	return progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionSetDescription("editor"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionClearOnFinish(),
	)
}

// Run checks the tool path, appends it to PATH and executes the build plan for cfg.
//
// A missing tool path is logged and otherwise ignored unless opts.Strict is set. Every step runs
// regardless of the exit status of the previous ones. The returned Report holds the outcome of each
// step; err is only set for problems that prevented the plan from running (or any failure in strict
// mode).
func Run(ctx context.Context, cfg Config, opts Options) (*Report, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     nanoid.New(),
		ToolPath:  cfg.MSBuildPath,
		StartedAt: time.Now(),
	}
	logger := log(ctx).With().Str("run", report.RunID).Logger()
	ctx = WithLogger(ctx, &logger)

	report.ToolPathValid, err = ToolPathExists(cfg.MSBuildPath)
	if err != nil {
		return report, err
	}

	if !report.ToolPathValid {
		logger.Error().Str("path", cfg.MSBuildPath).Msgf("MSBuild path is not valid. Used path %s", cfg.MSBuildPath)
		if opts.Strict {
			return report, eris.Wrapf(ErrInvalidToolPath, "used path %s", cfg.MSBuildPath)
		}
		logger.Warn().Msg("continuing without a valid MSBuild path")
	}

	report.PathValue, err = AppendToolPath(cfg.MSBuildPath)
	if err != nil {
		return report, err
	}
	logger.Debug().Str("path", cfg.MSBuildPath).Msg("appended MSBuild to PATH")

	dir := cfg.WorkDir
	if dir == "" {
		dir, err = os.Getwd()
		if err != nil {
			return report, eris.Wrap(err, "failed to retrieve the current working directory")
		}
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	execHandler := opts.ExecHandler
	if execHandler == nil {
		execHandler = interp.DefaultExecHandler(2 * time.Second)
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.ExecHandler(posix.ExecHandler(execHandler)),
		interp.OpenHandler(openHandler),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return report, eris.Wrap(err, "Failed to initialize runner")
	}

	steps := NewPlan(cfg)
	bar := getProgressBar(len(steps), stderr, opts.Progress && !opts.DryRun)
	defer bar.Finish()

	parser := syntax.NewParser()
	printer := syntax.NewPrinter(syntax.Minify(true))
	strBuffer := strings.Builder{}

	for _, step := range steps {
		if err = ctx.Err(); err != nil {
			return report, err
		}

		result := StepResult{Step: step}
		stmts, err := step.ToShellStmts(parser)
		if err != nil {
			return report, err
		}

		strBuffer.Reset()
		for idx, stmt := range stmts {
			if idx > 0 {
				strBuffer.WriteString("; ")
			}
			err = printer.Print(&strBuffer, stmt)
			if err != nil {
				return report, eris.Wrapf(err, "failed to print command for %s", step.Name)
			}
		}
		result.Command = strBuffer.String()

		logger.Info().
			Str("task", step.Name).
			Bool("command", true).
			Msg(result.Command)

		if opts.DryRun {
			result.Skipped = true
		} else {
			bar.Describe(step.Name)
			start := time.Now()
			err = runStep(ctx, runner, parser, step, stmts, dir)
			result.Duration = time.Since(start)
			if err != nil {
				if status, ok := interp.IsExitStatus(err); ok {
					result.ExitStatus = int(status)
				} else {
					result.ExitStatus = -1
					result.Err = err
				}
			}
		}

		report.Steps = append(report.Steps, result)
		_ = bar.Add(1)

		if !result.Failed() {
			continue
		}

		evt := logger.Warn().Str("task", step.Name).Int("status", result.ExitStatus)
		if result.Err != nil {
			evt = evt.Err(result.Err)
		}
		evt.Msg("command failed")

		if opts.Strict {
			return report, eris.Wrapf(result.Error(), "step %s failed", step.Name)
		}
	}

	return report, nil
}

// runStep runs the parsed command line or, for script steps, the script file with the remaining
// args as positional parameters
func runStep(ctx context.Context, runner *interp.Runner, parser *syntax.Parser, step Step, stmts []*syntax.Stmt, dir string) error {
	runner.Reset()
	if !step.Script {
		for _, stmt := range stmts {
			err := runner.Run(ctx, stmt)
			if err != nil {
				return err
			}
		}
		return nil
	}

	file, err := step.ParseScript(parser, dir)
	if err != nil {
		return err
	}

	runner.Params = step.Args[1:]
	return runner.Run(ctx, file)
}
