package editorbuild

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/syntax"
)

// Step is a single external invocation
type Step struct {
	Name string
	Args []string
	// Script marks a shell script that runs inside the command runner. Args[0] is the script
	// path and the remaining args are its positional parameters.
	Script bool
}

// CommandLine quotes the arguments for a POSIX shell
func (s Step) CommandLine() (string, error) {
	parts := make([]string, len(s.Args))
	for idx, arg := range s.Args {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", eris.Wrapf(err, "failed to quote argument %q", arg)
		}
		parts[idx] = quoted
	}

	return strings.Join(parts, " "), nil
}

// ToShellStmts parses the quoted command line
func (s Step) ToShellStmts(parser *syntax.Parser) ([]*syntax.Stmt, error) {
	if len(s.Args) == 0 {
		return nil, eris.Errorf("step %s has no command", s.Name)
	}

	line, err := s.CommandLine()
	if err != nil {
		return nil, err
	}

	result, err := parser.Parse(strings.NewReader(line), s.Name)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse command %s", line)
	}

	return result.Stmts, nil
}

// ParseScript reads the shell script of a Script step. Relative paths are resolved against dir.
func (s Step) ParseScript(parser *syntax.Parser, dir string) (*syntax.File, error) {
	if !s.Script || len(s.Args) == 0 {
		return nil, eris.Errorf("step %s is not a shell script", s.Name)
	}

	path := s.Args[0]
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	handle, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open script %s", path)
	}
	defer handle.Close()

	file, err := parser.Parse(handle, path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse script %s", path)
	}

	return file, nil
}

// MSBuildStep builds solution for the given configuration and platform
func MSBuildStep(solution, configuration, platform string) Step {
	return Step{
		Name: "msbuild:" + configuration,
		Args: []string{
			"msbuild",
			solution,
			fmt.Sprintf("/p:Configuration=%s;Platform=%s", configuration, platform),
		},
	}
}

// PackageStep invokes the package script with the configuration label as its only argument.
//
// Without an explicit interpreter, .sh scripts run inside the command runner and .py scripts are
// passed to python on Windows because it can't execute them directly.
func PackageStep(script, interpreter, configuration string) Step {
	return packageStep(script, interpreter, configuration, runtime.GOOS)
}

func packageStep(script, interpreter, configuration, goos string) Step {
	step := Step{
		Name: "package",
		Args: []string{script, configuration},
	}

	if interpreter == "" {
		switch strings.ToLower(filepath.Ext(script)) {
		case ".sh":
			step.Script = true
		case ".py":
			if goos == "windows" {
				interpreter = WindowsPythonInterpreter
			}
		}
	}

	if interpreter != "" {
		step.Args = append([]string{interpreter}, step.Args...)
	}

	return step
}

// NewPlan returns the steps in execution order: the debug build, the release build and packaging
func NewPlan(cfg Config) []Step {
	return []Step{
		MSBuildStep(cfg.Solution, cfg.DebugConfiguration, cfg.Platform),
		MSBuildStep(cfg.Solution, ReleaseConfiguration, cfg.Platform),
		PackageStep(cfg.PackageScript, cfg.PackageInterpreter, cfg.PackageConfiguration),
	}
}
