package editorbuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
)

type scriptCtx struct {
	ctx      context.Context
	filepath string
}

// scriptFields maps the globals a build_editor.star script may set to the Config field they override
var scriptFields = map[string]func(*Config) *string{
	"msbuild_path":          func(c *Config) *string { return &c.MSBuildPath },
	"solution":              func(c *Config) *string { return &c.Solution },
	"debug_configuration":   func(c *Config) *string { return &c.DebugConfiguration },
	"platform":              func(c *Config) *string { return &c.Platform },
	"package_script":        func(c *Config) *string { return &c.PackageScript },
	"package_interpreter":   func(c *Config) *string { return &c.PackageInterpreter },
	"package_configuration": func(c *Config) *string { return &c.PackageConfiguration },
	"workdir":               func(c *Config) *string { return &c.WorkDir },
}

func getScriptCtx(thread *starlark.Thread) *scriptCtx {
	return thread.Local("scriptCtx").(*scriptCtx)
}

func normalizePath(ctx *scriptCtx, pathList ...string) string {
	result := filepath.Dir(ctx.filepath)

	for _, path := range pathList {
		if !filepath.IsAbs(path) {
			result = filepath.Join(result, path)
		} else {
			result = path
		}
	}

	return filepath.Clean(result)
}

func scriptMessage(thread *starlark.Thread, msg string) string {
	pos := thread.CallFrame(1).Pos
	return fmt.Sprintf("%s:%d:%d: %s", filepath.Base(getScriptCtx(thread).filepath), pos.Line, pos.Col, msg)
}

// * Builtin functions

func starInfo(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	log(getScriptCtx(thread).ctx).Info().Msg(scriptMessage(thread, message))
	return starlark.None, nil
}

func starWarn(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	log(getScriptCtx(thread).ctx).Warn().Msg(scriptMessage(thread, message))
	return starlark.None, nil
}

func starError(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	return nil, eris.New(message)
}

func getenv(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key string
	var defaultValue string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &key, &defaultValue)
	if err != nil {
		return nil, err
	}

	value, ok := os.LookupEnv(key)
	if !ok {
		value = defaultValue
	}

	return starlark.String(value), nil
}

func resolvePath(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, eris.Errorf("%s: unexpected keyword arguments", fn.Name())
	}

	if len(args) < 1 {
		return nil, eris.Errorf("%s: expects at least one argument", fn.Name())
	}

	parts := make([]string, len(args))
	for idx, path := range args {
		value, ok := path.(starlark.String)
		if !ok {
			return nil, eris.Errorf("%s: only accepts string arguments but argument %d was a %s", fn.Name(), idx, path.Type())
		}
		parts[idx] = value.GoString()
	}

	return starlark.String(normalizePath(getScriptCtx(thread), parts...)), nil
}

func starIsdir(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var dirPath string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &dirPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(normalizePath(getScriptCtx(thread), dirPath))
	return starlark.Bool(err == nil && info.IsDir()), nil
}

func starIsfile(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var filePath string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &filePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(normalizePath(getScriptCtx(thread), filePath))
	return starlark.Bool(err == nil && info.Mode().IsRegular()), nil
}

// LoadScript executes a Starlark config script and applies the globals it sets on top of base.
//
// Recognised globals are msbuild_path, solution, debug_configuration, platform, package_script,
// package_interpreter, package_configuration and workdir. All of them must be strings. Other globals
// are ignored so scripts can use helper variables and functions.
func LoadScript(ctx context.Context, filename string, base Config) (Config, error) {
	filename, err := filepath.Abs(filename)
	if err != nil {
		return base, err
	}

	script, err := os.ReadFile(filename)
	if err != nil {
		return base, eris.Wrapf(err, "failed to read file %s", filename)
	}

	builtins := starlark.StringDict{
		"OS":           starlark.String(runtime.GOOS),
		"ARCH":         starlark.String(runtime.GOARCH),
		"info":         starlark.NewBuiltin("info", starInfo),
		"warn":         starlark.NewBuiltin("warn", starWarn),
		"error":        starlark.NewBuiltin("error", starError),
		"getenv":       starlark.NewBuiltin("getenv", getenv),
		"resolve_path": starlark.NewBuiltin("resolve_path", resolvePath),
		"isdir":        starlark.NewBuiltin("isdir", starIsdir),
		"isfile":       starlark.NewBuiltin("isfile", starIsfile),
	}

	thread := &starlark.Thread{
		Name: "config",
		Print: func(thread *starlark.Thread, msg string) {
			log(ctx).Info().Str("thread", thread.Name).Msg(msg)
		},
	}
	thread.SetLocal("scriptCtx", &scriptCtx{
		ctx:      ctx,
		filepath: filename,
	})

	globals, err := starlark.ExecFile(thread, filepath.Base(filename), script, builtins)
	if err != nil {
		if evalError, ok := err.(*starlark.EvalError); ok {
			return base, eris.Errorf("failed to execute %s:\n%s", filename, evalError.Backtrace())
		}
		return base, eris.Wrapf(err, "failed to execute %s", filename)
	}

	cfg := base
	for name, field := range scriptFields {
		value, ok := globals[name]
		if !ok {
			continue
		}

		str, ok := value.(starlark.String)
		if !ok {
			return base, eris.Errorf("%s: %s must be a string but is a %s", filename, name, value.Type())
		}

		*field(&cfg) = str.GoString()
	}

	if cfg.WorkDir != "" && !filepath.IsAbs(cfg.WorkDir) {
		cfg.WorkDir = filepath.Join(filepath.Dir(filename), cfg.WorkDir)
	}

	for name := range globals {
		if _, known := scriptFields[name]; !known && !strings.HasPrefix(name, "_") {
			log(ctx).Debug().Str("path", filename).Msgf("ignoring global %s", name)
		}
	}

	return cfg, nil
}
