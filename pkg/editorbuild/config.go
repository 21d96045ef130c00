package editorbuild

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMSBuildPath is the MSBuild 12.0 (VS 2013) amd64 toolset directory
	DefaultMSBuildPath   = `C:\Program Files (x86)\MSBuild\12.0\Bin\amd64`
	DefaultSolution      = `..\BansheeEngine.sln`
	DefaultConfiguration = "DebugRelease"
	ReleaseConfiguration = "Release"
	DefaultPlatform      = "x64"
	DefaultPackageScript = "package_editor.py"

	// WindowsPythonInterpreter runs .py package scripts on Windows if no interpreter is configured
	WindowsPythonInterpreter = "python"
)

// ConfigFileNames lists the file names FindConfig looks for, in order of preference
var ConfigFileNames = []string{"build_editor.star", "build_editor.yml", "build_editor.yaml"}

// Config describes a single editor build
type Config struct {
	// MSBuildPath is the directory containing msbuild. It's appended to PATH.
	MSBuildPath string `yaml:"msbuildPath"`
	Solution    string `yaml:"solution"`
	// DebugConfiguration is built first. The second build always uses ReleaseConfiguration.
	DebugConfiguration string `yaml:"debugConfiguration"`
	Platform           string `yaml:"platform"`
	PackageScript      string `yaml:"packageScript"`
	// PackageInterpreter is prepended to the package command if set (e.g. "python"). Leaving it
	// empty picks one based on the script extension, see PackageStep.
	PackageInterpreter   string `yaml:"packageInterpreter,omitempty"`
	PackageConfiguration string `yaml:"packageConfiguration"`
	WorkDir              string `yaml:"workDir,omitempty"`
}

// DefaultConfig returns the configuration the editor has always been built with
func DefaultConfig() Config {
	return Config{
		MSBuildPath:          DefaultMSBuildPath,
		Solution:             DefaultSolution,
		DebugConfiguration:   DefaultConfiguration,
		Platform:             DefaultPlatform,
		PackageScript:        DefaultPackageScript,
		PackageConfiguration: DefaultConfiguration,
	}
}

// Validate checks that every value needed to assemble the commands is present
func (c Config) Validate() error {
	if c.MSBuildPath == "" {
		return eris.New("no MSBuild path configured")
	}

	if c.Solution == "" {
		return eris.New("no solution configured")
	}

	if c.DebugConfiguration == "" {
		return eris.New("no debug configuration configured")
	}

	if c.Platform == "" {
		return eris.New("no platform configured")
	}

	if c.PackageScript == "" {
		return eris.New("no package script configured")
	}

	if c.PackageConfiguration == "" {
		return eris.New("no package configuration configured")
	}

	// msbuild splits /p: values on ';'
	for _, value := range []string{c.DebugConfiguration, c.Platform} {
		if strings.ContainsAny(value, ";=") {
			return eris.Errorf("invalid msbuild property value %q", value)
		}
	}

	return nil
}

// LoadYAML reads the YAML file at path on top of base. Keys missing from the file keep base's value.
func LoadYAML(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, eris.Wrapf(err, "Could not open file %s.", path)
	}

	cfg := base
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return base, eris.Wrapf(err, "Failed to parse %s.", path)
	}

	if cfg.WorkDir != "" && !filepath.IsAbs(cfg.WorkDir) {
		cfg.WorkDir = filepath.Join(filepath.Dir(path), cfg.WorkDir)
	}

	return cfg, nil
}

// LoadFile picks the loader based on the file extension
func LoadFile(ctx context.Context, path string, base Config) (Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return LoadYAML(path, base)
	case ".star":
		return LoadScript(ctx, path, base)
	default:
		return base, eris.Errorf("unsupported config format %s", filepath.Ext(path))
	}
}
