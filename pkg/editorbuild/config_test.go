package editorbuild

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, `C:\Program Files (x86)\MSBuild\12.0\Bin\amd64`, cfg.MSBuildPath)
	assert.Equal(t, `..\BansheeEngine.sln`, cfg.Solution)
	assert.Equal(t, "DebugRelease", cfg.DebugConfiguration)
	assert.Equal(t, "DebugRelease", cfg.PackageConfiguration)
	assert.Equal(t, "x64", cfg.Platform)
	assert.Equal(t, "package_editor.py", cfg.PackageScript)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"msbuild path":  func(c *Config) { c.MSBuildPath = "" },
		"solution":      func(c *Config) { c.Solution = "" },
		"configuration": func(c *Config) { c.DebugConfiguration = "" },
		"platform":      func(c *Config) { c.Platform = "" },
		"package":       func(c *Config) { c.PackageScript = "" },
		"package label": func(c *Config) { c.PackageConfiguration = "" },
		"separator":     func(c *Config) { c.DebugConfiguration = "Debug;Platform=Win32" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "build_editor.yml", `
msbuildPath: D:\Tools\MSBuild
solution: ..\Engine.sln
workDir: Scripts
`)

	cfg, err := LoadYAML(path, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, `D:\Tools\MSBuild`, cfg.MSBuildPath)
	assert.Equal(t, `..\Engine.sln`, cfg.Solution)
	assert.Equal(t, filepath.Join(dir, "Scripts"), cfg.WorkDir)
	// untouched keys keep their defaults
	assert.Equal(t, "DebugRelease", cfg.DebugConfiguration)
	assert.Equal(t, "package_editor.py", cfg.PackageScript)
}

func TestLoadYAMLErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadYAML(filepath.Join(dir, "missing.yml"), DefaultConfig())
	assert.Error(t, err)

	path := writeFile(t, dir, "broken.yml", "solution: [unterminated\n")
	cfg, err := LoadYAML(path, DefaultConfig())
	assert.Error(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	yml := writeFile(t, dir, "build_editor.yaml", "platform: Win32\n")
	cfg, err := LoadFile(ctx, yml, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "Win32", cfg.Platform)

	star := writeFile(t, dir, "build_editor.star", `platform = "ARM64"`+"\n")
	cfg, err = LoadFile(ctx, star, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "ARM64", cfg.Platform)

	json := writeFile(t, dir, "build_editor.json", "{}")
	_, err = LoadFile(ctx, json, DefaultConfig())
	assert.Error(t, err)
}
