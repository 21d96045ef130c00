package editorbuild

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

func expandStep(t *testing.T, step Step) []string {
	t.Helper()

	stmts, err := step.ToShellStmts(syntax.NewParser())
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	call, ok := stmts[0].Cmd.(*syntax.CallExpr)
	require.True(t, ok)

	fields, err := expand.Fields(&expand.Config{}, call.Args...)
	require.NoError(t, err)
	return fields
}

func TestNewPlan(t *testing.T) {
	steps := NewPlan(DefaultConfig())
	require.Len(t, steps, 3)

	assert.Equal(t, "msbuild:DebugRelease", steps[0].Name)
	assert.Equal(t, "msbuild:Release", steps[1].Name)
	assert.Equal(t, "package", steps[2].Name)
	assert.Equal(t, steps[0].Args[1], steps[1].Args[1])
	assert.Equal(t, PackageStep("package_editor.py", "", "DebugRelease").Args, steps[2].Args)
}

func TestPackageStepDefaultArgs(t *testing.T) {
	cfg := DefaultConfig()

	step := packageStep(cfg.PackageScript, cfg.PackageInterpreter, cfg.PackageConfiguration, "windows")
	assert.Equal(t, []string{"python", "package_editor.py", "DebugRelease"}, step.Args)
	assert.False(t, step.Script)

	step = packageStep(cfg.PackageScript, cfg.PackageInterpreter, cfg.PackageConfiguration, "linux")
	assert.Equal(t, []string{"package_editor.py", "DebugRelease"}, step.Args)
}

func TestPackageStepShellScript(t *testing.T) {
	for _, goos := range []string{"windows", "linux"} {
		step := packageStep("package_editor.sh", "", "Release", goos)
		assert.True(t, step.Script, goos)
		assert.Equal(t, []string{"package_editor.sh", "Release"}, step.Args, goos)
	}

	step := packageStep("package_editor.sh", "bash", "Release", "windows")
	assert.False(t, step.Script)
	assert.Equal(t, []string{"bash", "package_editor.sh", "Release"}, step.Args)
}

func TestParseScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.sh"), []byte("mkdir -p out\nzip out\n"), 0o644))
	parser := syntax.NewParser()

	file, err := PackageStep("package.sh", "", "Release").ParseScript(parser, dir)
	require.NoError(t, err)
	assert.Len(t, file.Stmts, 2)

	_, err = PackageStep("missing.sh", "", "Release").ParseScript(parser, dir)
	assert.Error(t, err)

	_, err = MSBuildStep("Engine.sln", "Release", "x64").ParseScript(parser, dir)
	assert.Error(t, err)
}

func TestPackageStepInterpreter(t *testing.T) {
	step := PackageStep("package_editor.py", "python", "Release")
	assert.Equal(t, []string{"python", "package_editor.py", "Release"}, step.Args)
}

func TestStepQuotingSurvivesTheShell(t *testing.T) {
	steps := []Step{
		MSBuildStep(`..\BansheeEngine.sln`, "DebugRelease", "x64"),
		MSBuildStep(`C:\My Projects\Banshee's Engine.sln`, "Release", "x64"),
		PackageStep("package $editor.py", "", "Debug*"),
	}

	for _, step := range steps {
		assert.Equal(t, step.Args, expandStep(t, step), step.Name)
	}
}

func TestStepCommandLineQuotesSeparator(t *testing.T) {
	line, err := MSBuildStep("Engine.sln", "Release", "x64").CommandLine()
	require.NoError(t, err)

	stmts, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	require.NoError(t, err)
	assert.Len(t, stmts.Stmts, 1, "the ; in /p: must not split the command")
}

func TestStepWithoutArgs(t *testing.T) {
	_, err := Step{Name: "empty"}.ToShellStmts(syntax.NewParser())
	assert.Error(t, err)
}
