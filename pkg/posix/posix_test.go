package posix

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestMakeDir(t *testing.T) {
	dir := t.TempDir()

	assert.Error(t, MakeDir([]string{filepath.Join(dir, "a", "b")}, false))
	require.NoError(t, MakeDir([]string{filepath.Join(dir, "a", "b")}, true))
	assert.DirExists(t, filepath.Join(dir, "a", "b"))
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	sub := filepath.Join(dir, "sub")
	touch(t, file)
	touch(t, filepath.Join(sub, "nested.txt"))

	assert.Error(t, Remove([]string{sub}, false, false), "directories need -r")
	require.NoError(t, Remove([]string{file, sub}, true, false))
	assert.NoFileExists(t, file)
	assert.NoDirExists(t, sub)

	assert.Error(t, Remove([]string{file}, false, false))
	assert.NoError(t, Remove([]string{file}, false, true))
}

func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	touch(t, src)

	// rename
	renamed := filepath.Join(dir, "b.txt")
	require.NoError(t, Move([]string{src}, renamed))
	assert.FileExists(t, renamed)
	assert.NoFileExists(t, src)

	// into a directory
	dest := filepath.Join(dir, "dest")
	require.NoError(t, os.Mkdir(dest, 0o755))
	other := filepath.Join(dir, "c.txt")
	touch(t, other)
	require.NoError(t, Move([]string{renamed, other}, dest))
	assert.FileExists(t, filepath.Join(dest, "b.txt"))
	assert.FileExists(t, filepath.Join(dest, "c.txt"))
}

func TestMoveErrors(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	touch(t, a)
	touch(t, b)

	assert.Error(t, Move(nil, dir))
	assert.Error(t, Move([]string{a}, filepath.Join(dir, "missing", "a.txt")))
	assert.Error(t, Move([]string{a, b}, filepath.Join(dir, "target.txt")))
}

func TestParseFlags(t *testing.T) {
	flags, operands := parseFlags([]string{"-rf", "a", "-b"})
	assert.True(t, flags['r'])
	assert.True(t, flags['f'])
	assert.Equal(t, []string{"a", "-b"}, operands)

	flags, operands = parseFlags([]string{"--", "-a"})
	assert.Empty(t, flags)
	assert.Equal(t, []string{"-a"}, operands)
}

func runScript(t *testing.T, dir, src string, next interp.ExecHandlerFunc) (string, error) {
	t.Helper()

	file, err := syntax.NewParser().Parse(strings.NewReader(src), "test")
	require.NoError(t, err)

	stderr := new(bytes.Buffer)
	runner, err := interp.New(
		interp.Dir(dir),
		interp.ExecHandler(ExecHandler(next)),
		interp.StdIO(nil, new(bytes.Buffer), stderr),
	)
	require.NoError(t, err)

	err = runner.Run(context.Background(), file)
	return stderr.String(), err
}

func TestExecHandler(t *testing.T) {
	dir := t.TempDir()
	var passed [][]string
	next := func(ctx context.Context, args []string) error {
		passed = append(passed, append([]string(nil), args...))
		return nil
	}

	_, err := runScript(t, dir, "mkdir -p out/bin\nmv out/bin out/editor\nmsbuild Engine.sln\nrm -r out\n", next)
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(dir, "out"))
	assert.Equal(t, [][]string{{"msbuild", "Engine.sln"}}, passed)
}

func TestExecHandlerFailure(t *testing.T) {
	dir := t.TempDir()

	stderr, err := runScript(t, dir, "rm missing.txt", nil)
	require.Error(t, err)

	status, ok := interp.IsExitStatus(err)
	require.True(t, ok)
	assert.Equal(t, uint8(1), status)
	assert.Contains(t, stderr, "rm: ")
}
