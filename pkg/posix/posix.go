// Package posix implements small cross-platform versions of mv, rm and mkdir. They're served
// in-process to shell commands so packaging scripts behave the same on Windows.
package posix

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/interp"
)

func expandPatterns(patterns []string, ignoreMissing bool) ([]string, error) {
	if runtime.GOOS != "windows" {
		// the shell already expanded them
		return patterns, nil
	}

	items := []string{}
	for _, arg := range patterns {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "Failed to resolve pattern %s", arg)
		}

		if matches == nil {
			if ignoreMissing {
				continue
			}
			return nil, eris.Errorf("Pattern %s produced no matches", arg)
		}

		items = append(items, matches...)
	}

	return items, nil
}

// Move moves the sources into dest. With more than one source dest has to be a directory.
func Move(sources []string, dest string) error {
	if len(sources) < 1 {
		return eris.New("Not enough parameters")
	}

	dest = filepath.Clean(dest)
	destParent := filepath.Dir(dest)
	info, err := os.Stat(destParent)
	if err != nil {
		return eris.Wrapf(err, "Could not find destination directory %s", destParent)
	}

	if !info.IsDir() {
		return eris.Errorf("%s is not a directory!", destParent)
	}

	destIsDir := false
	info, err = os.Stat(dest)
	if err == nil {
		destIsDir = info.IsDir()
	} else if !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "Failed to retrieve info about destination %s", dest)
	}

	items, err := expandPatterns(sources, false)
	if err != nil {
		return err
	}

	if len(items) > 1 && !destIsDir {
		return eris.Errorf("Can't move multiple items to %s because it is not a directory!", dest)
	}

	for _, item := range items {
		itemDest := dest
		if destIsDir {
			itemDest = filepath.Join(dest, filepath.Base(item))
		}

		err = os.Rename(item, itemDest)
		if err != nil {
			return eris.Wrapf(err, "Failed to move %s to %s", item, itemDest)
		}
	}

	return nil
}

// Remove deletes the given items. Directories require recursive, force ignores missing items.
func Remove(patterns []string, recursive, force bool) error {
	items, err := expandPatterns(patterns, force)
	if err != nil {
		return err
	}

	for _, item := range items {
		info, err := os.Stat(item)
		if err != nil {
			if force && eris.Is(err, os.ErrNotExist) {
				continue
			}
			return eris.Wrapf(err, "Could not stat %s", item)
		}

		if info.IsDir() && !recursive {
			return eris.Errorf("%s is a directory but -r wasn't passed", item)
		}
	}

	for _, item := range items {
		err := os.RemoveAll(item)
		if err != nil && (!force || !eris.Is(err, os.ErrNotExist)) {
			return eris.Wrapf(err, "Could not delete %s", item)
		}
	}

	return nil
}

// MakeDir creates the given directories
func MakeDir(dirs []string, parents bool) error {
	for _, item := range dirs {
		var err error
		if parents {
			err = os.MkdirAll(item, 0770)
		} else {
			err = os.Mkdir(item, 0770)
		}

		if err != nil {
			return eris.Wrapf(err, "Failed to create %s", item)
		}
	}

	return nil
}

// parseFlags splits leading single-dash flags like -rf from the operands
func parseFlags(args []string) (map[rune]bool, []string) {
	flags := map[rune]bool{}
	for idx, arg := range args {
		if arg == "--" {
			return flags, args[idx+1:]
		}

		if len(arg) < 2 || arg[0] != '-' {
			return flags, args[idx:]
		}

		for _, r := range arg[1:] {
			flags[r] = true
		}
	}

	return flags, nil
}

// ExecHandler serves mv, rm and mkdir in-process and passes every other command on to next.
// Relative operands are resolved against the shell's working directory.
func ExecHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) == 0 {
			return next(ctx, args)
		}

		switch args[0] {
		case "mv", "rm", "mkdir":
		default:
			return next(ctx, args)
		}

		hc := interp.HandlerCtx(ctx)
		flags, operands := parseFlags(args[1:])
		for idx, item := range operands {
			if !filepath.IsAbs(item) {
				operands[idx] = filepath.Join(hc.Dir, item)
			}
		}

		var err error
		switch args[0] {
		case "mv":
			if len(operands) < 2 {
				err = eris.New("Not enough parameters")
			} else {
				err = Move(operands[:len(operands)-1], operands[len(operands)-1])
			}
		case "rm":
			err = Remove(operands, flags['r'] || flags['R'], flags['f'])
		case "mkdir":
			err = MakeDir(operands, flags['p'])
		}

		if err != nil {
			_, _ = hc.Stderr.Write([]byte(args[0] + ": " + err.Error() + "\n"))
			return interp.NewExitStatus(1)
		}

		return nil
	}
}
