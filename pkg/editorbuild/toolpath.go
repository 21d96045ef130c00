package editorbuild

import (
	"os"

	"github.com/rotisserie/eris"
)

// ToolPathExists reports whether the MSBuild directory exists. Only a missing path yields false
// without an error.
func ToolPathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if eris.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, eris.Wrapf(err, "Failed to check %s", path)
}

// AppendToolPath appends dir to the process' PATH separated by os.PathListSeparator and returns the
// new value. The separator is added even if PATH was empty.
func AppendToolPath(dir string) (string, error) {
	path := os.Getenv("PATH") + string(os.PathListSeparator) + dir

	err := os.Setenv("PATH", path)
	if err != nil {
		return "", eris.Wrap(err, "failed to update PATH")
	}

	return path, nil
}
