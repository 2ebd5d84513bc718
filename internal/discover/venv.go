package discover

import (
	"os"
	"path/filepath"
)

// IsVenvRoot reports whether dir looks like a Python virtual environment by
// structure, whatever it is named:
//   - a pyvenv.cfg metadata file
//   - bin/activate next to bin/python or bin/python3
//   - a lib/python*/site-packages directory
//   - the Windows layout (Scripts/activate + python, or Lib/site-packages)
//   - a .Python marker (framework builds)
func IsVenvRoot(dir string) bool {
	if !isDir(dir) {
		return false
	}

	if isFile(filepath.Join(dir, "pyvenv.cfg")) {
		return true
	}

	bin := filepath.Join(dir, "bin")
	if isDir(bin) {
		if isFile(filepath.Join(bin, "activate")) &&
			(exists(filepath.Join(bin, "python")) || exists(filepath.Join(bin, "python3"))) {
			return true
		}
		if matches, _ := filepath.Glob(filepath.Join(dir, "lib", "python*", "site-packages")); len(matches) > 0 {
			for _, m := range matches {
				if isDir(m) {
					return true
				}
			}
		}
	}

	scripts := filepath.Join(dir, "Scripts")
	if isDir(scripts) {
		if isFile(filepath.Join(scripts, "activate")) &&
			(isFile(filepath.Join(scripts, "python.exe")) || exists(filepath.Join(scripts, "python"))) {
			return true
		}
		if isDir(filepath.Join(dir, "Lib", "site-packages")) {
			return true
		}
	}

	return exists(filepath.Join(dir, ".Python"))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
