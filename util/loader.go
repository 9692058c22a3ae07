// Package util - File lookup helpers.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocateFile finds name in the first directory that contains it.
//
// Arguments:
//   - name: The file name, relative to each directory. Absolute names are returned as is.
//   - dirs: The directories to search, in order.
//
// Returns:
//   - string: The path in the first directory holding a regular file called name, or the path
//     in the first directory when none does. With no directories, name itself.
//   - bool: Whether the file was found.
func LocateFile(name string, dirs []string) (string, bool) {
	if filepath.IsAbs(name) || len(dirs) == 0 {
		return name, isFile(name)
	}
	for _, dir := range dirs {
		p := filepath.Join(dir, name)
		if isFile(p) {
			return p, true
		}
	}
	return filepath.Join(dirs[0], name), false
}

// ListImageFiles lists the image files of a directory, sorted by name.
//
// Arguments:
//   - dir: Directory path containing image files.
//   - extensions: The accepted extensions, lower case with the dot.
//
// Returns:
//   - []string: The file names, without the directory.
//   - error: Error if the directory cannot be read.
func ListImageFiles(dir string, extensions []string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	accept := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		accept[ext] = true
	}

	var names []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if accept[strings.ToLower(filepath.Ext(file.Name()))] {
			names = append(names, file.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
