package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/smasonuk/tlfront/pkg/compiler"
)

// SourceExt is the extension of source files picked up from directories.
const SourceExt = ".tl"

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}

// ExpandSources turns command line arguments into a sorted list of absolute
// source paths. Directories are walked for files ending in ext; files named
// directly are kept whatever their extension. Duplicates are dropped.
func ExpandSources(paths []string, ext string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, rel := range paths {
		full, _, err := GetPathInfo(rel)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(full)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(full)
			continue
		}
		err = filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != full && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(p) == ext {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", rel, err)
		}
	}

	sort.Strings(out)
	return out, nil
}

// KindForPath picks a file kind from a file name:
//
//	main.tl          exe
//	*_test.tl        test
//	*_bindings.tl    bindings
//	anything else    lib
func KindForPath(path string) compiler.FileKind {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	switch {
	case stem == "main":
		return compiler.Executable
	case strings.HasSuffix(stem, "_test"):
		return compiler.Tests
	case strings.HasSuffix(stem, "_bindings"):
		return compiler.BindingsOnly
	}
	return compiler.Library
}
