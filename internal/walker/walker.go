// internal/walker/walker.go
package walker

import (
	"fmt"
	"os"
	"path/filepath"
)

// Options configures a walk of the source tree
type Options struct {
	// SameFileSystem skips entries whose device differs from the root's
	SameFileSystem bool

	// UseGitignore excludes paths matched by .gitignore files in the tree
	UseGitignore bool
}

// WalkFunc is called once per regular file with its path relative to the
// walk root (using the OS path separator) and the file's lstat info.
type WalkFunc func(relPath string, info os.FileInfo) error

// Walk enumerates every regular file under root in lexical order. Symbolic
// links are neither followed nor yielded; directories recurse. With
// SameFileSystem set, entries on a different device than root are skipped,
// subtrees included.
func Walk(root string, opts Options, fn WalkFunc) error {
	rootInfo, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !rootInfo.IsDir() {
		return fmt.Errorf("walk root %s is not a directory", root)
	}

	rootDev, haveRootDev := deviceID(rootInfo)

	var ignores *ignoreSet
	if opts.UseGitignore {
		ignores, err = loadIgnoreSet(root)
		if err != nil {
			return err
		}
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		if opts.SameFileSystem && haveRootDev {
			if dev, ok := deviceID(info); ok && dev != rootDev {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if ignores.ignoreDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks, sockets, devices and the like are not indexed
		if !info.Mode().IsRegular() {
			return nil
		}

		if ignores.ignore(relPath) {
			return nil
		}

		return fn(relPath, info)
	})
}
