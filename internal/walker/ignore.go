// internal/walker/ignore.go
package walker

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// ignoreSet holds the compiled .gitignore files of a tree, keyed by the
// slash-separated directory (relative to the walk root, "" = root) that
// contains them.
type ignoreSet struct {
	matchers map[string]*ignore.GitIgnore
}

// loadIgnoreSet pre-scans the tree for .gitignore files and compiles them.
// Returns nil when the tree carries none, which disables all filtering.
func loadIgnoreSet(root string) (*ignoreSet, error) {
	set := &ignoreSet{matchers: make(map[string]*ignore.GitIgnore)}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Base(path) != ".gitignore" {
			return nil
		}

		relDir, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return nil
		}
		if relDir == "." {
			relDir = ""
		}

		matcher, err := ignore.CompileIgnoreFile(path)
		if err != nil {
			// An unreadable .gitignore does not abort the walk
			return nil
		}
		set.matchers[filepath.ToSlash(relDir)] = matcher
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(set.matchers) == 0 {
		return nil, nil
	}
	return set, nil
}

// ignore reports whether relPath matches a pattern in any .gitignore file
// between the root and the path's parent directory.
func (s *ignoreSet) ignore(relPath string) bool {
	if s == nil {
		return false
	}

	relPath = filepath.ToSlash(relPath)
	for _, dir := range ancestors(relPath) {
		matcher, ok := s.matchers[dir]
		if !ok {
			continue
		}
		scoped := relPath
		if dir != "" {
			scoped = strings.TrimPrefix(relPath, dir+"/")
		}
		if matcher.MatchesPath(scoped) {
			return true
		}
	}
	return false
}

// ignoreDir reports whether a whole directory subtree can be pruned. Only
// directory patterns ("build/") prune; file patterns that happen to match a
// directory name do not, so their negations deeper down keep working.
func (s *ignoreSet) ignoreDir(relPath string) bool {
	if s == nil {
		return false
	}
	return s.ignore(relPath+"/") && !s.ignore(relPath)
}

// ancestors lists the directories whose .gitignore files govern relPath,
// root first: "src/lib/a.log" -> ["", "src", "src/lib"]
func ancestors(relPath string) []string {
	dirs := []string{""}

	parent := filepath.ToSlash(filepath.Dir(relPath))
	if parent == "." || parent == "" {
		return dirs
	}

	current := ""
	for _, part := range strings.Split(parent, "/") {
		if current == "" {
			current = part
		} else {
			current = current + "/" + part
		}
		dirs = append(dirs, current)
	}
	return dirs
}
