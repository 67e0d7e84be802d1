package core

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var errNoProjectRoot = errors.New("project root not found")

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanStrings cleans every item of `ss`, dropping empty and duplicate ones. Order is preserved.
func CleanStrings(ss []string, lower ...bool) []string {
	cleaned := make([]string, 0, len(ss))
	seen := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		s = CleanString(s, lower...)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		cleaned = append(cleaned, s)
	}
	return cleaned
}

// StringInSlice reports whether `s` is in the sorted slice `sorted`.
func StringInSlice(s string, sorted []string) bool {
	i := sort.SearchStrings(sorted, s)
	return i < len(sorted) && sorted[i] == s
}

// ProjectRoot walks up from the working directory until it finds go.mod.
// go-test changes the working directory to the package being tested, so relative paths can't be trusted.
func ProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir, nil
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return "", errNoProjectRoot
		}
		currDir = newDir
	}
}
