package audit

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ExpandMask resolves a file mask to the sorted list of matching regular
// files. Plain paths match themselves, shell-style patterns go through glob,
// and "**" spans directory separators for recursive matching. A mask that
// matches nothing is not an error.
func ExpandMask(mask string) ([]string, error) {
	if !strings.ContainsAny(mask, "*?[") {
		fi, err := os.Stat(mask)
		if err != nil || !fi.Mode().IsRegular() {
			return nil, nil
		}
		return []string{mask}, nil
	}

	if strings.Contains(mask, "**") {
		return expandRecursive(mask)
	}

	matches, err := filepath.Glob(mask)
	if err != nil {
		return nil, fmt.Errorf("invalid file mask: %w", err)
	}
	files := matches[:0]
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// expandRecursive walks from the mask's static prefix and matches the whole
// pattern against each file.
func expandRecursive(mask string) ([]string, error) {
	re, err := maskRegexp(mask)
	if err != nil {
		return nil, fmt.Errorf("invalid file mask: %w", err)
	}

	root := staticPrefix(mask)
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal: the mask may
			// legitimately cover directories the user cannot list.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && re.MatchString(filepath.ToSlash(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// maskRegexp compiles a mask into an anchored regexp: "**" crosses directory
// separators, "*" and "?" do not.
func maskRegexp(mask string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	pattern := filepath.ToSlash(mask)
	for i := 0; i < len(pattern); i++ {
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			// "**/" also matches zero directories.
			b.WriteString(`(?:[^/]+/)*`)
			i += 2
		case strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(`.*`)
			i++
		case pattern[i] == '*':
			b.WriteString(`[^/]*`)
		case pattern[i] == '?':
			b.WriteString(`[^/]`)
		default:
			b.WriteString(regexp.QuoteMeta(string(pattern[i])))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// staticPrefix returns the mask's leading directories without metacharacters,
// the starting point for a recursive walk.
func staticPrefix(mask string) string {
	segments := strings.Split(filepath.ToSlash(mask), "/")
	var prefix []string
	for _, seg := range segments {
		if strings.ContainsAny(seg, "*?[") {
			break
		}
		prefix = append(prefix, seg)
	}
	if len(prefix) == 0 {
		return "."
	}
	root := strings.Join(prefix, "/")
	if root == "" {
		return "/"
	}
	return filepath.FromSlash(root)
}
