// Package differ computes a deterministic, zero-context unified diff
// between two extracted configuration trees.
//
// The comparison is a whole-tree text comparison: each tree is flattened
// into one line sequence (files visited in sorted relative-path order) and
// the sequences are diffed as units, not file by file. Unchanged files
// therefore never appear in the output.
package differ

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Tree diffs the trees rooted at pathA and pathB and returns the unified
// diff lines with zero context. Identical trees yield an empty slice. The
// output is byte-identical across invocations for identical inputs:
// fs.WalkDir visits entries in lexical order, so no extra sorting step is
// required for stability.
func Tree(pathA, pathB string) ([]string, error) {
	a, err := flatten(pathA)
	if err != nil {
		return nil, err
	}
	b, err := flatten(pathB)
	if err != nil {
		return nil, err
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: pathA,
		ToFile:   pathB,
		Context:  0,
	})
	if err != nil {
		return nil, fmt.Errorf("diffing %s and %s: %w", pathA, pathB, err)
	}
	if text == "" {
		return nil, nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n"), nil
}

// flatten reads every regular file under root in sorted relative-path
// order and returns the concatenated content split into lines with
// newlines kept.
func flatten(root string) ([]string, error) {
	var lines []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		lines = append(lines, splitKeepNewlines(string(data))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// splitKeepNewlines splits into lines keeping the trailing newline on each
// element, which gives difflib clean hunk boundaries.
func splitKeepNewlines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
