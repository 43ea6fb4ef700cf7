// Package stacktrace trims goroutine stacks down to this module's frames so
// panic logs stay readable.
package stacktrace

import (
	"bufio"
	"bytes"
	"strings"
)

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" entries for every
// frame of a debug.Stack dump that lives under an internal/ directory.
func InternalPaths(stack []byte) []string {
	var paths []string

	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		// file lines look like "/src/internal/auth/usecase/login.go:42 +0x1a"
		loc, _, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		idx := strings.Index(loc, marker)
		if idx == -1 || !strings.Contains(loc, ".go:") {
			continue
		}
		paths = append(paths, loc[idx+1:])
	}

	return paths
}
