package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// writeOutput writes data to path, creating parent directories, and reports
// the result on w.
func writeOutput(w io.Writer, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("unable to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("unable to write file: %w", err)
	}
	fmt.Fprintln(w, translator.T("common.wroteFile",
		"path", path,
		"size", humanize.Bytes(uint64(len(data))),
	))
	return nil
}

// status prints a progress note on w.
func status(w io.Writer, key string, kv ...string) {
	fmt.Fprintln(w, subtle(translator.T(key, kv...)))
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
