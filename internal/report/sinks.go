package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// logSeparator divides per-host blocks in the verbose log.
const logSeparator = "----------------------------------------"

// timeRounding keeps per-host durations readable in the log header.
const timeRounding = 10 * time.Millisecond

// WriteAccessColumn writes one access-status value per host, in record
// order. The file pastes straight into a spreadsheet column.
func WriteAccessColumn(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, string(e.Access)); err != nil {
			return err
		}
	}
	return nil
}

// WritePrecheckColumn writes one pre-check-status value per host, in
// record order.
func WritePrecheckColumn(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, string(e.Precheck)); err != nil {
			return err
		}
	}
	return nil
}

// WriteLog writes the verbose per-host log: a header line, the host's
// cleaned output, and a separator rule. Human-readable, never parsed.
func WriteLog(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		header := fmt.Sprintf("==== %s (access=%s precheck=%s, %s)", e.Host, e.Access, e.Precheck, e.Duration.Round(timeRounding))
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		out := strings.TrimRight(e.Output, "\n")
		if out != "" {
			if _, err := fmt.Fprintln(w, out); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, logSeparator); err != nil {
			return err
		}
	}
	return nil
}

// WriteFiles writes all three output files under dir, creating it if
// needed. Files are only touched after the run completes; a fatal
// pre-flight error never gets this far.
func WriteFiles(dir, accessFile, precheckFile, logFile string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer, []Entry) error
	}{
		{accessFile, WriteAccessColumn},
		{precheckFile, WritePrecheckColumn},
		{logFile, WriteLog},
	}

	for _, wr := range writers {
		if wr.name == "" {
			continue
		}
		path := filepath.Join(dir, wr.name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := wr.write(f, entries); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
	}

	return nil
}
