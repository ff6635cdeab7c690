package simulator

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alessio/shellescape"
	"github.com/klauspost/compress/zstd"
)

// diagnostics collects the output of every command of a trial.
type diagnostics struct {
	buf bytes.Buffer
}

func (d *diagnostics) record(stage string, args []string, output []byte, err error) {
	fmt.Fprintf(&d.buf, "### %s: %s\n", stage, shellescape.QuoteCommand(args))
	d.buf.Write(output)
	if len(output) > 0 && output[len(output)-1] != '\n' {
		d.buf.WriteByte('\n')
	}
	if err != nil {
		fmt.Fprintf(&d.buf, "### %s: %s\n", stage, err)
	}
}

// write saves the collected output as a zstd compressed file and returns its path.
func (d *diagnostics) write(dir string, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create diagnostics directory: %w", err)
	}

	file := filepath.Join(dir, name+".log.zst")
	f, err := os.Create(file)
	if err != nil {
		return "", fmt.Errorf("failed to create diagnostics file: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return "", fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := zw.Write(d.buf.Bytes()); err != nil {
		zw.Close()
		return "", fmt.Errorf("failed to write diagnostics: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return file, f.Close()
}
