// Package assemble merges rendered page artifacts into one document
// and writes the crawl report.
package assemble

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/7not-nico/web2pdf/pkg/types"
)

// ErrNoPages reports a run that collected zero renderable pages. The
// CLI surfaces it as "no pages found" instead of failing.
var ErrNoPages = errors.New("no pages found")

// Options controls document assembly.
type Options struct {
	DividerPages bool
}

// Document merges the ordered artifacts into a single PDF written to
// w. Results without an artifact are skipped.
func Document(w io.Writer, results []types.Result, opts Options) error {
	readers := make([]io.ReadSeeker, 0, len(results))
	for _, r := range results {
		if len(r.Artifact) == 0 {
			continue
		}
		readers = append(readers, bytes.NewReader(r.Artifact))
	}
	if len(readers) == 0 {
		return ErrNoPages
	}

	if err := api.MergeRaw(readers, w, opts.DividerPages, nil); err != nil {
		return fmt.Errorf("merge artifacts: %w", err)
	}
	return nil
}

// DocumentFile merges the artifacts into a PDF at path. The file is
// removed again when assembly fails so a broken document never
// survives the run.
func DocumentFile(path string, results []types.Result, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := Document(f, results, opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
