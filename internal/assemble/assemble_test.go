package assemble

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/7not-nico/web2pdf/pkg/types"
)

func TestDocumentNoPages(t *testing.T) {
	t.Parallel()

	if err := Document(&bytes.Buffer{}, nil, Options{}); !errors.Is(err, ErrNoPages) {
		t.Fatalf("err = %v, want ErrNoPages", err)
	}

	// Results without artifacts count as no pages.
	results := []types.Result{{Depth: 0}, {Depth: 1}}
	if err := Document(&bytes.Buffer{}, results, Options{}); !errors.Is(err, ErrNoPages) {
		t.Fatalf("err = %v, want ErrNoPages", err)
	}
}

func TestDocumentRejectsBrokenArtifacts(t *testing.T) {
	t.Parallel()

	results := []types.Result{{Artifact: []byte("not a pdf")}}
	err := Document(&bytes.Buffer{}, results, Options{})
	if err == nil || errors.Is(err, ErrNoPages) {
		t.Fatalf("err = %v, want a merge error", err)
	}
}

func TestDocumentFileRemovesOutputOnFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.pdf")
	results := []types.Result{{Artifact: []byte("not a pdf")}}
	if err := DocumentFile(path, results, Options{}); err == nil {
		t.Fatal("expected a merge error")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("broken output file left behind: stat err = %v", err)
	}
}

func TestDocumentFileNoPagesLeavesNoFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := DocumentFile(path, nil, Options{}); !errors.Is(err, ErrNoPages) {
		t.Fatalf("err = %v, want ErrNoPages", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("empty output file left behind: stat err = %v", err)
	}
}
