package assemble

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/7not-nico/web2pdf/internal/crawler"
	"github.com/7not-nico/web2pdf/pkg/types"
)

// Summary carries everything the crawl report needs.
type Summary struct {
	Title    string
	Seed     string
	Started  time.Time
	Duration time.Duration
	Stats    crawler.Snapshot
	Results  []types.Result
}

// WriteReport renders the crawl report as Markdown.
func WriteReport(w io.Writer, s Summary) error {
	md := markdown.NewMarkdown(w)

	title := s.Title
	if title == "" {
		title = "Crawl Report"
	}
	md.H1(title)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + s.Seed + "`"},
			{"Started", s.Started.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration.Round(time.Millisecond).String()},
			{"Pages in document", strconv.Itoa(len(s.Results))},
		},
	})
	md.PlainText("")

	md.H2("Crawl Statistics")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"URLs admitted", formatCount(s.Stats.Admitted)},
			{"Pages fetched", formatCount(s.Stats.Fetched)},
			{"Fetch failures", formatCount(s.Stats.FetchErrors)},
			{"Non-HTML skipped", formatCount(s.Stats.Skipped)},
			{"Links rejected by policy", formatCount(s.Stats.Rejected)},
			{"Pages rendered", formatCount(s.Stats.Rendered)},
			{"Render failures", formatCount(s.Stats.RenderErrors)},
		},
	})
	md.PlainText("")

	md.H2("Pages")
	md.PlainText("")
	if len(s.Results) == 0 {
		md.PlainText("No pages were collected.")
	} else {
		rows := make([][]string, 0, len(s.Results))
		for i, r := range s.Results {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				strconv.Itoa(r.Depth),
				r.Title,
				"`" + r.URL.String() + "`",
				formatBytes(r.ByteSize),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"#", "Depth", "Title", "URL", "Size"},
			Rows:   rows,
		})
	}

	return md.Build()
}

// WriteReportFile writes the crawl report to a file at path.
func WriteReportFile(path string, s Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteReport(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatCount(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return strconv.Itoa(n) + " B"
	}
}
