package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for web2pdf.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "web2pdf",
		Short: "Crawl a website and bind its pages into a single PDF",
		Long: `web2pdf crawls a website from a seed URL, renders every same-site
page it discovers (within a depth bound) to PDF with headless Chrome,
and merges the pages into one ordered document.

Crawling respects robots.txt and configurable include/exclude
patterns, spaces out requests per host, and backs off automatically
when a host starts failing.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
