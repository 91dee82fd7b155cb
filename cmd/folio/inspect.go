package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/folio/model"
)

// newInspectCmd creates the inspect subcommand: metadata, structure counts,
// and diagnostics for one archive.
func newInspectCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <book.epub>",
		Short: "Show metadata, structure, and diagnostics for an EPUB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := parseBook(*configPath, args[0])
			if result != nil && len(result.Diagnostics) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), model.FormatDiagnostics(result.Diagnostics))
			}
			if err != nil {
				return err
			}

			book := result.Book
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:      %s\n", book.Metadata.Title)
			if book.Metadata.Author != "" {
				fmt.Fprintf(out, "Author:     %s\n", book.Metadata.Author)
			}
			if book.Metadata.Language != "" {
				fmt.Fprintf(out, "Language:   %s\n", book.Metadata.Language)
			}
			if book.Metadata.Publisher != "" {
				fmt.Fprintf(out, "Publisher:  %s\n", book.Metadata.Publisher)
			}
			fmt.Fprintf(out, "Version:    %s (heuristic)\n", book.Version)
			fmt.Fprintf(out, "Size:       %d bytes\n", book.FileSize)
			fmt.Fprintf(out, "Manifest:   %d items\n", book.Manifest.Len())
			fmt.Fprintf(out, "Spine:      %d items\n", len(book.Spine))
			fmt.Fprintf(out, "Files:      %d content files\n", len(book.Files))
			fmt.Fprintf(out, "Chapters:   %d\n", book.ChapterCount())
			fmt.Fprintf(out, "Pages:      %d\n", book.PageCount())
			fmt.Fprintf(out, "Strategies: %v\n", result.StrategiesUsed)
			fmt.Fprintf(out, "Elapsed:    %s\n", result.Elapsed)
			if book.Degraded() {
				fmt.Fprintln(out, "Note:       result is degraded; fallback strategies supplied content")
			}
			return nil
		},
	}
}
