package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newTextCmd creates the text subcommand: dump cleaned plain text.
func newTextCmd(configPath *string) *cobra.Command {
	var pages bool

	cmd := &cobra.Command{
		Use:   "text <book.epub>",
		Short: "Print the cleaned plain text of an EPUB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := parseBook(*configPath, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range result.Book.Files {
				if pages {
					for i, p := range f.Pages {
						fmt.Fprintf(out, "--- page %d ---\n%s\n", i+1, p)
					}
					continue
				}
				fmt.Fprintln(out, f.Cleaned)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pages, "pages", false, "print page-by-page with separators")
	return cmd
}
