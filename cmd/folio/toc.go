package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/folio/model"
)

// newTOCCmd creates the toc subcommand: print the navigation tree, or the
// inferred chapter list when the book has no navigation document.
func newTOCCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "toc <book.epub>",
		Short: "Print the table of contents of an EPUB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := parseBook(*configPath, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			book := result.Book

			if !book.Navigation.IsEmpty() {
				if book.Navigation.Title != "" {
					fmt.Fprintln(out, book.Navigation.Title)
				}
				for _, n := range book.Navigation.Entries {
					printNavNode(cmd, n)
				}
				return nil
			}

			fmt.Fprintln(out, "(no navigation document; inferred chapters)")
			for _, ch := range book.Chapters {
				line := strings.Repeat("  ", ch.Level-1) + ch.Title
				if ch.HasPageRange() {
					line = fmt.Sprintf("%s (pages %d-%d)", line, ch.StartPage, ch.EndPage)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func printNavNode(cmd *cobra.Command, n *model.NavigationNode) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", strings.Repeat("  ", n.Level-1), n.Label)
	for _, c := range n.Children {
		printNavNode(cmd, c)
	}
}
