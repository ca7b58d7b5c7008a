package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newUpdateSummariesCmd(a *app) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "update-summaries",
		Short: "Mark the summaries of the books with the most genres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			actor, err := a.actor(cmd.Context(), as)
			if err != nil {
				return err
			}
			n, err := c.UpdateSummaries(cmd.Context(), actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d summaries\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Librarian username the change is logged under")
	return cmd
}

func newExportPDFCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export-pdf",
		Short: "Write the PDF listing of every book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			c, err := a.catalog()
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}
			return c.ExportBooks(cmd.Context(), w)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "books.pdf", `Output file, "-" for stdout`)
	return cmd
}

func newReindexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the book search index from the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			n, err := c.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d books\n", n)
			return nil
		},
	}
}
