package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chess99/BookDistill/internal/batch"
	"github.com/chess99/BookDistill/internal/parser"
)

// parseOutput is the JSON shape of one parsed file
type parseOutput struct {
	File   string            `json:"file"`
	Format parser.FileFormat `json:"format,omitempty"`
	Title  string            `json:"title,omitempty"`
	Author *string           `json:"author,omitempty"`
	Text   string            `json:"text,omitempty"`
	Error  string            `json:"error,omitempty"`
}

func newParseCmd(c *cli) *cobra.Command {
	var (
		asJSON      bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Extract text and metadata from files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := concurrency
			if limit <= 0 {
				limit = c.cfg.Parser.BatchConcurrency
			}

			files := make([]parser.File, len(args))
			for i, path := range args {
				files[i] = parser.OpenFile(path)
			}

			runner := batch.NewRunner(c.registry(), limit, c.log)
			outcomes := runner.ParseAll(cmd.Context(), files)

			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()
			var err error
			if asJSON {
				err = writeJSON(out, args, outcomes)
			} else {
				err = writeText(out, errOut, args, outcomes)
			}
			if err != nil {
				return err
			}

			if failed := batch.Failed(outcomes); failed > 0 {
				return fmt.Errorf("%d of %d files failed to parse", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as a JSON array")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "files parsed in parallel (default: parser.batch_concurrency)")

	return cmd
}

func writeJSON(w io.Writer, paths []string, outcomes []batch.Outcome) error {
	results := make([]parseOutput, len(outcomes))
	for i, o := range outcomes {
		results[i] = parseOutput{File: paths[i]}
		if o.Err != nil {
			results[i].Error = o.Err.Error()
			continue
		}
		results[i].Format = o.Result.Format
		results[i].Title = o.Result.Title
		results[i].Author = o.Result.Author
		results[i].Text = o.Result.Text
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func writeText(w, errW io.Writer, paths []string, outcomes []batch.Outcome) error {
	for i, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(errW, "%s: %v\n", paths[i], o.Err)
			continue
		}

		if len(outcomes) > 1 {
			fmt.Fprintf(w, "==> %s <==\n", paths[i])
		}
		fmt.Fprintf(w, "Title: %s\n", o.Result.Title)
		if o.Result.Author != nil {
			fmt.Fprintf(w, "Author: %s\n", *o.Result.Author)
		}
		fmt.Fprintf(w, "Format: %s\n\n", o.Result.Format)
		if _, err := io.WriteString(w, o.Result.Text); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}
