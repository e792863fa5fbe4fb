package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List local content-to-resource mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := ctx.client().ListIndex(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(page.Records) == 0 {
				fmt.Fprintln(out, "No index records.")
				return nil
			}

			rows := make([][]string, 0, len(page.Records))
			for _, rec := range page.Records {
				rows = append(rows, []string{
					strconv.FormatInt(rec.ContentID, 10),
					rec.ResourceID,
					rec.SequenceID,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Content ID", "Resource ID", "Seq"}, rows, 0))
			fmt.Fprintf(out, "Showing %d of %d records\n", len(page.Records), page.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum records to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")
	return cmd
}
