package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newReindexCommand(ctx *commandContext) *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Schedule a full reindex of published content",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.client().Reindex(cmd.Context(), contentType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %d indexing jobs\n", result.Scheduled)
			return nil
		},
	}

	cmd.Flags().StringVarP(&contentType, "type", "t", "", "Restrict the reindex to one content type")
	return cmd
}

func newRelabelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "relabel",
		Short: "Schedule label reprocessing for every indexed resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.client().Relabel(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %d relabel jobs\n", result.Scheduled)
			return nil
		},
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	var contentType string
	var relabel bool

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel pending jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "indexing"
			if relabel {
				if contentType != "" {
					return fmt.Errorf("--type applies to indexing jobs only")
				}
				target = "relabel"
			}
			result, err := ctx.client().Cancel(cmd.Context(), target, contentType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d pending jobs\n", result.Removed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&contentType, "type", "t", "", "Cancel only jobs for this content type")
	cmd.Flags().BoolVar(&relabel, "relabel", false, "Cancel relabel jobs instead of indexing jobs")
	return cmd
}

func newIndexCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "index <content-id>",
		Short: "Synchronously index one content item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseContentID(args[0])
			if err != nil {
				return err
			}
			if _, err := ctx.client().Index(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed content item %d\n", id)
			return nil
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <content-id>",
		Short: "Remove one content item from the remote index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseContentID(args[0])
			if err != nil {
				return err
			}
			if err := ctx.client().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed content item %d from the index\n", id)
			return nil
		},
	}
}

func newClearIndexCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear-index",
		Short: "Forget all local index records without touching the remote",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("clear-index drops every local content-to-resource mapping; rerun with --yes to confirm")
			}
			if err := ctx.client().ClearIndex(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared local index records")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func parseContentID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid content id %q", raw)
	}
	return id, nil
}
