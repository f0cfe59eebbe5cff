package app

import (
	"fmt"

	"github.com/blackwell-systems/shelfview/internal/mutation"
	"github.com/blackwell-systems/shelfview/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book from the catalog",
		Long: `Delete a book from the catalog.

This action is DESTRUCTIVE and cannot be undone. If the connection drops
while the request is in flight, shelfview checks whether the book is gone
before retrying.

Examples:
  shelfview delete 42
  shelfview delete 42 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if !skipConfirm {
				if !util.IsTTY() {
					return fmt.Errorf("refusing to delete without --yes in non-interactive mode")
				}
				title := fmt.Sprintf("book %d", id)
				if b, err := client.GetBook(cmd.Context(), id); err == nil && b.Title != "" {
					title = fmt.Sprintf("%q (id %d)", b.Title, id)
				}
				if !confirm(color.RedString("Delete %s?", title)) {
					fmt.Println(color.YellowString("Cancelled."))
					return nil
				}
			}

			res := newExecutor(nil).Run(cmd.Context(), mutation.Intent{Op: mutation.OpDelete, BookID: id})
			return report(res)
		},
	}

	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
