package app

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/shelfview/internal/mutation"
	"github.com/spf13/cobra"
)

func newLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Show or change your personal library",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the books in your library",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				books, err := client.Library(cmd.Context())
				if err != nil {
					return err
				}
				if len(books) == 0 {
					fmt.Println("Your library is empty.")
					return nil
				}
				for i := range books {
					books[i].InLibrary = true
				}
				header("── Your library (%d books)", len(books))
				printBooks(os.Stdout, books)
				return nil
			},
		},
		newLibraryMutationCmd("add", "Add a book to your library", mutation.OpAddToLibrary),
		newLibraryMutationCmd("remove", "Remove a book from your library", mutation.OpRemoveFromLibrary),
	)
	return cmd
}

func newLibraryMutationCmd(use, short string, op mutation.Op) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res := newExecutor(nil).Run(cmd.Context(), mutation.Intent{Op: op, BookID: id})
			return report(res)
		},
	}
}
