package app

import (
	"fmt"

	"github.com/blackwell-systems/shelfview/internal/ingest"
	"github.com/blackwell-systems/shelfview/internal/operations"
	"github.com/blackwell-systems/shelfview/internal/util"
	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	var in operations.BookInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a book in the catalog",
		Long: `Create a book in the catalog.

Title, ISBN and at least one author are required. --author and --category
may be repeated or given as comma-separated lists. --image uploads a local
cover image.

Examples:
  shelfview create --title "Dune" --isbn 978-0441172719 --author "Frank Herbert" \
    --category "Science Fiction" --price 12.99 --image ./dune.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Image != "" && !ingest.IsURL(in.Image) {
				in.Image = util.ExpandHome(in.Image)
			}
			res := operations.CreateBook(cmd.Context(), newExecutor(nil), in, 0)
			if err := report(res); err != nil {
				return err
			}
			if res.Created != nil {
				fmt.Printf("  id: %d\n", res.Created.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Book title (required)")
	cmd.Flags().StringVar(&in.ISBN, "isbn", "", "ISBN; dashes and spaces are removed (required)")
	cmd.Flags().StringSliceVar(&in.Authors, "author", nil, "Author name (required, repeatable)")
	cmd.Flags().StringSliceVar(&in.Categories, "category", nil, "Category name (repeatable)")
	cmd.Flags().StringVar(&in.Price, "price", "", "Price")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	cmd.Flags().StringVar(&in.Image, "image", "", "Cover image to upload (path or http(s) URL)")
	return cmd
}
