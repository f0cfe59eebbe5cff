package app

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var (
		typName string
		sortKey string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by title, author or ISBN",
		Example: `  shelfview search dune
  shelfview search "jane austen" --type author --sort title-asc
  shelfview search 9780441172719 --type isbn --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, sk, err := browseOptions{searchType: typName, sort: sortKey}.resolve()
			if err != nil {
				return err
			}
			books, err := api.NewCollection(client).Search(cmd.Context(), strings.TrimSpace(args[0]), typ)
			if err != nil {
				return err
			}
			c := catalog.DefaultCriteria(books)
			c.Sort = sk
			books = catalog.Evaluate(books, c)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(books)
			}
			if len(books) == 0 {
				warn("No books match %q.", args[0])
				return nil
			}
			header("── %d result(s) for %s %q", len(books), typ, args[0])
			printBooks(os.Stdout, books)
			return nil
		},
	}

	cmd.Flags().StringVar(&typName, "type", "", "Search type: title, author or isbn (default from config)")
	cmd.Flags().StringVar(&sortKey, "sort", "", "Sort key (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}
