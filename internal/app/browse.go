package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/browser"
	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/blackwell-systems/shelfview/internal/search"
	"github.com/blackwell-systems/shelfview/internal/tui"
	"github.com/spf13/cobra"
)

// browseOptions are the browse flags. A negative maxPrice means no ceiling.
type browseOptions struct {
	query      string
	searchType string
	sort       string
	categories []string
	maxPrice   float64
	page       int
}

func newBrowseCmd() *cobra.Command {
	var opts browseOptions

	cmd := &cobra.Command{
		Use:     "browse",
		Aliases: []string{"ls"},
		Short:   "Browse the catalog (interactive TUI or text output)",
		Long: `Browse the catalog.

In a terminal this opens the interactive browser. With --no-interactive, or
when output is not a terminal, the first --page pages of the filtered and
sorted catalog are printed.

Examples:
  # Interactive browser
  shelfview browse

  # Two pages of fiction under $15, cheapest first
  shelfview browse --no-interactive --category Fiction --max-price 15 --sort price-asc --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shouldUseTUI(cmd) {
				return runBrowser(cmd.Context(), opts)
			}
			return printBrowse(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Server-side search text (text mode)")
	cmd.Flags().StringVar(&opts.searchType, "type", "", "Search type: title, author or isbn (default from config)")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Sort key: recent, last, title-asc, title-desc, price-asc, price-desc")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "Only books in any of these categories")
	cmd.Flags().Float64Var(&opts.maxPrice, "max-price", -1, "Price ceiling (default: highest price)")
	cmd.Flags().IntVar(&opts.page, "page", 1, "Number of pages to print (text mode)")
	return cmd
}

// newPage builds a browser page from the config.
func newPage() *browser.Page {
	return browser.New(
		browser.WithPageSize(cfg.Browse.PageSize),
		browser.WithBus(bus),
		browser.WithLocale(catalog.ParseLocale(os.Getenv("LANG"))),
	)
}

func (o browseOptions) resolve() (api.SearchType, catalog.SortKey, error) {
	typName := o.searchType
	if typName == "" {
		typName = cfg.Browse.SearchType
	}
	typ, err := api.ParseSearchType(typName)
	if err != nil {
		return "", "", err
	}
	sortName := o.sort
	if sortName == "" {
		sortName = cfg.Browse.Sort
	}
	sk, err := catalog.ParseSortKey(sortName)
	if err != nil {
		return "", "", err
	}
	return typ, sk, nil
}

// imageBase is where relative cover references are served from.
func imageBase() string {
	if cfg.API.ImageBase != "" {
		return cfg.API.ImageBase
	}
	return strings.TrimSuffix(client.BaseURL(), "/api")
}

func runBrowser(ctx context.Context, opts browseOptions) error {
	typ, sk, err := opts.resolve()
	if err != nil {
		return err
	}

	page := newPage()
	page.SetSort(sk)
	coll := api.NewCollection(client)
	newCoord := func(sink func(search.Result)) *search.Coordinator {
		return search.New(coll, sink,
			search.WithDebounce(cfg.Browse.Debounce),
			search.WithType(typ),
			search.WithRequestTimeout(cfg.API.Timeout),
			search.WithLogger(logger.Named("search")),
		)
	}

	deps := tui.Deps{
		Page:      page,
		Exec:      newExecutor(page),
		ImageBase: imageBase(),
	}
	return tui.RunBrowser(ctx, deps, newCoord, bus, typ)
}

// printBrowse loads the collection once and prints the requested pages.
func printBrowse(ctx context.Context, opts browseOptions) error {
	typ, sk, err := opts.resolve()
	if err != nil {
		return err
	}
	if opts.page < 1 {
		return fmt.Errorf("--page must be at least 1")
	}

	coll := api.NewCollection(client)
	var books []catalog.Book
	if strings.TrimSpace(opts.query) == "" {
		books, err = coll.All(ctx)
	} else {
		books, err = coll.Search(ctx, strings.TrimSpace(opts.query), typ)
	}
	res := search.Result{Seq: 1, Query: opts.query, Type: typ, Books: books, Err: err}
	if err != nil {
		res.Books = []catalog.Book{}
		res.Message = search.FailureMessage(err)
	}

	page := newPage()
	page.ApplyResult(res)
	if res.Err != nil {
		return fmt.Errorf("%s: %w", res.Message, res.Err)
	}

	c := page.Snapshot().Criteria
	c.Sort = sk
	c.Categories = map[string]bool{}
	for _, name := range opts.categories {
		c = c.WithCategory(name)
	}
	if opts.maxPrice >= 0 {
		c.PriceCeiling = opts.maxPrice
	}
	page.SetCriteria(c)
	for i := 1; i < opts.page; i++ {
		if !page.LoadNext() {
			break
		}
	}

	v := page.Snapshot()
	if v.Filtered == 0 {
		fmt.Println("No books found.")
		return nil
	}
	header("── %d of %d books (page %d)", len(v.Displayed), v.Filtered, v.Page)
	printBooks(os.Stdout, v.Displayed)
	if v.HasMore {
		fmt.Printf("\n  %d more; use --page %d to see them\n", v.Filtered-len(v.Displayed), v.Page+1)
	}
	return nil
}
