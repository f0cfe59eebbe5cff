package app

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/blackwell-systems/shelfview/internal/mutation"
	"github.com/blackwell-systems/shelfview/internal/util"
	"github.com/charmbracelet/x/ansi"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...interface{}) {
	fmt.Println(color.CyanString(fmt.Sprintf(format, a...)))
}

// shouldUseTUI reports whether the interactive browser can run.
func shouldUseTUI(cmd *cobra.Command) bool {
	return !flagNoInteractive && util.IsTTY()
}

// parseID parses a positive book id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}

// confirm asks a yes/no question on stdin. The default is no.
func confirm(prompt string) bool {
	fmt.Print(prompt + " (y/N): ")
	var response string
	_, _ = fmt.Scanln(&response)
	switch strings.ToLower(response) {
	case "y", "yes":
		return true
	}
	return false
}

// newExecutor builds a mutation executor from the configured timings.
// store may be nil when no collection is held in memory.
func newExecutor(store mutation.Store) *mutation.Executor {
	opts := []mutation.Option{
		mutation.WithMaxRetries(cfg.Mutation.MaxRetries),
		mutation.WithRetryDelay(cfg.Mutation.RetryDelay),
		mutation.WithSettleDelay(cfg.Mutation.SettleDelay),
		mutation.WithBus(bus),
		mutation.WithLogger(logger.Named("mutation")),
	}
	if store != nil {
		opts = append(opts, mutation.WithStore(store))
	}
	return mutation.New(client, opts...)
}

// report prints a mutation result and converts failures into an error.
func report(res mutation.Result) error {
	switch res.Outcome {
	case mutation.Success:
		ok("%s", res.Message)
		return nil
	case mutation.AlreadyDone:
		warn("%s", res.Message)
		return nil
	}
	if res.Err != nil {
		return fmt.Errorf("%s: %w", res.Message, res.Err)
	}
	return fmt.Errorf("%s", res.Message)
}

// printBooks writes one line per book.
func printBooks(w io.Writer, books []catalog.Book) {
	for _, b := range books {
		price := "-"
		if b.Price != nil {
			price = fmt.Sprintf("$%.2f", *b.Price)
		}
		cats := b.Categories
		if b.IsUncategorized() {
			cats = []string{catalog.Uncategorized}
		}
		libMark := ""
		if b.InLibrary {
			libMark = color.GreenString(" ✓")
		}
		fmt.Fprintf(w, "  %6s  %-40s  %-24s  %8s %s%s\n",
			color.WhiteString("%d", b.ID),
			ansi.Truncate(b.Title, 40, "…"),
			ansi.Truncate(b.AuthorLine(), 24, "…"),
			price,
			color.CyanString("["+strings.Join(cats, ",")+"]"),
			libMark,
		)
	}
}
