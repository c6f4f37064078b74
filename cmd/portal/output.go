package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/kalambet/portal/internal/viewmodel"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

func printSuccess(format string, args ...any) {
	fmt.Fprintln(os.Stderr, green("✓ "+fmt.Sprintf(format, args...)))
}

func printError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, red("✗ "+fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, yellow("⚠ "+fmt.Sprintf(format, args...)))
}

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", bold(label+":"), fmt.Sprintf(format, args...))
}

// printRows writes the selected columns of items as an aligned table.
// Unknown keys are skipped. Cells stay uncolored so tabwriter can measure them.
func printRows[E any](w io.Writer, table *viewmodel.Table[E], items []E, keys []string) {
	var cols []viewmodel.Column[E]
	for _, k := range keys {
		if c, ok := table.Column(k); ok {
			cols = append(cols, c)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := []string{"ID"}
	for _, c := range cols {
		headers = append(headers, strings.ToUpper(c.Header))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, it := range items {
		cells := []string{table.ID(it)}
		for _, c := range cols {
			cells = append(cells, c.Cell(it))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

// printCard writes a record in its card form followed by extra lines.
func printCard(w io.Writer, card viewmodel.Card, extra ...viewmodel.Field) {
	fmt.Fprintf(w, "%s %s\n", bold(card.Title), dim("#"+card.ID))
	fmt.Fprintf(w, "  %s\n", card.Subtitle)
	for _, f := range append(card.Fields, extra...) {
		fmt.Fprintf(w, "  %s %s\n", bold(f.Label+":"), f.Value)
	}
}

func printStep(format string, args ...any) {
	fmt.Fprintln(os.Stderr, cyan("→ "+fmt.Sprintf(format, args...)))
}
