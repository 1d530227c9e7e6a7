package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/leengari/dbon/internal/executor"
	"github.com/leengari/dbon/internal/storage/manager"
)

const helpText = `Commands:
  use <db> | databases | create <db> | drop <db>
  tables | describe <table> | records <table>
  add_table <table> <col>[:<relation>] ...
  insert <table> <key> <col>=<literal> ...
  set <table> <key> <col> <literal>
  get <table> <key> <col>
  remove <table> <key>
  find <table> <literal> [<col>] | find_all <table> <literal> [<col>]
  exit | \q`

// Start runs the shell until in is exhausted or the user exits.
func Start(in io.Reader, out io.Writer, registry *manager.Registry) error {
	scanner := bufio.NewScanner(in)
	session := executor.NewSession(registry)

	fmt.Fprintln(out, "Welcome to DBON")
	fmt.Fprintln(out, "Type 'help' for commands, 'exit' or '\\q' to quit.")

	for {
		fmt.Fprintf(out, "%s> ", session.Current())
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}
		if line == "exit" || line == "\\q" {
			return nil
		}
		if line == "help" {
			fmt.Fprintln(out, helpText)
			continue
		}

		cmd, err := ParseLine(line)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		PrintResult(out, session.ExecuteResult(cmd))
	}
}

// PrintResult renders a Result as text.
func PrintResult(w io.Writer, res *executor.Result) {
	if res.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", res.Error)
		return
	}

	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}

	for _, name := range res.Names {
		fmt.Fprintf(w, "  - %s\n", name)
	}

	if len(res.Rows) > 0 || len(res.Columns) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

		// Header: key column first
		fmt.Fprintf(tw, "key")
		for _, col := range res.Columns {
			fmt.Fprintf(tw, "\t%s", col)
		}
		fmt.Fprintln(tw)

		fmt.Fprintf(tw, "---")
		for range res.Columns {
			fmt.Fprintf(tw, "\t---")
		}
		fmt.Fprintln(tw)

		for i, row := range res.Rows {
			key := ""
			if i < len(res.Keys) {
				key = res.Keys[i]
			}
			fmt.Fprintf(tw, "%s", key)
			for _, cell := range row {
				fmt.Fprintf(tw, "\t%s", cell)
			}
			fmt.Fprintln(tw)
		}
		tw.Flush()
	}

	if len(res.Matches) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "counter\tkey\tcolumn\tvalue")
		for _, m := range res.Matches {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Counter, m.Key, m.Column, m.Value)
		}
		tw.Flush()
	}
}
