package repl

import (
	"fmt"
	"strings"

	"github.com/leengari/dbon/internal/domain/data"
	"github.com/leengari/dbon/internal/domain/schema"
	"github.com/leengari/dbon/internal/executor"
)

// ParseLine turns one shell line into a Command.
//
//	use <db>                         databases | ls
//	create <db>                      drop <db>
//	tables
//	describe <table>                 records <table>
//	add_table <table> <col>[:<relation>] ...
//	insert <table> <key> <col>=<literal> ...
//	set <table> <key> <col> <literal>
//	get <table> <key> <col>          remove <table> <key>
//	find <table> <literal> [<col>]   find_all <table> <literal> [<col>]
//
// Literals are JSON (3, true, null, "two words", [1,2]); anything that is not
// valid JSON is taken as a bare string.
func ParseLine(line string) (executor.Command, error) {
	fields, err := tokenize(line)
	if err != nil {
		return executor.Command{}, err
	}
	if len(fields) == 0 {
		return executor.Command{}, fmt.Errorf("empty command")
	}

	word, args := strings.ToLower(fields[0]), fields[1:]
	switch word {
	case "use":
		if err := arity(word, args, 1, 1); err != nil {
			return executor.Command{}, err
		}
		return executor.Command{Op: executor.OpUse, Database: args[0]}, nil

	case "databases", "ls", "list":
		return executor.Command{Op: executor.OpDatabases}, nil

	case "create", "create_database":
		if err := arity(word, args, 1, 1); err != nil {
			return executor.Command{}, err
		}
		return executor.Command{Op: executor.OpCreateDatabase, Database: args[0]}, nil

	case "drop", "drop_database":
		if err := arity(word, args, 1, 1); err != nil {
			return executor.Command{}, err
		}
		return executor.Command{Op: executor.OpDropDatabase, Database: args[0]}, nil

	case "tables":
		return executor.Command{Op: executor.OpTables}, nil

	case "describe", "records":
		if err := arity(word, args, 1, 1); err != nil {
			return executor.Command{}, err
		}
		return executor.Command{Op: executor.Op(word), Table: args[0]}, nil

	case "add_table":
		if err := arity(word, args, 1, -1); err != nil {
			return executor.Command{}, err
		}
		cmd := executor.Command{Op: executor.OpAddTable, Table: args[0], Columns: []schema.ColumnSpec{}}
		for _, arg := range args[1:] {
			name, relation, _ := strings.Cut(arg, ":")
			cmd.Columns = append(cmd.Columns, schema.RelatedColumn(name, relation))
		}
		return cmd, nil

	case "insert":
		if err := arity(word, args, 2, -1); err != nil {
			return executor.Command{}, err
		}
		cmd := executor.Command{Op: executor.OpInsert, Table: args[0], Key: args[1], Values: map[string]data.Value{}}
		for _, arg := range args[2:] {
			col, lit, ok := strings.Cut(arg, "=")
			if !ok || col == "" {
				return executor.Command{}, fmt.Errorf("insert: expected <col>=<literal>, got %q", arg)
			}
			cmd.Values[col] = data.ParseLiteral(lit)
		}
		return cmd, nil

	case "set":
		if err := arity(word, args, 4, 4); err != nil {
			return executor.Command{}, err
		}
		v := data.ParseLiteral(args[3])
		return executor.Command{Op: executor.OpSet, Table: args[0], Key: args[1], Column: args[2], Value: &v}, nil

	case "get":
		if err := arity(word, args, 3, 3); err != nil {
			return executor.Command{}, err
		}
		return executor.Command{Op: executor.OpGet, Table: args[0], Key: args[1], Column: args[2]}, nil

	case "remove":
		if err := arity(word, args, 2, 2); err != nil {
			return executor.Command{}, err
		}
		return executor.Command{Op: executor.OpRemove, Table: args[0], Key: args[1]}, nil

	case "find", "find_all":
		if err := arity(word, args, 2, 3); err != nil {
			return executor.Command{}, err
		}
		v := data.ParseLiteral(args[1])
		cmd := executor.Command{Op: executor.Op(word), Table: args[0], Value: &v}
		if len(args) == 3 {
			cmd.Column = args[2]
		}
		return cmd, nil
	}

	return executor.Command{}, fmt.Errorf("unknown command %q (try help)", fields[0])
}

func arity(word string, args []string, least, most int) error {
	if len(args) < least || (most >= 0 && len(args) > most) {
		return fmt.Errorf("%s: wrong number of arguments", word)
	}
	return nil
}

// tokenize splits on whitespace outside double quotes. Quotes are kept so
// that `"two words"` still parses as a JSON string literal.
func tokenize(line string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		inQuote bool
		escaped bool
		started bool
	)
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			current.WriteRune(r)
			escaped = true
		case r == '"':
			current.WriteRune(r)
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				fields = append(fields, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if started {
		fields = append(fields, current.String())
	}
	return fields, nil
}
