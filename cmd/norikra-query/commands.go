package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/yui-knk/norikra"
	"github.com/yui-knk/norikra/analysis"
	"github.com/yui-knk/norikra/query"
	"github.com/yui-knk/norikra/queryset"
)

var (
	errNoExpression   = errors.New("no expression given (pass it as an argument or use - for stdin)")
	errNoQueryFiles   = errors.New("no query files given (use --file or queries in .norikra.yaml)")
	errStreamConflict = errors.New("--stream and --ambiguous are mutually exclusive")
	errNoRewriteKind  = errors.New("rewrite needs a kind: types or fields")
)

// readExpression returns the statement given as arguments, reading stdin
// when there are none or the only argument is "-".
func (a *app) readExpression(args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}

		args = []string{string(data)}
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", errNoExpression
	}

	return text, nil
}

func (a *app) printLines(lines []string) error {
	for _, l := range lines {
		_, err := fmt.Fprintln(a.stdout, l)
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *app) targetsCommand() *cli.Command {
	return &cli.Command{
		Name:      "targets",
		Usage:     "Print the streams a query reads",
		ArgsUsage: "<expression | ->",
		Action: func(_ context.Context, cmd *cli.Command) error {
			text, err := a.readExpression(cmd.Args().Slice())
			if err != nil {
				return err
			}

			targets, err := query.New("", text).Targets()
			if err != nil {
				return fmt.Errorf("parsing: %w", err)
			}

			a.logger.Debug("Resolved targets", zap.Strings("targets", targets))

			return a.printLines(targets)
		},
	}
}

func (a *app) fieldsCommand() *cli.Command {
	return &cli.Command{
		Name:      "fields",
		Usage:     "Print the field paths a query reads",
		ArgsUsage: "<expression | ->",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "stream",
				Aliases: []string{"s"},
				Usage:   "only fields of this stream",
			},
			&cli.BoolFlag{
				Name:  "ambiguous",
				Usage: "only unqualified join fields that belong to no single stream",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			stream := cmd.String("stream")
			ambiguous := cmd.Bool("ambiguous")

			if stream != "" && ambiguous {
				return errStreamConflict
			}

			text, err := a.readExpression(cmd.Args().Slice())
			if err != nil {
				return err
			}

			q := query.New("", text)

			var fields []string

			switch {
			case ambiguous:
				fields, err = q.AmbiguousFields()
			case stream != "":
				fields, err = q.FieldsOf(stream)
			default:
				fields, err = q.Fields()
			}

			if err != nil {
				return fmt.Errorf("parsing: %w", err)
			}

			return a.printLines(fields)
		},
	}
}

func (a *app) rewriteCommand() *cli.Command {
	return &cli.Command{
		Name:      "rewrite",
		Usage:     "Rename event types or flatten container field paths",
		ArgsUsage: "types|fields <expression | ->",
		Flags: []cli.Flag{
			&cli.StringMapFlag{
				Name:    "map",
				Aliases: []string{"m"},
				Usage:   "old=new rename (default: type_names or field_names from config)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) == 0 {
				return errNoRewriteKind
			}

			kind, err := query.ParseRewriteKind(args[0])
			if err != nil {
				return err
			}

			text, err := a.readExpression(args[1:])
			if err != nil {
				return err
			}

			mapping := cmd.StringMap("map")
			if len(mapping) == 0 {
				if kind == query.RewriteTypeNames {
					mapping = a.cfg.TypeNames
				} else {
					mapping = a.cfg.FieldNames
				}
			}

			a.logger.Debug("Rewriting",
				zap.Stringer("kind", kind),
				zap.Int("mappings", len(mapping)))

			out, err := query.RewriteExpression(text, kind, mapping)
			if err != nil {
				return fmt.Errorf("parsing: %w", err)
			}

			_, err = fmt.Fprintln(a.stdout, out)

			return err
		},
	}
}

func (a *app) fmtCommand() *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Aliases:   []string{"format"},
		Usage:     "Print a query in canonical form",
		ArgsUsage: "<expression | ->",
		Action: func(_ context.Context, cmd *cli.Command) error {
			text, err := a.readExpression(cmd.Args().Slice())
			if err != nil {
				return err
			}

			stmt, err := norikra.Parse(text)
			if err != nil {
				return fmt.Errorf("parsing: %w", err)
			}

			_, err = fmt.Fprintln(a.stdout, norikra.Format(stmt))

			return err
		},
	}
}

// queryFiles returns the --file values, or the config's query files.
func (a *app) queryFiles(cmd *cli.Command) ([]string, error) {
	files := cmd.StringSlice("file")
	if len(files) == 0 {
		files = a.cfg.QueryFiles()
	}

	if len(files) == 0 {
		return nil, errNoQueryFiles
	}

	return files, nil
}

func (a *app) loadQuerySets(cmd *cli.Command) ([]*queryset.Set, error) {
	files, err := a.queryFiles(cmd)
	if err != nil {
		return nil, err
	}

	return queryset.NewLoader(a.logger).LoadAll(files)
}

func fileFlag() *cli.StringSliceFlag {
	return &cli.StringSliceFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "query set file (default: queries from config)",
	}
}

func (a *app) checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report problems in a query or in query set files (exit 1 on errors)",
		ArgsUsage: "[expression | -]",
		Flags:     []cli.Flag{fileFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			analyzer := analysis.NewAnalyzer()

			var results []*analysis.AnalyzedQuery

			if cmd.Args().Len() > 0 || (len(cmd.StringSlice("file")) == 0 && len(a.cfg.Queries) == 0) {
				text, err := a.readExpression(cmd.Args().Slice())
				if err != nil {
					return err
				}

				results = append(results, analyzer.Analyze("<input>", text))
			} else {
				files, err := a.queryFiles(cmd)
				if err != nil {
					return err
				}

				results, err = a.checkFiles(analyzer, files)
				if err != nil {
					return err
				}
			}

			failed := 0

			for _, r := range results {
				a.printDiagnostics(r)

				if r.HasErrors() {
					failed++
				}
			}

			a.printCheckSummary(len(results), failed)

			if failed > 0 {
				return cli.Exit("", 1)
			}

			return nil
		},
	}
}

// checkFiles analyzes every query of every file. Unlike the loader it keeps
// going past queries that do not parse, so that all of them are reported.
func (a *app) checkFiles(analyzer *analysis.Analyzer, files []string) ([]*analysis.AnalyzedQuery, error) {
	var results []*analysis.AnalyzedQuery

	for _, f := range files {
		data, err := os.ReadFile(f) //nolint:gosec // G304: file path from user input is expected
		if err != nil {
			return nil, &queryset.LoadError{Path: f, Cause: err}
		}

		defs, err := queryset.Decode(data)
		if err != nil {
			return nil, &queryset.LoadError{Path: f, Cause: err}
		}

		a.logger.Debug("Checking query set", zap.String("path", f), zap.Int("queries", len(defs)))

		for _, d := range defs {
			results = append(results, analyzer.Analyze(f+": "+d.Name, d.Expression))
		}
	}

	return results, nil
}

func (a *app) printDiagnostics(r *analysis.AnalyzedQuery) {
	s := a.styles

	for _, d := range r.Diagnostics {
		pos := d.Span.Start
		_, _ = fmt.Fprintf(a.stdout, "%s:%d:%d: %s: %s %s\n",
			s.Bold.Render(r.Name),
			pos.Line, pos.Column,
			s.severity(d.Severity).Render(d.Severity.String()),
			d.Message,
			s.Dim.Render("["+d.Code+"]"))
	}
}

func (a *app) printCheckSummary(total, failed int) {
	s := a.styles

	if failed == 0 {
		_, _ = fmt.Fprintf(a.stdout, "%s %d %s checked\n", s.Hint.Render(s.SymbolOK), total, plural(total, "query", "queries"))

		return
	}

	_, _ = fmt.Fprintf(a.stdout, "%s %d of %d %s failed\n", s.Error.Render(s.SymbolFail), failed, total, plural(total, "query", "queries"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}

// listedQuery is the JSON shape of one query in "list --json".
type listedQuery struct {
	File       string              `json:"file"`
	Name       string              `json:"name"`
	Group      *string             `json:"group,omitempty"`
	Expression string              `json:"expression"`
	Targets    []string            `json:"targets"`
	Fields     map[string][]string `json:"fields"`
	Ambiguous  []string            `json:"ambiguous"`
}

func newListedQuery(file string, q *query.Query) (listedQuery, error) {
	targets, err := q.Targets()
	if err != nil {
		return listedQuery{}, err
	}

	l := listedQuery{
		File:       file,
		Name:       q.Name(),
		Expression: q.Expression(),
		Targets:    targets,
		Fields:     make(map[string][]string, len(targets)),
	}

	if g, ok := q.Group(); ok {
		l.Group = &g
	}

	for _, t := range targets {
		// Errors were returned by Targets above.
		l.Fields[t], _ = q.FieldsOf(t)
	}

	l.Ambiguous, _ = q.AmbiguousFields()

	return l, nil
}

func (a *app) listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the queries of query set files",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.StringFlag{
				Name:  "filter",
				Usage: `expr-lang condition over name, group, expression, targets and fields, e.g. '"Zones" in targets'`,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output as JSON",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			sets, err := a.loadQuerySets(cmd)
			if err != nil {
				return err
			}

			listed := []listedQuery{}

			for _, set := range sets {
				queries, err := queryset.Filter(set, cmd.String("filter"))
				if err != nil {
					return err
				}

				for _, q := range queries {
					l, err := newListedQuery(set.Path, q)
					if err != nil {
						return err
					}

					listed = append(listed, l)
				}
			}

			if cmd.Bool("json") {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")

				return enc.Encode(listed)
			}

			s := a.styles

			for _, l := range listed {
				group := ""
				if l.Group != nil {
					group = " " + s.Dim.Render("("+*l.Group+")")
				}

				streams := make([]string, len(l.Targets))
				for i, t := range l.Targets {
					streams[i] = s.Stream.Render(t)
				}

				_, _ = fmt.Fprintf(a.stdout, "%s%s: %s\n", s.Bold.Render(l.Name), group, strings.Join(streams, ", "))
			}

			return nil
		},
	}
}
