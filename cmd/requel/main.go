// Command requel parses a SELECT statement, normalizes it, and emits
// parameterized SQL in the requested render mode.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zoobzio/requel"
	"github.com/zoobzio/requel/sqliteparse"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type options struct {
	Mode       string
	SchemaPath string
	MaxDepth   int
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "requel",
		Short:         "Normalize SQL and emit parameterized statements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Mode, "mode", "m", "named", "render mode (simple|named|positional)")
	cmd.PersistentFlags().StringVarP(&opts.SchemaPath, "schema", "s", "", "path to a schema JSON file {\"table\": [\"column\", ...]}")
	cmd.PersistentFlags().IntVar(&opts.MaxDepth, "max-depth", requel.DefaultMaxDepth, "maximum query nesting depth")

	cmd.AddCommand(newBuildCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))

	return cmd
}

func newBuildCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "build [sql]",
		Short: "Parse a SELECT statement and emit parameterized SQL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			builder, err := newBuilder(opts)
			if err != nil {
				return err
			}
			query, err := mapInput(cmd, args, opts)
			if err != nil {
				return err
			}

			result, err := builder.Build(query)
			var verr requel.QueryValidationError
			if errors.As(err, &verr) {
				printViolations(cmd.ErrOrStderr(), verr.Violations)
				return fmt.Errorf("%d validation error(s)", len(verr.Violations))
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.SQL)
			return printParams(cmd.OutOrStdout(), result)
		},
	}
}

func newValidateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [sql]",
		Short: "Report every rule violation without emitting SQL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			builder, err := newBuilder(opts)
			if err != nil {
				return err
			}
			query, err := mapInput(cmd, args, opts)
			if err != nil {
				return err
			}

			violations := builder.Validate(query)
			if len(violations) == 0 {
				color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			}
			printViolations(cmd.ErrOrStderr(), violations)
			return fmt.Errorf("%d validation error(s)", len(violations))
		},
	}
}

func newBuilder(opts *options) (*requel.Builder, error) {
	mode, err := requel.ParseMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	builder := requel.NewBuilder(mode).WithMaxDepth(opts.MaxDepth)
	if opts.SchemaPath != "" {
		schema, err := loadSchema(opts.SchemaPath)
		if err != nil {
			return nil, err
		}
		builder = builder.WithSchema(schema)
	}
	return builder, nil
}

func mapInput(cmd *cobra.Command, args []string, opts *options) (*requel.Query, error) {
	sql, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	node, err := sqliteparse.Parse(sql)
	if err != nil {
		return nil, err
	}
	return requel.Map(node, requel.WithMapDepth(opts.MaxDepth))
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	sql := strings.TrimSpace(string(data))
	if sql == "" {
		return "", errors.New("no SQL given: pass a statement as an argument or on stdin")
	}
	return sql, nil
}

func loadSchema(path string) (requel.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var schema requel.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", path, err)
	}
	return schema, nil
}

func printParams(w io.Writer, result *requel.Result) error {
	switch {
	case result.Named != nil:
		return printJSON(w, result.Named)
	case result.Positional != nil:
		return printJSON(w, result.Positional)
	default:
		return nil
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printViolations(w io.Writer, violations []requel.ValidationError) {
	title := color.New(color.FgRed, color.Bold)
	loc := color.New(color.FgCyan)
	for _, v := range violations {
		title.Fprint(w, "error")
		fmt.Fprint(w, " at ")
		loc.Fprint(w, v.Location)
		fmt.Fprintf(w, ": %s", v.Message)
		if v.Suggestion != "" {
			fmt.Fprintf(w, " (%s)", v.Suggestion)
		}
		fmt.Fprintln(w)
	}
}
