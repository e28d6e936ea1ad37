package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	pkgstrings "stockportal/pkg/strings"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a kubectl-style plain table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatWide formats output as a table with additional columns
	OutputFormatWide OutputFormat = "wide"
	// OutputFormatJSON formats output as indented JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidOutputFormats contains all valid output format values.
var ValidOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatWide,
	OutputFormatJSON,
	OutputFormatYAML,
}

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatWide, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, wide, json, yaml)", format)
	}
}

// Column is one table column. Wide columns only appear in wide output,
// which also shows cells untruncated.
type Column struct {
	Header string
	Wide   bool
}

// Table is the tabular rendering of a result.
type Table struct {
	Columns []Column
	Rows    [][]string
}

// Output renders command results and progress.
type Output struct {
	Format    OutputFormat
	NoHeaders bool
	Quiet     bool

	// Writer receives results. Defaults to os.Stdout.
	Writer io.Writer
	// ErrWriter receives progress and messages. Defaults to os.Stderr.
	ErrWriter io.Writer
}

func (o *Output) out() io.Writer {
	if o.Writer == nil {
		return os.Stdout
	}
	return o.Writer
}

func (o *Output) errOut() io.Writer {
	if o.ErrWriter == nil {
		return os.Stderr
	}
	return o.ErrWriter
}

// Render writes data as JSON or YAML, or tbl for the table formats.
func (o *Output) Render(data interface{}, tbl Table) error {
	switch o.Format {
	case OutputFormatJSON:
		enc := json.NewEncoder(o.out())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		yamlData, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to convert to YAML: %w", err)
		}
		_, err = o.out().Write(yamlData)
		return err
	case OutputFormatTable, OutputFormatWide, "":
		o.renderTable(tbl)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", o.Format)
	}
}

func (o *Output) renderTable(tbl Table) {
	wide := o.Format == OutputFormatWide

	t := table.NewWriter()
	t.SetOutputMirror(o.out())
	t.SetStyle(plainStyle())

	var keep []int
	header := table.Row{}
	for i, col := range tbl.Columns {
		if col.Wide && !wide {
			continue
		}
		keep = append(keep, i)
		header = append(header, col.Header)
	}
	if !o.NoHeaders {
		t.AppendHeader(header)
	}
	for _, row := range tbl.Rows {
		r := make(table.Row, 0, len(keep))
		for _, i := range keep {
			switch {
			case i >= len(row):
				r = append(r, "")
			case wide:
				r = append(r, row[i])
			default:
				r = append(r, pkgstrings.Truncate(row[i], pkgstrings.DefaultCellMaxLen))
			}
		}
		t.AppendRow(r)
	}
	t.Render()
}

// plainStyle renders kubectl-like columns: upper-case headers, no borders.
func plainStyle() table.Style {
	style := table.StyleDefault
	style.Name = "plain"
	style.Box.PaddingLeft = ""
	style.Box.PaddingRight = "   "
	style.Options = table.OptionsNoBordersAndSeparators
	style.Format.Header = text.FormatUpper
	return style
}

// Printf writes a message unless quiet.
func (o *Output) Printf(format string, args ...interface{}) {
	if !o.Quiet {
		fmt.Fprintf(o.out(), format, args...)
	}
}

// Progress runs fn behind a spinner labelled msg. The spinner is skipped in
// quiet mode and for machine-readable formats.
func (o *Output) Progress(msg string, fn func() error) error {
	if o.Quiet || o.Format == OutputFormatJSON || o.Format == OutputFormatYAML {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(o.errOut()))
	s.Suffix = " " + msg
	s.Start()
	err := fn()
	if err != nil {
		s.FinalMSG = text.FgRed.Sprint(FormatError(err)) + "\n"
	}
	s.Stop()
	return err
}
