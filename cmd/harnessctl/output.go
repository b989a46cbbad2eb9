package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TextValuer is a result with a one-line plain-text form. Results that do
// not implement it are printed as indented JSON under --output text.
type TextValuer interface {
	TextValue() string
}

func (r CountResult) TextValue() string { return strconv.Itoa(r.Count) }
func (r TextResult) TextValue() string  { return r.Text }
func (r CheckResult) TextValue() string { return strconv.FormatBool(r.Value) }
func (r CSSResult) TextValue() string   { return r.Value }

// TextValue prints an absent attribute as an empty line.
func (r AttrResult) TextValue() string {
	if r.Value != nil {
		return *r.Value
	}
	return ""
}

func (r DimensionsResult) TextValue() string {
	return strings.Join([]string{
		strconv.FormatFloat(r.Top, 'g', -1, 64),
		strconv.FormatFloat(r.Left, 'g', -1, 64),
		strconv.FormatFloat(r.Width, 'g', -1, 64),
		strconv.FormatFloat(r.Height, 'g', -1, 64),
	}, " ")
}

func (r ActionResult) TextValue() string {
	if r.Selector == "" {
		return r.Action
	}
	return r.Action + " " + r.Selector
}

func writeJSON(w io.Writer, v interface{}, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// writeResult renders v in the named output format.
func writeResult(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		return writeJSON(w, v, true)
	case "ndjson":
		return writeJSON(w, v, false)
	case "text":
		tv, ok := v.(TextValuer)
		if !ok {
			return writeJSON(w, v, true)
		}
		_, err := fmt.Fprintln(w, tv.TextValue())
		return err
	}
	return fmt.Errorf("unknown output format: %s", format)
}

func outputResult(cfg *Config, v interface{}) int {
	if err := writeResult(cfg.Stdout, cfg.Output, v); err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}
