package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format — формат вывода данных.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	format Format
	w      io.Writer // stdout для данных
	errW   io.Writer // stderr для сообщений
}

// NewOutput создаёт Output, пишущий в stdout и stderr.
func NewOutput(format Format) *Output {
	return NewOutputTo(format, os.Stdout, os.Stderr)
}

// NewOutputTo создаёт Output с заданными потоками.
func NewOutputTo(format Format, w, errW io.Writer) *Output {
	if format == "" {
		format = FormatTable
	}
	return &Output{format: format, w: w, errW: errW}
}

// Print выводит данные: таблицу, JSON или YAML в зависимости от формата.
func (o *Output) Print(headers []string, rows [][]string, data any) {
	switch o.format {
	case FormatJSON:
		o.JSON(data)
	case FormatYAML:
		o.YAML(data)
	default:
		o.Table(headers, rows)
	}
}

// Structured возвращает true для JSON и YAML.
func (o *Output) Structured() bool {
	return o.format == FormatJSON || o.format == FormatYAML
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// YAML выводит данные в формате YAML.
func (o *Output) YAML(v any) {
	enc := yaml.NewEncoder(o.w)
	enc.SetIndent(2)
	enc.Encode(v)
	enc.Close()
}

// Text выводит строку в stdout.
func (o *Output) Text(s string) {
	fmt.Fprintln(o.w, s)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}
