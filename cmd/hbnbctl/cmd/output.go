package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/hbnb/hbnb/pkg/hbnb"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	OutputFormatYAML  OutputFormat = "yaml"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatName  OutputFormat = "name"
	OutputFormatTable OutputFormat = "table" // Default
)

// GetOutputFormat returns the output format from the "output" key of v.
func GetOutputFormat(v *viper.Viper) OutputFormat {
	switch strings.ToLower(v.GetString("output")) {
	case "yaml", "y":
		return OutputFormatYAML
	case "json", "j":
		return OutputFormatJSON
	case "name", "n":
		return OutputFormatName
	default:
		return OutputFormatTable
	}
}

// PrintEntity prints one object in the given format.
func PrintEntity(w io.Writer, e hbnb.Entity, format OutputFormat) error {
	if format == OutputFormatName {
		_, err := fmt.Fprintln(w, hbnb.Key(e))
		return err
	}

	fields, err := e.ToMap()
	if err != nil {
		return err
	}

	switch format {
	case OutputFormatYAML:
		return printYAML(w, fields)
	case OutputFormatJSON:
		return printJSON(w, fields)
	default:
		return printFields(w, fields)
	}
}

// PrintEntities prints objects ordered by key in the given format.
func PrintEntities(w io.Writer, objects map[string]hbnb.Entity, format OutputFormat) error {
	keys := make([]string, 0, len(objects))
	for key := range objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if format == OutputFormatName {
		for _, key := range keys {
			fmt.Fprintln(w, key)
		}
		return nil
	}

	list := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		fields, err := objects[key].ToMap()
		if err != nil {
			return err
		}
		list = append(list, fields)
	}

	switch format {
	case OutputFormatYAML:
		return printYAML(w, list)
	case OutputFormatJSON:
		return printJSON(w, list)
	default:
		return printTable(w, list)
	}
}

func printYAML(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(v)
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printFields prints one attribute per row, id first.
func printFields(w io.Writer, fields map[string]any) error {
	tw := NewTabWriter(w)
	fmt.Fprintf(tw, "%s\t%v\n", hbnb.ClassKey, fields[hbnb.ClassKey])
	fmt.Fprintf(tw, "id\t%v\n", fields["id"])

	names := make([]string, 0, len(fields))
	for name := range fields {
		if name != hbnb.ClassKey && name != "id" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%v\n", name, fields[name])
	}
	return tw.Flush()
}

func printTable(w io.Writer, list []map[string]any) error {
	tw := NewTabWriter(w)
	fmt.Fprintln(tw, "KIND\tID\tLABEL\tUPDATED")
	for _, fields := range list {
		fmt.Fprintf(tw, "%v\t%v\t%s\t%v\n", fields[hbnb.ClassKey], fields["id"], label(fields), fields["updated_at"])
	}
	return tw.Flush()
}

// label picks the human readable attribute of an object.
func label(fields map[string]any) string {
	for _, name := range []string{"name", "email", "text"} {
		if s, ok := fields[name].(string); ok && s != "" {
			return s
		}
	}
	return "<none>"
}

// NewTabWriter creates a new tabwriter for table output.
func NewTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}
