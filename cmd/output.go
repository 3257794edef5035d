// file: cmd/output.go
// version: 1.0.0
// guid: fe33bf72-601e-45dd-bd41-0bf5eb5e29f9

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jdfalk/spit/internal/models"
)

var outputFormats = []string{"text", "json", "yaml"}

// writeResults renders results in the requested format. Text output puts
// one link or name per line; free text gets a header per record.
func writeResults(w io.Writer, format string, results []models.Result) error {
	if results == nil {
		results = []models.Result{}
	}
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	}

	for i, r := range results {
		if r.Kind.Kind() != models.KindText {
			if _, err := fmt.Fprintln(w, r.Text()); err != nil {
				return err
			}
			continue
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := "--- " + r.Provider
		if r.Label != "" {
			header += " (" + r.Label + ")"
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n", header, strings.TrimRight(r.Text(), "\n")); err != nil {
			return err
		}
	}
	return nil
}
