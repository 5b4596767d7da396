package emit

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

func renderYAML(w io.Writer, doc *Document) error {
	if doc.Checksum != "" {
		if _, err := fmt.Fprintf(w, "# ttgen checksum: %s\n", doc.Checksum); err != nil {
			return err
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml tables: %w", err)
	}
	return enc.Close()
}

