package format

import (
	"encoding/json"
	"fmt"
	"io"
)

// Texter is implemented by payloads with a human-readable rendering.
type Texter interface {
	Text() string
}

// Write renders v as json (default), edn, or text. Payloads without a text
// rendering fall back to indented JSON under "text".
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "edn":
		return WriteEDN(w, v, pretty)
	case "text":
		if t, ok := v.(Texter); ok {
			_, err := io.WriteString(w, t.Text())
			return err
		}
		return WriteJSON(w, v, true)
	}
	return fmt.Errorf("unknown format: %s", format)
}

// WriteJSON writes one JSON document followed by a newline.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
