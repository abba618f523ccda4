// Package format renders CLI payloads.
//
// Every command writes a single envelope, {"data": ...}, optionally with a
// "meta" object for counts and hints.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type Format string

const (
	JSON Format = "json"
	EDN  Format = "edn"
)

// Envelope is the top-level shape of command output.
type Envelope struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

// Parse accepts "", "json" and "edn" (any case).
func Parse(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(JSON):
		return JSON, nil
	case string(EDN):
		return EDN, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// Write renders v in the requested format followed by a newline.
func Write(w io.Writer, v any, format string, pretty bool) error {
	f, err := Parse(format)
	if err != nil {
		return err
	}
	if f == EDN {
		return WriteEDN(w, v, pretty)
	}
	return WriteJSON(w, v, pretty)
}

// Data wraps v in an Envelope and writes it.
func Data(w io.Writer, v any, format string, pretty bool) error {
	return Write(w, Envelope{Data: v}, format, pretty)
}

func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
