package changelog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is a change-log encoding
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatYAML, FormatJSON, FormatMsgpack:
		return Format(s), nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported change log format: %s", s)
	}
}

// Encode writes entries in the given format
func Encode(w io.Writer, format Format, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("failed to encode change log as YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("failed to encode change log as JSON: %w", err)
		}
		return nil
	case FormatMsgpack:
		if err := msgpack.NewEncoder(w).Encode(entries); err != nil {
			return fmt.Errorf("failed to encode change log as msgpack: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported change log format: %s", format)
	}
}

// Decode reads entries in the given format
func Decode(r io.Reader, format Format) ([]Entry, error) {
	var entries []Entry

	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode YAML change log: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode JSON change log: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode msgpack change log: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported change log format: %s", format)
	}

	return entries, nil
}

// Marshal encodes entries as msgpack, the storage and cache representation
func Marshal(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, FormatMsgpack, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes entries produced by Marshal
func Unmarshal(data []byte) ([]Entry, error) {
	return Decode(bytes.NewReader(data), FormatMsgpack)
}
