package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

const (
	stdinFileIndicator = "-"
	maxInputBytes      = 4 << 20
)

// ReadFields merges the payload document, when given, with the --set
// assignments. Assignments win over payload values for the same field.
func ReadFields(command *cobra.Command, flags FieldFlags) (map[string]any, error) {
	fields := map[string]any{}

	if flags.Payload != "" {
		data, err := ReadPayload(command, flags.Payload)
		if err != nil {
			return nil, err
		}
		decoded, err := decodeFields(data, flags.Format)
		if err != nil {
			return nil, err
		}
		for key, value := range decoded {
			fields[key] = value
		}
	}

	assignments, err := ParseAssignments(flags.Assignments)
	if err != nil {
		return nil, err
	}
	for key, value := range assignments {
		fields[key] = value
	}
	return fields, nil
}

// ParseAssignments reads field=value items. The value may be empty, which
// clears the field.
func ParseAssignments(items []string) (map[string]string, error) {
	out := make(map[string]string, len(items))
	for _, item := range items {
		key, value, found := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !found {
			return nil, ValidationError(fmt.Sprintf("invalid assignment %q: expected field=value", item), nil)
		}
		if key == "" {
			return nil, ValidationError("invalid assignment: field must not be empty", nil)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

func decodeFields(data []byte, format string) (map[string]any, error) {
	var output map[string]any
	switch format {
	case "", OutputJSON:
		if err := json.Unmarshal(data, &output); err != nil {
			return nil, ValidationError("invalid json payload: expected an object of field values", err)
		}
	case OutputYAML:
		if err := yaml.Unmarshal(data, &output); err != nil {
			return nil, ValidationError("invalid yaml payload: expected a mapping of field values", err)
		}
	default:
		return nil, ValidationError("invalid payload format: use json or yaml", nil)
	}
	if output == nil {
		return nil, ValidationError("payload is empty", nil)
	}
	return output, nil
}

// ReadPayload reads a payload file, or stdin for "-".
func ReadPayload(command *cobra.Command, payload string) ([]byte, error) {
	var reader io.Reader
	if payload == stdinFileIndicator {
		reader = command.InOrStdin()
	} else {
		file, err := os.Open(payload)
		if err != nil {
			return nil, ValidationError(fmt.Sprintf("failed to open payload %q", payload), err)
		}
		defer file.Close()
		reader = file
	}

	data, err := readAllWithLimit(reader, maxInputBytes)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ValidationError("payload is empty", nil)
	}
	return data, nil
}

func readAllWithLimit(reader io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ValidationError("input exceeds maximum supported size", errors.New("input too large"))
	}
	return data, nil
}
