package common

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/crmarques/mgmtbridge/internal/cli/commandmeta"
)

const (
	OutputAuto = "auto"
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

func ValidateOutputFormat(format string) error {
	switch format {
	case OutputAuto, OutputText, OutputJSON, OutputYAML:
		return nil
	default:
		return ValidationError("invalid output format: use auto, text, json, or yaml", nil)
	}
}

func ValidateOutputFormatForCommandPath(commandPath string, format string) error {
	switch strings.TrimSpace(format) {
	case "", OutputAuto, OutputText:
		return nil
	}

	switch commandmeta.OutputPolicyForPath(commandPath) {
	case commandmeta.OutputPolicyTextOnly:
		return ValidationError("command supports only text output; use --output text or --output auto", nil)
	case commandmeta.OutputPolicyYAMLDefaultTextOrYAML:
		if strings.TrimSpace(format) == OutputYAML {
			return nil
		}
		return ValidationError("command supports only yaml or text output; use --output yaml, text, or auto", nil)
	default:
		return nil
	}
}

// WriteOutput renders value in the selected format. A --jq expression is
// applied to the JSON form of value first and each result is written on
// its own.
func WriteOutput[T any](command *cobra.Command, flags *GlobalFlags, value T, renderText func(io.Writer, T) error) error {
	if isNilOutputValue(value) {
		return nil
	}

	format := OutputAuto
	expression := ""
	if flags != nil {
		format = flags.Output
		expression = strings.TrimSpace(flags.JQ)
	}
	if expression != "" {
		results, err := applyJQ(expression, value)
		if err != nil {
			return err
		}
		for _, result := range results {
			if err := writeJQResult(command.OutOrStdout(), format, result); err != nil {
				return err
			}
		}
		return nil
	}

	switch format {
	case "", OutputAuto, OutputText:
		if renderText != nil {
			return renderText(command.OutOrStdout(), value)
		}
		_, err := fmt.Fprintln(command.OutOrStdout(), value)
		return err
	case OutputJSON:
		return writeJSON(command.OutOrStdout(), value, true)
	case OutputYAML:
		return writeYAML(command.OutOrStdout(), value)
	default:
		return ValidationError("invalid output format: use auto, text, json, or yaml", nil)
	}
}

func WriteText(command *cobra.Command, flags *GlobalFlags, text string) error {
	return WriteOutput(command, flags, text, func(w io.Writer, value string) error {
		_, err := fmt.Fprintln(w, value)
		return err
	})
}

func applyJQ(expression string, value any) ([]any, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, ValidationError("invalid jq expression", err)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(encoded, &input); err != nil {
		return nil, err
	}

	var results []any
	iter := query.Run(input)
	for {
		result, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := result.(error); isErr {
			return nil, ValidationError("jq evaluation failed", err)
		}
		results = append(results, result)
	}
	return results, nil
}

func writeJQResult(w io.Writer, format string, result any) error {
	switch format {
	case OutputYAML:
		return writeYAML(w, result)
	case OutputJSON:
		return writeJSON(w, result, true)
	default:
		if text, ok := result.(string); ok {
			_, err := fmt.Fprintln(w, text)
			return err
		}
		return writeJSON(w, result, false)
	}
}

func writeJSON(w io.Writer, value any, indent bool) error {
	var (
		encoded []byte
		err     error
	)
	if indent {
		encoded, err = json.MarshalIndent(value, "", "  ")
	} else {
		encoded, err = json.Marshal(value)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}

func writeYAML(w io.Writer, value any) error {
	encoded, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(encoded))
	return err
}

func isNilOutputValue[T any](value T) bool {
	anyValue := any(value)
	if anyValue == nil {
		return true
	}

	reflected := reflect.ValueOf(anyValue)
	switch reflected.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return reflected.IsNil()
	default:
		return false
	}
}
