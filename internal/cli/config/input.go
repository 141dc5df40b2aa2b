package config

import (
	"bytes"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	configdomain "github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/internal/cli/common"
)

// decodeContextStrict reads one context from the payload. JSON is read
// through the YAML decoder; unknown keys are rejected.
func decodeContextStrict(command *cobra.Command, payload string) (configdomain.Context, error) {
	data, err := common.ReadPayload(command, payload)
	if err != nil {
		return configdomain.Context{}, err
	}
	return decodeContextStrictFromData(data)
}

func decodeContextStrictFromData(data []byte) (configdomain.Context, error) {
	var output configdomain.Context

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&output); err != nil {
		return configdomain.Context{}, common.ValidationError("invalid context input", err)
	}

	var extra any
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("multiple documents are not supported")
		}
		return configdomain.Context{}, common.ValidationError("invalid context input", err)
	}
	return output, nil
}
