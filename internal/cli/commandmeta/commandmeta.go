package commandmeta

import (
	"strings"
)

type OutputPolicy uint8

const (
	OutputPolicyStructured OutputPolicy = iota
	OutputPolicyTextOnly
	OutputPolicyYAMLDefaultTextOrYAML
)

// EmitsExecutionStatusPath lists the commands that mutate the endpoint or
// the catalog and therefore end with an OK/ERROR status line.
func EmitsExecutionStatusPath(path string) bool {
	switch strings.TrimSpace(path) {
	case "mgmtbridge entity create",
		"mgmtbridge entity save",
		"mgmtbridge entity delete",
		"mgmtbridge console add-role",
		"mgmtbridge credential delete",
		"mgmtbridge context use":
		return true
	default:
		return false
	}
}

func OutputPolicyForPath(path string) OutputPolicy {
	switch strings.TrimSpace(path) {
	case "mgmtbridge context show":
		return OutputPolicyYAMLDefaultTextOrYAML
	case "mgmtbridge completion bash",
		"mgmtbridge completion zsh",
		"mgmtbridge completion fish",
		"mgmtbridge completion powershell":
		return OutputPolicyTextOnly
	default:
		return OutputPolicyStructured
	}
}
