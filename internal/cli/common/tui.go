package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/crmarques/mgmtbridge/metadata"
)

// PromptFields asks for every binding not already present in fields and
// stores the answers in fields. Booleans are asked as confirmations, other
// types as text; an empty optional answer leaves the field unset.
func PromptFields(command *cobra.Command, title string, bindings []metadata.PropertyBinding, fields map[string]any) error {
	if !IsInteractiveTerminal(command) {
		return ValidationError("interactive terminal is required", nil)
	}

	texts := map[string]*string{}
	flags := map[string]*bool{}
	var formFields []huh.Field
	for _, binding := range bindings {
		if _, given := fields[binding.FieldName]; given {
			continue
		}
		label := fmt.Sprintf("%s (%s)", binding.FieldName, binding.AttributeName)

		if binding.Type == metadata.TypeBoolean {
			value := false
			flags[binding.FieldName] = &value
			formFields = append(formFields, huh.NewConfirm().Title(label).Value(&value))
			continue
		}

		value := ""
		texts[binding.FieldName] = &value
		input := huh.NewInput().Title(label).Value(&value)
		switch {
		case binding.Type == metadata.TypeStringList:
			input.Description("comma separated")
		case !binding.Optional:
			input.Validate(huh.ValidateNotEmpty())
		}
		formFields = append(formFields, input)
	}
	if len(formFields) == 0 {
		return nil
	}

	group := huh.NewGroup(formFields...).Title(normalizePrompt(title))
	if err := runInteractiveForm(command, huh.NewForm(group)); err != nil {
		return err
	}

	for field, value := range flags {
		fields[field] = *value
	}
	for field, value := range texts {
		if trimmed := strings.TrimSpace(*value); trimmed != "" {
			fields[field] = trimmed
		}
	}
	return nil
}

func PromptInput(command *cobra.Command, prompt string, required bool) (string, error) {
	if !IsInteractiveTerminal(command) {
		return "", ValidationError("interactive terminal is required", nil)
	}

	value := ""
	field := huh.NewInput().Title(normalizePrompt(prompt)).Value(&value)
	if required {
		field.Validate(huh.ValidateNotEmpty())
	}
	if err := runInteractiveForm(command, huh.NewForm(huh.NewGroup(field))); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// PromptSecret reads a value without echoing it.
func PromptSecret(command *cobra.Command, prompt string) (string, error) {
	if !IsInteractiveTerminal(command) {
		return "", ValidationError("interactive terminal is required", nil)
	}

	value := ""
	field := huh.NewInput().
		Title(normalizePrompt(prompt)).
		EchoMode(huh.EchoModePassword).
		Validate(huh.ValidateNotEmpty()).
		Value(&value)
	if err := runInteractiveForm(command, huh.NewForm(huh.NewGroup(field))); err != nil {
		return "", err
	}
	return value, nil
}

func PromptSelect(command *cobra.Command, prompt string, options []string) (string, error) {
	if len(options) == 0 {
		return "", ValidationError("no options available", nil)
	}
	if !IsInteractiveTerminal(command) {
		return "", ValidationError("interactive terminal is required", nil)
	}

	selected := options[0]
	values := make([]huh.Option[string], 0, len(options))
	for _, option := range options {
		values = append(values, huh.NewOption(option, option))
	}

	field := huh.NewSelect[string]().
		Title(normalizePrompt(prompt)).
		Options(values...).
		Value(&selected)

	if err := runInteractiveForm(command, huh.NewForm(huh.NewGroup(field))); err != nil {
		return "", err
	}
	return selected, nil
}

func PromptConfirm(command *cobra.Command, prompt string, defaultYes bool) (bool, error) {
	if !IsInteractiveTerminal(command) {
		return false, ValidationError("interactive terminal is required", nil)
	}

	value := defaultYes
	field := huh.NewConfirm().
		Title(normalizePrompt(prompt)).
		Value(&value)

	if err := runInteractiveForm(command, huh.NewForm(huh.NewGroup(field))); err != nil {
		return false, err
	}
	return value, nil
}

func runInteractiveForm(command *cobra.Command, form *huh.Form) error {
	err := form.
		WithInput(command.InOrStdin()).
		WithOutput(command.OutOrStdout()).
		WithShowHelp(false).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ValidationError("interactive prompt interrupted", nil)
	}
	return err
}

func normalizePrompt(prompt string) string {
	title := strings.TrimSpace(prompt)
	title = strings.TrimSuffix(title, ":")
	if title == "" {
		return "Input"
	}
	return title
}
