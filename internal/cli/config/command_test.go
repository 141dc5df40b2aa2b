package config

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	configdomain "github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/internal/cli/common"
)

const memoryContextYAML = `name: offline
management:
  memory: {}
  server: default
`

func TestAddDecodesContextStrictly(t *testing.T) {
	t.Parallel()

	t.Run("accepts yaml", func(t *testing.T) {
		t.Parallel()

		service := &testContextService{}
		_, err := executeContextCommand(t, service, &common.GlobalFlags{}, memoryContextYAML, "add", "--payload", "-", "--set-current")
		if err != nil {
			t.Fatalf("add returned error: %v", err)
		}
		if service.createdContext.Name != "offline" || service.createdContext.Management.Memory == nil {
			t.Fatalf("unexpected created context %#v", service.createdContext)
		}
		if service.setCurrentName != "offline" {
			t.Fatalf("expected offline to become current, got %q", service.setCurrentName)
		}
	})

	t.Run("accepts json and positional name", func(t *testing.T) {
		t.Parallel()

		service := &testContextService{}
		_, err := executeContextCommand(t, service, &common.GlobalFlags{}, `{"name":"x","management":{"http":{"base-url":"http://localhost:9990/management"}}}`, "add", "staging", "--payload", "-")
		if err != nil {
			t.Fatalf("add returned error: %v", err)
		}
		if service.createdContext.Name != "staging" {
			t.Fatalf("expected positional name to win, got %q", service.createdContext.Name)
		}
	})

	t.Run("rejects unknown field", func(t *testing.T) {
		t.Parallel()

		service := &testContextService{}
		_, err := executeContextCommand(t, service, &common.GlobalFlags{}, memoryContextYAML+"unknown: true\n", "add", "--payload", "-")
		assertTypedCategory(t, err, faults.ValidationError)
		if service.createCalled {
			t.Fatal("expected create not to be called")
		}
	})

	t.Run("requires payload", func(t *testing.T) {
		t.Parallel()

		_, err := executeContextCommand(t, &testContextService{}, &common.GlobalFlags{}, "", "add", "offline")
		assertTypedCategory(t, err, faults.ValidationError)
	})
}

func TestPrintTemplateOutputsTemplateWithoutContextService(t *testing.T) {
	t.Parallel()

	output, err := executeContextCommandWithDeps(t, common.CommandDependencies{}, &common.GlobalFlags{}, "", "print-template")
	if err != nil {
		t.Fatalf("print-template returned error: %v", err)
	}
	if !strings.Contains(output, "management:") || !strings.Contains(output, "current-ctx:") {
		t.Fatalf("unexpected template output %q", output)
	}

	catalog := strings.TrimPrefix(output[strings.Index(output, "  - name:"):], "  - ")
	catalog = strings.Split(catalog, "\ncurrent-ctx:")[0]
	lines := strings.Split(catalog, "\n")
	for idx := range lines {
		lines[idx] = strings.TrimPrefix(lines[idx], "    ")
	}
	if _, err := decodeContextStrictFromData([]byte(strings.Join(lines, "\n"))); err != nil {
		t.Fatalf("expected template context to decode strictly: %v", err)
	}
}

func TestResolveMergesOverrides(t *testing.T) {
	t.Parallel()

	service := &testContextService{resolveValue: configdomain.Context{Name: "offline"}}
	output, err := executeContextCommand(
		t,
		service,
		&common.GlobalFlags{Context: "offline", Server: "alpha"},
		"",
		"resolve", "--set", "management.profile=full",
	)
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if output != "offline\n" {
		t.Fatalf("unexpected output %q", output)
	}

	selection := service.resolveSelection
	if selection.Name != "offline" {
		t.Fatalf("unexpected selection name %q", selection.Name)
	}
	if selection.Overrides[configdomain.OverrideServer] != "alpha" || selection.Overrides[configdomain.OverrideProfile] != "full" {
		t.Fatalf("unexpected overrides %#v", selection.Overrides)
	}

	_, err = executeContextCommand(t, service, &common.GlobalFlags{}, "", "resolve", "--set", "broken")
	assertTypedCategory(t, err, faults.ValidationError)
}

func TestOverridesListsEnvironmentVariables(t *testing.T) {
	t.Parallel()

	output, err := executeContextCommandWithDeps(t, common.CommandDependencies{}, &common.GlobalFlags{}, "", "overrides")
	if err != nil {
		t.Fatalf("overrides returned error: %v", err)
	}
	for _, want := range []string{
		"name\tMGMTBRIDGE_CTX_NAME\n",
		"management.server\tMGMTBRIDGE_CTX_MANAGEMENT_SERVER\n",
		"management.http.base-url\tMGMTBRIDGE_CTX_MANAGEMENT_HTTP_BASE_URL\n",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output %q", want, output)
		}
	}
}

func TestListAndCurrentOutputFormats(t *testing.T) {
	t.Parallel()

	service := &testContextService{
		listValue:    []configdomain.Context{{Name: "offline"}, {Name: "prod"}},
		currentValue: configdomain.Context{Name: "prod"},
	}

	testCases := []struct {
		name  string
		flags *common.GlobalFlags
		args  []string
		want  string
	}{
		{name: "list text", flags: &common.GlobalFlags{}, args: []string{"list"}, want: "offline\nprod\n"},
		{name: "list jq", flags: &common.GlobalFlags{JQ: ".[].name"}, args: []string{"list"}, want: "offline\nprod\n"},
		{name: "current text", flags: &common.GlobalFlags{}, args: []string{"current"}, want: "prod\n"},
		{name: "current yaml", flags: &common.GlobalFlags{Output: common.OutputYAML, JQ: ".name"}, args: []string{"current"}, want: "prod\n"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			output, err := executeContextCommand(t, service, testCase.flags, "", testCase.args...)
			if err != nil {
				t.Fatalf("command returned error: %v", err)
			}
			if output != testCase.want {
				t.Fatalf("expected %q, got %q", testCase.want, output)
			}
		})
	}
}

func TestUseInteractiveSelection(t *testing.T) {
	t.Parallel()

	service := &testContextService{listValue: []configdomain.Context{{Name: "offline"}, {Name: "prod"}}}
	prompter := &mockPrompter{interactive: true, selects: []string{"prod"}}

	if _, err := executeContextCommandWithPrompter(t, service, &common.GlobalFlags{}, prompter, "", "use"); err != nil {
		t.Fatalf("use returned error: %v", err)
	}
	if service.setCurrentName != "prod" {
		t.Fatalf("expected prod to be selected, got %q", service.setCurrentName)
	}
	if len(prompter.selectPrompts) != 1 {
		t.Fatalf("expected one select prompt, got %v", prompter.selectPrompts)
	}
}

func TestShowUsesContextFlagWhenProvided(t *testing.T) {
	t.Parallel()

	service := &testContextService{resolveValue: configdomain.Context{
		Name:       "offline",
		Management: configdomain.Management{Memory: &configdomain.MemoryEndpoint{}, Server: "default"},
	}}
	prompter := &mockPrompter{}

	output, err := executeContextCommandWithPrompter(t, service, &common.GlobalFlags{Context: "offline"}, prompter, "", "show")
	if err != nil {
		t.Fatalf("show returned error: %v", err)
	}
	if !strings.Contains(output, "name: offline\n") || !strings.Contains(output, "server: default\n") {
		t.Fatalf("expected yaml context output, got %q", output)
	}
	if service.resolveSelection.Name != "offline" {
		t.Fatalf("expected offline to be resolved, got %q", service.resolveSelection.Name)
	}
	if len(prompter.selectPrompts) != 0 {
		t.Fatal("did not expect an interactive prompt")
	}
}

func TestInteractiveCommandsRequireNameInNonInteractiveMode(t *testing.T) {
	t.Parallel()

	service := &testContextService{listValue: []configdomain.Context{{Name: "offline"}}}
	for _, args := range [][]string{{"use"}, {"delete"}, {"rename"}, {"show"}} {
		_, err := executeContextCommandWithPrompter(t, service, &common.GlobalFlags{}, &mockPrompter{}, "", args...)
		assertTypedCategory(t, err, faults.ValidationError)
		if !strings.Contains(err.Error(), "context name is required") {
			t.Fatalf("%v: unexpected error %v", args, err)
		}
		if !errors.Is(err, common.ErrMissingArgument) {
			t.Fatalf("%v: expected a missing argument error, got %v", args, err)
		}
	}
}

func TestCompleteContextNames(t *testing.T) {
	t.Parallel()

	service := &testContextService{listValue: []configdomain.Context{{Name: "prod"}, {Name: "preprod"}, {Name: "dev"}}}
	complete := CompleteContextNames(common.CommandDependencies{Contexts: service})

	names, directive := complete(nil, nil, "pr")
	if strings.Join(names, ",") != "prod,preprod" {
		t.Fatalf("unexpected completions %v", names)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Fatalf("unexpected directive %v", directive)
	}

	if names, _ := CompleteContextNames(common.CommandDependencies{})(nil, nil, ""); len(names) != 0 {
		t.Fatalf("expected no completions without a context service, got %v", names)
	}
}

func TestRenameAndDeleteInteractive(t *testing.T) {
	t.Parallel()

	t.Run("rename prompts for new name", func(t *testing.T) {
		t.Parallel()

		service := &testContextService{listValue: []configdomain.Context{{Name: "offline"}}}
		prompter := &mockPrompter{interactive: true, selects: []string{"offline"}, inputs: []string{"local"}}
		if _, err := executeContextCommandWithPrompter(t, service, &common.GlobalFlags{}, prompter, "", "rename"); err != nil {
			t.Fatalf("rename returned error: %v", err)
		}
		if service.renameFrom != "offline" || service.renameTo != "local" {
			t.Fatalf("unexpected rename %q -> %q", service.renameFrom, service.renameTo)
		}
	})

	t.Run("delete canceled", func(t *testing.T) {
		t.Parallel()

		service := &testContextService{listValue: []configdomain.Context{{Name: "offline"}}}
		prompter := &mockPrompter{interactive: true, selects: []string{"offline"}, confirms: []bool{false}}
		output, err := executeContextCommandWithPrompter(t, service, &common.GlobalFlags{}, prompter, "", "delete")
		if err != nil {
			t.Fatalf("delete returned error: %v", err)
		}
		if output != "delete canceled\n" || service.deletedName != "" {
			t.Fatalf("expected canceled delete, got output %q deleted %q", output, service.deletedName)
		}
	})

	t.Run("args bypass prompts", func(t *testing.T) {
		t.Parallel()

		service := &testContextService{}
		if _, err := executeContextCommandWithPrompter(t, service, &common.GlobalFlags{}, &mockPrompter{}, "", "delete", "offline"); err != nil {
			t.Fatalf("delete returned error: %v", err)
		}
		if service.deletedName != "offline" {
			t.Fatalf("expected offline deleted, got %q", service.deletedName)
		}
	})
}

func TestCheckRequiresRuntimeFactory(t *testing.T) {
	t.Parallel()

	_, err := executeContextCommand(t, &testContextService{}, &common.GlobalFlags{}, "", "check")
	assertTypedCategory(t, err, faults.ValidationError)
}

func executeContextCommand(
	t *testing.T,
	contexts configdomain.ContextService,
	globalFlags *common.GlobalFlags,
	stdin string,
	args ...string,
) (string, error) {
	t.Helper()

	return executeContextCommandWithDeps(t, common.CommandDependencies{Contexts: contexts}, globalFlags, stdin, args...)
}

func executeContextCommandWithDeps(
	t *testing.T,
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	stdin string,
	args ...string,
) (string, error) {
	t.Helper()

	return run(newCommandWithPrompter(deps, globalFlags, terminalPrompter{}), stdin, args...)
}

func executeContextCommandWithPrompter(
	t *testing.T,
	contexts configdomain.ContextService,
	globalFlags *common.GlobalFlags,
	prompter contextPrompter,
	stdin string,
	args ...string,
) (string, error) {
	t.Helper()

	return run(newCommandWithPrompter(common.CommandDependencies{Contexts: contexts}, globalFlags, prompter), stdin, args...)
}

func run(command *cobra.Command, stdin string, args ...string) (string, error) {
	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetErr(io.Discard)
	command.SetIn(strings.NewReader(stdin))
	command.SetArgs(args)

	err := command.Execute()
	return output.String(), err
}

type testContextService struct {
	listValue        []configdomain.Context
	currentValue     configdomain.Context
	resolveValue     configdomain.Context
	resolveSelection configdomain.ContextSelection

	createdContext configdomain.Context
	setCurrentName string
	deletedName    string
	renameFrom     string
	renameTo       string

	createCalled bool
	updateCalled bool
}

func (s *testContextService) Create(_ context.Context, cfg configdomain.Context) error {
	s.createCalled = true
	s.createdContext = cfg
	return nil
}

func (s *testContextService) Update(context.Context, configdomain.Context) error {
	s.updateCalled = true
	return nil
}

func (s *testContextService) Delete(_ context.Context, name string) error {
	s.deletedName = name
	return nil
}

func (s *testContextService) Rename(_ context.Context, from string, to string) error {
	s.renameFrom = from
	s.renameTo = to
	return nil
}

func (s *testContextService) List(context.Context) ([]configdomain.Context, error) {
	return s.listValue, nil
}

func (s *testContextService) SetCurrent(_ context.Context, name string) error {
	s.setCurrentName = name
	return nil
}

func (s *testContextService) GetCurrent(context.Context) (configdomain.Context, error) {
	return s.currentValue, nil
}

func (s *testContextService) ResolveContext(_ context.Context, selection configdomain.ContextSelection) (configdomain.Context, error) {
	s.resolveSelection = selection
	return s.resolveValue, nil
}

func (s *testContextService) Validate(context.Context, configdomain.Context) error {
	return nil
}

func assertTypedCategory(t *testing.T, err error, category faults.ErrorCategory) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %q error, got nil", category)
	}

	var typedErr *faults.TypedError
	if !errors.As(err, &typedErr) {
		t.Fatalf("expected typed error, got %T", err)
	}
	if typedErr.Category != category {
		t.Fatalf("expected %q category, got %q", category, typedErr.Category)
	}
}

type mockPrompter struct {
	interactive   bool
	inputs        []string
	selects       []string
	confirms      []bool
	inputPrompts  []string
	selectPrompts []string
}

func (m *mockPrompter) IsInteractive(*cobra.Command) bool {
	return m.interactive
}

func (m *mockPrompter) Input(_ *cobra.Command, prompt string, _ bool) (string, error) {
	m.inputPrompts = append(m.inputPrompts, prompt)
	if len(m.inputs) == 0 {
		return "", errors.New("missing mock input value")
	}
	value := m.inputs[0]
	m.inputs = m.inputs[1:]
	return value, nil
}

func (m *mockPrompter) Select(_ *cobra.Command, prompt string, _ []string) (string, error) {
	m.selectPrompts = append(m.selectPrompts, prompt)
	if len(m.selects) == 0 {
		return "", errors.New("missing mock select value")
	}
	value := m.selects[0]
	m.selects = m.selects[1:]
	return value, nil
}

func (m *mockPrompter) Confirm(*cobra.Command, string, bool) (bool, error) {
	if len(m.confirms) == 0 {
		return false, errors.New("missing mock confirm value")
	}
	value := m.confirms[0]
	m.confirms = m.confirms[1:]
	return value, nil
}
