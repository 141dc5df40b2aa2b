package credential

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/credentials"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/internal/cli/common"
	"github.com/crmarques/mgmtbridge/internal/cli/testkit"
)

type fakeStore struct {
	values map[string]string
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) Store(_ context.Context, key string, value string) error {
	s.values[key] = value
	return nil
}

func (s *fakeStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", faults.NewTypedError(faults.NotFoundError, "credential not found", nil)
	}
	return value, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	if _, ok := s.values[key]; !ok {
		return faults.NewTypedError(faults.NotFoundError, "credential not found", nil)
	}
	delete(s.values, key)
	return nil
}

func (s *fakeStore) List(context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func newTestCommand(store *fakeStore, selected *config.ContextSelection) *cobra.Command {
	globalFlags := &common.GlobalFlags{}
	deps := common.CommandDependencies{
		OpenCredentials: func(_ context.Context, selection config.ContextSelection) (credentials.Store, error) {
			if selected != nil {
				*selected = selection
			}
			return store, nil
		},
	}

	root := &cobra.Command{Use: "mgmtbridge", SilenceErrors: true, SilenceUsage: true}
	common.BindGlobalFlags(root, globalFlags)
	root.AddCommand(NewCommand(deps, globalFlags))
	return root
}

func run(command *cobra.Command, stdin string, args ...string) (string, error) {
	result := testkit.Run(command, stdin, args...)
	return result.Stdout, result.Err
}

func TestSetFromStdin(t *testing.T) {
	t.Parallel()

	store := &fakeStore{values: map[string]string{}}
	var selection config.ContextSelection
	result := testkit.Run(
		newTestCommand(store, &selection), "s3cret\n",
		"--context", "prod", "credential", "set", "mgmt/admin", "--value-file", "-",
	)
	stderr, err := result.Stderr, result.Err
	if err != nil {
		t.Fatalf("credential set returned error: %v", err)
	}
	if store.values["mgmt/admin"] != "s3cret" {
		t.Fatalf("expected stored value without trailing newline, got %q", store.values["mgmt/admin"])
	}
	if selection.Name != "prod" {
		t.Fatalf("expected the selected context to be passed through, got %q", selection.Name)
	}
	if !strings.Contains(stderr, `{{secret "mgmt/admin"}}`) {
		t.Fatalf("expected placeholder hint on stderr, got %q", stderr)
	}
}

func TestSetWithoutTerminalRequiresValueFile(t *testing.T) {
	t.Parallel()

	store := &fakeStore{values: map[string]string{}}
	_, err := run(newTestCommand(store, nil), "", "credential", "set", "mgmt/admin")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.values) != 0 {
		t.Fatalf("expected nothing stored, got %v", store.values)
	}
}

func TestListAndDelete(t *testing.T) {
	t.Parallel()

	store := &fakeStore{values: map[string]string{"b": "2", "a": "1"}}

	output, err := run(newTestCommand(store, nil), "", "credential", "list", "--output", "text")
	if err != nil {
		t.Fatalf("credential list returned error: %v", err)
	}
	if output != "a\nb\n" {
		t.Fatalf("unexpected list output %q", output)
	}

	_, err = run(newTestCommand(store, nil), "", "credential", "delete", "a")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected ValidationError without --confirm-delete, got %v", err)
	}

	if _, err := run(newTestCommand(store, nil), "", "credential", "delete", "a", "-y"); err != nil {
		t.Fatalf("credential delete returned error: %v", err)
	}
	if _, ok := store.values["a"]; ok {
		t.Fatal("expected a to be deleted")
	}

	_, err = run(newTestCommand(store, nil), "", "credential", "delete", "missing", "-y")
	var typedErr *faults.TypedError
	if !errors.As(err, &typedErr) || typedErr.Category != faults.NotFoundError {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	output, err := run(newTestCommand(&fakeStore{}, nil), "", "credential", "placeholder", "ops token", "--output", "text")
	if err != nil {
		t.Fatalf("credential placeholder returned error: %v", err)
	}
	if output != "{{secret \"ops token\"}}\n" {
		t.Fatalf("unexpected placeholder %q", output)
	}
}
