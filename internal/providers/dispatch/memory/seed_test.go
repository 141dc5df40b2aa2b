package memory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/operation"
)

const seedYAML = `
resources:
  - address: /
    attributes:
      management-major-version: 1
      product-name: test
  - address: /subsystem=messaging/hornetq-server=default/jms-queue=orders
    attributes:
      entries: [/queue/orders]
      durable: true
`

func TestLoadSeedsResourcesAndAncestors(t *testing.T) {
	t.Parallel()

	model := New()
	if err := model.Load(strings.NewReader(seedYAML)); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !model.Exists(mustAddress(t, "/subsystem=messaging/hornetq-server=default")) {
		t.Fatal("expected ancestor resource to be created")
	}

	response := execute(t, model, operation.Single(operation.Step{Name: operation.ReadResource}))
	if major, _ := response.Result.Get("management-major-version").AsInt(); major != 1 {
		t.Fatalf("unexpected root attributes %s", response.Result.String())
	}
	if product, _ := response.Result.Get("product-name").AsString(); product != "test" {
		t.Fatalf("unexpected root attributes %s", response.Result.String())
	}

	queue := mustAddress(t, "/subsystem=messaging/hornetq-server=default/jms-queue=orders")
	response = execute(t, model, operation.Single(operation.Step{Address: queue, Name: operation.ReadResource}))
	if got := response.Result.String(); got != `{"durable":true,"entries":["/queue/orders"]}` {
		t.Fatalf("unexpected queue attributes %s", got)
	}
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		document string
	}{
		{name: "unknown field", document: "resources:\n  - address: /\n    attrs: {}\n"},
		{name: "bad address", document: "resources:\n  - address: /subsystem\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			model := New()
			err := model.Load(strings.NewReader(tt.document))
			if !faults.IsCategory(err, faults.ConfigurationError) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if model.Exists(mustAddress(t, "/subsystem=messaging")) {
				t.Fatal("invalid document must not seed anything")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("failed to write seed: %v", err)
	}

	model := New()
	if err := model.LoadFile(path); err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if !model.Exists(mustAddress(t, "/subsystem=messaging/hornetq-server=default/jms-queue=orders")) {
		t.Fatal("expected seeded queue")
	}

	err := New().LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !faults.IsCategory(err, faults.ConfigurationError) {
		t.Fatalf("expected ConfigurationError for missing file, got %v", err)
	}
}
