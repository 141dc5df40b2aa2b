package operation

import (
	"testing"

	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/model"
	"github.com/crmarques/mgmtbridge/model/messaging"
	"github.com/crmarques/mgmtbridge/tree"
)

func newTestBuilder(t *testing.T) Builder {
	t.Helper()

	registry, err := model.NewRegistry(nil)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return NewBuilder(registry)
}

func TestCreateWithParentPrependsParentWhenAbsent(t *testing.T) {
	t.Parallel()

	builder := newTestBuilder(t)
	child, err := builder.Resolve(messaging.TypeSecurityPattern, "default", "ssl-rule", "guest")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	attributes := tree.NewObject()
	attributes.Set("send", tree.BoolValue(true))

	op, err := builder.CreateWithParent(child.Parent(), false, child, attributes)
	if err != nil {
		t.Fatalf("CreateWithParent returned error: %v", err)
	}

	steps := op.Steps()
	if !op.IsComposite() || len(steps) != 2 {
		t.Fatalf("expected composite with two steps, got %d (composite=%t)", len(steps), op.IsComposite())
	}
	if steps[0].Name != Add || steps[0].Address.String() != "/subsystem=messaging/hornetq-server=default/security-setting=ssl-rule" {
		t.Fatalf("unexpected parent step %s %s", steps[0].Name, steps[0].Address)
	}
	if steps[0].Attributes.Len() != 0 {
		t.Fatalf("expected parent step without attributes, got %s", steps[0].Attributes)
	}
	if steps[1].Name != Add || steps[1].Address.String() != "/subsystem=messaging/hornetq-server=default/security-setting=ssl-rule/role=guest" {
		t.Fatalf("unexpected child step %s %s", steps[1].Name, steps[1].Address)
	}
	if !steps[1].Address.HasPrefix(steps[0].Address) {
		t.Fatal("expected child addressed under the parent")
	}
	if got := steps[1].Attributes.String(); got != `{"send":true}` {
		t.Fatalf("unexpected child attributes %s", got)
	}
	if len(op.Address()) != 0 || op.Name() != Composite {
		t.Fatalf("unexpected composite header %s", op)
	}
}

func TestCreateWithParentSkipsExistingParent(t *testing.T) {
	t.Parallel()

	builder := newTestBuilder(t)
	child, err := builder.Resolve(messaging.TypeSecurityPattern, "default", "#", "guest")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	op, err := builder.CreateWithParent(child.Parent(), true, child, tree.Node{})
	if err != nil {
		t.Fatalf("CreateWithParent returned error: %v", err)
	}
	if steps := op.Steps(); !op.IsComposite() || len(steps) != 1 || !steps[0].Address.Equal(child) {
		t.Fatalf("expected single-step composite for the child, got %v", steps)
	}
}

func TestCreateWithParentRejectsUnrelatedAddresses(t *testing.T) {
	t.Parallel()

	builder := newTestBuilder(t)
	parent, _ := address.Parse("/subsystem=messaging/hornetq-server=default/security-setting=a")
	child, _ := address.Parse("/subsystem=messaging/hornetq-server=default/security-setting=b/role=guest")
	if _, err := builder.CreateWithParent(parent, false, child, tree.Node{}); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWriteAttributesBatchesIntoOneStep(t *testing.T) {
	t.Parallel()

	builder := newTestBuilder(t)
	attributes := tree.NewObject()
	attributes.Set("durable", tree.BoolValue(false))
	attributes.Set("selector", tree.StringValue("x > 1"))

	op, err := builder.WriteAttributes(messaging.TypeQueue, attributes, "default", "orders")
	if err != nil {
		t.Fatalf("WriteAttributes returned error: %v", err)
	}
	if op.IsComposite() || len(op.Steps()) != 1 {
		t.Fatalf("expected single step, got %v", op.Steps())
	}
	want := `{"address":[["subsystem","messaging"],["hornetq-server","default"],["jms-queue","orders"]],"operation":"write-attribute","durable":false,"selector":"x > 1"}`
	if got := op.Node().String(); got != want {
		t.Fatalf("unexpected request\n got %s\nwant %s", got, want)
	}
}

func TestWriteAttributesRefusesEmptyPayload(t *testing.T) {
	t.Parallel()

	builder := newTestBuilder(t)
	if _, err := builder.WriteAttributes(messaging.TypeTopic, tree.NewObject(), "default", "news"); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuilderPropagatesArityErrors(t *testing.T) {
	t.Parallel()

	builder := newTestBuilder(t)
	if _, err := builder.Remove(messaging.TypeQueue, "default"); !faults.IsCategory(err, faults.AddressArityError) {
		t.Fatalf("expected arity error, got %v", err)
	}
	if _, err := builder.Remove("no-such-type"); !faults.IsCategory(err, faults.NotFoundError) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestReadChildren(t *testing.T) {
	t.Parallel()

	builder := newTestBuilder(t)

	op, kinds, err := builder.ReadChildren(messaging.TypeQueue, "default")
	if err != nil {
		t.Fatalf("ReadChildren returned error: %v", err)
	}
	want := `{"address":[["subsystem","messaging"],["hornetq-server","default"]],"operation":"read-children-resources","child-type":"jms-queue"}`
	if got := op.Node().String(); got != want {
		t.Fatalf("unexpected request\n got %s\nwant %s", got, want)
	}
	if len(kinds) != 1 || kinds[0] != "jms-queue" {
		t.Fatalf("unexpected child kinds %v", kinds)
	}

	op, kinds, err = builder.ReadChildren(messaging.TypeSecurityPattern, "default")
	if err != nil {
		t.Fatalf("ReadChildren returned error: %v", err)
	}
	step := op.Steps()[0]
	if step.ChildType != "security-setting" || !step.Recursive || len(kinds) != 2 {
		t.Fatalf("expected recursive security-setting read, got %+v kinds=%v", step, kinds)
	}
}

func TestCompositeWireShape(t *testing.T) {
	t.Parallel()

	parent, _ := address.Parse("/subsystem=messaging/hornetq-server=default/security-setting=ssl-rule")
	attributes := tree.NewObject()
	attributes.Set("manage", tree.BoolValue(true))
	op := NewComposite(AddStep(parent, tree.Node{}), AddStep(parent.Append("role", "admin"), attributes))

	want := `{"address":[],"operation":"composite","steps":[` +
		`{"address":[["subsystem","messaging"],["hornetq-server","default"],["security-setting","ssl-rule"]],"operation":"add"},` +
		`{"address":[["subsystem","messaging"],["hornetq-server","default"],["security-setting","ssl-rule"],["role","admin"]],"operation":"add","manage":true}]}`
	if got := op.Node().String(); got != want {
		t.Fatalf("unexpected composite\n got %s\nwant %s", got, want)
	}
}

func TestParseInvertsNode(t *testing.T) {
	t.Parallel()

	builder := newTestBuilder(t)
	attributes := tree.NewObject()
	attributes.Set("entries", tree.StringList("/queue/orders"))
	op, err := builder.Add(messaging.TypeQueue, attributes, "default", "orders")
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	op = op.WithHeader("request-id", tree.StringValue("abc"))

	parsed, err := Parse(op.Node())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !parsed.Node().Equal(op.Node()) {
		t.Fatalf("parse mismatch\n got %s\nwant %s", parsed.Node(), op.Node())
	}
	if id, _ := parsed.Header("request-id").AsString(); id != "abc" {
		t.Fatalf("expected request id header, got %q", id)
	}
}

func TestParseRejectsMalformedRequests(t *testing.T) {
	t.Parallel()

	cases := []string{
		`[]`,
		`{"address":[]}`,
		`{"operation":"composite","address":[]}`,
		`{"operation":"composite","steps":[{"operation":"composite","steps":[]}]}`,
		`{"operation":"add","address":"subsystem=messaging"}`,
	}
	for _, text := range cases {
		node, err := tree.Parse([]byte(text))
		if err != nil {
			t.Fatalf("failed to parse %s: %v", text, err)
		}
		if _, err := Parse(node); !faults.IsCategory(err, faults.ValidationError) {
			t.Fatalf("%s: expected validation error, got %v", text, err)
		}
	}
}
