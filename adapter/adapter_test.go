package adapter

import (
	"reflect"
	"slices"
	"testing"

	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/metadata"
	"github.com/crmarques/mgmtbridge/model/jvm"
	"github.com/crmarques/mgmtbridge/model/messaging"
	"github.com/crmarques/mgmtbridge/model/network"
	"github.com/crmarques/mgmtbridge/tree"
)

func mustParse(t *testing.T, text string) tree.Node {
	t.Helper()

	node, err := tree.Parse([]byte(text))
	if err != nil {
		t.Fatalf("failed to parse %s: %v", text, err)
	}
	return node
}

func TestEncodeNewOmitsEmptySelector(t *testing.T) {
	t.Parallel()

	queues := New(messaging.QueueMetadata(nil))
	payload, err := queues.EncodeNew(messaging.Queue{Name: "orders", JndiName: "/queue/orders", Durable: true})
	if err != nil {
		t.Fatalf("EncodeNew returned error: %v", err)
	}
	if got := payload.String(); got != `{"entries":["/queue/orders"],"durable":true}` {
		t.Fatalf("unexpected payload %s", got)
	}
	if payload.Has("selector") {
		t.Fatal("expected selector to be omitted")
	}
}

func TestEncodeNewKeepsRequiredFalseBoolean(t *testing.T) {
	t.Parallel()

	queues := New(messaging.QueueMetadata(nil))
	payload, err := queues.EncodeNew(messaging.Queue{Name: "audit", JndiName: "/queue/audit"})
	if err != nil {
		t.Fatalf("EncodeNew returned error: %v", err)
	}
	durable, ok := payload.Get("durable").AsBool()
	if !ok || durable {
		t.Fatalf("expected durable=false to be sent, got %s", payload)
	}
}

func assertRoundTrip[E any](t *testing.T, md metadata.EntityMetadata[E], original E) {
	t.Helper()

	entities := New(md)
	payload, err := entities.EncodeNew(original)
	if err != nil {
		t.Fatalf("EncodeNew returned error: %v", err)
	}
	decoded, err := entities.Decode(payload)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if !reflect.DeepEqual(decoded, original) {
		t.Fatalf("round trip mismatch: got %#v want %#v", decoded, original)
	}
}

func TestDecodeRoundTripsNonDefaultFields(t *testing.T) {
	t.Parallel()

	maxDelivery := int64(10)
	delay := int64(250)

	cases := []struct {
		name  string
		check func(t *testing.T)
	}{
		{name: "messaging provider", check: func(t *testing.T) {
			assertRoundTrip(t, messaging.ProviderMetadata(nil), messaging.Provider{
				PersistenceEnabled:    true,
				SecurityEnabled:       true,
				MessageCounterEnabled: true,
				ClusterUser:           "cluster",
				ClusterPassword:       "secret",
				JournalType:           "ASYNCIO",
			})
		}},
		{name: "queue", check: func(t *testing.T) {
			assertRoundTrip(t, messaging.QueueMetadata(nil), messaging.Queue{
				JndiName: "/queue/orders",
				Durable:  true,
				Selector: "priority > 4",
			})
		}},
		{name: "topic", check: func(t *testing.T) {
			assertRoundTrip(t, messaging.TopicMetadata(nil), messaging.Topic{JndiName: "/topic/news"})
		}},
		{name: "connection factory", check: func(t *testing.T) {
			assertRoundTrip(t, messaging.ConnectionFactoryMetadata(nil), messaging.ConnectionFactory{JndiName: "java:/ConnectionFactory"})
		}},
		{name: "security pattern", check: func(t *testing.T) {
			assertRoundTrip(t, messaging.SecurityPatternMetadata(nil), messaging.SecurityPattern{
				Send:                  true,
				Consume:               true,
				CreateDurableQueue:    true,
				DeleteDurableQueue:    true,
				CreateNonDurableQueue: true,
				DeleteNonDurableQueue: true,
				Manage:                true,
			})
		}},
		{name: "addressing pattern", check: func(t *testing.T) {
			assertRoundTrip(t, messaging.AddressingPatternMetadata(nil), messaging.AddressingPattern{
				DeadLetterQueue: "jms.queue.DLQ",
				ExpiryQueue:     "jms.queue.ExpiryQueue",
				MaxDelivery:     &maxDelivery,
				RedeliveryDelay: &delay,
			})
		}},
		{name: "interface", check: func(t *testing.T) {
			assertRoundTrip(t, network.InterfaceMetadata(), network.Interface{
				InetAddress:     "10.0.0.1",
				Nic:             "eth0",
				NicMatch:        "eth.*",
				AnyIPv6Address:  true,
				PublicAddress:   true,
				SiteLocal:       true,
				LinkLocal:       true,
				Up:              true,
				Virtual:         true,
				PointToPoint:    true,
				Multicast:       true,
				Loopback:        true,
				LoopbackAddress: "127.0.0.2",
			})
		}},
		{name: "jvm", check: func(t *testing.T) {
			assertRoundTrip(t, jvm.JvmMetadata(), jvm.Jvm{
				HeapSize:     "64m",
				MaxHeapSize:  "512m",
				PermGenSize:  "128m",
				MaxPermGen:   "256m",
				Options:      []string{"-server", "-Xss1m"},
				DebugEnabled: true,
				DebugOptions: "-agentlib:jdwp=transport=dt_socket",
			})
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.check(t)
		})
	}
}

func TestDecodeIsLenient(t *testing.T) {
	t.Parallel()

	queues := New(messaging.QueueMetadata(nil))
	decoded, err := queues.Decode(mustParse(t, `{"entries":["java:/queue/a","java:/queue/b"],"consumer-count":3,"selector":null}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	want := messaging.Queue{JndiName: "java:/queue/a"}
	if decoded != want {
		t.Fatalf("unexpected entity %#v", decoded)
	}
}

func TestDecodeRejectsNonObject(t *testing.T) {
	t.Parallel()

	queues := New(messaging.QueueMetadata(nil))
	for _, text := range []string{`"orders"`, `[1,2]`, `null`} {
		if _, err := queues.Decode(mustParse(t, text)); !faults.IsCategory(err, faults.DecodeTypeError) {
			t.Fatalf("%s: expected decode type error, got %v", text, err)
		}
	}
}

func TestDecodeRejectsMistypedAttribute(t *testing.T) {
	t.Parallel()

	queues := New(messaging.QueueMetadata(nil))
	_, err := queues.Decode(mustParse(t, `{"durable":{"nested":true}}`))
	if !faults.IsCategory(err, faults.DecodeTypeError) {
		t.Fatalf("expected decode type error, got %v", err)
	}
}

func TestEncodeChangesetKeySet(t *testing.T) {
	t.Parallel()

	topics := New(messaging.TopicMetadata(nil))
	payload, err := topics.EncodeChangeset(ChangeSet{"jndiName": "/topic/news", "unknownField": "x"})
	if err != nil {
		t.Fatalf("EncodeChangeset returned error: %v", err)
	}
	if got := payload.Keys(); !slices.Equal(got, []string{"entries"}) {
		t.Fatalf("unexpected keys %v", got)
	}
	if got := payload.String(); got != `{"entries":["/topic/news"]}` {
		t.Fatalf("unexpected payload %s", got)
	}

	empty, err := topics.EncodeChangeset(ChangeSet{})
	if err != nil {
		t.Fatalf("EncodeChangeset returned error: %v", err)
	}
	if empty.Len() != 0 {
		t.Fatalf("expected empty payload, got %s", empty)
	}
}

func TestEncodeChangesetFollowsBindingOrder(t *testing.T) {
	t.Parallel()

	patterns := New(messaging.SecurityPatternMetadata(nil))
	payload, err := patterns.EncodeChangeset(ChangeSet{"manage": true, "send": false, "consume": "true"})
	if err != nil {
		t.Fatalf("EncodeChangeset returned error: %v", err)
	}
	if got := payload.String(); got != `{"send":false,"consume":true,"manage":true}` {
		t.Fatalf("unexpected payload %s", got)
	}
}

func TestEncodeChangesetClearsValues(t *testing.T) {
	t.Parallel()

	queues := New(messaging.QueueMetadata(nil))
	payload, err := queues.EncodeChangeset(ChangeSet{"selector": ""})
	if err != nil {
		t.Fatalf("EncodeChangeset returned error: %v", err)
	}
	if !payload.Has("selector") || payload.HasDefined("selector") {
		t.Fatalf("expected selector to be sent undefined, got %s", payload)
	}
}

func TestEncodeChangesetRejectsUncoercibleValue(t *testing.T) {
	t.Parallel()

	queues := New(messaging.QueueMetadata(nil))
	if _, err := queues.EncodeChangeset(ChangeSet{"durable": "maybe"}); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	queues := New(messaging.QueueMetadata(nil))
	before := messaging.Queue{Name: "orders", JndiName: "/queue/orders", Durable: true}
	after := before
	after.Selector = "color = 'red'"

	changes := queues.Diff(before, after)
	if len(changes) != 1 || changes["selector"] != "color = 'red'" {
		t.Fatalf("unexpected change-set %v", changes)
	}
	if !queues.Diff(before, before).IsEmpty() {
		t.Fatal("expected empty change-set for identical entities")
	}
}

func TestDecodeCollectionNested(t *testing.T) {
	t.Parallel()

	patterns := New(messaging.SecurityPatternMetadata(nil))
	node := mustParse(t, `{
		"#": {"role": {"guest": {"send": true, "consume": true}}},
		"jms.queue.orders": {"role": {"admin": {"manage": true}, "guest": {"consume": true}}}
	}`)

	decoded, err := patterns.DecodeCollection(node, []string{"security-setting", "role"})
	if err != nil {
		t.Fatalf("DecodeCollection returned error: %v", err)
	}
	want := []messaging.SecurityPattern{
		{Pattern: "#", Role: "guest", Send: true, Consume: true},
		{Pattern: "jms.queue.orders", Role: "admin", Manage: true},
		{Pattern: "jms.queue.orders", Role: "guest", Consume: true},
	}
	if !reflect.DeepEqual(decoded, want) {
		t.Fatalf("unexpected collection %#v", decoded)
	}
}

func TestDecodeCollectionUndefinedIsEmpty(t *testing.T) {
	t.Parallel()

	queues := New(messaging.QueueMetadata(nil))
	decoded, err := queues.DecodeCollection(tree.Node{}, []string{"jms-queue"})
	if err != nil {
		t.Fatalf("DecodeCollection returned error: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected no entities, got %v", decoded)
	}
}

func TestDecodeChildrenOfRecursiveRead(t *testing.T) {
	t.Parallel()

	queues := New(messaging.QueueMetadata(nil))
	server := mustParse(t, `{
		"persistence-enabled": true,
		"jms-queue": {"orders": {"entries": ["/queue/orders"], "durable": true}},
		"jms-topic": {"news": {"entries": ["/topic/news"]}}
	}`)

	decoded, err := queues.DecodeChildren(server, []string{"jms-queue"})
	if err != nil {
		t.Fatalf("DecodeChildren returned error: %v", err)
	}
	want := []messaging.Queue{{Name: "orders", JndiName: "/queue/orders", Durable: true}}
	if !reflect.DeepEqual(decoded, want) {
		t.Fatalf("unexpected queues %#v", decoded)
	}
}

func TestFlagsAreNeverSentFalse(t *testing.T) {
	t.Parallel()

	interfaces := New(network.InterfaceMetadata())
	entity := network.Interface{Name: "public", InetAddress: "127.0.0.1"}
	entity.SetAddressWildcard(network.WildcardIPv4)

	payload, err := interfaces.EncodeNew(entity)
	if err != nil {
		t.Fatalf("EncodeNew returned error: %v", err)
	}
	if got := payload.String(); got != `{"inet-address":"127.0.0.1","any-ipv4-address":true}` {
		t.Fatalf("unexpected payload %s", got)
	}

	changes, err := interfaces.EncodeChangeset(ChangeSet{"anyAddress": false, "anyIpv4Address": true})
	if err != nil {
		t.Fatalf("EncodeChangeset returned error: %v", err)
	}
	if !changes.Has("any-address") || changes.HasDefined("any-address") {
		t.Fatalf("expected any-address to be sent undefined, got %s", changes)
	}
	if flag, ok := changes.Get("any-ipv4-address").AsBool(); !ok || !flag {
		t.Fatalf("expected any-ipv4-address true, got %s", changes)
	}

	// Boolean bindings that are not flags still send false.
	queues := New(messaging.QueueMetadata(nil))
	durable, err := queues.EncodeChangeset(ChangeSet{"durable": false})
	if err != nil {
		t.Fatalf("EncodeChangeset returned error: %v", err)
	}
	if flag, ok := durable.Get("durable").AsBool(); !ok || flag {
		t.Fatalf("expected durable false, got %s", durable)
	}
}

func TestIdentityUsesEntityParams(t *testing.T) {
	t.Parallel()

	patterns := New(messaging.SecurityPatternMetadata(address.Address{{Kind: "profile", Value: "full"}}))
	params := patterns.Identity(messaging.SecurityPattern{Pattern: "ssl-rule", Role: "guest"})
	if !slices.Equal(params, []string{"ssl-rule", "guest"}) {
		t.Fatalf("unexpected params %v", params)
	}
}
