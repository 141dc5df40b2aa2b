package session

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/crmarques/mgmtbridge/adapter"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/model/messaging"
)

// Console is the messaging view of one server: its provider settings,
// security and addressing patterns and JMS destinations, plus the edit
// flags of the queue and topic forms.
type Console struct {
	session *Session
	server  string

	Providers  *Collection[messaging.Provider]
	Security   *Collection[messaging.SecurityPattern]
	Addressing *Collection[messaging.AddressingPattern]
	Queues     *Collection[messaging.Queue]
	Topics     *Collection[messaging.Topic]
	Factories  *Collection[messaging.ConnectionFactory]

	mu           sync.Mutex
	editingQueue bool
	editingTopic bool
}

// NewConsole binds the collections of server. The server name is required.
func NewConsole(s *Session, server string) (*Console, error) {
	if server == "" {
		return nil, faults.NewTypedError(faults.ValidationError, "current server name not set", nil)
	}

	c := &Console{session: s, server: server}
	var err error
	if c.Providers, err = Bind[messaging.Provider](s, messaging.TypeProvider); err != nil {
		return nil, err
	}
	if c.Security, err = Bind[messaging.SecurityPattern](s, messaging.TypeSecurityPattern, server); err != nil {
		c.Close()
		return nil, err
	}
	if c.Addressing, err = Bind[messaging.AddressingPattern](s, messaging.TypeAddressingPattern, server); err != nil {
		c.Close()
		return nil, err
	}
	if c.Queues, err = Bind[messaging.Queue](s, messaging.TypeQueue, server); err != nil {
		c.Close()
		return nil, err
	}
	if c.Topics, err = Bind[messaging.Topic](s, messaging.TypeTopic, server); err != nil {
		c.Close()
		return nil, err
	}
	if c.Factories, err = Bind[messaging.ConnectionFactory](s, messaging.TypeConnectionFactory, server); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Console) Server() string {
	return c.server
}

// Refresh reloads every collection. The reads are independent and may
// complete in any order; the first error is returned once all finished.
// A failed read does not cancel the others.
func (c *Console) Refresh(ctx context.Context) error {
	var group errgroup.Group
	for _, refresh := range []func(context.Context) error{
		c.Providers.Refresh,
		c.Security.Refresh,
		c.Addressing.Refresh,
		c.Queues.Refresh,
		c.Topics.Refresh,
		c.Factories.Refresh,
	} {
		group.Go(func() error {
			return refresh(ctx)
		})
	}
	return group.Wait()
}

// Provider returns the settings of the console's server once loaded.
func (c *Console) Provider() (messaging.Provider, bool) {
	return c.Providers.Find(c.server)
}

func (c *Console) SaveProvider(ctx context.Context, changes adapter.ChangeSet) (Result, error) {
	return c.session.Save(ctx, messaging.TypeProvider, nil, []string{c.server}, changes)
}

func (c *Console) EditQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editingQueue = true
}

func (c *Console) EditingQueue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingQueue
}

// SaveQueue leaves queue edit mode and persists changes, if any.
func (c *Console) SaveQueue(ctx context.Context, queue messaging.Queue, changes adapter.ChangeSet) (Result, error) {
	c.mu.Lock()
	c.editingQueue = false
	c.mu.Unlock()
	return c.Queues.Save(ctx, queue, changes)
}

func (c *Console) CreateQueue(ctx context.Context, queue messaging.Queue) (Result, error) {
	return c.Queues.Create(ctx, queue)
}

func (c *Console) DeleteQueue(ctx context.Context, queue messaging.Queue) (Result, error) {
	return c.Queues.Delete(ctx, queue)
}

func (c *Console) EditTopic() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editingTopic = true
}

func (c *Console) EditingTopic() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingTopic
}

// SaveTopic leaves topic edit mode and persists changes, if any.
func (c *Console) SaveTopic(ctx context.Context, topic messaging.Topic, changes adapter.ChangeSet) (Result, error) {
	c.mu.Lock()
	c.editingTopic = false
	c.mu.Unlock()
	return c.Topics.Save(ctx, topic, changes)
}

func (c *Console) CreateTopic(ctx context.Context, topic messaging.Topic) (Result, error) {
	return c.Topics.Create(ctx, topic)
}

func (c *Console) DeleteTopic(ctx context.Context, topic messaging.Topic) (Result, error) {
	return c.Topics.Delete(ctx, topic)
}

// CreateSecurityPattern adds a role, creating its security-setting first
// when the pattern is not among the loaded ones.
func (c *Console) CreateSecurityPattern(ctx context.Context, pattern messaging.SecurityPattern) (Result, error) {
	return c.Security.CreateUnderParent(ctx, pattern)
}

func (c *Console) SaveSecurityPattern(ctx context.Context, pattern messaging.SecurityPattern, changes adapter.ChangeSet) (Result, error) {
	return c.Security.Save(ctx, pattern, changes)
}

func (c *Console) DeleteSecurityPattern(ctx context.Context, pattern messaging.SecurityPattern) (Result, error) {
	return c.Security.Delete(ctx, pattern)
}

func (c *Console) CreateAddressingPattern(ctx context.Context, pattern messaging.AddressingPattern) (Result, error) {
	return c.Addressing.Create(ctx, pattern)
}

func (c *Console) SaveAddressingPattern(ctx context.Context, pattern messaging.AddressingPattern, changes adapter.ChangeSet) (Result, error) {
	return c.Addressing.Save(ctx, pattern, changes)
}

func (c *Console) DeleteAddressingPattern(ctx context.Context, pattern messaging.AddressingPattern) (Result, error) {
	return c.Addressing.Delete(ctx, pattern)
}

// Close detaches every collection from the session.
func (c *Console) Close() {
	for _, collection := range []interface{ Close() }{
		c.Providers, c.Security, c.Addressing, c.Queues, c.Topics, c.Factories,
	} {
		if collection != nil {
			collection.Close()
		}
	}
}
