// Package messaging declares the messaging subsystem entities and their
// binding tables.
package messaging

const (
	TypeProvider          = "messaging-provider"
	TypeQueue             = "queue"
	TypeTopic             = "topic"
	TypeConnectionFactory = "connection-factory"
	TypeSecurityPattern   = "security-pattern"
	TypeAddressingPattern = "addressing-pattern"
)

// Provider is a messaging server instance.
type Provider struct {
	Name                  string `json:"name" yaml:"name"`
	PersistenceEnabled    bool   `json:"persistenceEnabled" yaml:"persistenceEnabled"`
	SecurityEnabled       bool   `json:"securityEnabled" yaml:"securityEnabled"`
	MessageCounterEnabled bool   `json:"messageCounterEnabled" yaml:"messageCounterEnabled"`
	ClusterUser           string `json:"clusterUser,omitempty" yaml:"clusterUser,omitempty"`
	ClusterPassword       string `json:"clusterPassword,omitempty" yaml:"clusterPassword,omitempty"`
	JournalType           string `json:"journalType,omitempty" yaml:"journalType,omitempty"`
}

type Queue struct {
	Name     string `json:"name" yaml:"name"`
	JndiName string `json:"jndiName" yaml:"jndiName"`
	Durable  bool   `json:"durable" yaml:"durable"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
}

type Topic struct {
	Name     string `json:"name" yaml:"name"`
	JndiName string `json:"jndiName" yaml:"jndiName"`
}

type ConnectionFactory struct {
	Name     string `json:"name" yaml:"name"`
	JndiName string `json:"jndiName" yaml:"jndiName"`
}

// SecurityPattern is one role entry under a security-setting address
// pattern.
type SecurityPattern struct {
	Pattern               string `json:"pattern" yaml:"pattern"`
	Role                  string `json:"role" yaml:"role"`
	Send                  bool   `json:"send" yaml:"send"`
	Consume               bool   `json:"consume" yaml:"consume"`
	CreateDurableQueue    bool   `json:"createDurableQueue" yaml:"createDurableQueue"`
	DeleteDurableQueue    bool   `json:"deleteDurableQueue" yaml:"deleteDurableQueue"`
	CreateNonDurableQueue bool   `json:"createNonDurableQueue" yaml:"createNonDurableQueue"`
	DeleteNonDurableQueue bool   `json:"deleteNonDurableQueue" yaml:"deleteNonDurableQueue"`
	Manage                bool   `json:"manage" yaml:"manage"`
}

type AddressingPattern struct {
	Pattern         string `json:"pattern" yaml:"pattern"`
	DeadLetterQueue string `json:"deadLetterQueue,omitempty" yaml:"deadLetterQueue,omitempty"`
	ExpiryQueue     string `json:"expiryQueue,omitempty" yaml:"expiryQueue,omitempty"`
	MaxDelivery     *int64 `json:"maxDelivery,omitempty" yaml:"maxDelivery,omitempty"`
	RedeliveryDelay *int64 `json:"redeliveryDelay,omitempty" yaml:"redeliveryDelay,omitempty"`
}
