package config

type ContextSelection struct {
	Name      string
	Overrides map[string]string
}

const (
	ContextFileEnvVar         = "MGMTBRIDGE_CONTEXTS_FILE"
	DefaultContextCatalogPath = "~/.mgmtbridge/contexts.yaml"
	OAuthClientCreds          = "client_credentials"
	DefaultServer             = "default"
)

// Override keys accepted by ContextSelection.Overrides.
const (
	OverrideHTTPBaseURL  = "management.http.base-url"
	OverrideProfile      = "management.profile"
	OverrideServer       = "management.server"
	OverrideMinVersion   = "management.min-version"
	OverrideVerifyParent = "management.verify-parent"
	OverrideMemorySeed   = "management.memory.seed-file"
	OverrideOTLPEndpoint = "telemetry.otlp-endpoint"
)

type ContextCatalog struct {
	Contexts   []Context `json:"contexts" yaml:"contexts"`
	CurrentCtx string    `json:"current-ctx" yaml:"current-ctx"`
}

type Context struct {
	Name        string            `json:"name" yaml:"name"`
	Management  Management        `json:"management" yaml:"management"`
	Telemetry   *Telemetry        `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
	Credentials *CredentialStore  `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

// Management selects exactly one endpoint (http or memory) and the address
// scope entities live in.
type Management struct {
	HTTP   *HTTPEndpoint   `json:"http,omitempty" yaml:"http,omitempty"`
	Memory *MemoryEndpoint `json:"memory,omitempty" yaml:"memory,omitempty"`
	// Profile prefixes subsystem addresses in a managed domain.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`
	// Server is the messaging server entity addresses are resolved under.
	Server string `json:"server,omitempty" yaml:"server,omitempty"`
	// MinVersion is a semver constraint the endpoint's management API
	// version must satisfy.
	MinVersion   string `json:"min-version,omitempty" yaml:"min-version,omitempty"`
	VerifyParent bool   `json:"verify-parent,omitempty" yaml:"verify-parent,omitempty"`
}

type HTTPEndpoint struct {
	BaseURL        string            `json:"base-url" yaml:"base-url"`
	DefaultHeaders map[string]string `json:"default-headers,omitempty" yaml:"default-headers,omitempty"`
	Auth           *HTTPAuth         `json:"auth,omitempty" yaml:"auth,omitempty"`
	TLS            *TLS              `json:"tls,omitempty" yaml:"tls,omitempty"`
	RateLimit      *RateLimit        `json:"rate-limit,omitempty" yaml:"rate-limit,omitempty"`
	Timeout        string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

type MemoryEndpoint struct {
	SeedFile string `json:"seed-file,omitempty" yaml:"seed-file,omitempty"`
}

type RateLimit struct {
	RequestsPerSecond float64 `json:"requests-per-second" yaml:"requests-per-second"`
	Burst             int     `json:"burst,omitempty" yaml:"burst,omitempty"`
}

type HTTPAuth struct {
	OAuth2       *OAuth2          `json:"oauth2,omitempty" yaml:"oauth2,omitempty"`
	BasicAuth    *BasicAuth       `json:"basic-auth,omitempty" yaml:"basic-auth,omitempty"`
	BearerToken  *BearerTokenAuth `json:"bearer-token,omitempty" yaml:"bearer-token,omitempty"`
	CustomHeader *HeaderTokenAuth `json:"custom-header,omitempty" yaml:"custom-header,omitempty"`
}

type OAuth2 struct {
	TokenURL     string `json:"token-url" yaml:"token-url"`
	GrantType    string `json:"grant-type" yaml:"grant-type"`
	ClientID     string `json:"client-id" yaml:"client-id"`
	ClientSecret string `json:"client-secret" yaml:"client-secret"`
	Scope        string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Audience     string `json:"audience,omitempty" yaml:"audience,omitempty"`
}

type BasicAuth struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

type BearerTokenAuth struct {
	Token string `json:"token" yaml:"token"`
}

type HeaderTokenAuth struct {
	Header string `json:"header" yaml:"header"`
	Token  string `json:"token" yaml:"token"`
}

type TLS struct {
	CACertFile         string `json:"ca-cert-file,omitempty" yaml:"ca-cert-file,omitempty"`
	ClientCertFile     string `json:"client-cert-file,omitempty" yaml:"client-cert-file,omitempty"`
	ClientKeyFile      string `json:"client-key-file,omitempty" yaml:"client-key-file,omitempty"`
	InsecureSkipVerify bool   `json:"insecure-skip-verify,omitempty" yaml:"insecure-skip-verify,omitempty"`
}

type Telemetry struct {
	OTLPEndpoint string `json:"otlp-endpoint,omitempty" yaml:"otlp-endpoint,omitempty"`
	Insecure     bool   `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	ServiceName  string `json:"service-name,omitempty" yaml:"service-name,omitempty"`
}

// CredentialStore is an encrypted file holding the values that
// {{secret "key"}} placeholders in management auth settings refer to.
// Exactly one of the key material fields must be set.
type CredentialStore struct {
	Path           string `json:"path" yaml:"path"`
	Key            string `json:"key,omitempty" yaml:"key,omitempty"`
	KeyFile        string `json:"key-file,omitempty" yaml:"key-file,omitempty"`
	Passphrase     string `json:"passphrase,omitempty" yaml:"passphrase,omitempty"`
	PassphraseFile string `json:"passphrase-file,omitempty" yaml:"passphrase-file,omitempty"`
	KDF            *KDF   `json:"kdf,omitempty" yaml:"kdf,omitempty"`
}

type KDF struct {
	Time    int `json:"time,omitempty" yaml:"time,omitempty"`
	Memory  int `json:"memory,omitempty" yaml:"memory,omitempty"`
	Threads int `json:"threads,omitempty" yaml:"threads,omitempty"`
}
