package file

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/credentials"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/internal/providers/shared/securefile"
)

const (
	envelopeVersion  = 1
	keyLengthBytes   = 32
	nonceLengthBytes = 12
	saltLengthBytes  = 16

	defaultKDFTime    = 1
	defaultKDFMemory  = 64 * 1024
	defaultKDFThreads = 4
)

var _ credentials.Store = (*Store)(nil)

// Store keeps credentials in one AES-GCM sealed JSON file. With a
// passphrase the key is derived with argon2id and a fresh salt on every
// write.
type Store struct {
	path       string
	key        []byte
	passphrase []byte
	kdf        kdfSettings

	mu          sync.Mutex
	initialized bool
}

type kdfSettings struct {
	time    uint32
	memory  uint32
	threads uint8
}

type envelope struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt,omitempty"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

type snapshot struct {
	Credentials map[string]string `json:"credentials"`
}

func New(cfg config.CredentialStore) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, validationError("credentials.path is required", nil)
	}

	kdf, err := resolveKDF(cfg.KDF)
	if err != nil {
		return nil, err
	}
	store := &Store{path: filepath.Clean(expandHome(path)), kdf: kdf}

	switch {
	case strings.TrimSpace(cfg.Key) != "":
		store.key, err = parseKey(cfg.Key)
	case strings.TrimSpace(cfg.KeyFile) != "":
		var data []byte
		data, err = os.ReadFile(expandHome(strings.TrimSpace(cfg.KeyFile)))
		if err != nil {
			return nil, validationError("credentials.key-file could not be read", err)
		}
		store.key, err = parseKey(string(data))
	case strings.TrimSpace(cfg.Passphrase) != "":
		store.passphrase = []byte(strings.TrimSpace(cfg.Passphrase))
	case strings.TrimSpace(cfg.PassphraseFile) != "":
		var data []byte
		data, err = os.ReadFile(expandHome(strings.TrimSpace(cfg.PassphraseFile)))
		if err != nil {
			return nil, validationError("credentials.passphrase-file could not be read", err)
		}
		passphrase := strings.TrimSpace(string(data))
		if passphrase == "" {
			return nil, validationError("credentials.passphrase-file must not be empty", nil)
		}
		store.passphrase = []byte(passphrase)
	default:
		return nil, validationError("credentials must define one of key, key-file, passphrase, passphrase-file", nil)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Init(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.initLocked()
}

func (s *Store) Store(_ context.Context, key string, value string) error {
	normalized, err := normalizeKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(); err != nil {
		return err
	}
	current, err := s.readLocked()
	if err != nil {
		return err
	}
	current.Credentials[normalized] = value
	return s.writeLocked(current)
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	normalized, err := normalizeKey(key)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(); err != nil {
		return "", err
	}
	current, err := s.readLocked()
	if err != nil {
		return "", err
	}
	value, found := current.Credentials[normalized]
	if !found {
		return "", faults.NewTypedError(faults.NotFoundError, "credential "+normalized+" not found", nil)
	}
	return value, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	normalized, err := normalizeKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(); err != nil {
		return err
	}
	current, err := s.readLocked()
	if err != nil {
		return err
	}
	if _, found := current.Credentials[normalized]; !found {
		return faults.NewTypedError(faults.NotFoundError, "credential "+normalized+" not found", nil)
	}
	delete(current.Credentials, normalized)
	return s.writeLocked(current)
}

func (s *Store) List(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(); err != nil {
		return nil, err
	}
	current, err := s.readLocked()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(current.Credentials))
	for key := range current.Credentials {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// initLocked creates an empty store on first use and checks that an
// existing one opens with the configured key material.
func (s *Store) initLocked() error {
	if _, err := os.Stat(s.path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return internalError("failed to inspect credential store", err)
		}
		if err := s.writeLocked(snapshot{Credentials: map[string]string{}}); err != nil {
			return err
		}
		s.initialized = true
		return nil
	}

	if !s.initialized {
		if _, err := s.readLocked(); err != nil {
			return err
		}
	}
	s.initialized = true
	return nil
}

func (s *Store) readLocked() (snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return snapshot{}, internalError("failed to read credential store", err)
	}

	var sealed envelope
	if err := json.Unmarshal(data, &sealed); err != nil {
		return snapshot{}, internalError("failed to decode credential store", err)
	}
	if sealed.Version != envelopeVersion {
		return snapshot{}, validationError("credential store format version is unsupported", nil)
	}

	nonce, err := base64.StdEncoding.DecodeString(sealed.Nonce)
	if err != nil {
		return snapshot{}, validationError("credential store nonce is invalid", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(sealed.Ciphertext)
	if err != nil {
		return snapshot{}, validationError("credential store ciphertext is invalid", err)
	}
	var salt []byte
	if sealed.Salt != "" {
		if salt, err = base64.StdEncoding.DecodeString(sealed.Salt); err != nil {
			return snapshot{}, validationError("credential store salt is invalid", err)
		}
	}

	gcm, err := s.cipher(salt)
	if err != nil {
		return snapshot{}, err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return snapshot{}, faults.NewTypedError(faults.AuthError, "failed to decrypt credential store with the configured key material", err)
	}

	var current snapshot
	if err := json.Unmarshal(plaintext, &current); err != nil {
		return snapshot{}, internalError("failed to decode decrypted credential store", err)
	}
	if current.Credentials == nil {
		current.Credentials = make(map[string]string)
	}
	return current, nil
}

func (s *Store) writeLocked(current snapshot) error {
	if current.Credentials == nil {
		current.Credentials = make(map[string]string)
	}
	plaintext, err := json.Marshal(current)
	if err != nil {
		return internalError("failed to encode credentials", err)
	}

	nonce, err := randomBytes(nonceLengthBytes)
	if err != nil {
		return internalError("failed to generate nonce", err)
	}
	var salt []byte
	if len(s.passphrase) > 0 {
		if salt, err = randomBytes(saltLengthBytes); err != nil {
			return internalError("failed to generate salt", err)
		}
	}

	gcm, err := s.cipher(salt)
	if err != nil {
		return err
	}
	sealed := envelope{
		Version:    envelopeVersion,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, nil)),
	}
	if len(salt) > 0 {
		sealed.Salt = base64.StdEncoding.EncodeToString(salt)
	}

	encoded, err := json.Marshal(sealed)
	if err != nil {
		return internalError("failed to encode credential store", err)
	}
	if err := securefile.WriteAtomic(s.path, encoded, ".mgmtbridge-credentials-*", 0o700); err != nil {
		return internalError("failed to write credential store", err)
	}
	return nil
}

func (s *Store) cipher(salt []byte) (cipher.AEAD, error) {
	key := s.key
	if len(key) == 0 {
		if len(salt) == 0 {
			return nil, validationError("credential store salt is missing", nil)
		}
		key = argon2.IDKey(s.passphrase, salt, s.kdf.time, s.kdf.memory, s.kdf.threads, keyLengthBytes)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, internalError("failed to initialize credential cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, internalError("failed to initialize credential cipher mode", err)
	}
	return gcm, nil
}

func resolveKDF(kdf *config.KDF) (kdfSettings, error) {
	settings := kdfSettings{time: defaultKDFTime, memory: defaultKDFMemory, threads: defaultKDFThreads}
	if kdf == nil {
		return settings, nil
	}
	if kdf.Time < 0 || kdf.Memory < 0 || kdf.Threads < 0 || kdf.Threads > 255 {
		return kdfSettings{}, validationError("credentials.kdf values are out of range", nil)
	}
	if kdf.Time > 0 {
		settings.time = uint32(kdf.Time)
	}
	if kdf.Memory > 0 {
		settings.memory = uint32(kdf.Memory)
	}
	if kdf.Threads > 0 {
		settings.threads = uint8(kdf.Threads)
	}
	return settings, nil
}

// parseKey accepts a 32 byte key as hex, base64 or raw text.
func parseKey(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, validationError("credentials.key must not be empty", nil)
	}
	if decoded, err := hex.DecodeString(trimmed); err == nil && len(decoded) == keyLengthBytes {
		return decoded, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(decoded) == keyLengthBytes {
		return decoded, nil
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(trimmed); err == nil && len(decoded) == keyLengthBytes {
		return decoded, nil
	}
	if len(trimmed) == keyLengthBytes {
		return []byte(trimmed), nil
	}
	return nil, validationError("credentials.key must be 32 bytes as raw text, base64 or hex", nil)
}

func normalizeKey(key string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return "", validationError("credential key must not be empty", nil)
	}
	for _, part := range strings.Split(trimmed, "/") {
		if part == "" || part == "." || part == ".." {
			return "", validationError("credential key contains an invalid path segment", nil)
		}
	}
	return trimmed, nil
}

func expandHome(path string) string {
	expanded, err := securefile.ExpandHome(path)
	if err != nil {
		return path
	}
	return expanded
}

func randomBytes(length int) ([]byte, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return nil, err
	}
	return buffer, nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
