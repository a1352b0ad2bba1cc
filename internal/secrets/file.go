// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package secrets

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	// FileBackendPriority is the priority for encrypted file backend.
	FileBackendPriority = 25

	// MasterKeyEnv names the environment variable holding the file backend master key.
	MasterKeyEnv = "NTFY_MASTER_KEY"

	argon2Time        = 3
	argon2Memory      = 64 * 1024 // KiB
	argon2Parallelism = 4
	argon2KeyLength   = 32 // AES-256

	saltSize = 16
)

// FileBackend stores secrets in one AES-256-GCM encrypted JSON file. The
// encryption key is derived from the master key with Argon2id and a fresh
// salt on every write.
type FileBackend struct {
	path      string
	masterKey []byte
	mu        sync.RWMutex
}

// envelope is the on-disk format.
type envelope struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// DefaultSecretsPath returns $XDG_CONFIG_HOME/conductor-ntfy/secrets.enc.
func DefaultSecretsPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "conductor-ntfy", "secrets.enc"), nil
}

// NewFileBackend creates an encrypted file backend. An empty path selects
// DefaultSecretsPath; an empty masterKey falls back to $NTFY_MASTER_KEY. Without
// a master key the backend reports itself unavailable.
func NewFileBackend(path string, masterKey string) (*FileBackend, error) {
	if path == "" {
		p, err := DefaultSecretsPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if masterKey == "" {
		masterKey = os.Getenv(MasterKeyEnv)
	}

	f := &FileBackend{path: path}
	if masterKey != "" {
		f.masterKey = []byte(masterKey)
	}
	return f, nil
}

// Name returns the backend identifier.
func (f *FileBackend) Name() string {
	return "file"
}

// Path returns the secrets file location.
func (f *FileBackend) Path() string {
	return f.path
}

// Get retrieves a secret from the encrypted file.
func (f *FileBackend) Get(ctx context.Context, key string) (string, error) {
	if !f.Available() {
		return "", f.unavailable()
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	secrets, err := f.load()
	if err != nil {
		return "", err
	}
	value, ok := secrets[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	return value, nil
}

// Set stores a secret in the encrypted file.
func (f *FileBackend) Set(ctx context.Context, key string, value string) error {
	if !f.Available() {
		return f.unavailable()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	secrets, err := f.load()
	if err != nil {
		return err
	}
	secrets[key] = value
	return f.save(secrets)
}

// Delete removes a secret from the encrypted file.
func (f *FileBackend) Delete(ctx context.Context, key string) error {
	if !f.Available() {
		return f.unavailable()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	secrets, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := secrets[key]; !ok {
		return fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	delete(secrets, key)
	return f.save(secrets)
}

// Available returns true when a master key is configured.
func (f *FileBackend) Available() bool {
	return len(f.masterKey) > 0
}

// Priority returns FileBackendPriority.
func (f *FileBackend) Priority() int {
	return FileBackendPriority
}

func (f *FileBackend) unavailable() error {
	return fmt.Errorf("%w: master key not set (export %s)", ErrBackendUnavailable, MasterKeyEnv)
}

// load decrypts the secrets file. A missing file is an empty store.
func (f *FileBackend) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid secrets file format: %w", err)
	}

	plaintext, err := open(f.masterKey, env)
	if err != nil {
		return nil, err
	}
	defer clear(plaintext)

	secrets := map[string]string{}
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("invalid decrypted data format: %w", err)
	}
	return secrets, nil
}

// save encrypts secrets and atomically replaces the file with mode 0600.
func (f *FileBackend) save(secrets map[string]string) error {
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}
	defer clear(plaintext)

	env, err := seal(f.masterKey, plaintext)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal secrets file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace secrets file: %w", err)
	}
	return nil
}

func newGCM(masterKey, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(masterKey, salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLength)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func seal(masterKey, plaintext []byte) (envelope, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return envelope{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	gcm, err := newGCM(masterKey, salt)
	if err != nil {
		return envelope{}, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return envelope{}, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return envelope{Salt: salt, Nonce: nonce, Data: gcm.Seal(nil, nonce, plaintext, nil)}, nil
}

func open(masterKey []byte, env envelope) ([]byte, error) {
	gcm, err := newGCM(masterKey, env.Salt)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != gcm.NonceSize() {
		return nil, errors.New("invalid secrets file: bad nonce")
	}
	plaintext, err := gcm.Open(nil, env.Nonce, env.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong master key or corrupted data): %w", err)
	}
	return plaintext, nil
}
