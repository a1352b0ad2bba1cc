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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFileBackend(t *testing.T, masterKey string) *FileBackend {
	t.Helper()
	backend, err := NewFileBackend(filepath.Join(t.TempDir(), "secrets.enc"), masterKey)
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	return backend
}

func TestFileBackend_Unavailable(t *testing.T) {
	t.Setenv(MasterKeyEnv, "")
	backend := newTestFileBackend(t, "")

	if backend.Available() {
		t.Fatal("Available() = true without master key")
	}
	if _, err := backend.Get(context.Background(), "key"); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Get() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestFileBackend_MasterKeyFromEnv(t *testing.T) {
	t.Setenv(MasterKeyEnv, "from-env")
	backend := newTestFileBackend(t, "")

	if !backend.Available() {
		t.Error("Available() = false with NTFY_MASTER_KEY set")
	}
}

func TestFileBackend_RoundTrip(t *testing.T) {
	backend := newTestFileBackend(t, "correct horse battery staple")
	ctx := context.Background()

	if _, err := backend.Get(ctx, "ntfy/home/token"); !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("Get() on empty store error = %v, want ErrSecretNotFound", err)
	}

	if err := backend.Set(ctx, "ntfy/home/token", "tk_secret"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := backend.Set(ctx, "ntfy/home/password", "pw"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err := backend.Get(ctx, "ntfy/home/token")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "tk_secret" {
		t.Errorf("Get() = %q, want %q", value, "tk_secret")
	}

	raw, err := os.ReadFile(backend.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if strings.Contains(string(raw), "tk_secret") {
		t.Error("secrets file contains plaintext value")
	}

	info, err := os.Stat(backend.Path())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	if err := backend.Delete(ctx, "ntfy/home/token"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := backend.Get(ctx, "ntfy/home/token"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrSecretNotFound", err)
	}
	if err := backend.Delete(ctx, "ntfy/home/token"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("second Delete() error = %v, want ErrSecretNotFound", err)
	}

	value, err = backend.Get(ctx, "ntfy/home/password")
	if err != nil || value != "pw" {
		t.Errorf("Get(password) = %q, %v; want pw", value, err)
	}
}

func TestFileBackend_WrongMasterKey(t *testing.T) {
	backend := newTestFileBackend(t, "right")
	ctx := context.Background()

	if err := backend.Set(ctx, "key", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	other, err := NewFileBackend(backend.Path(), "wrong")
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	_, err = other.Get(ctx, "key")
	if err == nil || !strings.Contains(err.Error(), "decryption failed") {
		t.Errorf("Get() with wrong key error = %v, want decryption failure", err)
	}
}

func TestFileBackend_CorruptFile(t *testing.T) {
	backend := newTestFileBackend(t, "key")
	if err := os.WriteFile(backend.Path(), []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := backend.Get(context.Background(), "key")
	if err == nil || !strings.Contains(err.Error(), "invalid secrets file format") {
		t.Errorf("Get() error = %v, want format error", err)
	}
}

func TestDefaultSecretsPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")

	path, err := DefaultSecretsPath()
	if err != nil {
		t.Fatalf("DefaultSecretsPath() error = %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join("conductor-ntfy", "secrets.enc")) {
		t.Errorf("DefaultSecretsPath() = %q", path)
	}
}
