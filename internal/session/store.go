// ABOUTME: Session persistence contract and the in-memory and file implementations
// ABOUTME: Credentials and user are always written and cleared as one document

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/markalston/placement-cli/internal/model"
)

// Persisted is the stored session document.
type Persisted struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         json.RawMessage `json:"user"`
}

// Credentials returns the stored token pair.
func (p Persisted) Credentials() model.Credentials {
	return model.Credentials{Access: p.AccessToken, Refresh: p.RefreshToken}
}

// Complete reports whether both credentials and user are present.
func (p *Persisted) Complete() bool {
	return p != nil && p.AccessToken != "" && len(p.User) > 0 && string(p.User) != "null"
}

func newPersisted(creds model.Credentials, u model.User) (Persisted, error) {
	data, err := model.EncodeUser(u)
	if err != nil {
		return Persisted{}, err
	}
	return Persisted{AccessToken: creds.Access, RefreshToken: creds.Refresh, User: data}, nil
}

// ErrCorruptSession is returned by Load when the stored document cannot be
// decoded. Other Load errors are treated as transient.
var ErrCorruptSession = errors.New("corrupt session")

// Store persists the session across process restarts. Load returns
// (nil, nil) when nothing is stored.
type Store interface {
	Load(ctx context.Context) (*Persisted, error)
	Save(ctx context.Context, p Persisted) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu sync.Mutex
	p  *Persisted
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*Persisted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.p == nil {
		return nil, nil
	}
	cp := *s.p
	cp.User = append(json.RawMessage(nil), s.p.User...)
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, p Persisted) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.User = append(json.RawMessage(nil), p.User...)
	s.p = &p
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = nil
	return nil
}

// FileStore keeps the session in a 0600 JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore stores the session as session.json under dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, "session.json")}
}

// Path returns the session file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context) (*Persisted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var p Persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w file %s: %v", ErrCorruptSession, s.path, err)
	}
	return &p, nil
}

func (s *FileStore) Save(_ context.Context, p Persisted) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
