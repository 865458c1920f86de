package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const stateFile = "state.json"

// ErrNoSelectedAgency is returned when no agency has been persisted.
var ErrNoSelectedAgency = errors.New("no agency selected")

// Cookie is a persisted session cookie.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Profile is the durable state kept for one API server.
type Profile struct {
	// SelectedAgencyID keeps the key name used by the web console.
	SelectedAgencyID *int64    `json:"selectedAgencyId,omitempty"`
	Cookies          []Cookie  `json:"cookies,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// State represents the state file.
type State struct {
	Version  int                 `json:"version"`
	Profiles map[string]*Profile `json:"profiles"`
}

// Store manages client state on the local filesystem.
type Store struct {
	baseDir string

	mu sync.Mutex
}

// NewStore creates a new state store.
// If baseDir is empty, uses ~/.agencyctl/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}

	// Create directory with 0700 permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	store := &Store{baseDir: baseDir}

	if err := store.ensureState(); err != nil {
		return nil, err
	}

	log.Debug().Str("baseDir", baseDir).Msg("state store initialized")

	return store, nil
}

// DefaultDir returns ~/.agencyctl.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".agencyctl"), nil
}

// Dir returns the directory holding the state file.
func (s *Store) Dir() string {
	return s.baseDir
}

// Server returns the state scoped to one API server. Cookies and the
// selected agency never leak between servers.
func (s *Store) Server(serverURL string) *ServerState {
	return &ServerState{store: s, key: strings.TrimRight(serverURL, "/")}
}

// ServerState reads and writes one server's Profile. It implements
// client.CookieStore and the session's durable agency store.
type ServerState struct {
	store *Store
	key   string
}

// SelectedAgency returns the persisted agency id.
func (p *ServerState) SelectedAgency() (int64, error) {
	var id *int64
	err := p.store.view(func(st *State) {
		if prof, ok := st.Profiles[p.key]; ok {
			id = prof.SelectedAgencyID
		}
	})
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, ErrNoSelectedAgency
	}
	return *id, nil
}

// SetSelectedAgency persists id; nil clears the selection.
func (p *ServerState) SetSelectedAgency(id *int64) error {
	err := p.store.update(p.key, func(prof *Profile) {
		prof.SelectedAgencyID = id
	})
	if err != nil {
		return err
	}

	log.Debug().Str("server", p.key).Msg("selected agency saved")

	return nil
}

// LoadCookies implements client.CookieStore.
func (p *ServerState) LoadCookies() ([]*http.Cookie, error) {
	var cookies []*http.Cookie
	err := p.store.view(func(st *State) {
		prof, ok := st.Profiles[p.key]
		if !ok {
			return
		}
		for _, c := range prof.Cookies {
			cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
		}
	})
	return cookies, err
}

// SaveCookies implements client.CookieStore.
func (p *ServerState) SaveCookies(cookies []*http.Cookie) error {
	return p.store.update(p.key, func(prof *Profile) {
		prof.Cookies = prof.Cookies[:0]
		for _, c := range cookies {
			prof.Cookies = append(prof.Cookies, Cookie{Name: c.Name, Value: c.Value})
		}
	})
}

func (s *Store) view(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadState()
	if err != nil {
		return err
	}
	fn(st)
	return nil
}

func (s *Store) update(key string, fn func(*Profile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadState()
	if err != nil {
		return err
	}

	prof, ok := st.Profiles[key]
	if !ok {
		prof = &Profile{}
		st.Profiles[key] = prof
	}
	fn(prof)
	prof.UpdatedAt = time.Now().UTC()

	return s.saveState(st)
}

// ensureState creates an empty state file if it doesn't exist.
func (s *Store) ensureState() error {
	statePath := filepath.Join(s.baseDir, stateFile)

	if _, err := os.Stat(statePath); err == nil {
		return nil
	}

	return s.saveState(&State{
		Version:  1,
		Profiles: make(map[string]*Profile),
	})
}

// loadState reads the state file.
func (s *Store) loadState() (*State, error) {
	statePath := filepath.Join(s.baseDir, stateFile)

	data, err := os.ReadFile(statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}

	if st.Profiles == nil {
		st.Profiles = make(map[string]*Profile)
	}

	return &st, nil
}

// saveState writes the state file atomically.
func (s *Store) saveState(st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Write to temp file first
	statePath := filepath.Join(s.baseDir, stateFile)
	tempPath := statePath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, statePath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}
