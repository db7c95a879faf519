// Package credentials stores named OAuth1 profiles for the xws CLI.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/xws/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

// Environment variables overriding the stored profile fields.
const (
	EnvConsumerKey    = "XWS_CONSUMER_KEY"
	EnvConsumerSecret = "XWS_CONSUMER_SECRET"
	EnvAccessToken    = "XWS_ACCESS_TOKEN"
	EnvAccessSecret   = "XWS_ACCESS_SECRET"
)

// ErrNoProfile is returned by Resolve when neither the file nor the
// environment provide application credentials.
var ErrNoProfile = errors.New("no credentials profile")

// Manager manages reading and writing credentials.toml in the .xws/ directory.
type Manager struct {
	ddm        *dotdir.Manager
	targetPath string
}

// NewManager creates a new credentials Manager. If override is non-empty it is
// used as the .xws/ directory; otherwise the standard dotdir resolution applies.
func NewManager(override string) (*Manager, error) {
	mgr := &Manager{}
	mgr.ddm = dotdir.NewManager()

	target, err := mgr.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	mgr.targetPath = filepath.Join(target, credentialsFile)

	return mgr, nil
}

// Load reads credentials.toml from the target directory.
// Returns an empty Credentials if the file does not exist.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{
				Version:  currentVersion,
				Profiles: make(map[string]Profile),
			}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	if creds.Profiles == nil {
		creds.Profiles = make(map[string]Profile)
	}

	return creds, nil
}

// Save writes credentials to credentials.toml with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// SetProfile stores p under name, replacing any previous profile.
func (m *Manager) SetProfile(name string, p Profile) error {
	if name == "" {
		return errors.New("profile name cannot be empty")
	}

	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Profiles[name] = p

	return m.Save(creds)
}

// GetProfile returns the stored profile and whether it exists.
func (m *Manager) GetProfile(name string) (Profile, bool, error) {
	creds, err := m.Load()
	if err != nil {
		return Profile{}, false, err
	}

	p, ok := creds.Profiles[name]
	return p, ok, nil
}

// RemoveProfile deletes the stored profile.
func (m *Manager) RemoveProfile(name string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	delete(creds.Profiles, name)

	return m.Save(creds)
}

// ListProfiles returns the sorted names of stored profiles.
func (m *Manager) ListProfiles() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(creds.Profiles))
	for name := range creds.Profiles {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

// Resolve returns the named profile with environment overrides applied.
// A profile missing from the file is fine as long as the environment
// supplies the consumer credentials.
func (m *Manager) Resolve(name string) (Profile, error) {
	p, _, err := m.GetProfile(name)
	if err != nil {
		return Profile{}, err
	}

	p = applyEnv(p)
	if !p.HasConsumer() {
		return Profile{}, fmt.Errorf("%w %q: run 'xws auth set' or set %s and %s",
			ErrNoProfile, name, EnvConsumerKey, EnvConsumerSecret)
	}

	return p, nil
}

func applyEnv(p Profile) Profile {
	for env, field := range map[string]*string{
		EnvConsumerKey:    &p.ConsumerKey,
		EnvConsumerSecret: &p.ConsumerSecret,
		EnvAccessToken:    &p.AccessToken,
		EnvAccessSecret:   &p.AccessSecret,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	return p
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}
