package config

import (
	"fmt"
	"sync"
)

// Store persists the boolean preference flags that outlive a single process,
// currently just the legacy-encryption marker. Writes go straight to disk so
// a crash after SetBool cannot resurrect a cleared flag.
type Store struct {
	mu  sync.Mutex
	dir string
	cfg Config
}

func NewStore(dataDir string) (*Store, error) {
	cfg, err := Load(dataDir)
	if err != nil {
		return nil, err
	}
	return &Store{dir: dataDir, cfg: cfg}, nil
}

func (s *Store) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *Store) GetBool(key string, def bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case KeyLegacyEncryption:
		return s.cfg.Database.LegacyEncryption
	default:
		return def
	}
}

func (s *Store) SetBool(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case KeyLegacyEncryption:
		s.cfg.Database.LegacyEncryption = value
	default:
		return fmt.Errorf("%w: unknown flag %q", ErrInvalidConfig, key)
	}
	return Save(s.dir, s.cfg)
}
