package config

import "sync/atomic"

// Holder publishes the current configuration. Swapping it affects only
// readers that load it afterwards.
type Holder struct {
	path string
	cur  atomic.Pointer[Config]
}

// NewHolder returns a holder serving cfg. path is used by Reload.
func NewHolder(path string, cfg *Config) *Holder {
	h := &Holder{path: path}
	h.cur.Store(cfg)
	return h
}

// Get returns the current snapshot. Callers must not modify it.
func (h *Holder) Get() *Config { return h.cur.Load() }

// Reload re-reads the file. On error the previous snapshot stays current.
func (h *Holder) Reload() (*Config, error) {
	cfg, err := Load(h.path)
	if err != nil {
		return nil, err
	}
	h.cur.Store(cfg)
	return cfg, nil
}
