package zcl

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds the cluster definitions known to the hub: the standard
// clusters the remotes signal on plus any vendor clusters profiles declare.
type Registry struct {
	mu       sync.RWMutex
	clusters map[uint16]*ClusterDef
	logger   *slog.Logger
}

// NewRegistry creates a registry pre-loaded with the standard clusters.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		clusters: make(map[uint16]*ClusterDef),
		logger:   logger,
	}
	for _, c := range standardClusters {
		r.Register(c)
	}
	return r
}

// Register adds or replaces a cluster definition.
func (r *Registry) Register(c ClusterDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := c
	r.clusters[c.ID] = &clone
	r.logger.Debug("cluster registered", "id", fmt.Sprintf("0x%04X", c.ID), "name", c.Name)
}

// Get returns a cluster definition by ID, or nil if not found.
func (r *Registry) Get(id uint16) *ClusterDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clusters[id]
}

// Name returns a readable name for a cluster ID, falling back to hex.
func (r *Registry) Name(id uint16) string {
	if c := r.Get(id); c != nil {
		return c.Name
	}
	return fmt.Sprintf("0x%04X", id)
}

// CommandName returns "Cluster.Command" for log rendering, with hex
// fallbacks for unknown values.
func (r *Registry) CommandName(cluster uint16, command uint8) string {
	c := r.Get(cluster)
	if c == nil {
		return fmt.Sprintf("0x%04X.0x%02X", cluster, command)
	}
	if name := c.CommandName(command); name != "" {
		return c.Name + "." + name
	}
	return fmt.Sprintf("%s.0x%02X", c.Name, command)
}

// All returns every registered cluster definition.
func (r *Registry) All() []ClusterDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]ClusterDef, 0, len(r.clusters))
	for _, c := range r.clusters {
		result = append(result, *c)
	}
	return result
}
