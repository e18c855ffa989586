package eventship

import (
	"fmt"
	"sync"

	"github.com/bft-labs/eventship/internal/domain"
)

// The process-wide instance registry. The first client created becomes the
// default; clients with an InstanceID are additionally retrievable by name.
var (
	registryMu      sync.RWMutex
	instances       = make(map[string]*Client)
	defaultInstance *Client
)

// register records a newly created client. Duplicate instance IDs are
// rejected so two independent batchers never shadow each other.
func register(id string, c *Client) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if id != "" {
		if _, exists := instances[id]; exists {
			return fmt.Errorf("%w: duplicate instance id %q", domain.ErrInvalidConfig, id)
		}
		instances[id] = c
	}
	if defaultInstance == nil {
		defaultInstance = c
	}
	return nil
}

// Instance returns the client registered under the given instance ID, or nil
// if no such client exists.
func Instance(id string) *Client {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return instances[id]
}

// Default returns the first client created in this process, or nil if none
// has been created yet.
func Default() *Client {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return defaultInstance
}
