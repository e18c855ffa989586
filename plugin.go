package eventship

import "context"

// Plugin extends a client with optional behavior, such as config file
// watching. Plugins are initialized on Start() in registration order and
// shut down on Stop() in reverse order.
type Plugin interface {
	// Name returns a short identifier used in logs.
	Name() string

	// Initialize sets up the plugin. Returning an error aborts Start().
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown tears down the plugin.
	Shutdown(ctx context.Context) error
}

// PluginConfig provides plugins access to the client they are attached to.
type PluginConfig struct {
	// Client is the owning client. Plugins may retune it
	// (SetMaxBatchSize, SetBatchInterval) or trigger flushes.
	Client *Client

	// InstanceID is the client's instance identifier, if any.
	InstanceID string

	// Endpoint is the configured ingestion service URL.
	Endpoint string

	// Logger is the client's logger.
	Logger Logger
}
