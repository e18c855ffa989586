// Package ports defines the interfaces (ports) that connect the batching
// core to infrastructure adapters.
//
// Ports are the boundaries between the application core and the outside
// world. They define what the core needs from external systems without
// specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [BatchSender]: Sends batches of events to the ingestion service
//   - [TransportNotifier]: Delivers out-of-band transport notices
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (HTTP, zerolog, etc.), which keeps the batching logic
// testable with mocks and the transport swappable.
package ports
