// Package ports defines the interfaces that connect the application layer
// to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Logger]: Structured logging abstraction
//   - [StatusSink]: Consumer of status events emitted by the channel
//   - [Dialer]: Opens the stream connection to the simulation host
//   - [ConfigRepository]: Loads and saves the simulation configuration file
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with zerolog,
// net.Dialer, an in-memory event queue and the file system.
package ports
