// Package domain contains the core entities and value objects of the
// simulation control channel.
//
// This package is the innermost layer. It has no dependencies on sockets,
// files or logging and holds only the data model and its invariants.
//
// # Entities
//
//   - [Endpoint]: host/port pair identifying the simulation host
//   - [Envelope]: a typed message unit (command, config, or unknown)
//   - [ConfigPayload]: the simulation configuration mapping
//   - [StatusEvent]: a status line emitted by the channel to its sink
//
// # Design Principles
//
// Domain entities are:
//   - Free of infrastructure dependencies
//   - Comparable with reflect.DeepEqual after a JSON round trip
//   - Testable without mocks or external systems
package domain
