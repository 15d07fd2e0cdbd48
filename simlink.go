// Package simlink is a remote-control channel for a running simulation.
//
// Example usage:
//
//	cfg := simlink.DefaultConfig()
//	cfg.Host = "10.0.0.5"
//	ch, err := simlink.Dial(context.Background(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ch.Close()
//	if err := ch.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// The full API, including plugins and event handlers, lives in
// github.com/helios-robotics/simlink/pkg/simlink.
package simlink

import (
	"context"

	"github.com/helios-robotics/simlink/pkg/simlink"
)

// Config holds the configuration of a channel.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = simlink.Config

// Channel is a connection to the simulation host.
type Channel = simlink.Channel

// Option configures a Channel.
type Option = simlink.Option

// DefaultConfig returns a Config for localhost:10000 with newline framing.
func DefaultConfig() Config {
	return simlink.DefaultConfig()
}

// New creates a channel without connecting it.
func New(cfg Config, opts ...Option) (*Channel, error) {
	return simlink.New(cfg, opts...)
}

// Dial creates a channel, opens its plugins and connects to cfg's endpoint.
// On failure nothing is left running.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Channel, error) {
	ch, err := simlink.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := ch.Open(ctx); err != nil {
		return nil, err
	}
	if err := ch.Connect(ctx); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return ch, nil
}
