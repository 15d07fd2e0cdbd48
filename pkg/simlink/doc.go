// Package simlink provides an embeddable control channel to a robotics
// simulation host.
//
// A Channel owns one TCP connection to the simulation, sends JSON command
// and configuration envelopes over it, and reports everything that happens
// (connects, sends, inbound messages, failures) as status events.
//
// # Basic Usage
//
//	ch, err := simlink.New(simlink.Config{Host: "localhost", Port: 10000})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ch.Close()
//
//	if err := ch.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := ch.Start(); err != nil {
//	    log.Printf("start: %v", err)
//	}
//
// # Status Events
//
// Events are queued in a bounded, non-blocking [EventQueue] returned by
// [Channel.Events]. Drain it from the goroutine that owns your UI or log:
//
//	for {
//	    ev, err := ch.Events().Next(ctx)
//	    if err != nil {
//	        return
//	    }
//	    fmt.Println(ev)
//	}
//
// To observe events synchronously instead, pass [WithEventHandler] or
// [WithStatusSink]. Those are called from the receiver goroutine and must
// return quickly.
//
// # Connection States
//
// A Channel is in one of five states: [StateIdle], [StateConnecting],
// [StateConnected], [StateDisconnecting] or [StateFailed]. Sends are only
// attempted in StateConnected; otherwise they fail with [ErrNotConnected]
// without touching the network. A peer close or failed write returns the
// channel to StateIdle on its own.
//
// # Wire Format
//
// Each envelope is one line of JSON:
//
//	{"type":"command","content":{"command":"start","parameters":{}}}
//	{"type":"config","content":{"rosIPAddress":"127.0.0.1",...}}
//
// Set Config.Framing to "raw" for peers that expect one unterminated JSON
// document per write.
//
// # Plugins
//
//	import "github.com/helios-robotics/simlink/plugins/configwatcher"
//
//	ch, err := simlink.New(cfg, configwatcher.WithDefaultConfigWatcher())
//	_ = ch.Open(ctx) // starts the plugins
package simlink
