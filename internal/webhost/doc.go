// ABOUTME: WebSocket presentation host package
// ABOUTME: Serves the pedalboard to browsers and accepts play, stop and knob commands
// Package webhost exposes a running pedalboard over WebSocket.
//
// The Server is a pedal.Host: mounted pedals and their updates are pushed to
// every connected client as pedal/mount and pedal/update messages. Clients
// open with client/hello and may then send board/play, board/stop,
// board/set and board/engage. The server can advertise itself over mDNS.
package webhost
