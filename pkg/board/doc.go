// ABOUTME: Pedalboard orchestration package
// ABOUTME: Owns the engine, builds and routes the chain and controls playback
// Package board assembles a complete pedalboard: it creates the engine
// context, opens the source and output, builds the chain
// source -> overdrive -> reverb -> volume -> cabinet -> output, routes it,
// mounts each pedal on a presentation host and applies startup settings.
//
// Example:
//
//	b, err := board.New(board.Config{AudioFile: "sample.mp3"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//	if err := b.Init(); err != nil {
//		log.Fatal(err)
//	}
//	b.Play()
//
// State machine:
//
//	Uninitialized --Init--> Ready <--Play/Stop--> Playing
//
// A failed Init leaves the board Failed. Failed and Closed are terminal.
package board
