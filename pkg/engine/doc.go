// ABOUTME: In-process audio engine package
// ABOUTME: Registers processing stages, links them and pumps blocks through the graph
// Package engine is the audio backend the pedalboard's nodes wrap.
//
// A Context owns a set of registered stages (one source, any number of
// processors, one sink) and the directed links between them. Start spawns a
// pump goroutine that pulls a block from the source, runs it through each
// linked stage in link order, and pushes it to the sink. Start and Stop
// return immediately; Wait blocks until the pump has exited.
//
// Example:
//
//	ctx := engine.New(engine.Config{SampleRate: 48000, Channels: 2})
//	src := ctx.Register("tone", engine.KindSource, pull)
//	out := ctx.Register("speakers", engine.KindSink, push)
//	err := ctx.Link(src, out)
//	err = ctx.Start()
package engine
