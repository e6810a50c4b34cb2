// ABOUTME: Package repl provides a line-oriented control shell
// ABOUTME: Used by the -repl flag as an alternative to the terminal UI
// Package repl lets a user play, stop and adjust pedals by typing commands.
package repl
