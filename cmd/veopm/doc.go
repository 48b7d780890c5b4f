// Package main hosts the veopm CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into shot
// lifecycle transitions, project store maintenance, library asset handling,
// and vault sync operations. It centralizes configuration resolution, store
// opening, and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
