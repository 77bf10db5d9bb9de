// Package embeds holds the built-in embed implementations and their
// registration wiring. Each embed is a draw function over a frame
// context and its bootstrap document; the geo embed additionally
// shares a per-family lookup through the coordinator.
package embeds
