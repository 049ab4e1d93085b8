// Package model contains the domain types shared across layers.
// These are pure data structures with no database or transport
// dependencies, so they can cross the HTTP, service, render and
// repository boundaries without coupling to any of them.
package model
