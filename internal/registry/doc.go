// Package registry tracks registered users and which of them currently hold
// a live delivery channel.
//
// Users are persisted under user/{name} as JSON and loaded on Open.
// Presence is in memory only: last connect wins, and a disconnect from a
// superseded session never clears the newer one.
package registry
