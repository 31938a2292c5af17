// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding models, vector indexes,
// generation services, and stores.
package driven
