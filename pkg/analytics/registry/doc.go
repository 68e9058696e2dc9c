// Package registry tracks analytics integration registrations and derives
// the readiness gate from them.
//
// Each integration registers under a process-unique key and receives a ready
// callback. The gate is true once every registered key has called its
// callback; an empty registry is vacuously ready. There is no unregister
// operation: a registration lives for the lifetime of the process.
//
// The gate is recomputed by full scan on demand. Registration count is
// bounded by the number of mounted integrations, so the scan is cheap.
package registry
