// Package memoryhost provides an in-process sessions.Store. It is the
// default for single-instance deployments and for tests; sessions do not
// survive process restart.
package memoryhost
