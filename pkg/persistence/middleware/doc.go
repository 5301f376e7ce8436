// Package middleware provides decorators for ports.SnapshotStore.
package middleware
