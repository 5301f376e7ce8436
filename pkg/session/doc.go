/*
Package session implements checkpoint management on top of a snapshot store.

A Manager serializes access to each session ID with reference counted local
locks and, optionally, a distributed lock so several processes can share one
store.
*/
package session
