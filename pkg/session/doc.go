/*
Package session keeps conversation threads alive across invocations.

A session is a checkpoint of channel values stored behind ports.StateStore.
Manager.Invoke loads the checkpoint, merges the caller's input through the
graph's reducers (so a new user message is appended to the history), runs the
graph and saves the terminal State. Access to one session is serialized by a
reference-counted local mutex and, optionally, a distributed lock so several
replicas can share a Redis-backed store.
*/
package session
