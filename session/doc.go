// Package session contains process-local implementations of
// core.SessionStore and core.AnswerStore. The interfaces live in core;
// durable backends can be supplied at wiring time without touching the
// coordinator.
package session
