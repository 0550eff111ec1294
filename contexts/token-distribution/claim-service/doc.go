// Package claimservice implements the phased, merkle-gated token claim
// verifier for the token-distribution context.
//
// The module owns distributor state (root, threshold, per-address claim
// counters) and exposes HTTP command/query handlers plus the worker
// entrypoint for outbox relay. Commitments are produced offline by the
// commitment-service module; this module only ever receives the root and,
// per call, one proof supplied by the claiming address.
package claimservice
