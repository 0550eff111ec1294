// Package commitmentservice implements the offline commitment builder for
// the token-distribution context: it turns an ordered list of
// (address, allocation) pairs into a merkle root plus one inclusion proof
// per address. The builder runs entirely off the claim trust boundary; the
// verifier only ever receives the root and individual proofs.
package commitmentservice
