/*
Package registry implements the wildlife-migration proof registry.

A proof is an observation claim identified by a 32-byte proof hash. Any principal can
submit one; the submission is validated, the configured submission fee is transferred
from the submitter to the verifier, and the proof is stored unverified under the next
dense id. The configured verifier then attests to it exactly once, within ProofExpiry
time units of its submission, which marks it verified and records an update entry.

Configuration is owned by the admin principal. Until a verifier is set, submissions are
rejected.

All operations are serialized by a single registry lock, so id allocation, the hash index,
the fee transfer and the counter change together or not at all.
*/
package registry
