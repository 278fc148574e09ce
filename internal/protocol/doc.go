// Package protocol owns the fixed-size frame wire contract.
//
// Ownership boundary:
// - frame: encoder, validator, 20-byte layout
// - reassembly: per-stream frame cache and payload assembly
package protocol
