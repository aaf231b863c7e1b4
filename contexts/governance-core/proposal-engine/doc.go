// Package proposalengine implements the governance proposal engine inside
// the governance-core context.
//
// The module owns the proposal lifecycle (create/cancel/execute), the
// single-vote-per-account tallying engine, quorum arithmetic over the live
// power supply, and the pure state machine that derives a proposal's
// lifecycle state from time, flags, and tallies. Business rules live in
// application/domain layers; infrastructure stays behind ports and adapters.
package proposalengine
