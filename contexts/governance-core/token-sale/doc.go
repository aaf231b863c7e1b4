// Package tokensale implements the governance token sale inside the
// governance-core context.
//
// The module exchanges the 6-decimal payment asset for 18-decimal voting
// power at a fixed 1:1 rate after decimal rescale, and exposes the
// administrator treasury withdrawal of collected proceeds. Its ledger is the
// balance authority the proposal engine reads voting power from.
package tokensale
