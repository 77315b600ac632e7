// Package scheduler books service appointments. It builds the dealer
// availability pool for a run and picks a dealer and slot when a plan asks
// for one. Randomness is injected so runs can be reproduced from a seed.
package scheduler
