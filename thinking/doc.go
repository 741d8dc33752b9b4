// Package thinking implements the thought formation pipeline: fast System 1
// reactions, deliberate System 2 thoughts grounded in retrieved context,
// motivation scoring, selection, and articulation into an utterance.
package thinking
