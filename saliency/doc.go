// Package saliency implements the scoring machinery that decides which
// mental objects surface during retrieval: cosine similarity, lazy
// exponential decay, a monotonic rank combination and event-driven
// recalibration that re-boosts objects a new event makes relevant again.
package saliency
