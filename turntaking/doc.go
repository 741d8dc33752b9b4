// Package turntaking arbitrates the conversational floor. On each cycle it
// classifies the turn context per agent, runs every agent's thinking pipeline
// concurrently, waits at a single barrier with a per-agent timeout, and picks
// the winning thought to articulate as the next event. Silence is a valid
// outcome.
package turntaking
