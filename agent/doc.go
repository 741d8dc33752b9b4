// Package agent provides the proactive conversational agent: a participant
// that owns a persona, a thought reservoir, and a memory store, and runs the
// formation, evaluation, and selection pipeline on every incoming event.
package agent
