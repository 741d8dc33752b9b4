// Package core contains the foundational data model of the inner-thoughts
// cognition cycle: mental objects (thoughts and memories), conversation
// events, the shared Conversation container, participants and their
// proactivity configuration, plus the error taxonomy shared by the pipeline
// packages. Higher layers (saliency, reservoir, memory, thinking,
// turntaking) build exclusively on the types defined here.
package core
