// Package model defines the narrow contracts to the external language
// capabilities the cognition cycle consumes: text generation, numeric
// scoring, embedding production and text segmentation. Provider adapters live
// in the openai and anthropic subpackages; deterministic mocks and offline
// local fallbacks are included here for tests and examples.
package model
