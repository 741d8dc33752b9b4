package core

// ProactivityConfig tunes how eagerly an agent participates in conversation.
// Validation happens once at agent construction; an invalid configuration is
// rejected with a ConfigurationError rather than being silently clamped.
type ProactivityConfig struct {
	// System1Prob is the probability of forming a fast reactive thought on
	// each trigger, in [0,1].
	System1Prob float64

	// IMThreshold is the minimum intrinsic motivation to speak on an open
	// turn, in [1,5].
	IMThreshold float64

	// InterruptThreshold is the minimum intrinsic motivation to seize a turn
	// allocated to someone else, in [1,5].
	InterruptThreshold float64

	// ProactiveTone makes articulation assertive rather than tentative.
	ProactiveTone bool
}

// DefaultProactivityConfig returns a moderately proactive configuration.
func DefaultProactivityConfig() ProactivityConfig {
	return ProactivityConfig{
		System1Prob:        0.5,
		IMThreshold:        3.0,
		InterruptThreshold: 4.5,
	}
}

// Validate checks all fields against their documented ranges.
func (c ProactivityConfig) Validate() error {
	if c.System1Prob < 0 || c.System1Prob > 1 {
		return &ConfigurationError{Field: "System1Prob", Value: c.System1Prob, Reason: "must be in [0,1]"}
	}
	if c.IMThreshold < MotivationMin || c.IMThreshold > MotivationMax {
		return &ConfigurationError{Field: "IMThreshold", Value: c.IMThreshold, Reason: "must be in [1,5]"}
	}
	if c.InterruptThreshold < MotivationMin || c.InterruptThreshold > MotivationMax {
		return &ConfigurationError{Field: "InterruptThreshold", Value: c.InterruptThreshold, Reason: "must be in [1,5]"}
	}
	return nil
}
