package domain

// Mode selects which execution gateway serves the quantum half of a run.
type Mode string

const (
	ModeSimulator Mode = "simulator"
	ModeHardware  Mode = "hardware"
)

// ClassicalArtifact is the file name of the classical histogram.
const ClassicalArtifact = "classical_histogram.png"

// ClassicalTitle is the chart title of the classical histogram.
const ClassicalTitle = "Classical Coin Flip"

// Artifact returns the file name of the quantum histogram for this mode.
func (m Mode) Artifact() string {
	if m == ModeHardware {
		return "real_device_histogram.png"
	}
	return "simulator_histogram.png"
}

// Title returns the chart title of the quantum histogram for this mode.
func (m Mode) Title() string {
	if m == ModeHardware {
		return "Quantum Coin Flip (Real Device)"
	}
	return "Quantum Coin Flip (Simulator)"
}

// Description is the human readable target used in console messages.
func (m Mode) Description() string {
	if m == ModeHardware {
		return "Real Device"
	}
	return "Simulator"
}
