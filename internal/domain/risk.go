package domain

// RiskLevel is a traffic-light classification of one risk dimension.
type RiskLevel string

const (
	RiskGreen  RiskLevel = "green"
	RiskYellow RiskLevel = "yellow"
	RiskRed    RiskLevel = "red"
)

var riskLabels = map[RiskLevel]string{
	RiskGreen:  "Low risk",
	RiskYellow: "Watch",
	RiskRed:    "High risk",
}

// Label returns a human-readable label for the level.
func (r RiskLevel) Label() string {
	if label, ok := riskLabels[r]; ok {
		return label
	}

	return "Unknown"
}
