package evac

import "encoding/json"

// Event is one engine occurrence, stamped with the round and the schedule
// time at which it happened.
type Event struct {
	Step    int            `json:"step"`
	T       float64        `json:"t"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Result struct {
	Steps     int     `json:"steps"`
	Evacuated int     `json:"evacuated"`
	Remaining int     `json:"remaining"`
	Done      bool    `json:"done"`
	Time      float64 `json:"time"`
	// Curve[i] is the number of agents present after i steps.
	Curve  []int   `json:"curve"`
	Events []Event `json:"events,omitempty"`
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
