package models

// Intent captures a client-issued request to mutate session state. The engine
// validates it against current state and configuration before committing.
type Intent struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}
