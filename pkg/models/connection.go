package models

// ConnectionType decides when a connection's target becomes eligible.
type ConnectionType string

const (
	ConnectionNormal      ConnectionType = "normal"      // Always follow
	ConnectionOnSuccess   ConnectionType = "on_success"  // Follow when the source task succeeded
	ConnectionOnFailure   ConnectionType = "on_failure"  // Follow when the source task failed
	ConnectionConditional ConnectionType = "conditional" // Follow when Condition evaluates true
)

// Connection is a directed edge between two tasks of the same workflow.
type Connection struct {
	SourceID  string         `json:"source_id" validate:"required"`
	TargetID  string         `json:"target_id" validate:"required"`
	Type      ConnectionType `json:"type"      validate:"required"`
	Condition string         `json:"condition,omitempty"` // Used only when Type is conditional
}

// Matches reports whether the connection joins the given endpoints,
// regardless of type.
func (c *Connection) Matches(sourceID, targetID string) bool {
	return c.SourceID == sourceID && c.TargetID == targetID
}
