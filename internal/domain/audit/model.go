package audit

import "time"

// Actions recorded by the mutation layer.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entry maps to the audit_logs table.
type Entry struct {
	ID          int64          `db:"audit_id" json:"audit_id"`
	ActorUserID *int64         `db:"actor_user_id" json:"actor_user_id,omitempty"`
	EntityType  string         `db:"entity_type" json:"entity_type"`
	EntityID    string         `db:"entity_id" json:"entity_id"`
	Action      string         `db:"action" json:"action"`
	Details     map[string]any `db:"details" json:"details"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
