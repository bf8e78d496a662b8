package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Event types written by the engine.
const (
	AdvisorCreated        = "advisor.created"
	APIKeyCreated         = "api_key.created"
	APIKeyRevoked         = "api_key.revoked"
	ClientCreated         = "client.created"
	PropertyCreated       = "property.created"
	PropertyUpdated       = "property.updated"
	ScheduleCreated       = "schedule.created"
	ScheduleStatusChanged = "schedule.status_changed"
	RemindersSent         = "reminders.digest"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

// Append records an activity event inside tx so it commits with the change
// it describes.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, advisorID, entityKind, entityID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,advisor_id,entity_kind,entity_id,payload_json) VALUES (?,?,?,?,?,?)`,
		ts, evtType, nullable(advisorID), entityKind, nullable(entityID), string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
