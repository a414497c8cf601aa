package fields

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/timerd/timerd/apperr"
	"gorm.io/gorm"
)

// Timer states as stored on TimerRecord.
const (
	StateCreated = "created"
	StateRunning = "running"
	StateStopped = "stopped"
	StateExpired = "expired"
)

// TimerRecord is the persisted view of a managed timer. The live countdown
// itself is held in memory by the scheduler; this row is what survives it.
type TimerRecord struct {
	gorm.Model
	UUID           string     `json:"uuid" gorm:"index:idx_timer_uuid,unique"`
	DurationMicros int64      `json:"duration_micros"`
	ElapsedMicros  int64      `json:"elapsed_micros"`
	State          string     `json:"state" gorm:"default:created"`
	Expired        bool       `json:"expired" gorm:"default:false"`
	WebhookURL     string     `json:"webhook_url,omitempty"`
	Payload        string     `json:"payload,omitempty"`
	UserID         uint       `json:"user_id,omitempty"`
	FiredAt        *time.Time `json:"fired_at,omitempty"`
}

// Response converts the record to its API shape.
func (t TimerRecord) Response() TimerResponse {
	return TimerResponse{
		UUID:           t.UUID,
		State:          t.State,
		DurationMicros: t.DurationMicros,
		ElapsedMicros:  t.ElapsedMicros,
		Expired:        t.Expired,
		WebhookURL:     t.WebhookURL,
		Payload:        t.Payload,
		FiredAt:        t.FiredAt,
	}
}

// GetTimerByUUID retrieves a timer record from the database by its uuid.
func GetTimerByUUID(uuid string, db *gorm.DB) (TimerRecord, error) {
	var record TimerRecord
	result := db.First(&record, "uuid = ?", uuid)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return record, apperr.Wrap(result.Error, apperr.ErrNotFound, "timer not found")
	}
	if result.Error != nil {
		return record, apperr.Wrap(result.Error, apperr.ErrDatabase, "")
	}
	return record, nil
}

// ListTimers returns a page of timer records, newest first.
func ListTimers(db *gorm.DB, offset, limit int) ([]TimerRecord, error) {
	var records []TimerRecord
	result := db.Order("id desc").Offset(offset).Limit(limit).Find(&records)
	return records, result.Error
}

// FiringEvent records a single timer completion, whether it expired on its
// own or was stopped, plus the outcome of the webhook delivery if one was
// attempted.
type FiringEvent struct {
	gorm.Model
	TimerUUID     string `json:"timer_uuid" gorm:"index:idx_firing_uuid"`
	ElapsedMicros int64  `json:"elapsed_micros"`
	Expired       bool   `json:"expired"`
	Payload       string `json:"payload,omitempty"`
	WebhookStatus int    `json:"webhook_status,omitempty"`
	Note          string `json:"note,omitempty"`
}

// Encode serializes the event to the JSON published to redis and delivered
// to webhooks.
func (f *FiringEvent) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// DecodeFiringEvent is the inverse of Encode.
func DecodeFiringEvent(data []byte) (FiringEvent, error) {
	var f FiringEvent
	err := json.Unmarshal(data, &f)
	return f, err
}
