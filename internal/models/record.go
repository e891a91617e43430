// Package models provides data model definitions for the VoxNote record store.
package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// UUID is a wrapper around string for UUID v4 type safety.
type UUID string

// Value implements driver.Valuer for UUID.
func (u UUID) Value() (driver.Value, error) {
	return string(u), nil
}

// Scan implements sql.Scanner for UUID.
func (u *UUID) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*u = ""
	case string:
		*u = UUID(v)
	case []byte:
		*u = UUID(v)
	default:
		return fmt.Errorf("cannot scan %T into UUID", value)
	}
	return nil
}

// String returns the string representation of the UUID.
func (u UUID) String() string {
	return string(u)
}

// RecordStatus is the terminal outcome of a transcription attempt.
type RecordStatus string

const (
	StatusSuccess RecordStatus = "success"
	StatusError   RecordStatus = "error"
)

// TranscriptionRecord is a locally stored speech-to-text result.
// Content fields are written once by the transcription pipeline; the
// sync engine only ever flips Synced.
type TranscriptionRecord struct {
	ID           UUID         `db:"id" json:"id"`
	Timestamp    int64        `db:"timestamp" json:"timestamp"` // Unix milliseconds
	Text         string       `db:"text" json:"text"`
	RawText      string       `db:"raw_text" json:"raw_text,omitempty"`
	Status       RecordStatus `db:"status" json:"status"`
	ErrorMessage string       `db:"error_message" json:"error_message,omitempty"`
	SpeechModel  string       `db:"speech_model" json:"speech_model,omitempty"`
	LLMModel     string       `db:"llm_model" json:"llm_model,omitempty"`
	WordCount    int          `db:"word_count" json:"word_count"`
	AudioSeconds float64      `db:"audio_seconds" json:"audio_seconds"`
	Synced       bool         `db:"synced" json:"synced"`
}

// TableName returns the table name for TranscriptionRecord.
func (TranscriptionRecord) TableName() string {
	return "transcriptions"
}

// TimestampTime returns the record timestamp as time.Time.
func (r *TranscriptionRecord) TimestampTime() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Failed reports whether the record is an error placeholder rather
// than a usable transcript.
func (r *TranscriptionRecord) Failed() bool {
	return r.Status == StatusError
}
