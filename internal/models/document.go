package models

// RemoteDocument is the cloud-side projection of a TranscriptionRecord,
// used for cross-device history. It is owned by exactly one user and
// back-references its local origin through LocalID.
type RemoteDocument struct {
	ID           string       `json:"id"`
	LocalID      string       `json:"local_id,omitempty"`
	OwnerID      string       `json:"user_id"`
	IsDeleted    bool         `json:"is_deleted"`
	Timestamp    int64        `json:"timestamp"` // Unix milliseconds
	Text         string       `json:"text"`
	RawText      string       `json:"raw_text,omitempty"`
	Status       RecordStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	SpeechModel  string       `json:"speech_model,omitempty"`
	LLMModel     string       `json:"llm_model,omitempty"`
	WordCount    int          `json:"word_count"`
	AudioSeconds float64      `json:"audio_seconds"`
}

// Malformed reports whether the document is missing fields required to
// reconstruct a local record. Such documents are skipped during pull.
func (d *RemoteDocument) Malformed() bool {
	return d.Text == "" || d.Status == ""
}

// TargetLocalID is the local record id this document maps to: its
// LocalID back-reference when present, otherwise the remote id itself
// (documents created before local linkage existed).
func (d *RemoteDocument) TargetLocalID() string {
	if d.LocalID != "" {
		return d.LocalID
	}
	return d.ID
}

// ToRecord reconstructs a local record from the document. The record is
// marked synced: the document demonstrably exists remotely.
func (d *RemoteDocument) ToRecord() *TranscriptionRecord {
	return &TranscriptionRecord{
		ID:           UUID(d.TargetLocalID()),
		Timestamp:    d.Timestamp,
		Text:         d.Text,
		RawText:      d.RawText,
		Status:       d.Status,
		ErrorMessage: d.ErrorMessage,
		SpeechModel:  d.SpeechModel,
		LLMModel:     d.LLMModel,
		WordCount:    d.WordCount,
		AudioSeconds: d.AudioSeconds,
		Synced:       true,
	}
}

// RemoteDocumentInput is the typed upsert payload sent to the remote
// store. Named fields replace the loose key bag the sync path would
// otherwise build ad hoc.
type RemoteDocumentInput struct {
	LocalID      string       `json:"local_id"`
	OwnerID      string       `json:"user_id"`
	IsDeleted    bool         `json:"is_deleted"`
	Timestamp    int64        `json:"timestamp"`
	Text         string       `json:"text"`
	RawText      string       `json:"raw_text,omitempty"`
	Status       RecordStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	SpeechModel  string       `json:"speech_model,omitempty"`
	LLMModel     string       `json:"llm_model,omitempty"`
	WordCount    int          `json:"word_count"`
	AudioSeconds float64      `json:"audio_seconds"`
}

// InputFromRecord builds the upsert payload for a record owned by ownerID.
func InputFromRecord(rec *TranscriptionRecord, ownerID string) *RemoteDocumentInput {
	return &RemoteDocumentInput{
		LocalID:      string(rec.ID),
		OwnerID:      ownerID,
		Timestamp:    rec.Timestamp,
		Text:         rec.Text,
		RawText:      rec.RawText,
		Status:       rec.Status,
		ErrorMessage: rec.ErrorMessage,
		SpeechModel:  rec.SpeechModel,
		LLMModel:     rec.LLMModel,
		WordCount:    rec.WordCount,
		AudioSeconds: rec.AudioSeconds,
	}
}
