package models

import "testing"

func TestUUIDScan(t *testing.T) {
	var u UUID

	if err := u.Scan("abc"); err != nil || u != "abc" {
		t.Errorf("Scan(string) = %v, u = %q", err, u)
	}
	if err := u.Scan([]byte("def")); err != nil || u != "def" {
		t.Errorf("Scan([]byte) = %v, u = %q", err, u)
	}
	if err := u.Scan(nil); err != nil || u != "" {
		t.Errorf("Scan(nil) = %v, u = %q", err, u)
	}
	if err := u.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}

func TestRecordFailed(t *testing.T) {
	ok := &TranscriptionRecord{Status: StatusSuccess}
	if ok.Failed() {
		t.Error("success record reported as failed")
	}
	bad := &TranscriptionRecord{Status: StatusError, ErrorMessage: "timeout"}
	if !bad.Failed() {
		t.Error("error record not reported as failed")
	}
}

func TestDocumentMalformed(t *testing.T) {
	cases := []struct {
		name string
		doc  RemoteDocument
		want bool
	}{
		{"complete", RemoteDocument{Text: "hi", Status: StatusSuccess}, false},
		{"missing text", RemoteDocument{Status: StatusSuccess}, true},
		{"missing status", RemoteDocument{Text: "hi"}, true},
		{"empty", RemoteDocument{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.doc.Malformed(); got != tc.want {
				t.Errorf("Malformed() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDocumentTargetLocalID(t *testing.T) {
	withLink := &RemoteDocument{ID: "remote-1", LocalID: "local-1"}
	if got := withLink.TargetLocalID(); got != "local-1" {
		t.Errorf("TargetLocalID() = %s, want local-1", got)
	}

	// Documents created before local linkage fall back to the remote id.
	legacy := &RemoteDocument{ID: "remote-2"}
	if got := legacy.TargetLocalID(); got != "remote-2" {
		t.Errorf("TargetLocalID() = %s, want remote-2", got)
	}
}

func TestDocumentToRecord(t *testing.T) {
	doc := &RemoteDocument{
		ID:           "remote-1",
		LocalID:      "local-1",
		OwnerID:      "user-1",
		Timestamp:    1700000000000,
		Text:         "hello",
		RawText:      "uh hello",
		Status:       StatusSuccess,
		SpeechModel:  "whisper-large",
		WordCount:    1,
		AudioSeconds: 2.5,
	}

	rec := doc.ToRecord()
	if rec.ID != "local-1" {
		t.Errorf("ID = %s, want local-1", rec.ID)
	}
	if !rec.Synced {
		t.Error("reconstructed record must be marked synced")
	}
	if rec.Timestamp != doc.Timestamp || rec.Text != doc.Text || rec.RawText != doc.RawText {
		t.Error("content fields not carried over")
	}
	if rec.WordCount != 1 || rec.AudioSeconds != 2.5 {
		t.Error("metric fields not carried over")
	}
}

func TestInputFromRecord(t *testing.T) {
	rec := &TranscriptionRecord{
		ID:        "local-1",
		Timestamp: 1700000000000,
		Text:      "hello",
		Status:    StatusSuccess,
		WordCount: 1,
	}

	in := InputFromRecord(rec, "user-1")
	if in.LocalID != "local-1" {
		t.Errorf("LocalID = %s, want local-1", in.LocalID)
	}
	if in.OwnerID != "user-1" {
		t.Errorf("OwnerID = %s, want user-1", in.OwnerID)
	}
	if in.IsDeleted {
		t.Error("fresh upsert payload must not be tombstoned")
	}
	if in.Timestamp != rec.Timestamp || in.Text != rec.Text || in.Status != rec.Status {
		t.Error("content fields not carried over")
	}
}
