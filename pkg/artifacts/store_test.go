package artifacts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harunnryd/callout/pkg/errorsx"
	"github.com/harunnryd/callout/pkg/retell"
)

type stubDownloader struct {
	payloads map[string][]byte
	fail     map[string]error
	calls    []string
}

func (s *stubDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	s.calls = append(s.calls, url)
	if err, ok := s.fail[url]; ok {
		return nil, err
	}
	return s.payloads[url], nil
}

func testRecord() *retell.CallRecord {
	return &retell.CallRecord{
		CallID:       "call_123",
		CallStatus:   retell.CallStatusEnded,
		RecordingURL: "https://cdn.example.com/rec.wav",
		PublicLogURL: "https://cdn.example.com/call.log",
		Raw:          []byte(`{"call_id":"call_123","call_status":"ended"}`),
	}
}

func newTestStore(t *testing.T, dl Downloader, strict bool) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "call_logs")
	s := NewStore(dir, dl, strict, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2026, 8, 29, 14, 30, 5, 0, time.UTC) }
	return s, dir
}

func TestSaveWritesAllThreeArtifacts(t *testing.T) {
	dl := &stubDownloader{payloads: map[string][]byte{
		"https://cdn.example.com/rec.wav":  []byte("RIFF"),
		"https://cdn.example.com/call.log": []byte("log line"),
	}}
	s, dir := newTestStore(t, dl, false)

	saved, err := s.Save(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("save error: %v", err)
	}
	base := "20260829143005_call_123"
	for ext, path := range map[string]string{
		".wav":  saved.Recording,
		".log":  saved.CallLog,
		".json": saved.Record,
	} {
		want := filepath.Join(dir, base+ext)
		if path != want {
			t.Fatalf("expected %s, got %s", want, path)
		}
		if _, err := os.Stat(want); err != nil {
			t.Fatalf("missing artifact %s: %v", want, err)
		}
	}
	data, _ := os.ReadFile(filepath.Join(dir, base+".json"))
	if string(data) != `{"call_id":"call_123","call_status":"ended"}` {
		t.Fatalf("expected raw payload persisted, got %s", data)
	}
}

func TestSaveSkipsMissingURLs(t *testing.T) {
	dl := &stubDownloader{}
	s, _ := newTestStore(t, dl, false)

	rec := testRecord()
	rec.RecordingURL = ""
	rec.PublicLogURL = ""
	saved, err := s.Save(context.Background(), rec)
	if err != nil {
		t.Fatalf("save error: %v", err)
	}
	if len(dl.calls) != 0 {
		t.Fatalf("expected no downloads, got %v", dl.calls)
	}
	if saved.Recording != "" || saved.CallLog != "" {
		t.Fatalf("expected skipped artifacts, got %+v", saved)
	}
	if saved.Record == "" {
		t.Fatalf("record json must still be written")
	}
}

func TestSaveBestEffortContinuesPastFailure(t *testing.T) {
	dl := &stubDownloader{
		payloads: map[string][]byte{"https://cdn.example.com/call.log": []byte("log")},
		fail:     map[string]error{"https://cdn.example.com/rec.wav": errors.New("503")},
	}
	s, _ := newTestStore(t, dl, false)

	saved, err := s.Save(context.Background(), testRecord())
	if err == nil {
		t.Fatalf("expected joined error for failed recording")
	}
	if !errorsx.HasReason(err, errorsx.ReasonArtifactDownload) {
		t.Fatalf("expected artifact_download reason, got %v", err)
	}
	if saved.CallLog == "" || saved.Record == "" {
		t.Fatalf("expected remaining artifacts written, got %+v", saved)
	}
	if len(dl.calls) != 2 {
		t.Fatalf("expected both downloads attempted, got %v", dl.calls)
	}
}

func TestSaveStrictAbortsOnFirstFailure(t *testing.T) {
	dl := &stubDownloader{
		fail: map[string]error{"https://cdn.example.com/rec.wav": errors.New("503")},
	}
	s, _ := newTestStore(t, dl, true)

	saved, err := s.Save(context.Background(), testRecord())
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(dl.calls) != 1 {
		t.Fatalf("expected abort after first failure, got %v", dl.calls)
	}
	if saved.CallLog != "" || saved.Record != "" {
		t.Fatalf("expected no further artifacts, got %+v", saved)
	}
}
