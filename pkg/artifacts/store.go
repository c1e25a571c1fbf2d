// Package artifacts persists per-call outputs (recording, call log,
// raw record) to local storage. Files are write-once and never deleted
// here.
package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/harunnryd/callout/pkg/errorsx"
	"github.com/harunnryd/callout/pkg/retell"
)

// Downloader fetches an artifact by URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Saved lists the artifact files written for one call. Empty fields
// mean the artifact was skipped or failed.
type Saved struct {
	Recording string
	CallLog   string
	Record    string
}

// Store writes call artifacts under a single directory, named
// <YYYYMMDDHHMMSS>_<call_id> with per-artifact extensions.
type Store struct {
	dir    string
	dl     Downloader
	strict bool
	log    *slog.Logger

	now func() time.Time
}

// NewStore creates an artifact store. With strict set, the first
// download or write failure aborts; otherwise saving is best-effort
// and failures are joined into the returned error.
func NewStore(dir string, dl Downloader, strict bool, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{dir: dir, dl: dl, strict: strict, log: log, now: time.Now}
}

// Save persists the recording, the public call log, and the raw call
// record for rec. URLs absent from the record (a timed-out call has no
// recording yet) are skipped, not failed. The timestamp is taken once
// so all three files share a name.
func (s *Store) Save(ctx context.Context, rec *retell.CallRecord) (Saved, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Saved{}, errorsx.Wrap(err, errorsx.ReasonArtifactDownload)
	}
	base := s.now().Format("20060102150405") + "_" + rec.CallID

	var saved Saved
	var errs []error

	fail := func(kind string, err error) error {
		err = errorsx.Wrap(err, errorsx.ReasonArtifactDownload)
		s.log.Error("artifact save failed",
			slog.String("call_id", rec.CallID),
			slog.String("artifact", kind),
			slog.String("error", err.Error()),
		)
		if s.strict {
			return err
		}
		errs = append(errs, err)
		return nil
	}

	if rec.RecordingURL == "" {
		s.log.Info("no recording url, skipping", slog.String("call_id", rec.CallID))
	} else if path, err := s.fetch(ctx, rec.RecordingURL, base+".wav"); err != nil {
		if hard := fail("recording", err); hard != nil {
			return saved, hard
		}
	} else {
		saved.Recording = path
	}

	if rec.PublicLogURL == "" {
		s.log.Info("no call log url, skipping", slog.String("call_id", rec.CallID))
	} else if path, err := s.fetch(ctx, rec.PublicLogURL, base+".log"); err != nil {
		if hard := fail("call_log", err); hard != nil {
			return saved, hard
		}
	} else {
		saved.CallLog = path
	}

	if path, err := s.writeRecord(rec, base+".json"); err != nil {
		if hard := fail("record", err); hard != nil {
			return saved, hard
		}
	} else {
		saved.Record = path
	}

	return saved, errors.Join(errs...)
}

func (s *Store) fetch(ctx context.Context, url, name string) (string, error) {
	data, err := s.dl.Download(ctx, url)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	s.log.Info("artifact saved", slog.String("path", path))
	return path, nil
}

func (s *Store) writeRecord(rec *retell.CallRecord, name string) (string, error) {
	payload := []byte(rec.Raw)
	if len(payload) == 0 {
		var err error
		payload, err = json.Marshal(rec)
		if err != nil {
			return "", err
		}
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", err
	}
	s.log.Info("artifact saved", slog.String("path", path))
	return path, nil
}
