package state

import (
	"io/fs"
	"time"

	"github.com/bft-labs/lagoship/pkg/lago"
)

// FileRecord describes one uploaded spool file.
type FileRecord struct {
	// Size and ModTime identify the file version that was uploaded.
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`

	NewEvents   int       `json:"new_events"`
	TotalEvents int       `json:"total_events"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// State is the upload ledger, keyed by file name relative to the spool dir.
type State struct {
	Files map[string]FileRecord `json:"files"`

	// LastUploadAt is the time of the last successful upload.
	LastUploadAt time.Time `json:"last_upload_at"`
}

// IsEmpty returns true if nothing has been uploaded yet.
func (s State) IsEmpty() bool {
	return len(s.Files) == 0
}

// Uploaded reports whether name was uploaded with the same size and
// modification time as info. A file rewritten since is treated as new.
func (s State) Uploaded(name string, info fs.FileInfo) bool {
	rec, ok := s.Files[name]
	if !ok {
		return false
	}
	return rec.Size == info.Size() && rec.ModTime.Equal(info.ModTime())
}

// MarkUploaded records a successful upload of name.
func (s *State) MarkUploaded(name string, info fs.FileInfo, res lago.UploadResult) {
	if s.Files == nil {
		s.Files = make(map[string]FileRecord)
	}
	now := time.Now().UTC()
	s.Files[name] = FileRecord{
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		NewEvents:   res.NewEvents,
		TotalEvents: res.TotalEvents,
		UploadedAt:  now,
	}
	s.LastUploadAt = now
}

// Forget drops records whose names keep reports false, e.g. files that no
// longer exist in the spool dir. It returns how many were dropped.
func (s *State) Forget(keep func(name string) bool) int {
	n := 0
	for name := range s.Files {
		if !keep(name) {
			delete(s.Files, name)
			n++
		}
	}
	return n
}
