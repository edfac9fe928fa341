package models

import "path/filepath"

// Reserved top-level entries of the working root.
const (
	HLSDirName   = "hls"
	LocksDirName = ".locks"
)

// RemotePrefix is the key prefix every job's artifacts are uploaded under.
const RemotePrefix = "courses/chapters/videos"

// Layout names the per-job paths below a working root. Paths for different
// ids never overlap.
type Layout struct {
	Root string
}

// JobDir holds the materialized source, the thumbnail and sprite scratch.
func (l Layout) JobDir(id string) string {
	return filepath.Join(l.Root, id)
}

// HLSDir holds the tier directories and master.m3u8.
func (l Layout) HLSDir(id string) string {
	return filepath.Join(l.Root, HLSDirName, id)
}

func (l Layout) LocksDir() string {
	return filepath.Join(l.Root, LocksDirName)
}

// Reserved reports whether a top-level entry of the root is shared state
// rather than something owned by a single job.
func Reserved(name string) bool {
	return name == HLSDirName || name == LocksDirName
}
