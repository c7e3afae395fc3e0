package version

import (
	"encoding/json"
	"fmt"
	"time"
)

// ManifestFileName is the manifest file inside the store's base
// directory.
const ManifestFileName = "manifest.json"

// Info describes one immutable snapshot. Created once at snapshot time
// and never modified afterwards.
type Info struct {
	Version       string    `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	Description   string    `json:"description"`
	RecordCount   int       `json:"record_count"`
	Sources       []string  `json:"sources"`
	ParentVersion string    `json:"parent_version,omitempty"`
}

// Manifest is the single source of truth for snapshot history. Versions
// are ordered by creation; Current is either empty or the id of a
// version present in Versions.
type Manifest struct {
	Versions []Info
	Current  string
}

type manifestJSON struct {
	Versions []Info  `json:"versions"`
	Current  *string `json:"current"`
}

// MarshalJSON emits `current: null` rather than an empty string when no
// version is active, matching the on-disk format consumed by other
// tooling.
func (m Manifest) MarshalJSON() ([]byte, error) {
	mj := manifestJSON{Versions: m.Versions}
	if mj.Versions == nil {
		mj.Versions = []Info{}
	}
	if m.Current != "" {
		mj.Current = &m.Current
	}
	return json.Marshal(mj)
}

// UnmarshalJSON accepts both null and a version id for current.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var mj manifestJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}
	m.Versions = mj.Versions
	m.Current = ""
	if mj.Current != nil {
		m.Current = *mj.Current
	}
	return nil
}

// find returns the index of id in Versions, or -1.
func (m *Manifest) find(id string) int {
	for i, v := range m.Versions {
		if v.Version == id {
			return i
		}
	}
	return -1
}

// next allocates the next version id: the highest existing numeric
// suffix plus one, zero-padded to three digits, starting at v001.
// Orphaned version directories with no manifest entry are never
// consulted, so their ids are ignored and never reused.
func (m *Manifest) next() string {
	maxNum := 0
	for _, v := range m.Versions {
		var n int
		if _, err := fmt.Sscanf(v.Version, "v%d", &n); err == nil && n > maxNum {
			maxNum = n
		}
	}
	return fmt.Sprintf("v%03d", maxNum+1)
}
