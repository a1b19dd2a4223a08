package entity

import "time"

// MasterImage is the stored original a rendition is derived from.
// A zero UpdatedAt means the master has no recorded write time.
type MasterImage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Content   []byte    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rendition is what the service hands to the file-serving layer.
type Rendition struct {
	Path        string `json:"path"`
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
	Regenerated bool   `json:"regenerated"`
}

// RenditionEvent is published every time a cached rendition is (re)written.
type RenditionEvent struct {
	Tenant      string    `json:"tenant"`
	ObjectID    int64     `json:"object_id"`
	Commands    string    `json:"commands"`
	Extension   string    `json:"extension"`
	Path        string    `json:"path"`
	GeneratedAt time.Time `json:"generated_at"`
}

// WarmTask asks the warmer to pre-render a rendition.
type WarmTask struct {
	ObjectID  int64  `json:"object_id"`
	Commands  string `json:"commands"`
	Extension string `json:"extension"`
}
