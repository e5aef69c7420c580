package resolve

// ReleaseCache remembers the chosen registry release for each catalog album
// within one download batch, so every track of an album tags against the
// same release. It is passed by reference to whoever needs it and is not
// synchronized; tagging runs one file at a time.
type ReleaseCache struct {
	byAlbum map[string]string
}

// NewReleaseCache creates an empty session cache.
func NewReleaseCache() *ReleaseCache {
	return &ReleaseCache{byAlbum: make(map[string]string)}
}

// Get returns the cached release MBID for a catalog album, or empty.
func (c *ReleaseCache) Get(albumID string) string {
	if c == nil {
		return ""
	}
	return c.byAlbum[albumID]
}

// Put records the chosen release for a catalog album, replacing any earlier
// choice.
func (c *ReleaseCache) Put(albumID, releaseMBID string) {
	if c == nil || albumID == "" || releaseMBID == "" {
		return
	}
	c.byAlbum[albumID] = releaseMBID
}

// Len reports how many albums have a chosen release.
func (c *ReleaseCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byAlbum)
}
