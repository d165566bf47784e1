package model

// DownloadResult is the outcome of one attempted image download
type DownloadResult struct {
	SourceURL string `json:"source_url"`
	// LocalPath is where the image was written (a filesystem path or a gs:// URL)
	LocalPath string `json:"local_path,omitempty"`
	// Key is the storage key relative to the storage root, e.g. "Cats/fox/image_1.jpg"
	Key   string `json:"key,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// DownloadResults keeps input order: the i-th result belongs to the i-th candidate.
type DownloadResults []DownloadResult

// Succeeded returns the number of results with OK set
func (r DownloadResults) Succeeded() int {
	n := 0
	for _, res := range r {
		if res.OK {
			n++
		}
	}
	return n
}

// Failed returns the number of results without OK set
func (r DownloadResults) Failed() int {
	return len(r) - r.Succeeded()
}

// Paths returns the written locations of successful downloads, in order
func (r DownloadResults) Paths() []string {
	var paths []string
	for _, res := range r {
		if res.OK {
			paths = append(paths, res.LocalPath)
		}
	}
	return paths
}

// Keys returns the storage keys of successful downloads, in order
func (r DownloadResults) Keys() []string {
	var keys []string
	for _, res := range r {
		if res.OK {
			keys = append(keys, res.Key)
		}
	}
	return keys
}
