package sharepoint

// folderHistory is a fixed-capacity anti-repeat window of folder paths.
// A path appears at most once; recording an existing path moves it to the
// most-recent position. Capacity 0 disables the history entirely.
type folderHistory struct {
	capacity int
	paths    []string
}

func newFolderHistory(capacity int) *folderHistory {
	if capacity < 0 {
		capacity = 0
	}
	return &folderHistory{capacity: capacity}
}

// Record remembers path as the most recently used folder, evicting the
// oldest entry when the window is full.
func (h *folderHistory) Record(path string) {
	if h.capacity == 0 || path == "" {
		return
	}
	for i, p := range h.paths {
		if p == path {
			h.paths = append(h.paths[:i], h.paths[i+1:]...)
			break
		}
	}
	h.paths = append(h.paths, path)
	if len(h.paths) > h.capacity {
		h.paths = h.paths[len(h.paths)-h.capacity:]
	}
}

func (h *folderHistory) has(path string) bool {
	for _, p := range h.paths {
		if p == path {
			return true
		}
	}
	return false
}

// Len returns the number of remembered paths.
func (h *folderHistory) Len() int { return len(h.paths) }

// Snapshot returns the remembered paths, oldest first.
func (h *folderHistory) Snapshot() []string {
	out := make([]string, len(h.paths))
	copy(out, h.paths)
	return out
}
