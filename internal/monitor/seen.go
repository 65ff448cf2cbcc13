package monitor

// seenSet records the absolute paths already handled by the monitor. It is owned by the
// monitor loop and is not safe for concurrent use.
type seenSet struct {
	paths map[string]struct{}
}

func newSeenSet() *seenSet {
	return &seenSet{paths: make(map[string]struct{})}
}

func (s *seenSet) Add(path string) {
	s.paths[path] = struct{}{}
}

func (s *seenSet) Has(path string) bool {
	_, ok := s.paths[path]
	return ok
}

func (s *seenSet) Remove(path string) {
	delete(s.paths, path)
}

func (s *seenSet) Len() int {
	return len(s.paths)
}

// Snapshot returns a copy of the recorded paths, safe to range over while removing.
func (s *seenSet) Snapshot() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	return out
}
