package sync

// SeenSet tracks external ids encountered during one reconciliation pass
// It lives only for the duration of the pass and is never persisted
type SeenSet struct {
	ids map[string]struct{}
}

// NewSeenSet creates an empty seen set
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]struct{})}
}

// Mark records an external id as seen
func (s *SeenSet) Mark(externalID string) {
	s.ids[externalID] = struct{}{}
}

// Seen reports whether an external id was encountered this pass
func (s *SeenSet) Seen(externalID string) bool {
	_, ok := s.ids[externalID]
	return ok
}

// Len returns the number of distinct ids seen
func (s *SeenSet) Len() int {
	return len(s.ids)
}
