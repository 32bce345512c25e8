package dataset

// Stamps is the file-index → display-date registry. Dates are DD/MM/YYYY,
// taken from each input file's modification time at ingestion. Entries are
// append-only: an index's stamp is never rewritten once recorded.
type Stamps map[int]string

// NextIndex returns the file index the next ingested file should receive:
// one past the highest index ever recorded, or 1 for a fresh registry.
func (s Stamps) NextIndex() int {
	max := 0
	for idx := range s {
		if idx > max {
			max = idx
		}
	}
	return max + 1
}

// Record stores a stamp for an index unless one already exists.
func (s Stamps) Record(index int, stamp string) {
	if _, ok := s[index]; ok {
		return
	}
	s[index] = stamp
}
