package link

// Store holds the link records of the current update session. It is only
// ever replaced wholesale; there is no API to patch a single record.
// Records are copied on the way in and out, so a Store value may be
// shared between workflow states without aliasing.
type Store struct {
	records []LinkRecord
}

// NewStore builds a store holding a copy of records.
func NewStore(records []LinkRecord) Store {
	var s Store
	s.ReplaceAll(records)
	return s
}

// ReplaceAll discards every held record and stores a copy of records.
func (s *Store) ReplaceAll(records []LinkRecord) {
	if len(records) == 0 {
		s.records = nil
		return
	}
	next := make([]LinkRecord, len(records))
	for i, r := range records {
		next[i] = cloneRecord(r)
	}
	s.records = next
}

// Get returns the record with the given index.
func (s Store) Get(index int) (LinkRecord, bool) {
	if index >= 0 && index < len(s.records) && s.records[index].Index == index {
		return cloneRecord(s.records[index]), true
	}
	// Slot and index disagree; search.
	for _, r := range s.records {
		if r.Index == index {
			return cloneRecord(r), true
		}
	}
	return LinkRecord{}, false
}

// All returns a copy of every record in index order.
func (s Store) All() []LinkRecord {
	out := make([]LinkRecord, len(s.records))
	for i, r := range s.records {
		out[i] = cloneRecord(r)
	}
	return out
}

// Len returns the number of held records.
func (s Store) Len() int { return len(s.records) }

// Editable returns the resolved records.
func (s Store) Editable() []LinkRecord {
	var out []LinkRecord
	for _, r := range s.records {
		if r.Resolved {
			out = append(out, cloneRecord(r))
		}
	}
	return out
}

func cloneRecord(r LinkRecord) LinkRecord {
	if r.CurrentTarget != nil {
		t := *r.CurrentTarget
		r.CurrentTarget = &t
	}
	return r
}
