package types

// Metadata is the string key-value bag persisted on provider records.
type Metadata map[string]string

// Merge returns a new Metadata with the entries of other layered over m.
// Neither input is modified.
func (m Metadata) Merge(other Metadata) Metadata {
	merged := make(Metadata, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

func (m Metadata) Copy() Metadata {
	if m == nil {
		return nil
	}
	copied := make(Metadata, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return copied
}
