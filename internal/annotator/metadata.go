package annotator

// Metadata is a document's derived, multi-valued metadata.
type Metadata map[string][]string

// Add appends value under name, keeping existing values.
func (m Metadata) Add(name, value string) {
	m[name] = append(m[name], value)
}

// Get returns the first value for name, or "".
func (m Metadata) Get(name string) string {
	if values := m[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// Values returns every value stored under name.
func (m Metadata) Values(name string) []string {
	return m[name]
}
