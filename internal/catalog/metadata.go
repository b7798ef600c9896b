package catalog

import (
	"bytes"
	"encoding/json"
)

// Metadata is a string map that remembers insertion order. The emitted JSON
// object lists block-derived keys in source order with the synthetic keys
// appended last, so the type cannot be a plain map.
type Metadata struct {
	keys   []string
	values map[string]string
}

// NewMetadata returns an empty Metadata.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]string)}
}

// Set inserts the key at the end or updates it in place if already present.
func (m *Metadata) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// SetLast inserts the key at the end, displacing any earlier entry with the
// same name. Used for synthetic keys that must follow all block-derived ones.
func (m *Metadata) SetLast(key, value string) {
	if _, ok := m.values[key]; ok {
		m.remove(key)
	}
	m.keys = append(m.keys, key)
	m.values[key] = value
}

func (m *Metadata) remove(key string) {
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			return
		}
	}
}

// Get returns the value for key and whether it exists.
func (m *Metadata) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Metadata) Len() int {
	return len(m.keys)
}

// MarshalJSON renders an object with keys in insertion order.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores entries in document order.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	m.keys = nil
	m.values = make(map[string]string)
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // opening brace
		return err
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		m.Set(key, value)
	}
	_, err := dec.Token() // closing brace
	return err
}
