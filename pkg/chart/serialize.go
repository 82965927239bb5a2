package chart

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Document is the canonical serialization format for a saved chart.
// Used for file persistence, the MongoDB store, and API responses.
//
// The format is designed for round-trip fidelity: save → load reproduces
// node positions within floating-point tolerance.
type Document struct {
	Name          string         `json:"name" bson:"name"`
	SavedAt       time.Time      `json:"saved_at" bson:"saved_at"`
	People        []Person       `json:"people" bson:"people"`
	Relationships []Relationship `json:"relationships" bson:"relationships"`
	Filter        FilterState    `json:"filter,omitempty" bson:"filter,omitempty"`
}

// ToDocument snapshots the chart into its serialization format. People keep
// insertion order so positions map back onto the same adjacency rows.
func (c *Chart) ToDocument(name string) Document {
	doc := Document{
		Name:          name,
		SavedAt:       time.Now().UTC(),
		People:        make([]Person, 0, len(c.order)),
		Relationships: c.Relationships(),
		Filter:        c.filter,
	}
	for _, id := range c.order {
		doc.People = append(doc.People, *c.people[id])
	}
	return doc
}

// FromDocument rebuilds a chart from its serialization format.
func FromDocument(doc Document) (*Chart, error) {
	c := New()
	for _, p := range doc.People {
		if err := c.AddPerson(p); err != nil {
			return nil, fmt.Errorf("person %s: %w", p.ID, err)
		}
	}
	for _, r := range doc.Relationships {
		if err := c.AddRelationship(r); err != nil {
			return nil, fmt.Errorf("relationship %s→%s: %w", r.Src, r.Dst, err)
		}
	}
	c.SetFilter(doc.Filter)
	return c, nil
}

// MarshalDocument serializes a Document to pretty-printed JSON bytes.
func MarshalDocument(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalDocument deserializes JSON bytes into a Document.
func UnmarshalDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

// WriteDocumentFile writes a Document to a JSON file.
func WriteDocumentFile(doc Document, path string) error {
	data, err := MarshalDocument(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadDocumentFile reads a Document from a JSON file.
func ReadDocumentFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalDocument(data)
}
