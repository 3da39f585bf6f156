package a2lmodel

import (
	"encoding/json"
	"fmt"
	"os"
)

// Snapshot is a flat, order-preserving JSON projection of a Module. The
// real A2L lexer/printer is named out of scope in this package's own doc
// comment; a calling tool still needs some persistent on-disk form of a
// Module to round-trip between a2ltool invocations, so Snapshot fills
// that gap with the one format already free (encoding/json) rather than
// inventing an A2L-text writer this module has no mandate to own.
type Snapshot struct {
	Measurements           []Measurement           `json:"measurements,omitempty"`
	Characteristics        []Characteristic        `json:"characteristics,omitempty"`
	AxisPts                []AxisPts               `json:"axis_pts,omitempty"`
	Blobs                  []Blob                  `json:"blobs,omitempty"`
	Instances              []Instance              `json:"instances,omitempty"`
	TypedefStructures      []TypedefStructure       `json:"typedef_structures,omitempty"`
	TypedefMeasurements    []TypedefMeasurement     `json:"typedef_measurements,omitempty"`
	TypedefCharacteristics []TypedefCharacteristic  `json:"typedef_characteristics,omitempty"`
	CompuMethods           []CompuMethod            `json:"compu_methods,omitempty"`
	CompuTabs              []CompuTab               `json:"compu_tabs,omitempty"`
	RecordLayouts          []RecordLayout           `json:"record_layouts,omitempty"`
	Groups                 []Group                  `json:"groups,omitempty"`
	Functions              []Function               `json:"functions,omitempty"`
}

// Snapshot flattens m into its JSON projection, in each ItemList's
// insertion order.
func (m *Module) Snapshot() Snapshot {
	var s Snapshot
	for _, v := range m.Measurements.All() {
		s.Measurements = append(s.Measurements, *v)
	}
	for _, v := range m.Characteristics.All() {
		s.Characteristics = append(s.Characteristics, *v)
	}
	for _, v := range m.AxisPtsList.All() {
		s.AxisPts = append(s.AxisPts, *v)
	}
	for _, v := range m.Blobs.All() {
		s.Blobs = append(s.Blobs, *v)
	}
	for _, v := range m.Instances.All() {
		s.Instances = append(s.Instances, *v)
	}
	for _, v := range m.TypedefStructures.All() {
		s.TypedefStructures = append(s.TypedefStructures, *v)
	}
	for _, v := range m.TypedefMeasurements.All() {
		s.TypedefMeasurements = append(s.TypedefMeasurements, *v)
	}
	for _, v := range m.TypedefCharacteristics.All() {
		s.TypedefCharacteristics = append(s.TypedefCharacteristics, *v)
	}
	for _, v := range m.CompuMethods.All() {
		s.CompuMethods = append(s.CompuMethods, *v)
	}
	for _, v := range m.CompuTabs.All() {
		s.CompuTabs = append(s.CompuTabs, *v)
	}
	for _, v := range m.RecordLayouts.All() {
		s.RecordLayouts = append(s.RecordLayouts, *v)
	}
	for _, v := range m.Groups.All() {
		s.Groups = append(s.Groups, *v)
	}
	for _, v := range m.Functions.All() {
		s.Functions = append(s.Functions, *v)
	}
	return s
}

// FromSnapshot rebuilds a Module from a Snapshot, restoring each
// ItemList's insertion order from the slice order.
func FromSnapshot(s Snapshot) *Module {
	m := NewModule()
	for i := range s.Measurements {
		v := s.Measurements[i]
		m.Measurements.Insert(v.Name, &v)
	}
	for i := range s.Characteristics {
		v := s.Characteristics[i]
		m.Characteristics.Insert(v.Name, &v)
	}
	for i := range s.AxisPts {
		v := s.AxisPts[i]
		m.AxisPtsList.Insert(v.Name, &v)
	}
	for i := range s.Blobs {
		v := s.Blobs[i]
		m.Blobs.Insert(v.Name, &v)
	}
	for i := range s.Instances {
		v := s.Instances[i]
		m.Instances.Insert(v.Name, &v)
	}
	for i := range s.TypedefStructures {
		v := s.TypedefStructures[i]
		m.TypedefStructures.Insert(v.Name, &v)
	}
	for i := range s.TypedefMeasurements {
		v := s.TypedefMeasurements[i]
		m.TypedefMeasurements.Insert(v.Name, &v)
	}
	for i := range s.TypedefCharacteristics {
		v := s.TypedefCharacteristics[i]
		m.TypedefCharacteristics.Insert(v.Name, &v)
	}
	for i := range s.CompuMethods {
		v := s.CompuMethods[i]
		m.CompuMethods.Insert(v.Name, &v)
	}
	for i := range s.CompuTabs {
		v := s.CompuTabs[i]
		m.CompuTabs.Insert(v.Name, &v)
	}
	for i := range s.RecordLayouts {
		v := s.RecordLayouts[i]
		m.RecordLayouts.Insert(v.Name, &v)
	}
	for i := range s.Groups {
		v := s.Groups[i]
		m.Groups.Insert(v.Name, &v)
	}
	for i := range s.Functions {
		v := s.Functions[i]
		m.Functions.Insert(v.Name, &v)
	}
	return m
}

// LoadJSON reads a Module snapshot from path.
func LoadJSON(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("a2lmodel: reading %q: %w", path, err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("a2lmodel: parsing %q: %w", path, err)
	}
	return FromSnapshot(s), nil
}

// SaveJSON writes m's snapshot to path as indented JSON.
func SaveJSON(path string, m *Module) error {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("a2lmodel: encoding module: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("a2lmodel: writing %q: %w", path, err)
	}
	return nil
}
