// Package modeldoc is the serialized form of a model snapshot. Documents are read from
// YAML, JSON or TOML files, converted to a validated model.Model, and produced back in a
// canonical sorted form for hashing, storage and embedding in change logs.
package modeldoc

// Document is the root of a snapshot file
type Document struct {
	Modules []Module `json:"modules" yaml:"modules" toml:"modules" msgpack:"modules"`
}

// Module is a serialized module
type Module struct {
	Name       string      `json:"name" yaml:"name" toml:"name" msgpack:"name"`
	Types      []Type      `json:"types,omitempty" yaml:"types,omitempty" toml:"types,omitempty" msgpack:"types,omitempty"`
	Singletons []Singleton `json:"singletons,omitempty" yaml:"singletons,omitempty" toml:"singletons,omitempty" msgpack:"singletons,omitempty"`
	Roles      []Role      `json:"roles,omitempty" yaml:"roles,omitempty" toml:"roles,omitempty" msgpack:"roles,omitempty"`
}

// Type is a serialized type. Kind selects which of the optional fields apply:
// class (abstract, extends, parts), enumeration (classifiers), primitive (facets)
// and association (ends).
type Type struct {
	Kind        string       `json:"kind" yaml:"kind" toml:"kind" msgpack:"kind"`
	Name        string       `json:"name" yaml:"name" toml:"name" msgpack:"name"`
	Abstract    bool         `json:"abstract,omitempty" yaml:"abstract,omitempty" toml:"abstract,omitempty" msgpack:"abstract,omitempty"`
	Extends     []string     `json:"extends,omitempty" yaml:"extends,omitempty" toml:"extends,omitempty" msgpack:"extends,omitempty"`
	Facets      *Facets      `json:"facets,omitempty" yaml:"facets,omitempty" toml:"facets,omitempty" msgpack:"facets,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty" toml:"annotations,omitempty" msgpack:"annotations,omitempty"`
	Parts       []Part       `json:"parts,omitempty" yaml:"parts,omitempty" toml:"parts,omitempty" msgpack:"parts,omitempty"`
	Classifiers []Classifier `json:"classifiers,omitempty" yaml:"classifiers,omitempty" toml:"classifiers,omitempty" msgpack:"classifiers,omitempty"`
	Ends        []Part       `json:"ends,omitempty" yaml:"ends,omitempty" toml:"ends,omitempty" msgpack:"ends,omitempty"`
}

// Part is a serialized class member or association end. Target and Inverse are dotted
// references ("module.Type" and "module.Type.part").
type Part struct {
	Kind        string            `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty" msgpack:"kind,omitempty"`
	Name        string            `json:"name" yaml:"name" toml:"name" msgpack:"name"`
	Target      string            `json:"target" yaml:"target" toml:"target" msgpack:"target"`
	Mandatory   bool              `json:"mandatory,omitempty" yaml:"mandatory,omitempty" toml:"mandatory,omitempty" msgpack:"mandatory,omitempty"`
	Derived     bool              `json:"derived,omitempty" yaml:"derived,omitempty" toml:"derived,omitempty" msgpack:"derived,omitempty"`
	Multiple    bool              `json:"multiple,omitempty" yaml:"multiple,omitempty" toml:"multiple,omitempty" msgpack:"multiple,omitempty"`
	Ordered     bool              `json:"ordered,omitempty" yaml:"ordered,omitempty" toml:"ordered,omitempty" msgpack:"ordered,omitempty"`
	Bag         bool              `json:"bag,omitempty" yaml:"bag,omitempty" toml:"bag,omitempty" msgpack:"bag,omitempty"`
	Inverse     string            `json:"inverse,omitempty" yaml:"inverse,omitempty" toml:"inverse,omitempty" msgpack:"inverse,omitempty"`
	Storage     map[string]string `json:"storage,omitempty" yaml:"storage,omitempty" toml:"storage,omitempty" msgpack:"storage,omitempty"`
	Annotations []Annotation      `json:"annotations,omitempty" yaml:"annotations,omitempty" toml:"annotations,omitempty" msgpack:"annotations,omitempty"`
}

// Annotation is a serialized annotation instance
type Annotation struct {
	Kind   string         `json:"kind" yaml:"kind" toml:"kind" msgpack:"kind"`
	Values map[string]any `json:"values,omitempty" yaml:"values,omitempty" toml:"values,omitempty" msgpack:"values,omitempty"`
}

// Classifier is a serialized enumeration value
type Classifier struct {
	Name        string       `json:"name" yaml:"name" toml:"name" msgpack:"name"`
	Annotations []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty" toml:"annotations,omitempty" msgpack:"annotations,omitempty"`
}

// Facets are the storage facets of a primitive
type Facets struct {
	Precision    int    `json:"precision,omitempty" yaml:"precision,omitempty" toml:"precision,omitempty" msgpack:"precision,omitempty"`
	Size         int    `json:"size,omitempty" yaml:"size,omitempty" toml:"size,omitempty" msgpack:"size,omitempty"`
	StorageKind  string `json:"storage_kind,omitempty" yaml:"storage_kind,omitempty" toml:"storage_kind,omitempty" msgpack:"storage_kind,omitempty"`
	ValueMapping string `json:"value_mapping,omitempty" yaml:"value_mapping,omitempty" toml:"value_mapping,omitempty" msgpack:"value_mapping,omitempty"`
}

// Singleton is a serialized singleton binding
type Singleton struct {
	Name string `json:"name" yaml:"name" toml:"name" msgpack:"name"`
	Type string `json:"type" yaml:"type" toml:"type" msgpack:"type"`
}

// Role is a serialized role definition
type Role struct {
	Name   string         `json:"name" yaml:"name" toml:"name" msgpack:"name"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty" toml:"config,omitempty" msgpack:"config,omitempty"`
}

// TypeCount returns the number of types across all modules
func (d *Document) TypeCount() int {
	n := 0
	for _, m := range d.Modules {
		n += len(m.Types)
	}
	return n
}
