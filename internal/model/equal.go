package model

import "reflect"

// Equal reports whether two snapshots define the same modules, types, members, flags,
// annotations and orderings. Empty and nil collections are considered equal.
func Equal(a, b *Model) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(m *Model) *Model {
	out := m.Clone()
	for _, mod := range out.Modules {
		for _, t := range mod.Types {
			h := t.Header()
			h.Annotations = normalizeAnnotations(h.Annotations)
			switch t := t.(type) {
			case *Class:
				if len(t.Generalizations) == 0 {
					t.Generalizations = nil
				}
				if len(t.Parts) == 0 {
					t.Parts = nil
				}
				for _, p := range t.Parts {
					normalizePart(p)
				}
			case *Enumeration:
				if len(t.Classifiers) == 0 {
					t.Classifiers = nil
				}
				for i := range t.Classifiers {
					t.Classifiers[i].Annotations = normalizeAnnotations(t.Classifiers[i].Annotations)
				}
			case *Association:
				if len(t.Ends) == 0 {
					t.Ends = nil
				}
				for _, e := range t.Ends {
					normalizePart(e)
				}
			}
		}
		for name, r := range mod.Roles {
			if len(r.Config) == 0 {
				r.Config = nil
			}
			mod.Roles[name] = r
		}
	}
	return out
}

func normalizePart(p Part) {
	h := p.Header()
	if len(h.Storage) == 0 {
		h.Storage = nil
	}
	h.Annotations = normalizeAnnotations(h.Annotations)
}

func normalizeAnnotations(a Annotations) Annotations {
	if len(a) == 0 {
		return nil
	}
	for k, v := range a {
		if len(v.Values) == 0 {
			v.Values = nil
		}
		a[k] = v
	}
	return a
}
