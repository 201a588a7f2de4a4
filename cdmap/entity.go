package cdmap

import "iter"

// EntityView reads the key/values of one entity.
type EntityView struct {
	m *Map
	e Entity
}

// Entity returns the i-th entity. It panics when i is out of range.
func (m *Map) Entity(i int) EntityView {
	return EntityView{m: m, e: m.Entities[i]}
}

// Pairs yields every key and value in file order.
func (v EntityView) Pairs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		kvs := v.m.KeyValues[v.e.FirstKeyValue : v.e.FirstKeyValue+v.e.NumKeyValues]
		for _, kv := range kvs {
			key := v.m.EntityData[kv.Offset : kv.Offset+kv.KeySize]
			value := v.m.EntityData[kv.Offset+kv.KeySize : kv.Offset+kv.KeySize+kv.ValueSize]
			if !yield(string(key), string(value)) {
				return
			}
		}
	}
}

// Get returns the first value stored under key.
func (v EntityView) Get(key string) (string, bool) {
	for k, value := range v.Pairs() {
		if k == key {
			return value, true
		}
	}
	return "", false
}
