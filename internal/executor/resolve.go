package executor

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var errorType = reflect.TypeFor[error]()

type accessorKey struct {
	typ    reflect.Type
	name   string
	method bool
}

// accessor is a struct field index path, or a method index in index[0].
type accessor struct {
	index []int
	found bool
}

var accessors sync.Map // accessorKey -> accessor

// defaultResolve reads fieldName from the parent value: a map key, a struct
// field matched by json tag or case-insensitive name, or a method taking no
// arguments that returns a value and optionally an error.
func defaultResolve(source any, fieldName string) (any, error) {
	if source == nil {
		return nil, nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[fieldName], nil
	}

	orig := reflect.ValueOf(source)
	rv := orig
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			v := rv.MapIndex(reflect.ValueOf(fieldName).Convert(rv.Type().Key()))
			if !v.IsValid() {
				return nil, nil
			}
			return v.Interface(), nil
		}
	case reflect.Struct:
		if acc := fieldAccessor(rv.Type(), fieldName); acc.found {
			f, err := rv.FieldByIndexErr(acc.index)
			if err != nil {
				// nil embedded pointer
				return nil, nil
			}
			return f.Interface(), nil
		}
	}

	if acc := methodAccessor(orig.Type(), fieldName); acc.found {
		return callAccessor(orig.Method(acc.index[0]))
	}
	if rv != orig {
		if acc := methodAccessor(rv.Type(), fieldName); acc.found {
			return callAccessor(rv.Method(acc.index[0]))
		}
	}
	return nil, fmt.Errorf("no value for field %q on %T", fieldName, source)
}

func fieldAccessor(t reflect.Type, fieldName string) accessor {
	key := accessorKey{typ: t, name: fieldName}
	if v, ok := accessors.Load(key); ok {
		return v.(accessor)
	}
	acc := findStructField(t, fieldName)
	accessors.Store(key, acc)
	return acc
}

func findStructField(t reflect.Type, fieldName string) accessor {
	var byName []int
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		if tag, ok := f.Tag.Lookup("json"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == fieldName {
				return accessor{index: f.Index, found: true}
			}
			if name != "" {
				continue
			}
		}
		if byName == nil && strings.EqualFold(f.Name, fieldName) {
			byName = f.Index
		}
	}
	if byName != nil {
		return accessor{index: byName, found: true}
	}
	return accessor{}
}

func methodAccessor(t reflect.Type, fieldName string) accessor {
	key := accessorKey{typ: t, name: fieldName, method: true}
	if v, ok := accessors.Load(key); ok {
		return v.(accessor)
	}
	acc := accessor{}
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !strings.EqualFold(m.Name, fieldName) {
			continue
		}
		// In(0) is the receiver
		mt := m.Type
		if mt.NumIn() != 1 {
			continue
		}
		if mt.NumOut() == 1 || (mt.NumOut() == 2 && mt.Out(1) == errorType) {
			acc = accessor{index: []int{i}, found: true}
			break
		}
	}
	accessors.Store(key, acc)
	return acc
}

func callAccessor(m reflect.Value) (any, error) {
	out := m.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}
