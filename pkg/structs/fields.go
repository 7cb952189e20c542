// Package structs provides reflection helpers over struct fields.
package structs

import "github.com/oleiade/reflections"

// HasField returns true when obj owns a field with the given name.
// obj can whether be a structure or pointer to structure.
func HasField(obj any, name string) bool {
	ok, err := reflections.HasField(obj, name)
	if err != nil {
		panic(err)
	}

	return ok
}

// GetField returns the value of the provided obj field. obj can whether be a structure or pointer to structure.
func GetField(obj any, name string) any {
	v, err := reflections.GetField(obj, name)
	if err != nil {
		panic(err)
	}

	return v
}

// SetField sets the provided obj field with provided value.
// obj param has to be a pointer to a struct, otherwise it will soundly fail.
// Provided value type should match with the struct field you're trying to set.
func SetField(obj any, name string, value any) {
	if err := reflections.SetField(obj, name, value); err != nil {
		panic(err)
	}
}
