package storage

import (
	"errors"
	"fmt"
	"reflect"
)

func getStructName(myvar interface{}) string {
	return getValue(reflect.TypeOf(myvar)).Name()
}

// getValue
func getValue(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// sliceElemName returns the struct name of the elements of dest, which must be a pointer to a slice
func sliceElemName(dest interface{}) (string, error) {
	value := reflect.ValueOf(dest)

	// need dest to be a pointer to a slice
	if value.Kind() != reflect.Ptr {
		return "", errors.New("dest must be a pointer to a slice")
	}
	if value.IsNil() {
		return "", errors.New("dest cannot be a nil pointer")
	}

	slice := getValue(value.Type())
	if slice.Kind() != reflect.Slice {
		return "", fmt.Errorf("expected slice but got %s", slice.Kind())
	}

	return getValue(slice.Elem()).Name(), nil
}

// resetSlice truncates the slice dest points to
func resetSlice(dest interface{}) {
	v := reflect.Indirect(reflect.ValueOf(dest))
	if v.Kind() == reflect.Slice && !v.IsNil() {
		v.SetLen(0)
	}
}
