package storage

import (
	"errors"
	"fmt"
	"reflect"
)

func (s *storage) tableFor(obj interface{}) (*Table, error) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, fmt.Errorf("obj not pointer; is %T", obj)
	}

	structName := getStructName(obj)
	t, ok := s.structToTable[structName]
	if !ok {
		return nil, errors.New("no table config found for " + structName)
	}
	return t, nil
}

// keyName takes a query's abstract key e.g. `leads|owner:%v` and returns the key name e.g. `service:x|leads|owner:42`
func (s *storage) keyName(q *Query, obj interface{}) string {
	if len(q.cacheKeyFields) == 0 {
		return q.fullCacheKey
	}

	v := reflect.Indirect(reflect.ValueOf(obj))
	args := make([]interface{}, 0, len(q.cacheKeyFields))
	for _, field := range q.cacheKeyFields {
		fv := s.mapper.FieldByName(v, field)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				args = append(args, "null")
				continue
			}
			fv = fv.Elem()
		}
		args = append(args, fv.Interface())
	}

	return fmt.Sprintf(q.fullCacheKey, args...)
}
