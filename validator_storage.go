package storage

import (
	"errors"
	"fmt"
)

func (s *storage) validate() error {
	if s.serviceName == "" {
		return errors.New("serviceName must be set")
	}

	if s.db.writeConn() == nil || s.db.readConn() == nil {
		return errors.New("ReadOnlyDbConn & WriteOnlyDbConn must be set")
	}

	if err := s.validatePrimaryKeys(); err != nil {
		return err
	}

	return s.validateCacheKeyFields()
}

// validatePrimaryKeys makes sure PrimaryKeyField names a column of the table's struct
func (s *storage) validatePrimaryKeys() error {
	for _, t := range s.structToTable {
		if t.PrimaryKeyField == "" {
			continue
		}
		if s.mapper.TypeMap(t.structType).GetByPath(t.PrimaryKeyField) == nil {
			return fmt.Errorf("table %s: PrimaryKeyField %s is not a column", t.tableName, t.PrimaryKeyField)
		}
	}
	return nil
}

// validateCacheKeyFields makes sure every `field:%v` in a cache key is actually a column of the table's struct
func (s *storage) validateCacheKeyFields() error {
	for _, q := range s.queries {
		tm := s.mapper.TypeMap(q.table.structType)
		for _, field := range q.cacheKeyFields {
			if tm.GetByPath(field) == nil {
				return fmt.Errorf("query %s: cache key field %s is not a column of %s", q.Name, field, q.table.tableName)
			}
		}
	}
	return nil
}
