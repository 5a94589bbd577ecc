package storage

import (
	"context"
	"reflect"
)

/*
	actionNonSelect takes the insert or update action of every query on the table for the row that was just written.
	With CacheDel the list the row belongs to is dropped, its generation is bumped and the next SelectAll
	reloads it from the db.

	The write has already hit the db by the time this runs so cache errors aren't returned. A key that
	couldn't be invalidated is marked stale and bypassed until an invalidation goes through.
*/
func (s *storage) actionNonSelect(ctx context.Context, t *Table, obj interface{}, action actionTypes) {
	for _, q := range t.Queries {
		var actionToTake CacheAction
		switch action {
		case actionInsert:
			actionToTake = q.InsertAction
		case actionUpdate:
			actionToTake = q.UpdateAction
		}

		switch actionToTake {
		case CacheDel:
			keyName := s.keyName(q, obj)
			if err := s.cache.invalidate(ctx, keyName); err != nil {
				s.log.warn(ctx, err, "cache invalidate %s after %s %s=%v; bypassing it until redis recovers",
					keyName, t.tableName, t.PrimaryKeyField, s.primaryKey(t, obj))
				s.markStale(keyName)
				continue
			}
			s.unmarkStale(keyName)
			s.log.debug(ctx, "invalidated %s", keyName)

		default:
			// CacheNoAction; don't do anything
		}
	}
}

// cacheActionSelect stores the rows read from the db, unless a write invalidated the key after gen was read
func (s *storage) cacheActionSelect(ctx context.Context, q *Query, keyName string, gen int64, dest interface{}) {
	if q.SelectAction != CacheSet {
		return
	}

	err := s.cache.setIfGeneration(ctx, keyName, gen, dest, q.CacheTTL)
	if err == errStaleFill {
		s.log.debug(ctx, "skipped set of %s; invalidated during load", keyName)
		return
	}
	if err != nil {
		s.log.warn(ctx, err, "cache set %s", keyName)
		return
	}
	s.log.debug(ctx, "set %s", keyName)
}

// cacheUsable reports whether keyName can be read from and written to. A stale key gets another
// invalidation attempt first.
func (s *storage) cacheUsable(ctx context.Context, keyName string) bool {
	if !s.isStale(keyName) {
		return true
	}

	if err := s.cache.invalidate(ctx, keyName); err != nil {
		s.log.debug(ctx, "%s still stale: %v", keyName, err)
		return false
	}

	s.unmarkStale(keyName)
	s.log.debug(ctx, "recovered stale %s", keyName)
	return true
}

func (s *storage) markStale(keyName string) {
	s.staleMu.Lock()
	defer s.staleMu.Unlock()
	s.staleKeys[keyName] = struct{}{}
}

func (s *storage) unmarkStale(keyName string) {
	s.staleMu.Lock()
	defer s.staleMu.Unlock()
	delete(s.staleKeys, keyName)
}

func (s *storage) isStale(keyName string) bool {
	s.staleMu.Lock()
	defer s.staleMu.Unlock()
	_, ok := s.staleKeys[keyName]
	return ok
}

// primaryKey returns the value of the table's primary key column on obj
func (s *storage) primaryKey(t *Table, obj interface{}) interface{} {
	if t.PrimaryKeyField == "" {
		return nil
	}
	v := reflect.Indirect(reflect.ValueOf(obj))
	fv := s.mapper.FieldByName(v, t.PrimaryKeyField)
	if !fv.IsValid() {
		return nil
	}
	return fv.Interface()
}
