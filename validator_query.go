package storage

import (
	"errors"
	"fmt"
	"strings"
)

func (q *Query) validate() error {
	err := q.validateName()
	if err != nil {
		return err
	}

	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("query %s: Query must be set", q.Name)
	}

	err = q.validateActions()
	if err != nil {
		return err
	}

	return q.parseCacheFields()
}

func (q *Query) validateName() error {
	if q.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// validateActions makes sure the actions make sense for a cached list: selects can only set the key
// and writes can only drop it
func (q *Query) validateActions() error {
	if q.InsertAction == CacheDefault {
		q.InsertAction = CacheNoAction
	}
	if q.UpdateAction == CacheDefault {
		q.UpdateAction = CacheNoAction
	}
	if q.SelectAction == CacheDefault {
		q.SelectAction = CacheNoAction
	}

	switch q.SelectAction {
	case CacheNoAction, CacheSet:
	default:
		return fmt.Errorf("query %s: SelectAction must be CacheSet or CacheNoAction; is %s", q.Name, q.SelectAction)
	}

	for _, a := range []CacheAction{q.InsertAction, q.UpdateAction} {
		switch a {
		case CacheNoAction, CacheDel:
		default:
			return fmt.Errorf("query %s: InsertAction & UpdateAction must be CacheDel or CacheNoAction; is %s", q.Name, a)
		}
	}

	if q.SelectAction == CacheSet && q.CacheKey == "" {
		return fmt.Errorf("query %s: CacheKey must be set when the select is cached", q.Name)
	}

	if q.SelectAction == CacheSet && (q.InsertAction == CacheNoAction || q.UpdateAction == CacheNoAction) {
		// a cached list that nothing invalidates goes stale until its TTL runs out
		return fmt.Errorf("query %s: a cached select must be deleted on both insert and update", q.Name)
	}

	return nil
}

// parseCacheFields takes in a generic key e.g. `leads|owner:%v` and places owner into the cacheKeyFields
func (q *Query) parseCacheFields() error {
	q.cacheKeyFields = []string{}

	if q.CacheKey == "" {
		return nil
	}

	if strings.HasPrefix(q.CacheKey, "service:") {
		return fmt.Errorf("query %s: CacheKey must not contain the `service:` prefix; it is added from Config.ServiceName", q.Name)
	}

	fields := []string{}
	for _, key := range strings.Split(q.CacheKey, "|") {
		if !strings.Contains(key, `%v`) {
			// part doesn't have a placeholder value; continue
			continue
		}

		parts := strings.Split(key, ":")
		if len(parts) != 2 || parts[1] != `%v` || parts[0] == "" {
			return fmt.Errorf("query %s: invalid CacheKey %q; a pipe can only have one colon & must be in the format `field:%%v|field:%%v`", q.Name, q.CacheKey)
		}

		fields = append(fields, parts[0])
	}

	q.cacheKeyFields = fields
	return nil
}

func (q *Query) parseFullCacheKey(service string) {
	// this is an optimization so we don't need to sprintf the prefix on every lookup
	q.fullCacheKey = fmt.Sprintf("service:%s|%s", service, q.CacheKey)
}

func (q *Query) parseTTL(defaultTTL int) {
	if q.CacheTTL == 0 {
		q.CacheTTL = defaultTTL
	}
}
