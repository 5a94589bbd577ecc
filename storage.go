package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
)

// ErrNotFound is returned by Update when no row matched the update query
var ErrNotFound = errors.New("storage: no rows matched")

// Interface defines our API for this package
type Storage interface {
	// Insert runs the table's insert query and fills obj with the returned row
	Insert(ctx context.Context, obj interface{}) error
	// Update runs the table's update query and fills obj with the returned row; ErrNotFound if nothing matched
	Update(ctx context.Context, obj interface{}) error

	/*
		SelectAll fills out dest (a pointer to a slice of the table's struct) from the named query.
		obj holds the named arguments of the query & the values for the cache key fields.
	*/
	SelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string) error

	// Exec runs a statement that isn't tied to a table, such as schema creation
	Exec(ctx context.Context, query string) error
	Ping(ctx context.Context) error

	// Clear deletes all of this service's keys from the cache, e.g. after the db was changed underneath us
	Clear(ctx context.Context) error
}

// storage is the private implements the API
type storage struct {
	db     *db
	cache  *cache
	log    *logger
	mapper *reflectx.Mapper

	serviceName string

	queries       map[string]*Query // query.Name -> query
	structToTable map[string]*Table // struct name -> table

	// keys whose invalidation failed; reads skip the cache for them
	staleMu   sync.Mutex
	staleKeys map[string]struct{}
}

type Config struct {
	ReadOnlyDbConn  *sqlx.DB
	WriteOnlyDbConn *sqlx.DB
	Redis           *redis.Client // nil turns the cache off
	Tables          []*Table
	ServiceName     string
	DefaultTTL      int // seconds; used by queries without a CacheTTL
	Debugger        bool
}

// New returns storage which implements the interface
func New(conf *Config) (Storage, error) {
	if conf.ReadOnlyDbConn == nil || conf.WriteOnlyDbConn == nil {
		return nil, errors.New("ReadOnlyDbConn & WriteOnlyDbConn must be set")
	}

	// use the json tag instead of the DB tag
	mapper := reflectx.NewMapperFunc("json", strings.ToLower)
	conf.ReadOnlyDbConn.Mapper = mapper
	conf.WriteOnlyDbConn.Mapper = mapper

	s := &storage{
		db:            newDB(conf),
		cache:         newCache(conf.Redis),
		log:           newLogger(conf.Debugger, conf.ServiceName),
		mapper:        mapper,
		serviceName:   conf.ServiceName,
		queries:       make(map[string]*Query),
		structToTable: make(map[string]*Table),
		staleKeys:     make(map[string]struct{}),
	}

	for _, t := range conf.Tables {
		if err := t.validate(); err != nil {
			return nil, err
		}

		if _, ok := s.structToTable[t.tableName]; ok {
			return nil, fmt.Errorf("table for struct %s configured twice", t.tableName)
		}
		s.structToTable[t.tableName] = t

		for _, q := range t.Queries {
			if err := q.validate(); err != nil {
				return nil, err
			}
			if _, ok := s.queries[q.Name]; ok {
				return nil, fmt.Errorf("query %s configured twice", q.Name)
			}

			q.table = t
			q.parseTTL(conf.DefaultTTL)
			q.parseFullCacheKey(conf.ServiceName)
			s.queries[q.Name] = q
		}
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *storage) Insert(ctx context.Context, obj interface{}) error {
	t, err := s.tableFor(obj)
	if err != nil {
		return err
	}
	if t.InsertQuery == "" {
		return fmt.Errorf("table %s has no InsertQuery", t.tableName)
	}

	found, err := s.db.queryRow(ctx, t.InsertQuery, obj, s.db.writeConn())
	if err != nil {
		return err
	}
	if !found {
		return errors.New("insert did not return a row; make sure the query ends with `RETURNING *`")
	}

	s.log.debug(ctx, "inserted %s %s=%v", t.tableName, t.PrimaryKeyField, s.primaryKey(t, obj))
	s.actionNonSelect(ctx, t, obj, actionInsert)
	return nil
}

func (s *storage) Update(ctx context.Context, obj interface{}) error {
	t, err := s.tableFor(obj)
	if err != nil {
		return err
	}
	if t.UpdateQuery == "" {
		return fmt.Errorf("table %s has no UpdateQuery", t.tableName)
	}

	found, err := s.db.queryRow(ctx, t.UpdateQuery, obj, s.db.writeConn())
	if err != nil {
		return err
	}
	if !found {
		s.log.debug(ctx, "update of %s %s=%v matched no rows", t.tableName, t.PrimaryKeyField, s.primaryKey(t, obj))
		return ErrNotFound
	}

	s.log.debug(ctx, "updated %s %s=%v", t.tableName, t.PrimaryKeyField, s.primaryKey(t, obj))
	s.actionNonSelect(ctx, t, obj, actionUpdate)
	return nil
}

func (s *storage) SelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string) error {
	q, ok := s.queries[queryName]
	if !ok {
		return errors.New("config query not found; have you configured storage properly?")
	}
	if obj == nil {
		return errors.New("obj must not be nil; pass an empty struct when the query has no arguments")
	}

	elemName, err := sliceElemName(dest)
	if err != nil {
		return err
	}
	if elemName != q.table.tableName {
		return fmt.Errorf("dest must be a slice of %s; got %s", q.table.tableName, elemName)
	}

	keyName := s.keyName(q, obj)

	// fill is set once the generation of the key is known; rows are only cached against it
	var (
		gen  int64
		fill bool
	)

	if q.SelectAction == CacheSet && s.cacheUsable(ctx, keyName) {
		// the dest should be of the value that the cache is expecting so we can just unmarshal into that
		err = s.cache.get(ctx, keyName, dest)
		if err == nil {
			s.log.debug(ctx, "found %s in cache", keyName)
			return nil
		}

		// cache errors fall back to the db
		if err != redis.Nil {
			s.log.warn(ctx, err, "cache get %s", keyName)
			// a value that failed to decode may have left rows behind
			resetSlice(dest)
		}

		gen, err = s.cache.generation(ctx, keyName)
		if err != nil {
			s.log.warn(ctx, err, "cache generation %s", keyName)
		} else {
			fill = true
		}
	}

	err = s.db.queryAll(ctx, q.Query, obj, dest, s.db.readConn())
	if err != nil {
		return err
	}

	if fill {
		s.cacheActionSelect(ctx, q, keyName, gen, dest)
	}
	return nil
}

func (s *storage) Exec(ctx context.Context, query string) error {
	_, err := s.db.writeConn().ExecContext(ctx, query)
	return err
}

func (s *storage) Ping(ctx context.Context) error {
	return s.db.readConn().PingContext(ctx)
}

func (s *storage) Clear(ctx context.Context) error {
	n, err := s.cache.clear(ctx, fmt.Sprintf("service:%s|", s.serviceName))
	if err != nil {
		return err
	}
	s.log.debug(ctx, "cleared %d cache keys", n)
	return nil
}
