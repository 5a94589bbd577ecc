package storage

import "reflect"

type actionTypes int32

const (
	actionInsert actionTypes = iota
	actionUpdate
)

// Define the cache actions you can take
type CacheAction int32

const (
	CacheDefault  CacheAction = iota
	CacheNoAction             // do nothing
	CacheDel
	CacheSet
)

func (a CacheAction) String() string {
	switch a {
	case CacheNoAction:
		return "CacheNoAction"
	case CacheDel:
		return "CacheDel"
	case CacheSet:
		return "CacheSet"
	}
	return "CacheDefault"
}

// Table holds the config for a single db table and the struct its rows scan into
type Table struct {
	Struct          interface{} // DB struct this is based off of
	PrimaryKeyField string      // column name of the primary key e.g. id or lead_id

	InsertQuery string // named insert query; must end with `RETURNING *`
	UpdateQuery string // named update query; must end with `RETURNING *`

	Queries []*Query // all the queries used to fetch rows of this table from the db & cache

	tableName  string
	structType reflect.Type
}

// Query is a named select against a Table along with what happens to its cache key on writes
type Query struct {
	Name string

	/*
		CacheKey is the key relative to the service e.g. `leads|all` or `leads|owner:%v`.
		Every `column:%v` part is filled in from the object passed to SelectAll (or the row
		being inserted / updated) so writes can invalidate the right list.
	*/
	CacheKey string
	Query    string // named sql query

	CacheTTL int // time to live in seconds; 0 = Config.DefaultTTL

	InsertAction CacheAction // action to take on this key when a row of the table is inserted
	UpdateAction CacheAction // action to take on this key when a row of the table is updated
	SelectAction CacheAction // action to take on this key after a select hits the db (CacheSet or CacheNoAction)

	fullCacheKey   string
	cacheKeyFields []string
	table          *Table
}
