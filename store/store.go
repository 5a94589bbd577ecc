package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	storage "github.com/osr-alliance/backend-lead-capture"
	"github.com/sirupsen/logrus"
)

type Store interface {
	CreateLead(ctx context.Context, category string, fields Fields) (*Lead, error)
	ListLeads(ctx context.Context) ([]Lead, error)
	UpdateLeadStatus(ctx context.Context, id int64, status string) error

	// EnsureSchema creates the leads table if it doesn't exist yet
	EnsureSchema(ctx context.Context) error
	// ClearCache drops every cached list, e.g. at startup
	ClearCache(ctx context.Context) error
	Ping(ctx context.Context) error
}

type store struct {
	store  storage.Storage
	driver string
	now    func() time.Time
	log    *logrus.Entry
}

type Config struct {
	ReadConn  *sqlx.DB
	WriteConn *sqlx.DB
	Redis     *redis.Client // optional; nil turns the list cache off
	CacheTTL  int           // seconds; 0 = DefaultTTL
	Debugger  bool

	// Now is the clock used for created_at; defaults to time.Now
	Now func() time.Time
}

func New(conf *Config) (Store, error) {
	if conf.WriteConn == nil {
		return nil, errors.New("store: WriteConn must be set")
	}
	if conf.ReadConn == nil {
		conf.ReadConn = conf.WriteConn
	}

	ttl := conf.CacheTTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	// instantiate the storage
	c := &storage.Config{
		ReadOnlyDbConn:  conf.ReadConn,
		WriteOnlyDbConn: conf.WriteConn,
		Redis:           conf.Redis,
		Tables:          []*storage.Table{leadsTable()},
		ServiceName:     serviceName,
		DefaultTTL:      ttl,
		Debugger:        conf.Debugger,
	}

	s, err := storage.New(c)
	if err != nil {
		return nil, err
	}

	now := conf.Now
	if now == nil {
		now = time.Now
	}

	return &store{
		store:  s,
		driver: conf.WriteConn.DriverName(),
		now:    now,
		log:    logrus.WithField("component", "store"),
	}, nil
}

func (s *store) EnsureSchema(ctx context.Context) error {
	schema, err := schemaFor(s.driver)
	if err != nil {
		return err
	}
	if err := s.store.Exec(ctx, schema); err != nil {
		return storageErr("ensure schema", err)
	}
	return nil
}

func (s *store) ClearCache(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *store) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}
