package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	storage "github.com/osr-alliance/backend-lead-capture"
	"github.com/osr-alliance/backend-lead-capture/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func strPtr(s string) *string { return &s }

// steppingClock returns a clock that moves forward one second on every call
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newStore(t *testing.T, rdb *redis.Client) store.Store {
	t.Helper()
	ctx := context.Background()

	conn, err := storage.Open(ctx, storage.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	s, err := store.New(&store.Config{
		WriteConn: conn,
		Redis:     rdb,
		Now:       steppingClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(ctx))
	return s
}

func newCachedStore(t *testing.T) (store.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return newStore(t, rdb), mr
}

func TestCreateLead_Defaults(t *testing.T) {
	s := newStore(t, nil)
	ctx := context.Background()

	lead, err := s.CreateLead(ctx, "working-capital", store.Fields{
		CompanyName: strPtr("Acme"),
		Phone:       strPtr("010-1234-5678"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), lead.ID)
	assert.Equal(t, "working-capital", lead.Category)
	assert.Equal(t, store.StatusUncontacted, lead.Status)
	assert.Equal(t, "", lead.Memo)
	assert.Equal(t, "2024-03-01 09:00:01", lead.CreatedAt)
	assert.Equal(t, "Acme", *lead.CompanyName)
	assert.Equal(t, "010-1234-5678", *lead.Phone)
	assert.Nil(t, lead.OwnerName)
	assert.Nil(t, lead.ContactTime)

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, *lead, leads[0])
}

func TestCreateLead_KeepsEveryField(t *testing.T) {
	s := newStore(t, nil)
	ctx := context.Background()

	fields := store.Fields{
		CompanyName:   strPtr("Acme"),
		OwnerName:     strPtr("Kim"),
		BusinessType:  strPtr("retail"),
		StartYear:     strPtr("2015"),
		SalesRange:    strPtr("1-5억"),
		EmployeeCount: strPtr("12"),
		UrgentIssue:   strPtr("cash flow"),
		LoanStatus:    strPtr("none"),
		ContactMethod: strPtr("phone"),
		Phone:         strPtr("010-0000-0000"),
		ContactTime:   strPtr("afternoon"),
		Memo:          strPtr("call after 3"),
	}
	_, err := s.CreateLead(ctx, "tax-finance", fields)
	require.NoError(t, err)

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	l := leads[0]
	assert.Equal(t, "Kim", *l.OwnerName)
	assert.Equal(t, "retail", *l.BusinessType)
	assert.Equal(t, "2015", *l.StartYear)
	assert.Equal(t, "1-5억", *l.SalesRange)
	assert.Equal(t, "12", *l.EmployeeCount)
	assert.Equal(t, "cash flow", *l.UrgentIssue)
	assert.Equal(t, "none", *l.LoanStatus)
	assert.Equal(t, "phone", *l.ContactMethod)
	assert.Equal(t, "afternoon", *l.ContactTime)
	assert.Equal(t, "call after 3", l.Memo)
}

func TestCreateLead_EmptyStringIsNotNull(t *testing.T) {
	s := newStore(t, nil)

	lead, err := s.CreateLead(context.Background(), "support-diagnosis", store.Fields{OwnerName: strPtr("")})
	require.NoError(t, err)
	require.NotNil(t, lead.OwnerName)
	assert.Equal(t, "", *lead.OwnerName)
}

func TestListLeads_Empty(t *testing.T) {
	s := newStore(t, nil)

	leads, err := s.ListLeads(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Len(t, leads, 0)
}

func TestListLeads_NewestFirst(t *testing.T) {
	s := newStore(t, nil)
	ctx := context.Background()

	for _, c := range []string{"support-diagnosis", "working-capital", "tax-finance"} {
		_, err := s.CreateLead(ctx, c, store.Fields{})
		require.NoError(t, err)
	}

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 3)

	assert.Equal(t, []int64{3, 2, 1}, []int64{leads[0].ID, leads[1].ID, leads[2].ID})
	assert.Equal(t, "tax-finance", leads[0].Category)
	assert.Equal(t, "support-diagnosis", leads[2].Category)

	// ids and created_at move together
	assert.True(t, leads[0].CreatedAt > leads[1].CreatedAt)
	assert.True(t, leads[1].CreatedAt > leads[2].CreatedAt)
}

func TestUpdateLeadStatus(t *testing.T) {
	s := newStore(t, nil)
	ctx := context.Background()

	first, err := s.CreateLead(ctx, "working-capital", store.Fields{})
	require.NoError(t, err)
	second, err := s.CreateLead(ctx, "working-capital", store.Fields{})
	require.NoError(t, err)

	require.NoError(t, s.UpdateLeadStatus(ctx, first.ID, "contacted"))
	// applying the same status again changes nothing
	require.NoError(t, s.UpdateLeadStatus(ctx, first.ID, "contacted"))

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, second.ID, leads[0].ID)
	assert.Equal(t, store.StatusUncontacted, leads[0].Status)
	assert.Equal(t, "contacted", leads[1].Status)

	// everything but the status is untouched
	assert.Equal(t, first.CreatedAt, leads[1].CreatedAt)
	assert.Equal(t, first.Category, leads[1].Category)
}

func TestUpdateLeadStatus_AnyString(t *testing.T) {
	s := newStore(t, nil)
	ctx := context.Background()

	lead, err := s.CreateLead(ctx, "tax-finance", store.Fields{})
	require.NoError(t, err)

	for _, status := range []string{"", "연락완료", "totally made up"} {
		require.NoError(t, s.UpdateLeadStatus(ctx, lead.ID, status))

		leads, err := s.ListLeads(ctx)
		require.NoError(t, err)
		assert.Equal(t, status, leads[0].Status)
	}
}

func TestUpdateLeadStatus_UnknownIDIsNoop(t *testing.T) {
	s := newStore(t, nil)
	ctx := context.Background()

	_, err := s.CreateLead(ctx, "support-diagnosis", store.Fields{})
	require.NoError(t, err)

	before, err := s.ListLeads(ctx)
	require.NoError(t, err)

	require.NoError(t, s.UpdateLeadStatus(ctx, 999, "contacted"))

	after, err := s.ListLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEnsureSchema_KeepsExistingLeads(t *testing.T) {
	s := newStore(t, nil)
	ctx := context.Background()

	_, err := s.CreateLead(ctx, "working-capital", store.Fields{})
	require.NoError(t, err)

	require.NoError(t, s.EnsureSchema(ctx))

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestCachedList_SeesWrites(t *testing.T) {
	s, mr := newCachedStore(t)
	ctx := context.Background()

	lead, err := s.CreateLead(ctx, "working-capital", store.Fields{})
	require.NoError(t, err)

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.True(t, mr.Exists("service:lead_capture|leads|all"))

	require.NoError(t, s.UpdateLeadStatus(ctx, lead.ID, "contacted"))
	assert.False(t, mr.Exists("service:lead_capture|leads|all"))

	leads, err = s.ListLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, "contacted", leads[0].Status)

	_, err = s.CreateLead(ctx, "tax-finance", store.Fields{})
	require.NoError(t, err)

	leads, err = s.ListLeads(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 2)
}

func TestCachedList_RoundTripsNulls(t *testing.T) {
	s, _ := newCachedStore(t)
	ctx := context.Background()

	_, err := s.CreateLead(ctx, "working-capital", store.Fields{CompanyName: strPtr("Acme")})
	require.NoError(t, err)

	fromDB, err := s.ListLeads(ctx)
	require.NoError(t, err)
	fromCache, err := s.ListLeads(ctx)
	require.NoError(t, err)

	assert.Equal(t, fromDB, fromCache)
	assert.Nil(t, fromCache[0].Phone)
}

func TestClearCache(t *testing.T) {
	s, mr := newCachedStore(t)
	ctx := context.Background()

	_, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists("service:lead_capture|leads|all"))

	require.NoError(t, s.ClearCache(ctx))
	assert.False(t, mr.Exists("service:lead_capture|leads|all"))
}

func newMockStore(t *testing.T) (store.Store, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	s, err := store.New(&store.Config{WriteConn: sqlx.NewDb(mockDB, "postgres")})
	require.NoError(t, err)
	return s, mock
}

func TestStorageErrors(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("connection refused")

	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		call   func(s store.Store) error
		op     string
	}{
		{
			name:   "create",
			expect: func(mock sqlmock.Sqlmock) { mock.ExpectQuery("INSERT INTO leads").WillReturnError(dbErr) },
			call: func(s store.Store) error {
				_, err := s.CreateLead(ctx, "working-capital", store.Fields{})
				return err
			},
			op: "create lead",
		},
		{
			name:   "list",
			expect: func(mock sqlmock.Sqlmock) { mock.ExpectQuery(`SELECT \* FROM leads ORDER BY id DESC`).WillReturnError(dbErr) },
			call: func(s store.Store) error {
				_, err := s.ListLeads(ctx)
				return err
			},
			op: "list leads",
		},
		{
			name:   "update status",
			expect: func(mock sqlmock.Sqlmock) { mock.ExpectQuery("UPDATE leads SET status").WillReturnError(dbErr) },
			call:   func(s store.Store) error { return s.UpdateLeadStatus(ctx, 1, "contacted") },
			op:     "update lead status",
		},
		{
			name:   "ensure schema",
			expect: func(mock sqlmock.Sqlmock) { mock.ExpectExec("CREATE TABLE IF NOT EXISTS leads").WillReturnError(dbErr) },
			call:   func(s store.Store) error { return s.EnsureSchema(ctx) },
			op:     "ensure schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tt.expect(mock)

			err := tt.call(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, store.ErrStorage)
			assert.ErrorIs(t, err, dbErr)

			var se *store.StorageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.op, se.Op)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateLeadStatus_NoRowsFromPostgres(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("UPDATE leads SET status").
		WithArgs("contacted", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))

	assert.NoError(t, s.UpdateLeadStatus(context.Background(), 7, "contacted"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_Postgres(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`id BIGSERIAL PRIMARY KEY`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_RequiresWriteConn(t *testing.T) {
	_, err := store.New(&store.Config{})
	assert.Error(t, err)
}
