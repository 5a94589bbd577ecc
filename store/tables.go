package store

import storage "github.com/osr-alliance/backend-lead-capture"

// define all the query names we will use
const (
	LeadsGetAll = "leads_get_all"
)

const (
	DefaultTTL = 3600 // 1 hour; writes invalidate the list anyway

	serviceName = "lead_capture"
)

func leadsTable() *storage.Table {
	return &storage.Table{
		Struct:          Lead{},
		PrimaryKeyField: "id",
		InsertQuery:     leadsInsert,
		UpdateQuery:     leadsUpdateStatus,
		Queries: []*storage.Query{
			// copy so every store gets its own parsed query
			copyQuery(leadsGetAll),
		},
	}
}

func copyQuery(q *storage.Query) *storage.Query {
	c := *q
	return &c
}
