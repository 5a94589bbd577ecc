package store

import storage "github.com/osr-alliance/backend-lead-capture"

var leadsGetAll = &storage.Query{
	Name:     LeadsGetAll,
	CacheKey: "leads|all",

	Query: "SELECT * FROM leads ORDER BY id DESC",

	InsertAction: storage.CacheDel, // a new lead changes the list
	UpdateAction: storage.CacheDel, // so does a status change
	SelectAction: storage.CacheSet,
}

const leadsInsert = `INSERT INTO leads (
	category, company_name, owner_name, business_type, start_year, sales_range, employee_count,
	urgent_issue, loan_status, contact_method, phone, contact_time, memo, created_at, status
) VALUES (
	:category, :company_name, :owner_name, :business_type, :start_year, :sales_range, :employee_count,
	:urgent_issue, :loan_status, :contact_method, :phone, :contact_time, :memo, :created_at, :status
) RETURNING *` // note: make sure it's RETURNING *

const leadsUpdateStatus = `UPDATE leads SET status=:status WHERE id=:id RETURNING *` // note: make sure it's RETURNING *
