// Package gateway turns category specific form submissions into leads.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/osr-alliance/backend-lead-capture/store"
	"github.com/sirupsen/logrus"
)

// Category is the label of the form a lead came from
type Category string

const (
	CategorySupportDiagnosis Category = "support-diagnosis"
	CategoryWorkingCapital   Category = "working-capital"
	CategoryTaxFinance       Category = "tax-finance"
)

// ErrUnknownCategory is returned when a submission names a category outside the fixed set
var ErrUnknownCategory = errors.New("gateway: unknown category")

// routes maps the submission route name (/api/submit/{route}) to its category
var routes = map[string]Category{
	"support": CategorySupportDiagnosis,
	"cash":    CategoryWorkingCapital,
	"report":  CategoryTaxFinance,
}

// Routes returns the route names that accept submissions
func Routes() []string {
	return []string{"support", "cash", "report"}
}

// CategoryForRoute returns the category of a submission route
func CategoryForRoute(route string) (Category, bool) {
	c, ok := routes[route]
	return c, ok
}

func (c Category) valid() bool {
	switch c {
	case CategorySupportDiagnosis, CategoryWorkingCapital, CategoryTaxFinance:
		return true
	}
	return false
}

// Payload is the flat field mapping of a submitted form. A nil value is an explicit null.
type Payload map[string]*string

// FieldNames are the payload keys that end up on a lead; everything else is dropped
var FieldNames = []string{
	"company_name",
	"owner_name",
	"business_type",
	"start_year",
	"sales_range",
	"employee_count",
	"urgent_issue",
	"loan_status",
	"contact_method",
	"phone",
	"contact_time",
	"memo",
}

// LeadCreator is the part of the lead store the gateway needs
type LeadCreator interface {
	CreateLead(ctx context.Context, category string, fields store.Fields) (*store.Lead, error)
}

type Gateway struct {
	leads LeadCreator
	log   *logrus.Entry
}

func New(leads LeadCreator) *Gateway {
	return &Gateway{
		leads: leads,
		log:   logrus.WithField("component", "gateway"),
	}
}

// Submit stores payload as a lead of the given category. The payload isn't validated; any
// field it lacks is stored as null.
func (g *Gateway) Submit(ctx context.Context, category Category, payload Payload) (*store.Lead, error) {
	if !category.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	lead, err := g.leads.CreateLead(ctx, string(category), toFields(payload))
	if err != nil {
		g.log.WithError(err).WithField("category", category).Error("submission failed")
		return nil, err
	}
	return lead, nil
}

func toFields(p Payload) store.Fields {
	return store.Fields{
		CompanyName:   p["company_name"],
		OwnerName:     p["owner_name"],
		BusinessType:  p["business_type"],
		StartYear:     p["start_year"],
		SalesRange:    p["sales_range"],
		EmployeeCount: p["employee_count"],
		UrgentIssue:   p["urgent_issue"],
		LoanStatus:    p["loan_status"],
		ContactMethod: p["contact_method"],
		Phone:         p["phone"],
		ContactTime:   p["contact_time"],
		Memo:          p["memo"],
	}
}
