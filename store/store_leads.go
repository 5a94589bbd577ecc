package store

import (
	"context"
	"errors"

	storage "github.com/osr-alliance/backend-lead-capture"
	"github.com/sirupsen/logrus"
)

func (s *store) CreateLead(ctx context.Context, category string, fields Fields) (*Lead, error) {
	memo := ""
	if fields.Memo != nil {
		memo = *fields.Memo
	}

	l := &Lead{
		Category:      category,
		CompanyName:   fields.CompanyName,
		OwnerName:     fields.OwnerName,
		BusinessType:  fields.BusinessType,
		StartYear:     fields.StartYear,
		SalesRange:    fields.SalesRange,
		EmployeeCount: fields.EmployeeCount,
		UrgentIssue:   fields.UrgentIssue,
		LoanStatus:    fields.LoanStatus,
		ContactMethod: fields.ContactMethod,
		Phone:         fields.Phone,
		ContactTime:   fields.ContactTime,
		Memo:          memo,
		CreatedAt:     s.now().Format(CreatedAtLayout),
		Status:        StatusUncontacted,
	}

	if err := s.store.Insert(ctx, l); err != nil {
		return nil, storageErr("create lead", err)
	}

	s.log.WithFields(logrus.Fields{"lead_id": l.ID, "category": l.Category}).Info("lead created")
	return l, nil
}

func (s *store) ListLeads(ctx context.Context) ([]Lead, error) {
	leads := []Lead{}
	if err := s.store.SelectAll(ctx, &Lead{}, &leads, LeadsGetAll); err != nil {
		return nil, storageErr("list leads", err)
	}
	return leads, nil
}

// UpdateLeadStatus sets the status of a lead. An id that doesn't exist is not an error.
func (s *store) UpdateLeadStatus(ctx context.Context, id int64, status string) error {
	l := &Lead{
		ID:     id,
		Status: status,
	}

	err := s.store.Update(ctx, l)
	if errors.Is(err, storage.ErrNotFound) {
		s.log.WithField("lead_id", id).Debug("status update matched no lead")
		return nil
	}
	if err != nil {
		return storageErr("update lead status", err)
	}

	s.log.WithFields(logrus.Fields{"lead_id": id, "status": status}).Info("lead status updated")
	return nil
}
