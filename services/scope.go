package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeFuture Scope = "future"
)

// SeriesMember is a record that may belong to a recurring group.
type SeriesMember interface {
	SeriesGroup() *uuid.UUID
	SeriesTime() time.Time
}

// ScopeFilter selects the records touched by an edit or delete. A nil GroupID
// means only the record with ID.
type ScopeFilter struct {
	ID      uuid.UUID
	GroupID *uuid.UUID
	From    time.Time
}

func ResolveScope(id uuid.UUID, member SeriesMember, scope Scope) (ScopeFilter, error) {
	switch scope {
	case ScopeSingle, "":
		return ScopeFilter{ID: id}, nil
	case ScopeFuture:
		group := member.SeriesGroup()
		if group == nil {
			return ScopeFilter{}, validationf("record is not part of a recurring series")
		}
		g := *group
		return ScopeFilter{ID: id, GroupID: &g, From: member.SeriesTime()}, nil
	}
	return ScopeFilter{}, validationf("invalid scope %q", scope)
}

func (f ScopeFilter) Includes(id uuid.UUID, member SeriesMember) bool {
	if f.GroupID == nil {
		return id == f.ID
	}
	group := member.SeriesGroup()
	return group != nil && *group == *f.GroupID && !member.SeriesTime().Before(f.From)
}

func (f ScopeFilter) apply(tx *gorm.DB, timeColumn string) *gorm.DB {
	if f.GroupID == nil {
		return tx.Where("id = ?", f.ID)
	}
	return tx.Where("recurring_group_id = ? AND "+timeColumn+" >= ?", *f.GroupID, f.From).
		Order(timeColumn + " ASC")
}
