package services

import (
	"sort"

	"github.com/google/uuid"

	"tutorbook-backend/models"
	"tutorbook-backend/utils"
)

type Allocation struct {
	LessonID uuid.UUID
	Cents    int64
}

type AllocationPlan struct {
	Allocations []Allocation
	CreditCents int64
}

func (p AllocationPlan) AllocatedCents() int64 {
	var total int64
	for _, a := range p.Allocations {
		total += a.Cents
	}
	return total
}

// SortChronologically orders lessons by date, then creation time, then id.
func SortChronologically(lessons []models.Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		a, b := lessons[i], lessons[j]
		if !a.DateTime.Equal(b.DateTime) {
			return a.DateTime.Before(b.DateTime)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

func OutstandingCents(l models.Lesson) int64 {
	if out := utils.ToCents(l.Price) - utils.ToCents(l.PaidAmount); out > 0 {
		return out
	}
	return 0
}

// PlanAllocation greedily applies amountCents to the oldest unpaid lessons
// first. Whatever is left once every lesson is settled becomes credit.
func PlanAllocation(amountCents int64, lessons []models.Lesson) AllocationPlan {
	ordered := make([]models.Lesson, len(lessons))
	copy(ordered, lessons)
	SortChronologically(ordered)

	plan := AllocationPlan{}
	remaining := amountCents
	for _, l := range ordered {
		if remaining <= 0 {
			break
		}
		out := OutstandingCents(l)
		if out == 0 {
			continue
		}
		applied := min(out, remaining)
		plan.Allocations = append(plan.Allocations, Allocation{LessonID: l.ID, Cents: applied})
		remaining -= applied
	}
	plan.CreditCents = remaining
	return plan
}
