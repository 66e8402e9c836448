package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"tutorbook-backend/models"
)

func lesson(at time.Time, price, paid float64) models.Lesson {
	return models.Lesson{
		Base:       models.Base{ID: uuid.New(), CreatedAt: at},
		DateTime:   at,
		Price:      price,
		PaidAmount: paid,
	}
}

func TestPlanAllocation(t *testing.T) {
	a := lesson(date(2024, time.January, 1, 10), 30, 0)
	b := lesson(date(2024, time.January, 2, 10), 30, 0)
	partial := lesson(date(2024, time.January, 3, 10), 40, 15)
	paid := lesson(date(2023, time.December, 20, 10), 30, 30)

	tests := []struct {
		name     string
		amount   int64
		lessons  []models.Lesson
		expected []Allocation
		credit   int64
	}{
		{
			name:     "oldest lesson first",
			amount:   5000,
			lessons:  []models.Lesson{b, a},
			expected: []Allocation{{a.ID, 3000}, {b.ID, 2000}},
			credit:   0,
		},
		{
			name:     "excess becomes credit",
			amount:   10000,
			lessons:  []models.Lesson{a, b},
			expected: []Allocation{{a.ID, 3000}, {b.ID, 3000}},
			credit:   4000,
		},
		{
			name:     "partially paid lesson takes only its outstanding balance",
			amount:   3000,
			lessons:  []models.Lesson{partial},
			expected: []Allocation{{partial.ID, 2500}},
			credit:   500,
		},
		{
			name:     "paid lessons are skipped",
			amount:   1000,
			lessons:  []models.Lesson{paid, a},
			expected: []Allocation{{a.ID, 1000}},
			credit:   0,
		},
		{
			name:    "no lessons",
			amount:  1234,
			lessons: nil,
			credit:  1234,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanAllocation(tt.amount, tt.lessons)
			assert.Equal(t, tt.expected, plan.Allocations)
			assert.Equal(t, tt.credit, plan.CreditCents)
			assert.Equal(t, tt.amount, plan.AllocatedCents()+plan.CreditCents)
		})
	}
}

func TestPlanAllocationTieBreak(t *testing.T) {
	at := date(2024, time.February, 1, 15)
	first := lesson(at, 20, 0)
	second := lesson(at, 20, 0)
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	plan := PlanAllocation(2000, []models.Lesson{second, first})
	assert.Equal(t, []Allocation{{first.ID, 2000}}, plan.Allocations)

	// same creation time falls back to id order
	second.CreatedAt = first.CreatedAt
	lo, hi := first, second
	if hi.ID.String() < lo.ID.String() {
		lo, hi = hi, lo
	}
	plan = PlanAllocation(2000, []models.Lesson{hi, lo})
	assert.Equal(t, []Allocation{{lo.ID, 2000}}, plan.Allocations)
}

func TestPlanAllocationDoesNotReorderInput(t *testing.T) {
	a := lesson(date(2024, time.January, 1, 10), 30, 0)
	b := lesson(date(2024, time.January, 2, 10), 30, 0)
	input := []models.Lesson{b, a}
	PlanAllocation(6000, input)
	assert.Equal(t, b.ID, input[0].ID)
}
