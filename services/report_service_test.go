package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutorbook-backend/models"
)

type reportFixture struct {
	solo     models.Student
	family   uuid.UUID
	siblingA models.Student
	siblingB models.Student
}

// seedReports builds one April with a solo student who paid part of two
// lessons and a family that overpaid by 20.
func seedReports(t *testing.T, db *gorm.DB) reportFixture {
	t.Helper()
	lessons := NewLessonService(db, zap.NewNop())
	payments := NewPaymentService(db, zap.NewNop())
	purchases := NewPurchaseService(db, zap.NewNop())

	f := reportFixture{family: uuid.New()}
	f.solo = createStudent(t, db, "Ava", 30, nil)
	f.siblingA = createStudent(t, db, "Ben", 30, &f.family)
	f.siblingB = createStudent(t, db, "Cal", 30, &f.family)

	l1 := createLesson(t, db, f.solo.ID, date(2024, time.April, 1, 10), 30)
	l2 := createLesson(t, db, f.solo.ID, date(2024, time.April, 8, 10), 30)
	_, err := lessons.Create(LessonInput{
		StudentID: f.solo.ID,
		DateTime:  date(2024, time.April, 15, 10),
		Duration:  60,
		Status:    models.LessonCancelled,
	})
	require.NoError(t, err)
	createLesson(t, db, f.siblingA.ID, date(2024, time.April, 2, 10), 30)
	createLesson(t, db, f.siblingB.ID, date(2024, time.April, 3, 10), 30)

	_, err = payments.Create(PaymentInput{
		StudentID: &f.solo.ID,
		LessonIDs: []uuid.UUID{l1.ID, l2.ID},
		Amount:    45,
		Date:      date(2024, time.April, 10, 12),
	})
	require.NoError(t, err)
	_, _, err = payments.CreateFamilyPayment(FamilyPaymentInput{
		FamilyID: f.family,
		Amount:   80,
		Date:     date(2024, time.April, 10, 12),
	})
	require.NoError(t, err)

	_, err = purchases.Create(PurchaseInput{Description: "Books", Category: "Supplies", Amount: 50, Date: date(2024, time.April, 5, 9)})
	require.NoError(t, err)
	return f
}

func TestReportServiceSummary(t *testing.T) {
	db := setupDB(t)
	seedReports(t, db)
	svc := NewReportService(db)

	sum, err := svc.Summary(date(2024, time.April, 1, 0), date(2024, time.April, 30, 23))
	require.NoError(t, err)
	assert.Equal(t, 5, sum.TotalLessons)
	assert.Equal(t, 4, sum.Scheduled)
	assert.Equal(t, 1, sum.Cancelled)
	assert.Equal(t, 4.0, sum.HoursTaught)
	assert.Equal(t, 120.0, sum.LessonRevenue)
	assert.Equal(t, 125.0, sum.PaymentsTotal)
	assert.Equal(t, 50.0, sum.Expenses)
	assert.Equal(t, 75.0, sum.NetIncome)
	assert.Equal(t, 3, sum.ActiveStudents)
	assert.Equal(t, []Amount{{Name: "Supplies", Amount: 50}}, sum.ExpensesByGroup)
}

func TestReportServiceOutstanding(t *testing.T) {
	db := setupDB(t)
	f := seedReports(t, db)
	svc := NewReportService(db)

	report, err := svc.Outstanding(date(2024, time.April, 30, 23))
	require.NoError(t, err)

	var solo *Balance
	for i := range report.Students {
		if report.Students[i].StudentID == f.solo.ID {
			solo = &report.Students[i]
		}
	}
	require.NotNil(t, solo)
	assert.Equal(t, 60.0, solo.TotalBilled)
	assert.Equal(t, 45.0, solo.TotalPaid)
	assert.Equal(t, 15.0, solo.Balance)

	require.Len(t, report.Families, 1)
	family := report.Families[0]
	assert.Equal(t, f.family, *family.FamilyID)
	assert.Equal(t, 60.0, family.TotalBilled)
	assert.Equal(t, 80.0, family.TotalPaid)
	assert.Equal(t, 20.0, family.Credit)
	assert.Equal(t, -20.0, family.Balance)

	assert.Equal(t, -5.0, report.Total)

	// nothing is billed before the first lesson
	early, err := svc.Outstanding(date(2024, time.March, 31, 0))
	require.NoError(t, err)
	for _, b := range early.Students {
		assert.Zero(t, b.TotalBilled)
	}
}

func TestReportServiceMonthlyStudent(t *testing.T) {
	db := setupDB(t)
	f := seedReports(t, db)
	svc := NewReportService(db)

	report, err := svc.MonthlyStudent(date(2024, time.April, 17, 0))
	require.NoError(t, err)
	assert.Equal(t, "2024-04", report.Month)
	require.Len(t, report.Students, 3)

	first := report.Students[0]
	assert.Equal(t, f.solo.ID, first.StudentID)
	assert.Equal(t, 2, first.Lessons)
	assert.Equal(t, 60.0, first.Billed)
	assert.Equal(t, 45.0, first.Paid)
	assert.Equal(t, 15.0, first.Balance)

	empty, err := svc.MonthlyStudent(date(2024, time.May, 1, 0))
	require.NoError(t, err)
	assert.Empty(t, empty.Students)
}

func TestReportServiceStatement(t *testing.T) {
	db := setupDB(t)
	f := seedReports(t, db)
	svc := NewReportService(db)

	st, err := svc.Statement(f.solo.ID, date(2024, time.April, 1, 0), date(2024, time.April, 30, 23))
	require.NoError(t, err)
	assert.Len(t, st.Lessons, 3)
	assert.Len(t, st.Payments, 1)
	assert.Equal(t, 60.0, st.PeriodBilled)
	assert.Equal(t, 45.0, st.PeriodPaid)
	assert.Equal(t, 15.0, st.BalanceToDate.Balance)

	sibling, err := svc.Statement(f.siblingA.ID, date(2024, time.April, 1, 0), date(2024, time.April, 30, 23))
	require.NoError(t, err)
	require.Len(t, sibling.Payments, 1)
	assert.Equal(t, 30.0, sibling.PeriodPaid)

	_, err = svc.Statement(uuid.New(), date(2024, time.April, 1, 0), date(2024, time.April, 30, 23))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportServicePackageUtilization(t *testing.T) {
	db := setupDB(t)
	packages := NewPackageService(db, zap.NewNop())
	lessons := NewLessonService(db, zap.NewNop())
	student := createStudent(t, db, "Dee", 40, nil)

	pkg, err := packages.Create(PackageInput{StudentID: student.ID, TotalHours: 4})
	require.NoError(t, err)
	_, err = lessons.Create(LessonInput{StudentID: student.ID, DateTime: date(2024, time.June, 3, 17), Duration: 60, PackageID: &pkg.ID})
	require.NoError(t, err)

	usage, err := NewReportService(db).PackageUtilization()
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 25.0, usage[0].Utilization)
	assert.Equal(t, 3.0, usage[0].RemainingHours)
	assert.Equal(t, "Dee Tester", usage[0].StudentName)
}

func TestReportServiceStatementSplitsSharedPayment(t *testing.T) {
	db := setupDB(t)
	svc := NewReportService(db)
	family := uuid.New()
	payer := createStudent(t, db, "Uma", 30, &family)
	sibling := createStudent(t, db, "Vic", 30, &family)

	own := createLesson(t, db, payer.ID, date(2024, time.June, 3, 10), 30)
	theirs := createLesson(t, db, sibling.ID, date(2024, time.June, 4, 10), 30)

	_, err := NewPaymentService(db, zap.NewNop()).Create(PaymentInput{
		StudentID: &payer.ID,
		LessonIDs: []uuid.UUID{own.ID, theirs.ID},
		Amount:    70,
		Date:      date(2024, time.June, 5, 12),
	})
	require.NoError(t, err)

	from, to := date(2024, time.June, 1, 0), date(2024, time.June, 30, 23)

	payerStatement, err := svc.Statement(payer.ID, from, to)
	require.NoError(t, err)
	// own lesson plus the unallocated credit, not the sibling's lesson
	assert.Equal(t, 40.0, payerStatement.PeriodPaid)

	siblingStatement, err := svc.Statement(sibling.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, 30.0, siblingStatement.PeriodPaid)

	assert.Equal(t, 70.0, payerStatement.PeriodPaid+siblingStatement.PeriodPaid)
}
