package services

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"tutorbook-backend/models"
	"tutorbook-backend/utils"
)

// ReportService computes reports in process from plain queries so the same
// code runs on PostgreSQL and SQLite.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

type Summary struct {
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	TotalLessons    int       `json:"totalLessons"`
	Scheduled       int       `json:"scheduled"`
	Completed       int       `json:"completed"`
	Cancelled       int       `json:"cancelled"`
	HoursTaught     float64   `json:"hoursTaught"`
	LessonRevenue   float64   `json:"lessonRevenue"`
	PackageRevenue  float64   `json:"packageRevenue"`
	PaymentsTotal   float64   `json:"paymentsReceived"`
	Expenses        float64   `json:"expenses"`
	NetIncome       float64   `json:"netIncome"`
	ActiveStudents  int       `json:"activeStudents"`
	ExpensesByGroup []Amount  `json:"expensesByCategory"`
}

type Amount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type Balance struct {
	StudentID   uuid.UUID  `json:"studentId,omitempty"`
	FamilyID    *uuid.UUID `json:"familyId,omitempty"`
	Name        string     `json:"name"`
	TotalBilled float64    `json:"totalBilled"`
	TotalPaid   float64    `json:"totalPaid"`
	Credit      float64    `json:"credit"`
	Balance     float64    `json:"balance"`
}

type OutstandingReport struct {
	AsOf     time.Time `json:"asOf"`
	Students []Balance `json:"students"`
	Families []Balance `json:"families"`
	Total    float64   `json:"totalOutstanding"`
}

type PackageUsage struct {
	PackageID      uuid.UUID  `json:"packageId"`
	StudentID      uuid.UUID  `json:"studentId"`
	StudentName    string     `json:"studentName"`
	Name           string     `json:"name"`
	TotalHours     float64    `json:"totalHours"`
	UsedHours      float64    `json:"usedHours"`
	RemainingHours float64    `json:"remainingHours"`
	Utilization    float64    `json:"utilization"` // percent
	Status         string     `json:"status"`
	IsPaid         bool       `json:"isPaid"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty"`
}

type StudentMonth struct {
	StudentID uuid.UUID `json:"studentId"`
	Name      string    `json:"name"`
	Lessons   int       `json:"lessons"`
	Hours     float64   `json:"hours"`
	Billed    float64   `json:"billed"`
	Paid      float64   `json:"paid"`
	Balance   float64   `json:"balance"`
}

type MonthlyStudentReport struct {
	Month    string         `json:"month"`
	Students []StudentMonth `json:"students"`
}

type Statement struct {
	Student       models.Student   `json:"student"`
	From          time.Time        `json:"from"`
	To            time.Time        `json:"to"`
	Lessons       []models.Lesson  `json:"lessons"`
	Payments      []models.Payment `json:"payments"`
	Packages      []models.Package `json:"packages"`
	PeriodBilled  float64          `json:"periodBilled"`
	PeriodPaid    float64          `json:"periodPaid"`
	BalanceToDate Balance          `json:"balance"`
}

func (r *ReportService) Summary(from, to time.Time) (*Summary, error) {
	sum := &Summary{From: from, To: to}

	var lessons []models.Lesson
	if err := r.db.Where("date_time >= ? AND date_time <= ?", from, to).Find(&lessons).Error; err != nil {
		return nil, errors.Wrap(err, "load lessons")
	}
	var lessonCents int64
	for _, l := range lessons {
		sum.TotalLessons++
		switch l.Status {
		case models.LessonCompleted:
			sum.Completed++
		case models.LessonCancelled:
			sum.Cancelled++
			continue
		default:
			sum.Scheduled++
		}
		sum.HoursTaught += l.Hours()
		if l.PackageID == nil {
			lessonCents += utils.ToCents(l.Price)
		}
	}
	sum.LessonRevenue = utils.FromCents(lessonCents)
	sum.HoursTaught = utils.RoundMoney(sum.HoursTaught)

	var err error
	if sum.PackageRevenue, err = r.sum(r.db.Model(&models.Package{}).Where("purchase_date >= ? AND purchase_date <= ?", from, to), "price"); err != nil {
		return nil, err
	}
	if sum.PaymentsTotal, err = r.sum(r.db.Model(&models.Payment{}).Where("date >= ? AND date <= ?", from, to), "amount"); err != nil {
		return nil, err
	}

	var purchases []models.Purchase
	if err := r.db.Where("date >= ? AND date <= ?", from, to).Find(&purchases).Error; err != nil {
		return nil, errors.Wrap(err, "load purchases")
	}
	byCategory := map[string]int64{}
	var expenseCents int64
	for _, p := range purchases {
		byCategory[p.Category] += utils.ToCents(p.Amount)
		expenseCents += utils.ToCents(p.Amount)
	}
	sum.Expenses = utils.FromCents(expenseCents)
	sum.ExpensesByGroup = sortedAmounts(byCategory)
	sum.NetIncome = utils.FromCents(utils.ToCents(sum.PaymentsTotal) - expenseCents)

	var active int64
	if err := r.db.Model(&models.Student{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return nil, errors.Wrap(err, "count students")
	}
	sum.ActiveStudents = int(active)
	return sum, nil
}

func (r *ReportService) sum(q *gorm.DB, column string) (float64, error) {
	var total float64
	if err := q.Select("COALESCE(SUM(" + column + "), 0)").Scan(&total).Error; err != nil {
		return 0, errors.Wrapf(err, "sum %s", column)
	}
	return utils.RoundMoney(total), nil
}

// ledger holds everything needed to compute balances, in cents.
type ledger struct {
	students      []models.Student
	billed        map[uuid.UUID]int64
	paid          map[uuid.UUID]int64
	credit        map[uuid.UUID]int64
	familyCredit  map[uuid.UUID]int64
	familyMembers map[uuid.UUID][]uuid.UUID
}

// loadLedger totals billing and payments for the given students as of asOf.
// Billed: non-cancelled, non-package lessons up to asOf plus packages bought
// up to asOf. Paid: money applied to the student's lessons and packages.
// Credit: unallocated payment money.
func (r *ReportService) loadLedger(students []models.Student, asOf time.Time) (*ledger, error) {
	lg := &ledger{
		students:      students,
		billed:        map[uuid.UUID]int64{},
		paid:          map[uuid.UUID]int64{},
		credit:        map[uuid.UUID]int64{},
		familyCredit:  map[uuid.UUID]int64{},
		familyMembers: map[uuid.UUID][]uuid.UUID{},
	}
	ids := make([]uuid.UUID, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
		if s.FamilyID != nil {
			lg.familyMembers[*s.FamilyID] = append(lg.familyMembers[*s.FamilyID], s.ID)
		}
	}
	if len(ids) == 0 {
		return lg, nil
	}

	var lessons []models.Lesson
	if err := r.db.Where("student_id IN ? AND status <> ?", ids, models.LessonCancelled).Find(&lessons).Error; err != nil {
		return nil, errors.Wrap(err, "load lessons")
	}
	for _, l := range lessons {
		if l.PackageID != nil {
			continue
		}
		if !l.DateTime.After(asOf) {
			lg.billed[l.StudentID] += utils.ToCents(l.Price)
		}
		lg.paid[l.StudentID] += utils.ToCents(l.PaidAmount)
	}

	var pkgs []models.Package
	if err := r.db.Where("student_id IN ? AND purchase_date <= ?", ids, asOf).Find(&pkgs).Error; err != nil {
		return nil, errors.Wrap(err, "load packages")
	}
	for _, p := range pkgs {
		lg.billed[p.StudentID] += utils.ToCents(p.Price)
		if p.IsPaid {
			lg.paid[p.StudentID] += utils.ToCents(p.Price)
		}
	}

	var payments []models.Payment
	if err := r.db.Where("credit_amount > 0 AND date <= ?", asOf).Find(&payments).Error; err != nil {
		return nil, errors.Wrap(err, "load payments")
	}
	for _, p := range payments {
		cents := utils.ToCents(p.CreditAmount)
		switch {
		case p.StudentID != nil:
			lg.credit[*p.StudentID] += cents
		case p.FamilyID != nil:
			lg.familyCredit[*p.FamilyID] += cents
		}
	}
	return lg, nil
}

func (lg *ledger) studentBalance(s models.Student) Balance {
	billed, paid, credit := lg.billed[s.ID], lg.paid[s.ID], lg.credit[s.ID]
	return Balance{
		StudentID:   s.ID,
		FamilyID:    s.FamilyID,
		Name:        s.FullName(),
		TotalBilled: utils.FromCents(billed),
		TotalPaid:   utils.FromCents(paid + credit),
		Credit:      utils.FromCents(credit),
		Balance:     utils.FromCents(billed - paid - credit),
	}
}

func (lg *ledger) familyBalance(familyID uuid.UUID, names []string) Balance {
	var billed, paid, credit int64
	for _, id := range lg.familyMembers[familyID] {
		billed += lg.billed[id]
		paid += lg.paid[id]
		credit += lg.credit[id]
	}
	credit += lg.familyCredit[familyID]
	fid := familyID
	name := ""
	for i, n := range names {
		if i > 0 {
			name += ", "
		}
		name += n
	}
	return Balance{
		FamilyID:    &fid,
		Name:        name,
		TotalBilled: utils.FromCents(billed),
		TotalPaid:   utils.FromCents(paid + credit),
		Credit:      utils.FromCents(credit),
		Balance:     utils.FromCents(billed - paid - credit),
	}
}

func (r *ReportService) Outstanding(asOf time.Time) (*OutstandingReport, error) {
	var students []models.Student
	if err := r.db.Order("last_name ASC, first_name ASC").Find(&students).Error; err != nil {
		return nil, errors.Wrap(err, "load students")
	}
	lg, err := r.loadLedger(students, asOf)
	if err != nil {
		return nil, err
	}

	report := &OutstandingReport{AsOf: asOf, Students: []Balance{}, Families: []Balance{}}
	names := map[uuid.UUID][]string{}
	var total int64
	for _, s := range students {
		b := lg.studentBalance(s)
		report.Students = append(report.Students, b)
		if s.FamilyID != nil {
			names[*s.FamilyID] = append(names[*s.FamilyID], s.FirstName)
		} else {
			total += utils.ToCents(b.Balance)
		}
	}
	for familyID := range lg.familyMembers {
		b := lg.familyBalance(familyID, names[familyID])
		report.Families = append(report.Families, b)
		total += utils.ToCents(b.Balance)
	}
	sort.Slice(report.Families, func(i, j int) bool { return report.Families[i].Name < report.Families[j].Name })
	report.Total = utils.FromCents(total)
	return report, nil
}

func (r *ReportService) StudentBalance(student models.Student, asOf time.Time) (Balance, error) {
	lg, err := r.loadLedger([]models.Student{student}, asOf)
	if err != nil {
		return Balance{}, err
	}
	return lg.studentBalance(student), nil
}

func (r *ReportService) PackageUtilization() ([]PackageUsage, error) {
	var pkgs []models.Package
	if err := r.db.Preload("Student").Order("purchase_date DESC").Find(&pkgs).Error; err != nil {
		return nil, errors.Wrap(err, "load packages")
	}
	usage := make([]PackageUsage, 0, len(pkgs))
	for _, p := range pkgs {
		u := PackageUsage{
			PackageID:      p.ID,
			StudentID:      p.StudentID,
			Name:           p.Name,
			TotalHours:     p.TotalHours,
			UsedHours:      p.UsedHours,
			RemainingHours: utils.RoundMoney(p.RemainingHours()),
			Status:         p.Status,
			IsPaid:         p.IsPaid,
			ExpiryDate:     p.ExpiryDate,
		}
		if p.Student != nil {
			u.StudentName = p.Student.FullName()
		}
		if p.TotalHours > 0 {
			u.Utilization = utils.RoundMoney(p.UsedHours / p.TotalHours * 100)
		}
		usage = append(usage, u)
	}
	return usage, nil
}

func (r *ReportService) MonthlyStudent(month time.Time) (*MonthlyStudentReport, error) {
	start, end := utils.MonthRange(month)

	var lessons []models.Lesson
	if err := r.db.Preload("Student").
		Where("date_time >= ? AND date_time < ? AND status <> ?", start, end, models.LessonCancelled).
		Find(&lessons).Error; err != nil {
		return nil, errors.Wrap(err, "load lessons")
	}

	rows := map[uuid.UUID]*StudentMonth{}
	billed := map[uuid.UUID]int64{}
	paid := map[uuid.UUID]int64{}
	for _, l := range lessons {
		row, ok := rows[l.StudentID]
		if !ok {
			row = &StudentMonth{StudentID: l.StudentID}
			if l.Student != nil {
				row.Name = l.Student.FullName()
			}
			rows[l.StudentID] = row
		}
		row.Lessons++
		row.Hours += l.Hours()
		if l.PackageID == nil {
			billed[l.StudentID] += utils.ToCents(l.Price)
			paid[l.StudentID] += utils.ToCents(l.PaidAmount)
		}
	}

	report := &MonthlyStudentReport{Month: start.Format("2006-01"), Students: []StudentMonth{}}
	for id, row := range rows {
		row.Hours = utils.RoundMoney(row.Hours)
		row.Billed = utils.FromCents(billed[id])
		row.Paid = utils.FromCents(paid[id])
		row.Balance = utils.FromCents(billed[id] - paid[id])
		report.Students = append(report.Students, *row)
	}
	sort.Slice(report.Students, func(i, j int) bool { return report.Students[i].Name < report.Students[j].Name })
	return report, nil
}

// Statement gathers a student's lessons, payments and packages for a period
// together with the running balance at the end of it.
func (r *ReportService) Statement(studentID uuid.UUID, from, to time.Time) (*Statement, error) {
	var student models.Student
	if err := r.db.First(&student, "id = ?", studentID).Error; err != nil {
		return nil, notFoundOr(err, "student")
	}

	st := &Statement{Student: student, From: from, To: to}
	if err := r.db.Where("student_id = ? AND date_time >= ? AND date_time <= ?", studentID, from, to).
		Order("date_time ASC").Find(&st.Lessons).Error; err != nil {
		return nil, errors.Wrap(err, "load lessons")
	}
	if err := r.db.Where("student_id = ? AND purchase_date >= ? AND purchase_date <= ?", studentID, from, to).
		Order("purchase_date ASC").Find(&st.Packages).Error; err != nil {
		return nil, errors.Wrap(err, "load packages")
	}

	lessonIDs := r.db.Model(&models.Lesson{}).Select("id").Where("student_id = ?", studentID)
	paymentIDs := r.db.Model(&models.PaymentAllocation{}).Select("payment_id").Where("lesson_id IN (?)", lessonIDs)
	if err := r.db.Preload("Allocations").
		Where("date >= ? AND date <= ?", from, to).
		Where(r.db.Where("student_id = ?", studentID).Or("id IN (?)", paymentIDs)).
		Order("date ASC").Find(&st.Payments).Error; err != nil {
		return nil, errors.Wrap(err, "load payments")
	}

	var billed, paid int64
	for _, l := range st.Lessons {
		if l.Status != models.LessonCancelled && l.PackageID == nil {
			billed += utils.ToCents(l.Price)
		}
	}
	for _, p := range st.Packages {
		billed += utils.ToCents(p.Price)
	}
	for _, p := range st.Payments {
		share, err := r.studentShare(p, studentID)
		if err != nil {
			return nil, err
		}
		paid += share
	}
	st.PeriodBilled = utils.FromCents(billed)
	st.PeriodPaid = utils.FromCents(paid)

	balance, err := r.StudentBalance(student, to)
	if err != nil {
		return nil, err
	}
	st.BalanceToDate = balance
	return st, nil
}

// studentShare is the part of a payment that went to this student: the
// allocations on the student's lessons, plus whatever the student's own
// payments did not spend on other students.
func (r *ReportService) studentShare(p models.Payment, studentID uuid.UUID) (int64, error) {
	own := p.StudentID != nil && *p.StudentID == studentID
	if len(p.Allocations) == 0 {
		if own {
			return utils.ToCents(p.Amount), nil
		}
		return 0, nil
	}

	lessonIDs := make([]uuid.UUID, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		lessonIDs = append(lessonIDs, a.LessonID)
	}
	var mine []uuid.UUID
	if err := r.db.Model(&models.Lesson{}).Where("id IN ? AND student_id = ?", lessonIDs, studentID).
		Pluck("id", &mine).Error; err != nil {
		return 0, errors.Wrap(err, "load allocated lessons")
	}

	var cents, others int64
	for _, a := range p.Allocations {
		if containsID(mine, a.LessonID) {
			cents += utils.ToCents(a.Amount)
		} else {
			others += utils.ToCents(a.Amount)
		}
	}
	if own {
		return utils.ToCents(p.Amount) - others, nil
	}
	return cents, nil
}

func sortedAmounts(m map[string]int64) []Amount {
	out := make([]Amount, 0, len(m))
	for name, cents := range m {
		out = append(out, Amount{Name: name, Amount: utils.FromCents(cents)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

type Dashboard struct {
	ActiveStudents   int              `json:"activeStudents"`
	LessonsToday     int              `json:"lessonsToday"`
	MonthPayments    float64          `json:"monthPayments"`
	MonthExpenses    float64          `json:"monthExpenses"`
	TotalOutstanding float64          `json:"totalOutstanding"`
	Upcoming         []models.Lesson  `json:"upcomingLessons"`
	ExpiringPackages []models.Package `json:"expiringPackages"`
}

// Dashboard collects the figures shown on the landing page: upcoming lessons
// for the next week and active packages expiring within two weeks.
func (r *ReportService) Dashboard(now time.Time) (*Dashboard, error) {
	d := &Dashboard{}

	var active int64
	if err := r.db.Model(&models.Student{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return nil, errors.Wrap(err, "count students")
	}
	d.ActiveStudents = int(active)

	var today int64
	if err := r.db.Model(&models.Lesson{}).
		Where("status <> ? AND date_time >= ? AND date_time <= ?", models.LessonCancelled, utils.BeginningOfDay(now), utils.EndOfDay(now)).
		Count(&today).Error; err != nil {
		return nil, errors.Wrap(err, "count lessons")
	}
	d.LessonsToday = int(today)

	monthStart, monthEnd := utils.MonthRange(now)
	var err error
	if d.MonthPayments, err = r.sum(r.db.Model(&models.Payment{}).Where("date >= ? AND date < ?", monthStart, monthEnd), "amount"); err != nil {
		return nil, err
	}
	if d.MonthExpenses, err = r.sum(r.db.Model(&models.Purchase{}).Where("date >= ? AND date < ?", monthStart, monthEnd), "amount"); err != nil {
		return nil, err
	}

	outstanding, err := r.Outstanding(now)
	if err != nil {
		return nil, err
	}
	d.TotalOutstanding = outstanding.Total

	if err := r.db.Preload("Student").
		Where("status = ? AND date_time >= ? AND date_time < ?", models.LessonScheduled, now, now.AddDate(0, 0, 7)).
		Order("date_time ASC").
		Limit(20).
		Find(&d.Upcoming).Error; err != nil {
		return nil, errors.Wrap(err, "load upcoming lessons")
	}

	if err := r.db.Preload("Student").
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date <= ?", models.PackageActive, now.AddDate(0, 0, 14)).
		Order("expiry_date ASC").
		Find(&d.ExpiringPackages).Error; err != nil {
		return nil, errors.Wrap(err, "load expiring packages")
	}
	return d, nil
}
