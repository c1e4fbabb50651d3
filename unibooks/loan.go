package unibooks

import (
	"strings"
	"time"
)

// DateLayout is the backend's date format: calendar days, no time of day.
const DateLayout = "2006-01-02"

// LoanStatus is the derived tri-state of a loan. The values are the
// Spanish labels the backend's users know, so String() doubles as the
// display form.
type LoanStatus string

const (
	// StatusActive: not yet returned, due date today or later.
	StatusActive LoanStatus = "Prestado"
	// StatusOverdue: not yet returned, due date strictly in the past.
	StatusOverdue LoanStatus = "Vencido"
	// StatusReturned: actual return date is set.
	StatusReturned LoanStatus = "Devuelto"
)

func (s LoanStatus) String() string { return string(s) }

// ParseDate parses a backend date. Anything other than YYYY-MM-DD is a
// hard DateFormatError; there is no silent default.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &DateFormatError{Value: s}
	}
	return t, nil
}

// FormatDate renders t in the backend's date format.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// daysBetween is the signed whole-day count from a to b, both truncated
// to calendar days.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Derivation is the computed state of a loan on a given day.
type Derivation struct {
	Status LoanStatus
	// DaysRemaining is expected return date minus today, in whole days,
	// signed. Zero for returned loans. Zero on the due date itself still
	// counts as active.
	DaysRemaining int
}

// Overdue returns the overdue magnitude: positive days past due, zero
// otherwise.
func (d Derivation) Overdue() int {
	if d.Status == StatusOverdue {
		return -d.DaysRemaining
	}
	return 0
}

// DueSoon reports whether an active loan is within two days of its due
// date. Display-only urgency marker.
func (d Derivation) DueSoon() bool {
	return d.Status == StatusActive && d.DaysRemaining <= 2
}

// DeriveStatus computes the loan's status and signed day count as of
// today. A returned loan is Devuelto regardless of dates; otherwise the
// cutover to Vencido happens only once the day difference goes strictly
// negative, so a loan due today is still Prestado.
func DeriveStatus(loan Loan, today time.Time) (Derivation, error) {
	if loan.ReturnedAt != nil && *loan.ReturnedAt != "" {
		return Derivation{Status: StatusReturned}, nil
	}

	due, err := ParseDate(loan.ExpectedReturn)
	if err != nil {
		return Derivation{}, err
	}

	days := daysBetween(today, due)
	status := StatusActive
	if days < 0 {
		status = StatusOverdue
	}
	return Derivation{Status: status, DaysRemaining: days}, nil
}

// LoanDetail is a loan flattened for display: joined book titles, the
// borrower's name, and the derived status.
type LoanDetail struct {
	ID            int
	BookTitles    string
	Student       string
	LoanDate      string
	ReturnedAt    string
	DueDate       string
	Status        LoanStatus
	DaysRemaining int
}

// NewLoanDetail flattens a wire loan as of today.
func NewLoanDetail(loan Loan, today time.Time) (LoanDetail, error) {
	der, err := DeriveStatus(loan, today)
	if err != nil {
		return LoanDetail{}, err
	}

	titles := make([]string, 0, len(loan.Books))
	for _, b := range loan.Books {
		titles = append(titles, b.Title)
	}
	joined := strings.Join(titles, ", ")
	if joined == "" {
		joined = "Libro no encontrado"
	}

	returned := ""
	if loan.ReturnedAt != nil {
		returned = *loan.ReturnedAt
	}

	return LoanDetail{
		ID:            loan.ID,
		BookTitles:    joined,
		Student:       loan.User.FullName(),
		LoanDate:      loan.LoanDate,
		ReturnedAt:    returned,
		DueDate:       loan.ExpectedReturn,
		Status:        der.Status,
		DaysRemaining: der.DaysRemaining,
	}, nil
}
