package unibooks

import (
	"errors"
	"testing"
	"time"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func strPtr(s string) *string { return &s }

func TestDeriveStatusReturnedWinsOverDates(t *testing.T) {
	// Even a long-overdue loan is Devuelto once the return date is set.
	loan := Loan{
		LoanDate:       "2020-01-01",
		ExpectedReturn: "2020-01-31",
		ReturnedAt:     strPtr("2021-06-15"),
	}
	der, err := DeriveStatus(loan, date(t, "2024-02-05"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if der.Status != StatusReturned {
		t.Fatalf("want Devuelto, got %s", der.Status)
	}
	if der.DaysRemaining != 0 {
		t.Fatalf("want 0 days remaining, got %d", der.DaysRemaining)
	}
}

func TestDeriveStatusActiveWindow(t *testing.T) {
	// Loan created 2024-01-01 with a 30-day window, checked mid-window.
	loan := Loan{LoanDate: "2024-01-01", ExpectedReturn: "2024-01-31"}

	der, err := DeriveStatus(loan, date(t, "2024-01-20"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if der.Status != StatusActive {
		t.Fatalf("want Prestado, got %s", der.Status)
	}
	if der.DaysRemaining != 11 {
		t.Fatalf("want 11 days remaining, got %d", der.DaysRemaining)
	}
	if der.Overdue() != 0 {
		t.Fatalf("active loan has no overdue magnitude")
	}
}

func TestDeriveStatusOverdue(t *testing.T) {
	// Same loan checked five days past due.
	loan := Loan{LoanDate: "2024-01-01", ExpectedReturn: "2024-01-31"}

	der, err := DeriveStatus(loan, date(t, "2024-02-05"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if der.Status != StatusOverdue {
		t.Fatalf("want Vencido, got %s", der.Status)
	}
	if der.DaysRemaining != -5 {
		t.Fatalf("want -5 days remaining, got %d", der.DaysRemaining)
	}
	if der.Overdue() != 5 {
		t.Fatalf("want overdue magnitude 5, got %d", der.Overdue())
	}
}

func TestDeriveStatusDueTodayStillActive(t *testing.T) {
	// The cutover to Vencido happens only once the difference goes
	// strictly negative.
	loan := Loan{LoanDate: "2024-01-01", ExpectedReturn: "2024-01-31"}

	der, err := DeriveStatus(loan, date(t, "2024-01-31"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if der.Status != StatusActive {
		t.Fatalf("want Prestado on the due date, got %s", der.Status)
	}
	if der.DaysRemaining != 0 {
		t.Fatalf("want 0 days remaining, got %d", der.DaysRemaining)
	}
	if !der.DueSoon() {
		t.Fatalf("due today should flag as due soon")
	}
}

func TestDeriveStatusBadDateFailsHard(t *testing.T) {
	loan := Loan{LoanDate: "2024-01-01", ExpectedReturn: "31/01/2024"}

	_, err := DeriveStatus(loan, date(t, "2024-01-20"))
	if err == nil {
		t.Fatalf("want DateFormatError, got nil")
	}
	var dfe *DateFormatError
	if !errors.As(err, &dfe) {
		t.Fatalf("want DateFormatError, got %T: %v", err, err)
	}
}

func TestDeriveStatusIgnoresTimeOfDay(t *testing.T) {
	// Calendar-day subtraction: late evening on the due date is still
	// due today, not overdue.
	loan := Loan{LoanDate: "2024-01-01", ExpectedReturn: "2024-01-31"}
	today := time.Date(2024, 1, 31, 23, 45, 0, 0, time.Local)

	der, err := DeriveStatus(loan, today)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if der.Status != StatusActive || der.DaysRemaining != 0 {
		t.Fatalf("want Prestado/0, got %s/%d", der.Status, der.DaysRemaining)
	}
}

func TestNewLoanDetailJoinsTitles(t *testing.T) {
	loan := Loan{
		ID:             7,
		LoanDate:       "2024-01-01",
		ExpectedReturn: "2024-01-31",
		User:           User{FirstName: "Ana", LastName: "Gomez"},
		Books: []Book{
			{Title: "El Quijote"},
			{Title: "Cien años de soledad"},
		},
	}

	detail, err := NewLoanDetail(loan, date(t, "2024-01-20"))
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.BookTitles != "El Quijote, Cien años de soledad" {
		t.Fatalf("unexpected titles: %q", detail.BookTitles)
	}
	if detail.Student != "Ana Gomez" {
		t.Fatalf("unexpected student: %q", detail.Student)
	}
	if detail.Status != StatusActive || detail.DaysRemaining != 11 {
		t.Fatalf("unexpected derivation: %s/%d", detail.Status, detail.DaysRemaining)
	}
}

func TestNewLoanDetailWithoutBooks(t *testing.T) {
	loan := Loan{ID: 8, LoanDate: "2024-01-01", ExpectedReturn: "2024-01-31"}

	detail, err := NewLoanDetail(loan, date(t, "2024-01-20"))
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.BookTitles != "Libro no encontrado" {
		t.Fatalf("unexpected placeholder: %q", detail.BookTitles)
	}
}
