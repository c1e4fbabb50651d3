package unibooks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Manager is a façade over the Client that owns the in-memory collections
// the terminal renders from. Every mutation goes mutate-then-refresh: the
// mutating request completes first, then the affected collections are
// re-fetched and replaced wholesale, never patched in place. A refresh
// failure after a successful mutation is logged and swallowed; the view
// stays stale until the next successful refresh.
type Manager struct {
	client *Client
	log    zerolog.Logger

	// now is the clock used for status derivation and loan windows.
	now func() time.Time

	books []Book
	users []User
	loans []Loan
}

// NewManager wires a manager over client. The logger is used only for
// soft errors on background refreshes.
func NewManager(client *Client, log zerolog.Logger) *Manager {
	return &Manager{client: client, log: log, now: time.Now}
}

// ------------------ Snapshots ------------------

// Books returns the current catalog snapshot.
func (m *Manager) Books() []Book { return m.books }

// Users returns the current account snapshot.
func (m *Manager) Users() []User { return m.users }

// Loans returns the current loan snapshot.
func (m *Manager) Loans() []Loan { return m.loans }

// AvailableBooks filters the snapshot to titles with stock remaining.
// Zero-stock books are never offered for selection.
func (m *Manager) AvailableBooks() []Book {
	var out []Book
	for _, b := range m.books {
		if b.Stock > 0 {
			out = append(out, b)
		}
	}
	return out
}

// Students filters the account snapshot to borrower candidates.
func (m *Manager) Students() []User {
	var out []User
	for _, u := range m.users {
		if u.Role == RoleStudent {
			out = append(out, u)
		}
	}
	return out
}

// BookByID looks a book up in the snapshot.
func (m *Manager) BookByID(id int) (Book, bool) {
	for _, b := range m.books {
		if b.ID == id {
			return b, true
		}
	}
	return Book{}, false
}

// UserByID looks a user up in the snapshot.
func (m *Manager) UserByID(id int) (User, bool) {
	for _, u := range m.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// LoanByID looks a loan up in the snapshot.
func (m *Manager) LoanByID(id int) (Loan, bool) {
	for _, l := range m.loans {
		if l.ID == id {
			return l, true
		}
	}
	return Loan{}, false
}

// ------------------ Refresh ------------------

// RefreshBooks replaces the catalog snapshot with the backend's.
func (m *Manager) RefreshBooks(ctx context.Context) error {
	books, err := m.client.ListBooks(ctx)
	if err != nil {
		return err
	}
	m.books = books
	return nil
}

// RefreshUsers replaces the account snapshot with the backend's.
func (m *Manager) RefreshUsers(ctx context.Context) error {
	users, err := m.client.ListUsers(ctx)
	if err != nil {
		return err
	}
	m.users = users
	return nil
}

// RefreshLoans replaces the loan snapshot with the backend's. A positive
// userID narrows the fetch to that borrower's loans.
func (m *Manager) RefreshLoans(ctx context.Context, userID int) error {
	loans, err := m.client.ListLoans(ctx, ListLoansOptions{UserID: userID})
	if err != nil {
		return err
	}
	m.loans = loans
	return nil
}

// refreshSoft runs the named refresh after a successful mutation. Errors
// are logged, not returned: the mutation already happened and must still
// be reported a success.
func (m *Manager) refreshSoft(ctx context.Context, what string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		m.log.Warn().Err(err).Str("collection", what).Msg("refresh after mutation failed; view is stale")
	}
}

// ------------------ Book mutations ------------------

func (m *Manager) CreateBook(ctx context.Context, req CreateBookRequest) (*Book, error) {
	book, err := m.client.CreateBook(ctx, req)
	if err != nil {
		return nil, err
	}
	m.refreshSoft(ctx, "books", m.RefreshBooks)
	return book, nil
}

func (m *Manager) UpdateBook(ctx context.Context, id int, req CreateBookRequest) (*Book, error) {
	book, err := m.client.UpdateBook(ctx, id, req)
	if err != nil {
		return nil, err
	}
	m.refreshSoft(ctx, "books", m.RefreshBooks)
	return book, nil
}

func (m *Manager) DeleteBook(ctx context.Context, id int) error {
	if err := m.client.DeleteBook(ctx, id); err != nil {
		return err
	}
	m.refreshSoft(ctx, "books", m.RefreshBooks)
	return nil
}

// ------------------ User mutations ------------------

func (m *Manager) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	user, err := m.client.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	m.refreshSoft(ctx, "users", m.RefreshUsers)
	return user, nil
}

// UpdateUser edits an account. An empty req.Password keeps the existing
// one: the field is omitted so the backend leaves it untouched.
func (m *Manager) UpdateUser(ctx context.Context, id int, req CreateUserRequest) (*User, error) {
	user, err := m.client.UpdateUser(ctx, id, req)
	if err != nil {
		return nil, err
	}
	m.refreshSoft(ctx, "users", m.RefreshUsers)
	return user, nil
}

func (m *Manager) DeleteUser(ctx context.Context, id int) error {
	if err := m.client.DeleteUser(ctx, id); err != nil {
		return err
	}
	m.refreshSoft(ctx, "users", m.RefreshUsers)
	return nil
}

// ------------------ Loan mutations ------------------

// LoanWindowDays is the default loan term.
const LoanWindowDays = 30

// CreateLoan creates a loan for one borrower over the selected books with
// today's date and a 30-day window. Selected books are validated against
// the snapshot before any network call: a zero-stock book rejects the
// whole request locally.
func (m *Manager) CreateLoan(ctx context.Context, userID int, bookIDs []int) (*Loan, error) {
	if len(bookIDs) == 0 {
		return nil, fmt.Errorf("a loan needs at least one book")
	}
	for _, id := range bookIDs {
		book, ok := m.BookByID(id)
		if !ok {
			return nil, fmt.Errorf("book %d is not in the catalog", id)
		}
		if book.Stock <= 0 {
			return nil, fmt.Errorf("book %q has no stock available", book.Title)
		}
	}

	today := m.now()
	refs := make([]BookRef, 0, len(bookIDs))
	for _, id := range bookIDs {
		refs = append(refs, BookRef{ID: id})
	}
	req := CreateLoanRequest{
		LoanDate:       FormatDate(today),
		ExpectedReturn: FormatDate(today.AddDate(0, 0, LoanWindowDays)),
		ReturnedAt:     nil,
		User:           UserRef{ID: userID},
		Books:          refs,
	}

	loan, err := m.client.CreateLoan(ctx, req)
	if err != nil {
		if KindOf(err) == KindConflict {
			return nil, ErrLoanLimit
		}
		return nil, err
	}

	// Stock changed as well as the loan list; both are re-fetched, in
	// order, one at a time.
	m.refreshSoft(ctx, "books", m.RefreshBooks)
	m.refreshSoft(ctx, "loans", func(ctx context.Context) error { return m.RefreshLoans(ctx, 0) })
	return loan, nil
}

// ReturnLoan marks the loan returned and re-syncs books then loans.
func (m *Manager) ReturnLoan(ctx context.Context, id int) error {
	if err := m.client.ReturnLoan(ctx, id); err != nil {
		return err
	}
	m.refreshSoft(ctx, "books", m.RefreshBooks)
	m.refreshSoft(ctx, "loans", func(ctx context.Context) error { return m.RefreshLoans(ctx, 0) })
	return nil
}

// DeleteLoan removes the loan record and re-syncs books then loans.
func (m *Manager) DeleteLoan(ctx context.Context, id int) error {
	if err := m.client.DeleteLoan(ctx, id); err != nil {
		return err
	}
	m.refreshSoft(ctx, "books", m.RefreshBooks)
	m.refreshSoft(ctx, "loans", func(ctx context.Context) error { return m.RefreshLoans(ctx, 0) })
	return nil
}

// ------------------ Derived views ------------------

// LoanDetails flattens the loan snapshot for display as of now. Loans
// whose dates do not parse are dropped with a log line rather than
// killing the whole listing.
func (m *Manager) LoanDetails() []LoanDetail {
	today := m.now()
	out := make([]LoanDetail, 0, len(m.loans))
	for _, l := range m.loans {
		detail, err := NewLoanDetail(l, today)
		if err != nil {
			m.log.Error().Err(err).Int("loan", l.ID).Msg("loan has unusable dates; skipped")
			continue
		}
		out = append(out, detail)
	}
	return out
}

// LoanStats counts the snapshot by derived status for the dashboard.
type LoanStats struct {
	Active   int
	Overdue  int
	Returned int
}

func (m *Manager) Stats() LoanStats {
	var s LoanStats
	for _, d := range m.LoanDetails() {
		switch d.Status {
		case StatusActive:
			s.Active++
		case StatusOverdue:
			s.Overdue++
		case StatusReturned:
			s.Returned++
		}
	}
	return s
}
