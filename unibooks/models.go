package unibooks

// Book represents one title in the catalog. JSON field names follow the
// backend's Spanish wire format.
type Book struct {
	ID          int    `json:"id"`
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Author      string `json:"escritor"`
	Location    string `json:"ubicacion"`
	Stock       int    `json:"stock"`
}

// User roles as the backend knows them.
const (
	RoleLibrarian = "bibliotecario"
	RoleStudent   = "estudiante"
)

// User represents an account. Password is write-only: the backend never
// echoes it back, and edit flows leave it blank to keep the current one.
type User struct {
	ID             int    `json:"id"`
	FirstName      string `json:"firstName"`
	SecondName     string `json:"secondName"`
	LastName       string `json:"lastName"`
	SecondLastName string `json:"secondLastName"`
	NationalID     string `json:"cedula"`
	Email          string `json:"email"`
	Password       string `json:"password,omitempty"`
	Role           string `json:"role"`
}

// FullName joins the user's first and last name for display.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Loan is a loan record as returned by GET /prestamos. ReturnedAt is nil
// until the loan is marked returned; Books carries the borrowed titles.
type Loan struct {
	ID             int     `json:"id"`
	LoanDate       string  `json:"fechaPrestamo"`
	ExpectedReturn string  `json:"fechaDevolucionEsperada"`
	ReturnedAt     *string `json:"fechaDevolucion"`
	User           User    `json:"user"`
	Books          []Book  `json:"libro"`
}

// BookRef and UserRef are the id-only references used when creating loans.
type BookRef struct {
	ID int `json:"id"`
}

type UserRef struct {
	ID int `json:"id"`
}

// CreateBookRequest is the payload for POST and PATCH /libros.
type CreateBookRequest struct {
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Author      string `json:"escritor"`
	Location    string `json:"ubicacion"`
	Stock       int    `json:"stock"`
}

// CreateUserRequest is the payload for POST and PATCH /users. A blank
// Password is omitted from the body so an edit keeps the current one.
type CreateUserRequest struct {
	FirstName      string `json:"firstName"`
	SecondName     string `json:"secondName"`
	LastName       string `json:"lastName"`
	SecondLastName string `json:"secondLastName"`
	NationalID     string `json:"cedula"`
	Email          string `json:"email"`
	Password       string `json:"password,omitempty"`
	Role           string `json:"role"`
}

// CreateLoanRequest is the payload for POST /prestamos. ReturnedAt is
// always null on creation; the backend sets it via the devolver endpoint.
type CreateLoanRequest struct {
	LoanDate       string    `json:"fechaPrestamo"`
	ExpectedReturn string    `json:"fechaDevolucionEsperada"`
	ReturnedAt     *string   `json:"fechaDevolucion"`
	User           UserRef   `json:"user"`
	Books          []BookRef `json:"libro"`
}

// LoginRequest and LoginResponse cover POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}
