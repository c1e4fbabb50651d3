package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"unibooks-client/unibooks"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// app holds the pieces every command needs: the manager over the API
// client plus the current session (nil until login succeeds).
type app struct {
	client  *unibooks.Client
	mgr     *unibooks.Manager
	session *unibooks.Session
}

// readPassword securely reads a password with masking
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println() // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

func main() {
	cfg := unibooks.LoadConfig()

	zerolog.TimeFieldFormat = "2006-01-02T15:04:05Z07:00"
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	client := unibooks.NewClient(cfg.BaseURL, cfg.HTTPTimeout)
	a := &app{
		client: client,
		mgr:    unibooks.NewManager(client, log.Logger),
	}

	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Welcome to Unibooks!")
	fmt.Printf("Backend: %s\n", cfg.BaseURL)
	fmt.Println("Type 'login' to start, 'help' for commands, 'exit' to quit.")

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		cmd := strings.TrimSpace(scanner.Text())

		switch cmd {
		case "help":
			printHelp(a)
		case "login":
			handleLogin(scanner, a)
		case "logout":
			handleLogout(a)
		case "whoami":
			handleWhoami(a)
		case "dashboard":
			handleDashboard(a)
		case "list books":
			handleListBooks(scanner, a)
		case "add book":
			handleAddBook(scanner, a)
		case "edit book":
			handleEditBook(scanner, a)
		case "delete book":
			handleDeleteBook(scanner, a)
		case "list users":
			handleListUsers(a)
		case "add user":
			handleAddUser(scanner, a)
		case "edit user":
			handleEditUser(scanner, a)
		case "delete user":
			handleDeleteUser(scanner, a)
		case "list loans":
			handleListLoans(a)
		case "my loans":
			handleMyLoans(a)
		case "create loan":
			handleCreateLoan(scanner, a)
		case "return loan":
			handleReturnLoan(scanner, a)
		case "delete loan":
			handleDeleteLoan(scanner, a)
		case "exit":
			fmt.Println("Goodbye!")
			return
		case "":
			// ignore empty lines
		default:
			fmt.Println("Unknown command. Type 'help' for the available commands.")
		}
	}
}

func printHelp(a *app) {
	fmt.Println("Available commands:")
	fmt.Println("  Session: login, logout, whoami")
	if a.session.Active() && a.session.Identity.IsLibrarian() {
		fmt.Println("  Books: list books, add book, edit book, delete book")
		fmt.Println("  Users: list users, add user, edit user, delete user")
		fmt.Println("  Loans: dashboard, list loans, create loan, return loan, delete loan")
	} else {
		fmt.Println("  Books: list books")
		fmt.Println("  Loans: dashboard, my loans")
	}
	fmt.Println("  System: help, exit")
}

// requireLogin gates any command that talks to the backend.
func requireLogin(a *app) bool {
	if !a.session.Active() {
		fmt.Println("You are not logged in. Use 'login' first.")
		return false
	}
	return true
}

// requireLibrarian gates the full-CRUD commands.
func requireLibrarian(a *app) bool {
	if !requireLogin(a) {
		return false
	}
	if !a.session.Identity.IsLibrarian() {
		fmt.Println("Only librarians can do that.")
		return false
	}
	return true
}

// ------------------ Session ------------------

func handleLogin(sc *bufio.Scanner, a *app) {
	if a.session.Active() {
		fmt.Printf("Already logged in as %s. Use 'logout' first.\n", a.session.Identity.Name)
		return
	}

	fmt.Print("Email: ")
	if !sc.Scan() {
		return
	}
	email := strings.TrimSpace(sc.Text())

	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}

	ctx := context.Background()
	token, err := a.client.Login(ctx, email, password)
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return
	}

	session, err := unibooks.NewSession(token)
	if err != nil {
		// Token came back but we cannot establish an identity from it;
		// stay logged out.
		fmt.Printf("Login failed: %v\n", err)
		return
	}
	a.session = session
	a.client.SetToken(token)

	fmt.Printf("Welcome, %s (%s)!\n", session.Identity.Name, session.Identity.Role)

	// Initial sync so the first listing doesn't start empty.
	if err := a.mgr.RefreshBooks(ctx); err != nil {
		fmt.Printf("Warning: could not load books: %v\n", err)
	}
	if session.Identity.IsLibrarian() {
		if err := a.mgr.RefreshUsers(ctx); err != nil {
			fmt.Printf("Warning: could not load users: %v\n", err)
		}
		if err := a.mgr.RefreshLoans(ctx, 0); err != nil {
			fmt.Printf("Warning: could not load loans: %v\n", err)
		}
	} else {
		if err := a.mgr.RefreshLoans(ctx, session.Identity.ID); err != nil {
			fmt.Printf("Warning: could not load your loans: %v\n", err)
		}
	}
}

func handleLogout(a *app) {
	if !a.session.Active() {
		fmt.Println("You are not logged in.")
		return
	}
	a.session.Clear()
	a.session = nil
	a.client.ClearToken()
	fmt.Println("Logged out.")
}

func handleWhoami(a *app) {
	if !requireLogin(a) {
		return
	}
	id := a.session.Identity
	fmt.Printf("%s <%s> | %s (id %d)\n", id.Name, id.Email, id.Role, id.ID)
}

// ------------------ Dashboard ------------------

func handleDashboard(a *app) {
	if !requireLogin(a) {
		return
	}

	ctx := context.Background()
	userID := 0
	if !a.session.Identity.IsLibrarian() {
		userID = a.session.Identity.ID
	}
	if err := a.mgr.RefreshLoans(ctx, userID); err != nil {
		fmt.Printf("Error loading loans: %v\n", err)
		return
	}

	stats := a.mgr.Stats()
	fmt.Printf("Loans: active: %d | overdue: %d | returned: %d\n",
		stats.Active, stats.Overdue, stats.Returned)
}

// ------------------ Books ------------------

func handleListBooks(sc *bufio.Scanner, a *app) {
	if !requireLogin(a) {
		return
	}

	ctx := context.Background()
	if err := a.mgr.RefreshBooks(ctx); err != nil {
		fmt.Printf("Error loading books: %v\n", err)
		// The one user-triggered retry path in the program.
		fmt.Print("Retry? [y/N]: ")
		if sc.Scan() && strings.EqualFold(strings.TrimSpace(sc.Text()), "y") {
			if err := a.mgr.RefreshBooks(ctx); err != nil {
				fmt.Printf("Error loading books: %v\n", err)
				return
			}
		} else {
			return
		}
	}

	books := a.mgr.Books()
	if len(books) == 0 {
		fmt.Println("No books in the catalog.")
		return
	}

	fmt.Printf("%-5s %-30s %-25s %-20s %-6s\n", "ID", "Title", "Author", "Location", "Stock")
	fmt.Println(strings.Repeat("-", 90))
	for _, b := range books {
		fmt.Printf("%-5d %-30s %-25s %-20s %-6d\n",
			b.ID,
			truncateString(b.Title, 30),
			truncateString(b.Author, 25),
			truncateString(b.Location, 20),
			b.Stock)
	}
}

func handleAddBook(sc *bufio.Scanner, a *app) {
	if !requireLibrarian(a) {
		return
	}

	req, ok := promptBook(sc, unibooks.CreateBookRequest{})
	if !ok {
		return
	}

	book, err := a.mgr.CreateBook(context.Background(), req)
	if err != nil {
		fmt.Printf("Error adding book: %v\n", err)
		return
	}
	fmt.Printf("Added book '%s' with ID %d\n", book.Title, book.ID)
}

func handleEditBook(sc *bufio.Scanner, a *app) {
	if !requireLibrarian(a) {
		return
	}

	id, ok := promptID(sc, "Book ID: ")
	if !ok {
		return
	}
	current, found := a.mgr.BookByID(id)
	if !found {
		fmt.Printf("Book %d is not in the catalog. Try 'list books' first.\n", id)
		return
	}

	fmt.Println("Press Enter to keep the current value.")
	req, ok := promptBook(sc, unibooks.CreateBookRequest{
		Title:       current.Title,
		Description: current.Description,
		Author:      current.Author,
		Location:    current.Location,
		Stock:       current.Stock,
	})
	if !ok {
		return
	}

	book, err := a.mgr.UpdateBook(context.Background(), id, req)
	if err != nil {
		fmt.Printf("Error updating book: %v\n", err)
		return
	}
	fmt.Printf("Updated book '%s'\n", book.Title)
}

func handleDeleteBook(sc *bufio.Scanner, a *app) {
	if !requireLibrarian(a) {
		return
	}

	id, ok := promptID(sc, "Book ID: ")
	if !ok {
		return
	}
	if err := a.mgr.DeleteBook(context.Background(), id); err != nil {
		fmt.Printf("Error deleting book: %v\n", err)
		return
	}
	fmt.Printf("Deleted book %d\n", id)
}

// promptBook collects book fields, defaulting blanks to the given values.
func promptBook(sc *bufio.Scanner, def unibooks.CreateBookRequest) (unibooks.CreateBookRequest, bool) {
	title, ok := promptDefault(sc, "Title", def.Title)
	if !ok {
		return def, false
	}
	description, ok := promptDefault(sc, "Description", def.Description)
	if !ok {
		return def, false
	}
	author, ok := promptDefault(sc, "Author", def.Author)
	if !ok {
		return def, false
	}
	location, ok := promptDefault(sc, "Location", def.Location)
	if !ok {
		return def, false
	}

	fmt.Printf("Stock [%d]: ", def.Stock)
	if !sc.Scan() {
		return def, false
	}
	stock := def.Stock
	if s := strings.TrimSpace(sc.Text()); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			fmt.Printf("Invalid stock: %s\n", s)
			return def, false
		}
		stock = n
	}

	return unibooks.CreateBookRequest{
		Title:       title,
		Description: description,
		Author:      author,
		Location:    location,
		Stock:       stock,
	}, true
}

// ------------------ Users ------------------

func handleListUsers(a *app) {
	if !requireLibrarian(a) {
		return
	}

	if err := a.mgr.RefreshUsers(context.Background()); err != nil {
		fmt.Printf("Error loading users: %v\n", err)
		return
	}

	users := a.mgr.Users()
	if len(users) == 0 {
		fmt.Println("No users registered.")
		return
	}

	fmt.Printf("%-5s %-30s %-30s %-12s %-15s\n", "ID", "Name", "Email", "National ID", "Role")
	fmt.Println(strings.Repeat("-", 95))
	for _, u := range users {
		fmt.Printf("%-5d %-30s %-30s %-12s %-15s\n",
			u.ID,
			truncateString(u.FullName(), 30),
			truncateString(u.Email, 30),
			u.NationalID,
			u.Role)
	}
}

func handleAddUser(sc *bufio.Scanner, a *app) {
	if !requireLibrarian(a) {
		return
	}

	req, ok := promptUser(sc, unibooks.CreateUserRequest{Role: unibooks.RoleStudent})
	if !ok {
		return
	}

	password, err := readPassword(fmt.Sprintf("Password for %s: ", req.Email))
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if password == "" {
		fmt.Println("Error: Password cannot be empty")
		return
	}
	req.Password = password

	user, err := a.mgr.CreateUser(context.Background(), req)
	if err != nil {
		fmt.Printf("Error adding user: %v\n", err)
		return
	}
	fmt.Printf("Added user '%s' with ID %d\n", user.FullName(), user.ID)
}

func handleEditUser(sc *bufio.Scanner, a *app) {
	if !requireLibrarian(a) {
		return
	}

	id, ok := promptID(sc, "User ID: ")
	if !ok {
		return
	}
	current, found := a.mgr.UserByID(id)
	if !found {
		fmt.Printf("User %d not found. Try 'list users' first.\n", id)
		return
	}

	fmt.Println("Press Enter to keep the current value.")
	req, ok := promptUser(sc, unibooks.CreateUserRequest{
		FirstName:      current.FirstName,
		SecondName:     current.SecondName,
		LastName:       current.LastName,
		SecondLastName: current.SecondLastName,
		NationalID:     current.NationalID,
		Email:          current.Email,
		Role:           current.Role,
	})
	if !ok {
		return
	}

	// Blank password keeps the existing one; it is never redisplayed.
	password, err := readPassword("New password (Enter to keep current): ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	req.Password = password

	user, err := a.mgr.UpdateUser(context.Background(), id, req)
	if err != nil {
		fmt.Printf("Error updating user: %v\n", err)
		return
	}
	fmt.Printf("Updated user '%s'\n", user.FullName())
}

func handleDeleteUser(sc *bufio.Scanner, a *app) {
	if !requireLibrarian(a) {
		return
	}

	id, ok := promptID(sc, "User ID: ")
	if !ok {
		return
	}
	if err := a.mgr.DeleteUser(context.Background(), id); err != nil {
		fmt.Printf("Error deleting user: %v\n", err)
		return
	}
	fmt.Printf("Deleted user %d\n", id)
}

func promptUser(sc *bufio.Scanner, def unibooks.CreateUserRequest) (unibooks.CreateUserRequest, bool) {
	firstName, ok := promptDefault(sc, "First name", def.FirstName)
	if !ok {
		return def, false
	}
	secondName, ok := promptDefault(sc, "Second name", def.SecondName)
	if !ok {
		return def, false
	}
	lastName, ok := promptDefault(sc, "Last name", def.LastName)
	if !ok {
		return def, false
	}
	secondLastName, ok := promptDefault(sc, "Second last name", def.SecondLastName)
	if !ok {
		return def, false
	}
	nationalID, ok := promptDefault(sc, "National ID", def.NationalID)
	if !ok {
		return def, false
	}
	email, ok := promptDefault(sc, "Email", def.Email)
	if !ok {
		return def, false
	}
	role, ok := promptDefault(sc, "Role (estudiante/bibliotecario)", def.Role)
	if !ok {
		return def, false
	}
	if role != unibooks.RoleStudent && role != unibooks.RoleLibrarian {
		fmt.Printf("Invalid role: %s\n", role)
		return def, false
	}

	return unibooks.CreateUserRequest{
		FirstName:      firstName,
		SecondName:     secondName,
		LastName:       lastName,
		SecondLastName: secondLastName,
		NationalID:     nationalID,
		Email:          email,
		Role:           role,
	}, true
}

// ------------------ Loans ------------------

func handleListLoans(a *app) {
	if !requireLibrarian(a) {
		return
	}

	if err := a.mgr.RefreshLoans(context.Background(), 0); err != nil {
		fmt.Printf("Error loading loans: %v\n", err)
		return
	}
	printLoanTable(a.mgr.LoanDetails())
}

func handleMyLoans(a *app) {
	if !requireLogin(a) {
		return
	}

	if err := a.mgr.RefreshLoans(context.Background(), a.session.Identity.ID); err != nil {
		fmt.Printf("Error loading your loans: %v\n", err)
		return
	}
	printLoanTable(a.mgr.LoanDetails())
}

func printLoanTable(details []unibooks.LoanDetail) {
	if len(details) == 0 {
		fmt.Println("No loans found.")
		return
	}

	fmt.Printf("%-5s %-30s %-25s %-12s %-12s %-10s %s\n",
		"ID", "Books", "Student", "Loaned", "Due", "Status", "Days")
	fmt.Println(strings.Repeat("-", 110))
	for _, d := range details {
		days := strconv.Itoa(d.DaysRemaining)
		switch {
		case d.Status == unibooks.StatusReturned:
			days = "-"
		case d.Status == unibooks.StatusActive && d.DaysRemaining == 0:
			days = "due today"
		case d.Status == unibooks.StatusActive && d.DaysRemaining <= 2:
			days += " (due soon)"
		}
		fmt.Printf("%-5d %-30s %-25s %-12s %-12s %-10s %s\n",
			d.ID,
			truncateString(d.BookTitles, 30),
			truncateString(d.Student, 25),
			d.LoanDate,
			d.DueDate,
			d.Status,
			days)
	}
}

func handleCreateLoan(sc *bufio.Scanner, a *app) {
	if !requireLibrarian(a) {
		return
	}

	ctx := context.Background()
	// Fresh data so the selection lists are not stale.
	if err := a.mgr.RefreshBooks(ctx); err != nil {
		fmt.Printf("Error loading books: %v\n", err)
		return
	}
	if err := a.mgr.RefreshUsers(ctx); err != nil {
		fmt.Printf("Error loading users: %v\n", err)
		return
	}

	students := a.mgr.Students()
	if len(students) == 0 {
		fmt.Println("No students to lend to.")
		return
	}
	fmt.Println("Students:")
	for _, s := range students {
		fmt.Printf("  %-5d %s\n", s.ID, s.FullName())
	}
	userID, ok := promptID(sc, "Student ID: ")
	if !ok {
		return
	}

	available := a.mgr.AvailableBooks()
	if len(available) == 0 {
		fmt.Println("No books with stock available.")
		return
	}
	fmt.Println("Available books:")
	for _, b := range available {
		fmt.Printf("  %-5d %-30s stock %d\n", b.ID, truncateString(b.Title, 30), b.Stock)
	}

	fmt.Print("Book IDs (comma separated): ")
	if !sc.Scan() {
		return
	}
	var bookIDs []int
	for _, part := range strings.Split(sc.Text(), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			fmt.Printf("Invalid book ID: %s\n", part)
			return
		}
		bookIDs = append(bookIDs, id)
	}

	loan, err := a.mgr.CreateLoan(ctx, userID, bookIDs)
	if err != nil {
		fmt.Printf("Error creating loan: %v\n", err)
		return
	}
	fmt.Printf("Created loan %d, due %s\n", loan.ID, loan.ExpectedReturn)
}

func handleReturnLoan(sc *bufio.Scanner, a *app) {
	if !requireLibrarian(a) {
		return
	}

	id, ok := promptID(sc, "Loan ID: ")
	if !ok {
		return
	}
	if loan, found := a.mgr.LoanByID(id); found && loan.ReturnedAt != nil {
		fmt.Printf("Loan %d is already returned.\n", id)
		return
	}
	if err := a.mgr.ReturnLoan(context.Background(), id); err != nil {
		fmt.Printf("Error returning loan: %v\n", err)
		return
	}
	fmt.Printf("Loan %d marked as returned\n", id)
}

func handleDeleteLoan(sc *bufio.Scanner, a *app) {
	if !requireLibrarian(a) {
		return
	}

	id, ok := promptID(sc, "Loan ID: ")
	if !ok {
		return
	}
	if err := a.mgr.DeleteLoan(context.Background(), id); err != nil {
		fmt.Printf("Error deleting loan: %v\n", err)
		return
	}
	fmt.Printf("Deleted loan %d\n", id)
}

// ------------------ Prompt helpers ------------------

func promptID(sc *bufio.Scanner, prompt string) (int, bool) {
	fmt.Print(prompt)
	if !sc.Scan() {
		return 0, false
	}
	s := strings.TrimSpace(sc.Text())
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		fmt.Printf("Invalid ID: %s\n", s)
		return 0, false
	}
	return id, true
}

func promptDefault(sc *bufio.Scanner, label, def string) (string, bool) {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	if !sc.Scan() {
		return "", false
	}
	v := strings.TrimSpace(sc.Text())
	if v == "" {
		return def, true
	}
	return v, true
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
