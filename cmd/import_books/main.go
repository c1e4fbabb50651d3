// Command import_books bulk-imports a legacy local library database into
// the Unibooks backend. It reads the books table of an old SQLite file,
// logs in with librarian credentials from the environment, and creates
// each title through the REST API.
//
// Usage:
//
//	UNIBOOKS_EMAIL=... UNIBOOKS_PASSWORD=... import_books legacy/library.db
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"unibooks-client/unibooks"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultStock is assigned to imported titles; legacy databases tracked a
// single copy per title.
const defaultStock = 1

type legacyBook struct {
	Title  string
	Author string
}

func main() {
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05Z07:00"
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: import_books <legacy.db>")
		os.Exit(1)
	}
	dbPath := os.Args[1]

	cfg := unibooks.LoadConfig()
	email := os.Getenv("UNIBOOKS_EMAIL")
	password := os.Getenv("UNIBOOKS_PASSWORD")
	if email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "UNIBOOKS_EMAIL and UNIBOOKS_PASSWORD must be set")
		os.Exit(1)
	}

	books, err := readLegacyBooks(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading legacy database: %v\n", err)
		os.Exit(1)
	}
	if len(books) == 0 {
		fmt.Println("Legacy database has no books to import.")
		return
	}
	fmt.Printf("Found %d books in %s\n", len(books), dbPath)

	ctx := context.Background()
	client := unibooks.NewClient(cfg.BaseURL, cfg.HTTPTimeout)
	token, err := client.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		os.Exit(1)
	}
	session, err := unibooks.NewSession(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		os.Exit(1)
	}
	if !session.Identity.IsLibrarian() {
		fmt.Fprintln(os.Stderr, "Only librarians may import books.")
		os.Exit(1)
	}
	client.SetToken(token)

	mgr := unibooks.NewManager(client, log.Logger)

	successCount := 0
	errorCount := 0
	for _, lb := range books {
		fmt.Printf("Importing: %s by %s... ", lb.Title, lb.Author)
		_, err := mgr.CreateBook(ctx, unibooks.CreateBookRequest{
			Title:       lb.Title,
			Description: fmt.Sprintf("Imported from %s", dbPath),
			Author:      lb.Author,
			Location:    "Imported",
			Stock:       defaultStock,
		})
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Println("SUCCESS")
		successCount++
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	// Summary straight from the backend, post-refresh.
	if successCount > 0 {
		fmt.Println("\nCatalog now contains:")
		fmt.Printf("%-5s %-50s %-30s %-6s\n", "ID", "Title", "Author", "Stock")
		fmt.Println(strings.Repeat("-", 95))
		for _, b := range mgr.Books() {
			fmt.Printf("%-5d %-50s %-30s %-6d\n", b.ID, truncateString(b.Title, 50), truncateString(b.Author, 30), b.Stock)
		}
	}
}

// readLegacyBooks pulls title/author rows out of the old schema.
func readLegacyBooks(path string) ([]legacyBook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT title, author FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var out []legacyBook
	for rows.Next() {
		var b legacyBook
		if err := rows.Scan(&b.Title, &b.Author); err != nil {
			return nil, err
		}
		if strings.TrimSpace(b.Title) == "" {
			continue
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
