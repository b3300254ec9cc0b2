// Command generate_demo creates a demo library database: a small catalog of
// public domain books, a handful of students, and loans in every state the
// reminder sweeps care about.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/database/catalog"
	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/lending"
)

const defaultDemoDatabasePath = "./demo/demo.db"

type bookConfig struct {
	Title     string
	Author    string
	Publisher string
	Year      int
	Copies    int
	Price     string
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	repo := catalog.NewRepository(db.DB)
	books := createBooks(repo)
	students := createStudents(repo)
	if len(books) < 4 || len(students) < 4 {
		log.Fatalf("Not enough demo data to create loans")
	}

	createLoans(db, books, students)

	log.Println("Demo database generated successfully!")
}

func createBooks(repo *catalog.Repository) []entities.Book {
	var books []entities.Book
	for _, cfg := range publicDomainBooks() {
		publisher, err := repo.CreatePublisher(cfg.Publisher)
		if err != nil {
			log.Printf("Failed to create publisher %s: %v", cfg.Publisher, err)
			continue
		}
		book := entities.Book{
			Title:           cfg.Title,
			Author:          cfg.Author,
			PublisherID:     &publisher.ID,
			PublicationYear: cfg.Year,
			TotalQuantity:   cfg.Copies,
			Price:           decimal.RequireFromString(cfg.Price),
		}
		if err := repo.CreateBook(&book); err != nil {
			log.Printf("Failed to save book %s: %v", cfg.Title, err)
			continue
		}
		log.Printf("Saved: %s by %s (%d copies)", book.Title, book.Author, book.TotalQuantity)
		books = append(books, book)
	}
	return books
}

func createStudents(repo *catalog.Repository) []entities.Student {
	names := []struct{ name, email string }{
		{"Ada Lovelace", "ada@students.example.edu"},
		{"Alan Turing", "alan@students.example.edu"},
		{"Grace Hopper", "grace@students.example.edu"},
		{"Edsger Dijkstra", "edsger@students.example.edu"},
		{"Barbara Liskov", "barbara@students.example.edu"},
	}

	var students []entities.Student
	for _, n := range names {
		student := entities.Student{Name: n.name, Email: n.email}
		if err := repo.CreateStudent(&student); err != nil {
			log.Printf("Failed to create student %s: %v", n.name, err)
			continue
		}
		students = append(students, student)
	}
	return students
}

// createLoans walks the lending service through a few weeks of activity by
// moving its clock, leaving one loan overdue, one due soon, one returned
// four days late, one pending request and one accepted card.
func createLoans(db *database.Database, books []entities.Book, students []entities.Student) {
	ctx := context.Background()
	now := time.Now().UTC()
	clock := &demoClock{now: now.AddDate(0, 0, -20)}
	svc := lending.NewService(database.NewLendingStore(db), lending.DefaultPolicy(), clock)

	borrow := func(bookIdx, studentIdx int) *entities.BookIssue {
		req, err := svc.SubmitRequest(ctx, books[bookIdx].ID, students[studentIdx].ID)
		if err != nil {
			log.Fatalf("Failed to submit request: %v", err)
		}
		issue, err := svc.Approve(ctx, req.ID)
		if err != nil {
			log.Fatalf("Failed to approve request %d: %v", req.ID, err)
		}
		return issue
	}

	// 20 days ago: both due 6 days ago, one still out
	overdue := borrow(0, 0)
	late := borrow(1, 1)

	clock.now = now.AddDate(0, 0, -2)
	if _, err := svc.Return(ctx, late.ID); err != nil {
		log.Fatalf("Failed to return loan %d: %v", late.ID, err)
	}

	// 12 days ago: due in 2 days
	clock.now = now.AddDate(0, 0, -12)
	dueSoon := borrow(2, 2)

	clock.now = now
	if _, err := svc.SubmitRequest(ctx, books[3].ID, students[3].ID); err != nil {
		log.Fatalf("Failed to submit request: %v", err)
	}

	card, err := svc.RequestCard(ctx, students[0].ID)
	if err != nil {
		log.Fatalf("Failed to request card: %v", err)
	}
	if _, err := svc.AcceptCard(ctx, card.ID); err != nil {
		log.Fatalf("Failed to accept card: %v", err)
	}

	log.Printf("Loans: #%d overdue since %s, #%d due %s, #%d returned late",
		overdue.ID, overdue.DueDate, dueSoon.ID, dueSoon.DueDate, late.ID)
}

type demoClock struct {
	now time.Time
}

func (c *demoClock) Now() time.Time {
	return c.now
}

func publicDomainBooks() []bookConfig {
	return []bookConfig{
		{"Pride and Prejudice", "Jane Austen", "T. Egerton", 1813, 3, "12.50"},
		{"Frankenstein", "Mary Shelley", "Lackington, Hughes, Harding, Mavor & Jones", 1818, 2, "10.00"},
		{"Moby-Dick", "Herman Melville", "Harper & Brothers", 1851, 2, "15.00"},
		{"On the Origin of Species", "Charles Darwin", "John Murray", 1859, 1, "18.00"},
		{"Alice's Adventures in Wonderland", "Lewis Carroll", "Macmillan", 1865, 4, "9.00"},
		{"Crime and Punishment", "Fyodor Dostoevsky", "The Russian Messenger", 1866, 2, "14.00"},
		{"The Adventures of Sherlock Holmes", "Arthur Conan Doyle", "George Newnes", 1892, 3, "11.00"},
		{"The Time Machine", "H. G. Wells", "Heinemann", 1895, 1, "8.50"},
		{"Meditations", "Marcus Aurelius", "Penguin Classics", 180, 2, "7.00"},
		{"The Art of War", "Sun Tzu", "Luzac & Co.", 1910, 1, "6.50"},
	}
}
