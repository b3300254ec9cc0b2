package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/mrlokans/librarydesk/internal/calendar"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// DueSoonData fills the due-soon reminder.
type DueSoonData struct {
	StudentName string
	Title       string
	Author      string
	DueDate     calendar.Date
	DaysLeft    int
	RatePerHour string
}

// OverdueData fills the overdue notice.
type OverdueData struct {
	StudentName string
	Title       string
	Author      string
	DueDate     calendar.Date
	DaysOverdue int
	RatePerHour string
}

// DueSoonMessage renders the reminder for a loan due within the window.
func DueSoonMessage(to string, data DueSoonData) (Message, error) {
	html, err := render("due_soon.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Reminder: %q is due %s", data.Title, data.DueDate),
		HTML:    html,
	}, nil
}

// OverdueMessage renders the notice for a loan past its due date.
func OverdueMessage(to string, data OverdueData) (Message, error) {
	html, err := render("overdue.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Overdue: %q was due %s", data.Title, data.DueDate),
		HTML:    html,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
