package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/elexam/internal/actions"
	"github.com/julianstephens/elexam/internal/executor"
	"github.com/julianstephens/elexam/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// RenderCatalog prints exams with their 1-based positions.
func RenderCatalog(w io.Writer, exams []models.Exam) {
	if len(exams) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No exams in catalog"))
		return
	}

	fmt.Fprintln(w, titleStyle.Render("Exams:"))
	for i, exam := range exams {
		fmt.Fprintf(w, "  %2d. %s %s %s\n", i+1, exam.Subject, mutedStyle.Render("["+exam.Tag+"]"), exam.FormatDates())
	}
}

// RenderPlan prints the planned actions of one user.
func RenderPlan(w io.Writer, user models.UserInfo, acts []*actions.Action, issues []error) {
	header := fmt.Sprintf("%s <%s>", user.DisplayName(), user.Email)
	if user.Login != "" {
		header += " " + mutedStyle.Render(user.Login)
	}
	fmt.Fprintln(w, titleStyle.Render(strings.TrimSpace(header)))

	for i, a := range acts {
		line := fmt.Sprintf("  %d. %s", i+1, a.Describe())
		if a.Completed() {
			line = okStyle.Render(line + " ✓")
		}
		fmt.Fprintln(w, line)
	}
	for _, issue := range issues {
		fmt.Fprintln(w, warnStyle.Render("  ! "+issue.Error()))
	}
}

// RenderUser prints one roster account and, when attached, its ledger
// subjects.
func RenderUser(w io.Writer, user models.UserInfo) {
	header := fmt.Sprintf("%s <%s>", user.DisplayName(), user.Email)
	fmt.Fprintln(w, titleStyle.Render(strings.TrimSpace(header)))

	field := func(name, value string) {
		if value == "" {
			value = mutedStyle.Render("-")
		}
		fmt.Fprintf(w, "  %-12s%s\n", name+":", value)
	}
	field("ID", strconv.Itoa(user.ID))
	field("Login", user.Login)
	field("Source", user.Source)
	field("Tags", strings.Join(user.Tags, ", "))
	field("Registered", formatStamp(user.Registered))
	field("Last login", formatStamp(user.LastLogin))

	if len(user.Courses) > 0 {
		fmt.Fprintln(w, "  Courses:")
		for _, c := range user.Courses {
			line := "    - " + c.Title
			if c.Starts != nil || c.Ends != nil {
				line += " " + mutedStyle.Render(formatDay(c.Starts)+" - "+formatDay(c.Ends))
			}
			if len(c.Teachers) > 0 {
				line += " (" + strings.Join(c.Teachers, ", ") + ")"
			}
			fmt.Fprintln(w, line)
		}
	}

	if user.Table != nil {
		fmt.Fprintln(w, "  Ledger:")
		for _, subj := range user.Table.Subjects {
			date := "no date"
			if subj.Date != nil {
				date = formatDay(subj.Date)
			}
			fmt.Fprintf(w, "    - %s %s\n", subj.Name, mutedStyle.Render(date))
		}
	}
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func formatDay(t *time.Time) string {
	if t == nil {
		return "?"
	}
	return t.Format("02.01.2006")
}

// RenderReport prints the outcome of one execution.
func RenderReport(w io.Writer, report executor.Report) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(report.User.Email), mutedStyle.Render("run "+report.RunID.String()))
	for _, a := range report.Completed {
		fmt.Fprintln(w, okStyle.Render("  ✓ "+a.Describe()))
	}
	for _, f := range report.Failures {
		fmt.Fprintln(w, errorStyle.Render("  ✗ "+f.Action+": "+f.Err.Error()))
	}
}

// RenderWarning prints a highlighted warning line.
func RenderWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf(format, args...)))
}
