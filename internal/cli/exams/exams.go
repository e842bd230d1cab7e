package exams

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/elexam/internal/cli"
	"github.com/julianstephens/elexam/internal/models"
)

type ListCmd struct{}

func (c *ListCmd) Run(ctx *cli.Context) error {
	exams, err := ctx.Labels().Exams()
	if err != nil {
		return fmt.Errorf("failed to load exams: %w", err)
	}
	cli.RenderCatalog(os.Stdout, exams)
	return nil
}

type AddCmd struct {
	Subject string `arg:"" help:"Exam subject as written in the ledger."`
	Tag     string `arg:"" help:"Label tag (e.g. Хим)."`
	Dates   string `arg:"" help:"Block dates as DD.MM, comma separated; '-' for a block without a sitting."`
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	dates, err := models.ParseExamDates(c.Dates)
	if err != nil {
		return err
	}

	exam := models.Exam{Subject: c.Subject, Tag: c.Tag, Dates: dates}
	if err := ctx.Labels().AddExams(exam); err != nil {
		return fmt.Errorf("failed to add exam: %w", err)
	}

	fmt.Printf("Added exam: %s [%s] %s\n", strings.TrimSpace(c.Subject), strings.TrimSpace(c.Tag), exam.FormatDates())
	return nil
}

type EditCmd struct {
	Index   string  `arg:"" help:"Catalog position as shown by 'exams list'."`
	Subject *string `help:"New subject."`
	Tag     *string `help:"New tag."`
	Dates   *string `help:"New block dates (DD.MM, comma separated)."`
}

func (c *EditCmd) Run(ctx *cli.Context) error {
	engine := ctx.Labels()
	exams, err := engine.Exams()
	if err != nil {
		return fmt.Errorf("failed to load exams: %w", err)
	}
	idx, err := cli.ParseIndex(c.Index, len(exams))
	if err != nil {
		return err
	}

	old := exams[idx]
	updated := models.Exam{Subject: old.Subject, Tag: old.Tag, Dates: old.Dates}
	changed := false
	if c.Subject != nil {
		updated.Subject = *c.Subject
		changed = true
	}
	if c.Tag != nil {
		updated.Tag = *c.Tag
		changed = true
	}
	if c.Dates != nil {
		dates, err := models.ParseExamDates(*c.Dates)
		if err != nil {
			return err
		}
		updated.Dates = dates
		changed = true
	}
	if !changed {
		fmt.Println("No changes specified. Use --subject, --tag or --dates.")
		return nil
	}

	if err := engine.EditExam(old, updated); err != nil {
		return fmt.Errorf("failed to edit exam: %w", err)
	}
	fmt.Printf("Updated exam %d: %s [%s] %s\n", idx+1, updated.Subject, updated.Tag, updated.FormatDates())
	return nil
}

type DeleteCmd struct {
	Index string `arg:"" help:"Catalog position as shown by 'exams list'."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	engine := ctx.Labels()
	exams, err := engine.Exams()
	if err != nil {
		return fmt.Errorf("failed to load exams: %w", err)
	}
	idx, err := cli.ParseIndex(c.Index, len(exams))
	if err != nil {
		return err
	}

	if err := engine.DeleteExam(exams[idx]); err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}
	fmt.Printf("Deleted exam: %s\n", exams[idx].Subject)
	return nil
}

type LabelCmd struct {
	Subject string `arg:"" help:"Exam subject."`
	Date    string `help:"Selected sitting date (DD.MM.YYYY). Defaults to the next bookable block."`
}

func (c *LabelCmd) Run(ctx *cli.Context) error {
	var date *time.Time
	if c.Date != "" {
		d, err := cli.ParseDate(c.Date)
		if err != nil {
			return err
		}
		date = &d
	}

	label, err := ctx.Labels().GetLabel(c.Subject, date)
	if err != nil {
		return err
	}
	fmt.Println(label.String())
	return nil
}

type ExportCmd struct{}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	share, err := ctx.Labels().Export()
	if err != nil {
		return fmt.Errorf("failed to export exams: %w", err)
	}
	fmt.Println(string(share))
	return nil
}

type ImportCmd struct {
	Share string `arg:"" help:"Share string printed by 'exams export'."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	engine := ctx.Labels()
	if err := engine.Import([]byte(c.Share)); err != nil {
		return fmt.Errorf("failed to import exams: %w", err)
	}

	exams, err := engine.Exams()
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d exam(s)\n", len(exams))
	return nil
}
