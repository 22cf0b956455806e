// Package export renders the monthly scholarship timesheet as a PDF.
package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// TimesheetDay is one printed table row.
type TimesheetDay struct {
	Label      string // formatted date, e.g. 03/06/2024
	Schedule   string // "08:00-10:00 | 14:00-16:00" or "-"
	Activities string // "; "-joined descriptions or "-"
	Hours      string // formatted daily total, e.g. "4h"
}

// TimesheetData carries everything the renderer needs.
type TimesheetData struct {
	Scholar    string
	Advisor    string
	Lab        string
	Grant      string
	Month      int
	Year       int
	Days       []TimesheetDay
	TotalHours string
}

// TimesheetRenderer produces the signed monthly report PDF.
type TimesheetRenderer struct{}

// NewTimesheetRenderer constructs a renderer.
func NewTimesheetRenderer() *TimesheetRenderer {
	return &TimesheetRenderer{}
}

const (
	cellPadX     = 2.0
	headerRowH   = 7.0
	totalRowH    = 7.0
	lineH        = 5.0
	signatureGap = 28.0
)

// Render creates the PDF document and returns its bytes.
func (r *TimesheetRenderer) Render(data TimesheetData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 18, 15)
	pdf.SetAutoPageBreak(false, 18)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	r.drawHeaderFields(pdf, tr, data)
	pdf.Ln(4)

	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	usable := pageW - left - right
	colW := []float64{28, 52, usable - 28 - 52 - 26, 26}
	headers := []string{"Data", "Horário", "Atividades", "Carga horária"}

	drawTableHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(217, 217, 217)
		pdf.SetTextColor(0, 0, 0)
		for i, h := range headers {
			pdf.CellFormat(colW[i], headerRowH, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}

	drawTableHeader()

	for _, day := range data.Days {
		values := []string{day.Label, day.Schedule, day.Activities, day.Hours}

		rowLines := 1
		for i, v := range values {
			lines := pdf.SplitText(tr(v), colW[i]-cellPadX*2)
			if len(lines) > rowLines {
				rowLines = len(lines)
			}
		}
		rowH := float64(rowLines)*lineH + 1

		if pdf.GetY()+rowH > pageH-bottom-signatureGap {
			pdf.AddPage()
			drawTableHeader()
		}

		x := left
		y := pdf.GetY()
		for i, v := range values {
			pdf.Rect(x, y, colW[i], rowH, "D")
			pdf.SetXY(x+cellPadX, y+0.5)
			pdf.MultiCell(colW[i]-cellPadX*2, lineH, tr(v), "", "L", false)
			x += colW[i]
		}
		pdf.SetXY(left, y+rowH)
	}

	if pdf.GetY()+totalRowH+signatureGap > pageH-bottom {
		pdf.AddPage()
	}
	r.drawTotalRow(pdf, tr, data.TotalHours, left, usable)
	r.drawSignatures(pdf, tr, left, usable, pageH, bottom)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render timesheet pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *TimesheetRenderer) drawHeaderFields(pdf *gofpdf.Fpdf, tr func(string) string, data TimesheetData) {
	fields := []struct{ label, value string }{
		{"Bolsista", data.Scholar},
		{"Orientador", data.Advisor},
		{"Laboratório / Sala", data.Lab},
		{"Bolsa", data.Grant},
		{"Mês/Ano", fmt.Sprintf("%02d/%d", data.Month, data.Year)},
	}
	for _, f := range fields {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(pdf.GetStringWidth(tr(f.label+": "))+1, 6, tr(f.label+": "), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, tr(f.value), "", 1, "L", false, 0, "")
	}
}

func (r *TimesheetRenderer) drawTotalRow(pdf *gofpdf.Fpdf, tr func(string) string, total string, left, usable float64) {
	y := pdf.GetY()
	pdf.SetFillColor(59, 110, 21)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 9)
	pdf.SetXY(left, y)
	pdf.CellFormat(usable-26, totalRowH, tr("Total de horas mensais"), "", 0, "L", true, 0, "")
	pdf.CellFormat(26, totalRowH, total, "", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func (r *TimesheetRenderer) drawSignatures(pdf *gofpdf.Fpdf, tr func(string) string, left, usable, pageH, bottom float64) {
	y := pageH - bottom - 18
	mid := left + usable/2
	lineW := usable/2 - 25

	pdf.SetLineWidth(0.3)
	pdf.Line(left+10, y, left+10+lineW, y)
	pdf.Line(mid+15, y, mid+15+lineW, y)

	pdf.SetFont("Arial", "", 9)
	pdf.SetXY(left+10, y+2)
	pdf.CellFormat(lineW, 5, tr("Aluno"), "", 0, "C", false, 0, "")
	pdf.SetXY(mid+15, y+2)
	pdf.CellFormat(lineW, 5, tr("Orientador"), "", 0, "C", false, 0, "")
}
