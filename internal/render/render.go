// Package render turns a FIR report into the printable A4 form, as HTML and
// as PDF through headless Chrome.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/dgallion1/firdesk/internal/fir"
)

// MinHTMLSize guards against printing an empty or truncated form.
const MinHTMLSize = 100

//go:embed templates/fir.html.tmpl
var templateFS embed.FS

var firTemplate = template.Must(template.ParseFS(templateFS, "templates/fir.html.tmpl"))

// Renderer produces a PDF for a report.
type Renderer interface {
	Render(ctx context.Context, r fir.Report) ([]byte, error)
}

// RenderingError wraps a failure to produce the form.
type RenderingError struct {
	Stage string
	Err   error
}

func (e *RenderingError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Stage, e.Err)
}

func (e *RenderingError) Unwrap() error { return e.Err }

type view struct {
	fir.Report

	District           string
	PoliceStation      string
	Year               string
	FIRNo              string
	FIRDate            string
	FIRTime            string
	Sections           []fir.SectionRow
	OccurrenceDateFrom string
	OccurrenceDateTo   string
	InfoReceivedDate   string
	GDDate             string
	ComplainantDOB     string
	AccusedLines       []string
}

// FillHTML renders the FIR form. Missing values print as blanks.
func FillHTML(r fir.Report) ([]byte, error) {
	v := view{
		Report:             r,
		District:           r.Meta.District.String(),
		PoliceStation:      r.Meta.PoliceStation.String(),
		Year:               r.Meta.Year.String(),
		FIRNo:              r.Meta.FIRNo.String(),
		FIRDate:            fir.FormatDate(r.FIRDate()),
		FIRTime:            r.FIRTime(),
		Sections:           r.Section2,
		OccurrenceDateFrom: fir.FormatDate(r.Occurrence.DateFrom.String()),
		OccurrenceDateTo:   fir.FormatDate(r.Occurrence.DateTo.String()),
		InfoReceivedDate:   fir.FormatDate(r.Occurrence.InfoReceivedAtPS.Date.String()),
		GDDate:             fir.FormatDate(r.Occurrence.GDRef.DateTime.String()),
		ComplainantDOB:     fir.FormatDate(r.Complainant.DOB.String()),
	}
	for i, a := range r.Accused {
		line := fmt.Sprintf("%d. %s", i+1, a.Name)
		if a.Alias != "" {
			line += fmt.Sprintf(" (%s)", a.Alias)
		}
		if a.Address != "" {
			line += " " + a.Address.String()
		}
		v.AccusedLines = append(v.AccusedLines, line)
	}

	var buf bytes.Buffer
	if err := firTemplate.Execute(&buf, v); err != nil {
		return nil, &RenderingError{Stage: "template", Err: err}
	}
	if len(strings.TrimSpace(buf.String())) < MinHTMLSize {
		return nil, &RenderingError{Stage: "template", Err: fmt.Errorf("generated HTML is empty or too short")}
	}
	return buf.Bytes(), nil
}
