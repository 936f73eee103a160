package reporting

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/lcalzada-xor/devcert/internal/core/domain"
	"github.com/lcalzada-xor/devcert/internal/core/ports"
)

var _ ports.ReportExporter = (*PDFExporter)(nil)

// Layout, in millimetres.
const (
	pageMargin   = 15.0
	bottomMargin = 20.0
	rowHeight    = 7.0
	headerHeight = 8.0
	cellPadding  = 1.5
	logoWidth    = 25.0
	logoHeight   = 18.0
)

// rgb is a fill, draw or text colour.
type rgb struct{ r, g, b int }

var (
	accentColor  = rgb{240, 78, 35} // #F04E23
	titleColor   = rgb{51, 51, 51}  // #333333
	mutedColor   = rgb{110, 110, 110}
	gridColor    = rgb{160, 160, 160}
	shadingColor = rgb{245, 245, 245}
	white        = rgb{255, 255, 255}
)

type column struct {
	title string
	value func(domain.Device) string
}

type section struct {
	title   string
	empty   string
	columns []column
	devices func(domain.Partition) []domain.Device
}

var (
	colName     = column{"Device Name", func(d domain.Device) string { return d.Name }}
	colModel    = column{"Model", func(d domain.Device) string { return d.Model }}
	colVersion  = column{"Software Version", func(d domain.Device) string { return d.SoftwareVersion }}
	colNotes    = column{"Notes", func(d domain.Device) string { return d.Notes }}
	colMinimum  = column{"Minimum Version", func(d domain.Device) string { return d.MinimumRequiredVersion }}
	colClient   = column{"GlobalProtect Client", func(d domain.Device) string { return d.ClientPackageVersion }}
	colCertStat = column{"Device Certificate Status", func(d domain.Device) string { return d.Certificate }}
	colCertExp  = column{"Certificate Expiry Date", func(d domain.Device) string { return d.CertificateExpiry }}
)

const hardwareFamiliesTitle = "Appendix: Hardware Families"

var sections = []section{
	{
		title:   "Unaffected Models (already supports Device Certificates)",
		empty:   "No unaffected devices.",
		columns: []column{colName, colModel, colVersion, colNotes},
		devices: func(p domain.Partition) []domain.Device { return p.Unaffected },
	},
	{
		title:   "Affected Models (No Software Upgrade Required)",
		empty:   "No affected devices that are up-to-date.",
		columns: []column{colName, colModel, colVersion},
		devices: func(p domain.Partition) []domain.Device { return p.NoUpgradeRequired },
	},
	{
		title:   "Affected Models (Software Upgrade Required)",
		empty:   "No affected devices that require software upgrade.",
		columns: []column{colName, colModel, colVersion, colMinimum, colNotes},
		devices: func(p domain.Partition) []domain.Device { return p.UpgradeRequired },
	},
	{
		title:   "Devices with GlobalProtect Clients",
		empty:   "No devices with GlobalProtect clients.",
		columns: []column{colName, colModel, colVersion, colClient},
		devices: func(p domain.Partition) []domain.Device { return p.WithClientPackage },
	},
	{
		title:   "Device Certificate Status and Expiry",
		empty:   "No device certificate information available.",
		columns: []column{colName, colModel, colCertStat, colCertExp},
		devices: func(p domain.Partition) []domain.Device { return p.WithCertificateInfo },
	},
}

// PDFExporter exports compliance reports to PDF format
type PDFExporter struct {
	logoPath string
}

// NewPDFExporter creates a new PDF exporter instance. logoPath is optional;
// a missing or unreadable logo is skipped.
func NewPDFExporter(logoPath string) *PDFExporter {
	return &PDFExporter{logoPath: logoPath}
}

// pdfWriter carries per-document state through the section builders.
type pdfWriter struct {
	pdf        *gofpdf.Fpdf
	tr         func(string) string
	contentW   float64
	pageHeight float64
}

// Export renders the report as a US Letter PDF.
func (e *PDFExporter) Export(report *domain.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AliasNbPages("")
	pdf.SetTitle(report.Metadata.Title, true)
	pdf.SetCreator(report.Metadata.GeneratedBy, true)

	pageW, pageH := pdf.GetPageSize()
	w := &pdfWriter{
		pdf:        pdf,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		contentW:   pageW - 2*pageMargin,
		pageHeight: pageH,
	}

	pdf.SetFooterFunc(func() { w.addFooter(report) })
	pdf.AddPage()

	e.addLogo(w)
	w.addHeader(report)
	w.addSummary(report.Stats())

	for _, s := range sections {
		w.addSection(s, s.devices(report.Partition))
	}
	w.addHardwareFamilies(report.HardwareFamilies)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// addLogo places the optional logo at the top left.
func (e *PDFExporter) addLogo(w *pdfWriter) {
	if e.logoPath == "" {
		return
	}
	if _, err := os.Stat(e.logoPath); err != nil {
		return
	}

	w.pdf.RegisterImageOptions(e.logoPath, gofpdf.ImageOptions{ReadDpi: true})
	if !w.pdf.Ok() {
		w.pdf.ClearError()
		return
	}

	y := w.pdf.GetY()
	w.pdf.ImageOptions(e.logoPath, pageMargin, y, logoWidth, logoHeight, false, gofpdf.ImageOptions{}, 0, "")
	w.pdf.SetY(y + logoHeight + 4)
}

// addHeader adds the title, accent rule and report metadata
func (w *pdfWriter) addHeader(report *domain.Report) {
	pdf := w.pdf

	pdf.SetFont("Arial", "B", 24)
	w.textColor(titleColor)
	pdf.CellFormat(0, 14, w.tr(report.Metadata.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	w.drawColor(accentColor)
	pdf.SetLineWidth(0.7)
	y := pdf.GetY()
	pdf.Line(pageMargin, y, pageMargin+w.contentW, y)
	pdf.SetLineWidth(0.2)
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 9)
	w.textColor(mutedColor)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated: %s", report.Metadata.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	if report.Metadata.Source != "" {
		pdf.CellFormat(0, 5, w.tr("Inventory source: "+report.Metadata.Source), "", 1, "L", false, 0, "")
	}
	if report.Metadata.ScheduleMode != "" {
		pdf.CellFormat(0, 5, w.tr("Patch schedule: "+report.Metadata.ScheduleMode), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

// addSummary adds the device counts in two columns
func (w *pdfWriter) addSummary(stats domain.ReportStats) {
	pdf := w.pdf
	w.addSectionTitle("Summary")

	items := []struct {
		label string
		value int
	}{
		{"Total Devices", stats.TotalDevices},
		{"Unaffected Models", stats.Unaffected},
		{"Affected Models", stats.Affected},
		{"Unrecognized Models", stats.Unrecognized},
		{"Upgrade Required", stats.UpgradeRequired},
		{"No Upgrade Required", stats.NoUpgradeRequired},
		{"With GlobalProtect Client", stats.WithClientPackage},
		{"With Certificate Info", stats.WithCertificateInfo},
	}

	half := w.contentW / 2
	for i, item := range items {
		x := pageMargin
		if i%2 == 1 {
			x += half
		}
		pdf.SetX(x)

		pdf.SetFont("Arial", "", 10)
		w.textColor(mutedColor)
		pdf.CellFormat(half-25, 6, item.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 10)
		if item.label == "Upgrade Required" && item.value > 0 {
			w.textColor(accentColor)
		} else {
			w.textColor(titleColor)
		}
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", item.value), "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(6)
		}
	}
	if len(items)%2 == 1 {
		pdf.Ln(6)
	}
	pdf.Ln(6)
}

func (w *pdfWriter) addSectionTitle(title string) {
	// Keep a heading together with at least its table header and one row.
	if w.pdf.GetY()+10+headerHeight+rowHeight > w.pageHeight-bottomMargin {
		w.pdf.AddPage()
	}
	w.pdf.SetFont("Arial", "B", 14)
	w.textColor(titleColor)
	w.pdf.CellFormat(0, 10, w.tr(title), "", 1, "L", false, 0, "")
	w.pdf.Ln(2)
}

// addSection adds one device table, or a placeholder when there are no devices.
func (w *pdfWriter) addSection(s section, devices []domain.Device) {
	pdf := w.pdf
	w.addSectionTitle(s.title)

	if len(devices) == 0 {
		pdf.SetFont("Arial", "I", 10)
		w.textColor(mutedColor)
		pdf.CellFormat(0, 7, w.tr(s.empty), "", 1, "L", false, 0, "")
		pdf.Ln(6)
		return
	}

	colW := w.contentW / float64(len(s.columns))
	w.addTableHeader(s.columns, colW)

	for i, d := range devices {
		if pdf.GetY()+rowHeight > w.pageHeight-bottomMargin {
			pdf.AddPage()
			w.addTableHeader(s.columns, colW)
		}

		fill := i%2 == 1
		w.fillColor(white)
		if fill {
			w.fillColor(shadingColor)
		}
		pdf.SetFont("Arial", "", 8)
		w.textColor(titleColor)
		w.drawColor(gridColor)

		for j, col := range s.columns {
			text := w.fit(w.tr(col.value(d)), colW)
			pdf.CellFormat(colW, rowHeight, text, "1", lastCol(j, len(s.columns)), "C", fill, 0, "")
		}
	}
	pdf.Ln(8)
}

// addHardwareFamilies adds the catalog appendix. Family and status columns
// are narrow; the model list takes the remaining width.
func (w *pdfWriter) addHardwareFamilies(families []domain.HardwareFamily) {
	if len(families) == 0 {
		return
	}
	pdf := w.pdf
	w.addSectionTitle(hardwareFamiliesTitle)

	widths := []float64{30, 30, w.contentW - 60}
	headers := []string{"Family", "Status", "Models"}
	addHeader := func() {
		pdf.SetFont("Arial", "B", 8)
		w.fillColor(accentColor)
		w.textColor(white)
		w.drawColor(gridColor)
		for j, h := range headers {
			pdf.CellFormat(widths[j], headerHeight, h, "1", lastCol(j, len(headers)), "C", true, 0, "")
		}
	}
	addHeader()

	for i, row := range familyRows(families) {
		if pdf.GetY()+rowHeight > w.pageHeight-bottomMargin {
			pdf.AddPage()
			addHeader()
		}
		fill := i%2 == 1
		w.fillColor(white)
		if fill {
			w.fillColor(shadingColor)
		}
		pdf.SetFont("Arial", "", 8)
		w.textColor(titleColor)
		w.drawColor(gridColor)
		for j, text := range row {
			align := "C"
			if j == len(row)-1 {
				align = "L"
			}
			pdf.CellFormat(widths[j], rowHeight, w.fit(w.tr(text), widths[j]), "1", lastCol(j, len(row)), align, fill, 0, "")
		}
	}
	pdf.Ln(8)
}

// familyRows flattens the catalog into Family, Status, Models cells.
func familyRows(families []domain.HardwareFamily) [][]string {
	rows := make([][]string, 0, len(families))
	for _, f := range families {
		rows = append(rows, []string{f.Name, f.Status.String(), strings.Join(f.Models, ", ")})
	}
	return rows
}

func lastCol(j, n int) int {
	if j == n-1 {
		return 1
	}
	return 0
}

func (w *pdfWriter) addTableHeader(columns []column, colW float64) {
	pdf := w.pdf
	pdf.SetFont("Arial", "B", 8)
	w.fillColor(accentColor)
	w.textColor(white)
	w.drawColor(gridColor)

	for j, col := range columns {
		pdf.CellFormat(colW, headerHeight, w.fit(col.title, colW), "1", lastCol(j, len(columns)), "C", true, 0, "")
	}
}

// fit truncates text with an ellipsis so it fits in a cell of width colW
// using the current font.
func (w *pdfWriter) fit(text string, colW float64) string {
	maxW := colW - 2*cellPadding
	if w.pdf.GetStringWidth(text) <= maxW {
		return text
	}
	const ellipsis = "..."
	b := []byte(text)
	for len(b) > 0 && w.pdf.GetStringWidth(string(b)+ellipsis) > maxW {
		b = b[:len(b)-1]
	}
	return string(b) + ellipsis
}

// addFooter runs for every page
func (w *pdfWriter) addFooter(report *domain.Report) {
	pdf := w.pdf
	pdf.SetY(-15)

	w.drawColor(gridColor)
	y := pdf.GetY()
	pdf.Line(pageMargin, y, pageMargin+w.contentW, y)
	pdf.Ln(2)

	pdf.SetFont("Arial", "I", 8)
	w.textColor(mutedColor)
	text := fmt.Sprintf("Generated by %s | Report ID: %s | Page %d of {nb}",
		report.Metadata.GeneratedBy, shortID(report.Metadata.ID), pdf.PageNo())
	pdf.CellFormat(0, 5, w.tr(text), "", 0, "C", false, 0, "")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (w *pdfWriter) textColor(c rgb) { w.pdf.SetTextColor(c.r, c.g, c.b) }
func (w *pdfWriter) fillColor(c rgb) { w.pdf.SetFillColor(c.r, c.g, c.b) }
func (w *pdfWriter) drawColor(c rgb) { w.pdf.SetDrawColor(c.r, c.g, c.b) }
