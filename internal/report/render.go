// Package report renders the weekly portfolio report as a PDF.
package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/gfranco/carteira/internal/core"
)

// Filename returns the archive name for a report generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("relatorio_b3_%s.pdf", t.Format("20060102"))
}

// markdown removes the markdown punctuation LLMs sprinkle over prose.
var markdown = regexp.MustCompile("[#*`]")

var (
	brandR, brandG, brandB = 26, 86, 219
	stripeR, stripeG, stripeB = 248, 249, 250
)

// Renderer produces deterministic PDF bytes: the document dates are
// pinned to the report generation time, so equal inputs render equal
// bytes.
type Renderer struct {
	log *zap.Logger
}

// NewRenderer creates a PDF renderer.
func NewRenderer(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{log: log}
}

// RenderPDF lays out the title block, the portfolio summary table, the
// market correlations and the two narrative sections. Empty correlations
// or narrative text never fail the render.
func (r *Renderer) RenderPDF(quotes []core.QuoteSnapshot, rep *core.Report, correlations []core.CorrelationPoint) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(rep.GeneratedAt)
	pdf.SetModificationDate(rep.GeneratedAt)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Title block.
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(brandR, brandG, brandB)
	pdf.CellFormat(0, 10, tr("Carteira Inteligente"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Relatório Semanal - %s", rep.GeneratedAt.Format("02/01/2006 às 15:04"))), "", 1, "L", false, 0, "")
	pdf.SetDrawColor(brandR, brandG, brandB)
	pdf.SetLineWidth(0.3)
	pdf.Line(20, pdf.GetY()+1, 190, pdf.GetY()+1)
	pdf.Ln(5)

	r.summaryTable(pdf, tr, quotes)

	if len(correlations) > 0 {
		r.heading(pdf, tr, "Correlações do Mercado")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(0, 0, 0)
		for _, c := range correlations {
			line := fmt.Sprintf("%s: %+.2f%% (atual: %s)", c.Name, c.Variation, formatAmount(c.Level))
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}

	r.proseSection(pdf, tr, "Análise de Mercado - IA", rep.Analysis)
	r.proseSection(pdf, tr, "Recomendações - IA", rep.Recommendations)

	// Footer.
	pdf.Ln(4)
	pdf.SetDrawColor(204, 204, 204)
	pdf.SetLineWidth(0.15)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 4, tr("Relatório informativo. Não é consultoria financeira oficial."), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4, tr("Dados: Yahoo Finance · IA: Groq LLaMA 3.3 70B"), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, core.WrapError(core.ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) heading(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(brandR, brandG, brandB)
	pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
}

func (r *Renderer) summaryTable(pdf *fpdf.Fpdf, tr func(string) string, quotes []core.QuoteSnapshot) {
	r.heading(pdf, tr, "Resumo da Carteira")

	widths := []float64{18, 45, 24, 20, 24, 24, 15}
	headers := []string{"Ticker", "Empresa", "Atual", "Variação", "Sem. Anterior", "Volatilidade", "RSI"}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(brandR, brandG, brandB)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
	for row, q := range quotes {
		if row%2 == 0 {
			pdf.SetFillColor(stripeR, stripeG, stripeB)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		cells := []string{
			q.Ticker,
			q.Name,
			fmt.Sprintf("%s %s", q.CurrencyPrefix(), formatAmount(q.Close)),
			fmt.Sprintf("%+.2f%%", q.Variation),
			fmt.Sprintf("%+.2f%%", q.PriorVariation),
			fmt.Sprintf("%.2f%%", q.Volatility),
			fmt.Sprintf("%.0f", q.RSI),
		}
		for i, cell := range cells {
			align := "C"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)
}

func (r *Renderer) proseSection(pdf *fpdf.Fpdf, tr func(string) string, title, text string) {
	r.heading(pdf, tr, title)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, line := range strings.Split(markdown.ReplaceAllString(text, ""), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pdf.MultiCell(0, 5.5, tr(line), "", "L", false)
		pdf.Ln(1)
	}
}

// formatAmount renders a value with thousands separators and two
// decimals, e.g. 142000 -> "142,000.00".
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
