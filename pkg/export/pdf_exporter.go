package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries the fields printed on an official certificate.
// Title is the heading line ("BONAFIDE CERTIFICATE"); Body paragraphs are
// rendered in order with the recipient line between letterhead and body.
type CertificateData struct {
	SerialNo   string
	Title      string
	Body       []string
	IssuedAt   time.Time
	SignedBy   string
	SignedRole string
}

// CertificatePDF renders official certificates on institutional letterhead.
type CertificatePDF struct {
	institution string
	addressLine string
}

// NewCertificatePDF constructs a renderer for the given letterhead.
func NewCertificatePDF(institution, addressLine string) *CertificatePDF {
	return &CertificatePDF{institution: institution, addressLine: addressLine}
}

// Render produces the certificate document as PDF bytes.
func (e *CertificatePDF) Render(data CertificateData) ([]byte, error) {
	if data.Title == "" {
		return nil, fmt.Errorf("certificate requires a title")
	}
	if len(data.Body) == 0 {
		return nil, fmt.Errorf("certificate requires body text")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, strings.ToUpper(e.institution), "", 1, "C", false, 0, "")
	if e.addressLine != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, e.addressLine, "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 9)
	if data.SerialNo != "" {
		pdf.CellFormat(85, 6, fmt.Sprintf("Ref. No: %s", data.SerialNo), "", 0, "L", false, 0, "")
	} else {
		pdf.CellFormat(85, 6, "", "", 0, "L", false, 0, "")
	}
	pdf.CellFormat(85, 6, fmt.Sprintf("Date: %s", data.IssuedAt.Format("02 January 2006")), "", 1, "R", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "BU", 13)
	pdf.CellFormat(0, 8, strings.ToUpper(data.Title), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	for _, paragraph := range data.Body {
		pdf.MultiCell(0, 7, paragraph, "", "J", false)
		pdf.Ln(3)
	}

	pdf.Ln(18)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, data.SignedBy, "", 1, "R", false, 0, "")
	if data.SignedRole != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, data.SignedRole, "", 1, "R", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
