package services

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
body { font-family: Georgia, serif; text-align: center; padding: 60px; border: 12px solid #1d3557; }
h1 { font-size: 44px; color: #1d3557; margin-bottom: 8px; }
.name { font-size: 34px; margin: 24px 0; }
.meta { color: #555; font-size: 14px; margin-top: 40px; }
</style></head><body>
<h1>Certificate of Completion</h1>
<p>This certifies that</p>
<div class="name">{{.StudentName}}</div>
<p>has completed <strong>{{.CourseTitle}}</strong>{{if .CourseLevel}} ({{.CourseLevel}}){{end}}</p>
<p>Issued by {{.IssuerName}} on {{.IssueDate}}</p>
<div class="meta">Certificate code {{.Code}}<br>Wallet {{.Wallet}}</div>
</body></html>`))

// ChromePDF renders certificate documents through a headless Chrome.
type ChromePDF struct {
	Timeout time.Duration
}

func (r ChromePDF) Render(ctx context.Context, doc CertificateDocument) ([]byte, error) {
	html, err := certificateHTML(doc)
	if err != nil {
		return nil, err
	}
	timeout := r.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	cctx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	cctx, cancelTimeout := context.WithTimeout(cctx, timeout)
	defer cancelTimeout()

	var pdfBuffer []byte
	err = chromedp.Run(cctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).WithLandscape(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func certificateHTML(doc CertificateDocument) (string, error) {
	data := struct {
		StudentName string
		CourseTitle string
		CourseLevel string
		IssuerName  string
		IssueDate   string
		Code        string
		Wallet      string
	}{
		StudentName: doc.Student.Name,
		CourseTitle: doc.Course.Title,
		CourseLevel: doc.Course.Level,
		IssuerName:  doc.Issuer.Name,
		IssueDate:   doc.Validity.IssueDate.Format("January 2, 2006"),
		Code:        doc.CertCode,
		Wallet:      doc.Student.WalletAddress,
	}

	var rendered bytes.Buffer
	if err := certificateTemplate.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}
