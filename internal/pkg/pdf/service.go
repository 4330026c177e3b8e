// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/wawashop/storefront/internal/config"
	"github.com/wawashop/storefront/internal/domain/order"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(receiptTemplate))

// Service handles PDF generation
type Service struct {
	company CompanyInfo
	now     func() time.Time
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		company: CompanyInfo{
			Name:    cfg.Receipt.CompanyName,
			Address: cfg.Receipt.CompanyAddress,
			Phone:   cfg.Receipt.CompanyPhone,
		},
		now: time.Now,
	}
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	PrintedAt string       `json:"printed_at"`
	Order     *order.Order `json:"order"`
	Company   CompanyInfo  `json:"company"`
}

// CompanyInfo represents the receipt header
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// RenderHTML renders the receipt slip for a journaled order
func (s *Service) RenderHTML(o *order.Order) ([]byte, error) {
	data := ReceiptData{
		PrintedAt: s.now().Format("2006-01-02 15:04"),
		Order:     o,
		Company:   s.company,
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateReceipt renders the receipt slip as a PDF
func (s *Service) GenerateReceipt(o *order.Order) (*bytes.Buffer, error) {
	html, err := s.RenderHTML(o)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA5)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.Encoding.Set("utf-8")
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(8)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Order {{.Order.OrderNumber}}</title>
    <style>
        body { font-family: "Sarabun", "Tahoma", sans-serif; margin: 0; padding: 16px; color: #222; font-size: 13px; }
        .header { text-align: center; border-bottom: 1px dashed #999; padding-bottom: 10px; margin-bottom: 12px; }
        .header h1 { font-size: 18px; margin: 0 0 4px; }
        .meta td { padding: 2px 6px 2px 0; }
        .meta .label { font-weight: bold; }
        .items { width: 100%; border-collapse: collapse; margin: 12px 0; }
        .items th, .items td { border-bottom: 1px solid #ddd; padding: 6px 4px; text-align: left; }
        .items .num { text-align: right; }
        .total { text-align: right; font-size: 16px; font-weight: bold; }
        .status-cancelled { color: #b91c1c; font-weight: bold; }
        .footer { margin-top: 24px; text-align: center; color: #666; font-size: 11px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Company.Name}}</h1>
        {{if .Company.Address}}<div>{{.Company.Address}}</div>{{end}}
        {{if .Company.Phone}}<div>Tel. {{.Company.Phone}}</div>{{end}}
    </div>

    <table class="meta">
        <tr><td class="label">Order #</td><td>{{.Order.OrderNumber}}</td></tr>
        <tr><td class="label">Date</td><td>{{.Order.DocDate}} {{.Order.DocTime}}</td></tr>
        <tr><td class="label">Customer</td><td>{{.Order.CustomerCode}}</td></tr>
        {{if .Order.EmployeeCode}}<tr><td class="label">Sales</td><td>{{.Order.EmployeeCode}}</td></tr>{{end}}
        {{if .Order.Telephone}}<tr><td class="label">Telephone</td><td>{{.Order.Telephone}}</td></tr>{{end}}
        <tr><td class="label">Status</td><td{{if eq .Order.Status "cancelled"}} class="status-cancelled"{{end}}>{{.Order.Status}}</td></tr>
    </table>

    <table class="items">
        <thead>
            <tr>
                <th>Item</th>
                <th>Unit</th>
                <th class="num">Qty</th>
                <th class="num">Price</th>
                <th class="num">Amount</th>
            </tr>
        </thead>
        <tbody>
            {{range .Order.Items}}
            <tr>
                <td><strong>{{.ItemName}}</strong><br><small>{{.ItemCode}}</small></td>
                <td>{{.UnitCode}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{.Price.StringFixed 2}}</td>
                <td class="num">{{.LineAmount.StringFixed 2}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="total">Total {{.Order.TotalAmount.StringFixed 2}}</div>
    {{if .Order.Remark}}<p>{{.Order.Remark}}</p>{{end}}

    <div class="footer">
        <p>Printed {{.PrintedAt}}</p>
    </div>
</body>
</html>
`
