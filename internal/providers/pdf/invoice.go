package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// InvoiceDocument carries the already-formatted strings for one invoice.
// Amount formatting happens in the billing layer; the renderer only lays
// the values out.
type InvoiceDocument struct {
	CompanyName   string
	InvoiceNumber string
	IssueDate     string
	DueDate       string
	Status        string

	BillToName  string
	BillToEmail string

	ServiceAddress string
	OrderReference string

	Items []InvoiceItem

	AmountDue string
}

type InvoiceItem struct {
	Description string
	Qty         int
	UnitPrice   string
	Amount      string
}

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) GenerateInvoice(ctx context.Context, doc InvoiceDocument) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Invoice number: "+doc.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+doc.IssueDate, props.Text{Top: 4}),
			text.New("Date due: "+doc.DueDate, props.Text{Top: 8}),
			text.New("Status: "+doc.Status, props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New(doc.CompanyName, props.Text{Style: fontstyle.Bold}),
			text.New("Service order: "+doc.OrderReference, props.Text{Top: 5}),
		),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(doc.BillToName, props.Text{Top: 5}),
			text.New(doc.BillToEmail, props.Text{Top: 9}),
		),
		col.New(6).Add(
			text.New("Service address", props.Text{Style: fontstyle.Bold}),
			text.New(doc.ServiceAddress, props.Text{Top: 5}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range doc.Items {
		m.AddRow(12,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(12,
		col.New(8),
		text.NewCol(2, "Amount due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, doc.AmountDue, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	generated, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(generated.GetBytes()), nil
}
