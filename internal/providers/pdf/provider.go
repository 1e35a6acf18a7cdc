package pdf

import (
	"context"
	"io"
)

type Provider interface {
	GenerateInvoice(ctx context.Context, doc InvoiceDocument) (io.Reader, error)
}
