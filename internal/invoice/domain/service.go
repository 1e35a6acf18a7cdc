package domain

import (
	"context"
	"errors"
	"io"
)

type ListInvoicesRequest struct {
	CompanyID string
}

type ListInvoicesResponse struct {
	Invoices []Invoice `json:"invoices"`
}

type Service interface {
	List(ctx context.Context, req ListInvoicesRequest) (ListInvoicesResponse, error)
	Get(ctx context.Context, companyID, invoiceID string) (Invoice, error)
	// RenderPDF produces the printable document for an invoice.
	RenderPDF(ctx context.Context, companyID, invoiceID string) (io.Reader, error)
	// EmailInvoice sends the invoice to the customer and marks it Sent.
	EmailInvoice(ctx context.Context, companyID, invoiceID string) (Invoice, error)
	MarkPaid(ctx context.Context, companyID, invoiceID string) (Invoice, error)
}

var (
	ErrNotFound        = errors.New("invoice_not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrCustomerMissing = errors.New("invoice_customer_missing")
)
