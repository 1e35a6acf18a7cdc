package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fieldforge/fieldforge/internal/authz"
	companydomain "github.com/fieldforge/fieldforge/internal/company/domain"
	customerdomain "github.com/fieldforge/fieldforge/internal/customer/domain"
	"github.com/fieldforge/fieldforge/internal/invoice/domain"
	"github.com/fieldforge/fieldforge/internal/providers/email"
	"github.com/fieldforge/fieldforge/internal/providers/pdf"
	"github.com/fieldforge/fieldforge/internal/tenant"
	"github.com/fieldforge/fieldforge/pkg/tenantctx"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Repo      domain.Repository
	Customers customerdomain.Repository
	Guard     *tenant.Guard
	Companies companydomain.Service
	PDF       pdf.Provider
	Email     email.Provider
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	customers customerdomain.Repository
	guard     *tenant.Guard
	companies companydomain.Service
	pdf       pdf.Provider
	email     email.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		repo:      p.Repo,
		customers: p.Customers,
		guard:     p.Guard,
		companies: p.Companies,
		pdf:       p.PDF,
		email:     p.Email,
	}
}

func (s *Service) authorize(ctx context.Context, companyID string) (*companydomain.Company, error) {
	caller, ok := tenantctx.CallerFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidID
	}
	id, err := snowflake.ParseString(strings.TrimSpace(companyID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	company, err := s.guard.Authorize(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := s.companies.RoleNameForUser(ctx, companyID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireBiller(caller, role); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoicesRequest) (domain.ListInvoicesResponse, error) {
	company, err := s.authorize(ctx, req.CompanyID)
	if err != nil {
		return domain.ListInvoicesResponse{}, err
	}
	invoices, err := s.repo.ListByCompany(ctx, s.db, company.ID)
	if err != nil {
		return domain.ListInvoicesResponse{}, err
	}
	return domain.ListInvoicesResponse{Invoices: invoices}, nil
}

func (s *Service) Get(ctx context.Context, companyID, invoiceID string) (domain.Invoice, error) {
	invoice, _, err := s.load(ctx, companyID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	return *invoice, nil
}

func (s *Service) load(ctx context.Context, companyID, invoiceID string) (*domain.Invoice, *companydomain.Company, error) {
	company, err := s.authorize(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	id, err := snowflake.ParseString(strings.TrimSpace(invoiceID))
	if err != nil {
		return nil, nil, domain.ErrInvalidID
	}
	invoice, err := s.repo.FindByIDForCompany(ctx, s.db, company.ID, id)
	if err != nil {
		return nil, nil, err
	}
	if invoice == nil {
		return nil, nil, domain.ErrNotFound
	}
	return invoice, company, nil
}

func (s *Service) RenderPDF(ctx context.Context, companyID, invoiceID string) (io.Reader, error) {
	invoice, company, err := s.load(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.FindByIDForCompany(ctx, s.db, company.ID, invoice.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrCustomerMissing
	}
	return s.pdf.GenerateInvoice(ctx, buildDocument(company, invoice, customer))
}

func (s *Service) EmailInvoice(ctx context.Context, companyID, invoiceID string) (domain.Invoice, error) {
	invoice, company, err := s.load(ctx, companyID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	customer, err := s.customers.FindByIDForCompany(ctx, s.db, company.ID, invoice.CustomerID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if customer == nil || customer.Email == "" {
		return domain.Invoice{}, domain.ErrCustomerMissing
	}

	subject := fmt.Sprintf("Invoice %s from %s", invoice.ID.String(), company.Name)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your invoice for service order %s is ready.</p>"+
			"<p>Amount due: <strong>%s</strong>, due by %s.</p>",
		customer.Name,
		invoice.ServiceOrderID.String(),
		formatCents(invoice.AmountDueCents, invoice.Currency),
		invoice.DueAt.Format("January 2, 2006"),
	)
	if err := s.email.Send(ctx, []string{customer.Email}, subject, body); err != nil {
		return domain.Invoice{}, err
	}

	if err := s.repo.UpdateStatus(ctx, s.db, invoice.ID, domain.StatusSent); err != nil {
		return domain.Invoice{}, err
	}
	invoice.Status = domain.StatusSent

	s.log.Info("invoice emailed",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("customer_id", customer.ID.String()))
	return *invoice, nil
}

func (s *Service) MarkPaid(ctx context.Context, companyID, invoiceID string) (domain.Invoice, error) {
	invoice, _, err := s.load(ctx, companyID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if err := s.repo.UpdateStatus(ctx, s.db, invoice.ID, domain.StatusPaid); err != nil {
		return domain.Invoice{}, err
	}
	invoice.Status = domain.StatusPaid
	return *invoice, nil
}

func buildDocument(company *companydomain.Company, invoice *domain.Invoice, customer *customerdomain.Customer) pdf.InvoiceDocument {
	items := make([]pdf.InvoiceItem, 0, len(invoice.LineItems))
	for _, line := range invoice.LineItems {
		items = append(items, pdf.InvoiceItem{
			Description: line.Description,
			Qty:         int(line.Quantity),
			UnitPrice:   formatCents(line.UnitPriceCents, invoice.Currency),
			Amount:      formatCents(line.LineTotalCents, invoice.Currency),
		})
	}
	return pdf.InvoiceDocument{
		CompanyName:    company.Name,
		InvoiceNumber:  invoice.ID.String(),
		IssueDate:      invoice.CreatedAt.Format("2006-01-02"),
		DueDate:        invoice.DueAt.Format("2006-01-02"),
		Status:         string(invoice.Status),
		BillToName:     customer.Name,
		BillToEmail:    customer.Email,
		OrderReference: invoice.ServiceOrderID.String(),
		Items:          items,
		AmountDue:      formatCents(invoice.AmountDueCents, invoice.Currency),
	}
}

func formatCents(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}
