package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/fieldforge/fieldforge/internal/invoice/domain"
)

func (s *Server) ListInvoices(c *gin.Context) {
	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoicesRequest{
		CompanyID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices})
}

func (s *Server) GetInvoice(c *gin.Context) {
	invoice, err := s.invoiceSvc.Get(c.Request.Context(), c.Param("id"), c.Param("invoiceId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) DownloadInvoicePDF(c *gin.Context) {
	doc, err := s.invoiceSvc.RenderPDF(c.Request.Context(), c.Param("id"), c.Param("invoiceId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	data, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoice-`+c.Param("invoiceId")+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) EmailInvoice(c *gin.Context) {
	invoice, err := s.invoiceSvc.EmailInvoice(c.Request.Context(), c.Param("id"), c.Param("invoiceId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	invoice, err := s.invoiceSvc.MarkPaid(c.Request.Context(), c.Param("id"), c.Param("invoiceId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoice})
}
