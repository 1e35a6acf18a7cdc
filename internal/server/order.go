package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	orderdomain "github.com/fieldforge/fieldforge/internal/order/domain"
)

type createOrderRequest struct {
	CustomerID  string    `json:"customer_id"`
	AddressLine string    `json:"address_line"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Zip         string    `json:"zip"`
	Description string    `json:"description"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		CompanyID:   c.Param("id"),
		CustomerID:  req.CustomerID,
		AddressLine: req.AddressLine,
		City:        req.City,
		State:       req.State,
		Zip:         req.Zip,
		Description: req.Description,
		ScheduledAt: req.ScheduledAt,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) GetOrder(c *gin.Context) {
	order, err := s.orderSvc.Get(c.Request.Context(), c.Param("id"), c.Param("orderId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

type assignTechniciansRequest struct {
	TechnicianIDs []string `json:"technician_ids"`
}

func (s *Server) AssignTechnicians(c *gin.Context) {
	var req assignTechniciansRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order, err := s.orderSvc.AssignTechnicians(c.Request.Context(), orderdomain.AssignTechniciansRequest{
		CompanyID:     c.Param("id"),
		OrderID:       c.Param("orderId"),
		TechnicianIDs: req.TechnicianIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order, err := s.orderSvc.UpdateStatus(c.Request.Context(), orderdomain.UpdateStatusRequest{
		CompanyID: c.Param("id"),
		OrderID:   c.Param("orderId"),
		NewStatus: req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

type rescheduleRequest struct {
	NewDate time.Time `json:"new_date"`
}

func (s *Server) RescheduleOrder(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order, err := s.orderSvc.Reschedule(c.Request.Context(), orderdomain.RescheduleRequest{
		CompanyID: c.Param("id"),
		OrderID:   c.Param("orderId"),
		NewDate:   req.NewDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) Calendar(c *gin.Context) {
	var query struct {
		From time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
		To   time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	orders, err := s.orderSvc.Calendar(c.Request.Context(), orderdomain.CalendarRequest{
		CompanyID: c.Param("id"),
		From:      query.From,
		To:        query.To,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (s *Server) AssignedOrders(c *gin.Context) {
	orders, err := s.orderSvc.AssignedOrders(c.Request.Context(), orderdomain.AssignedOrdersRequest{
		CompanyID:    c.Param("id"),
		TechnicianID: c.Param("technicianId"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}
