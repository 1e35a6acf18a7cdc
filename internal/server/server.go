package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	companydomain "github.com/fieldforge/fieldforge/internal/company/domain"
	"github.com/fieldforge/fieldforge/internal/config"
	customerdomain "github.com/fieldforge/fieldforge/internal/customer/domain"
	invoicedomain "github.com/fieldforge/fieldforge/internal/invoice/domain"
	obslogger "github.com/fieldforge/fieldforge/internal/observability/logger"
	obstracing "github.com/fieldforge/fieldforge/internal/observability/tracing"
	orderdomain "github.com/fieldforge/fieldforge/internal/order/domain"
	"github.com/fieldforge/fieldforge/internal/profile"
	"github.com/fieldforge/fieldforge/internal/push"
	"github.com/fieldforge/fieldforge/internal/tenant"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(CallerContext())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	guard      *tenant.Guard
	companySvc companydomain.Service
	customers  customerdomain.Repository
	orderSvc   orderdomain.Service
	invoiceSvc invoicedomain.Service
	profiles   profile.Directory
	pushHub    *push.Hub
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	Guard      *tenant.Guard
	CompanySvc companydomain.Service
	Customers  customerdomain.Repository
	OrderSvc   orderdomain.Service
	InvoiceSvc invoicedomain.Service
	Profiles   profile.Directory
	PushHub    *push.Hub
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		guard:      p.Guard,
		companySvc: p.CompanySvc,
		customers:  p.Customers,
		orderSvc:   p.OrderSvc,
		invoiceSvc: p.InvoiceSvc,
		profiles:   p.Profiles,
		pushHub:    p.PushHub,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1", RequireCaller())

	v1.POST("/companies", s.RegisterCompany)
	v1.POST("/companies/:id/roles", s.AssignRole)
	v1.POST("/companies/:id/invites", s.InviteEmployee)
	v1.POST("/invites/:id/accept", s.AcceptInvite)
	v1.POST("/companies/:id/customers", s.CreateCustomer)

	v1.POST("/companies/:id/orders", s.CreateOrder)
	v1.GET("/companies/:id/orders", s.Calendar)
	v1.GET("/companies/:id/orders/:orderId", s.GetOrder)
	v1.PUT("/companies/:id/orders/:orderId/technicians", s.AssignTechnicians)
	v1.PUT("/companies/:id/orders/:orderId/status", s.UpdateOrderStatus)
	v1.PUT("/companies/:id/orders/:orderId/schedule", s.RescheduleOrder)
	v1.GET("/companies/:id/technicians/:technicianId/orders", s.AssignedOrders)

	v1.GET("/companies/:id/invoices", s.ListInvoices)
	v1.GET("/companies/:id/invoices/:invoiceId", s.GetInvoice)
	v1.GET("/companies/:id/invoices/:invoiceId/pdf", s.DownloadInvoicePDF)
	v1.POST("/companies/:id/invoices/:invoiceId/email", s.EmailInvoice)
	v1.POST("/companies/:id/invoices/:invoiceId/paid", s.MarkInvoicePaid)

	v1.PUT("/profiles/me", s.UpsertProfile)
	v1.GET("/push/stream", s.StreamPushEvents)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
