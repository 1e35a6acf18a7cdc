package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fieldforge/fieldforge/internal/authz"
	companydomain "github.com/fieldforge/fieldforge/internal/company/domain"
	customerdomain "github.com/fieldforge/fieldforge/internal/customer/domain"
	"github.com/fieldforge/fieldforge/internal/event"
	"github.com/fieldforge/fieldforge/internal/lock"
	"github.com/fieldforge/fieldforge/internal/notification"
	"github.com/fieldforge/fieldforge/internal/observability/metrics"
	"github.com/fieldforge/fieldforge/internal/order/domain"
	"github.com/fieldforge/fieldforge/internal/profile"
	"github.com/fieldforge/fieldforge/internal/push"
	"github.com/fieldforge/fieldforge/internal/tenant"
	"github.com/fieldforge/fieldforge/pkg/tenantctx"
)

const pushEventOrderAssigned = "order.assigned"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Customers  customerdomain.Repository
	Guard      *tenant.Guard
	Companies  companydomain.Service
	Bus        *event.Bus
	Locker     lock.OrderLocker
	Push       push.Gateway
	Dispatcher notification.Dispatcher
	Profiles   profile.Directory
	Metrics    *metrics.Metrics
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	customers  customerdomain.Repository
	guard      *tenant.Guard
	companies  companydomain.Service
	bus        *event.Bus
	locker     lock.OrderLocker
	push       push.Gateway
	dispatcher notification.Dispatcher
	profiles   profile.Directory
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("order.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		customers:  p.Customers,
		guard:      p.Guard,
		companies:  p.Companies,
		bus:        p.Bus,
		locker:     p.Locker,
		push:       p.Push,
		dispatcher: p.Dispatcher,
		profiles:   p.Profiles,
		metrics:    p.Metrics,
	}
}

// authorize runs the tenant check and resolves the caller's role within the
// company. The guard hits storage on every call; nothing here is cached.
func (s *Service) authorize(ctx context.Context, companyID string) (tenantctx.Caller, snowflake.ID, string, error) {
	caller, ok := tenantctx.CallerFromContext(ctx)
	if !ok {
		return tenantctx.Caller{}, 0, "", domain.ErrMissingCaller
	}
	id, err := snowflake.ParseString(strings.TrimSpace(companyID))
	if err != nil {
		return tenantctx.Caller{}, 0, "", domain.ErrInvalidID
	}
	if _, err := s.guard.Authorize(ctx, id); err != nil {
		return tenantctx.Caller{}, 0, "", err
	}
	role, err := s.companies.RoleNameForUser(ctx, companyID, caller.UserID)
	if err != nil {
		return tenantctx.Caller{}, 0, "", err
	}
	return caller, id, role, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.ServiceOrder, error) {
	caller, companyID, role, err := s.authorize(ctx, req.CompanyID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if err := authz.RequireAdmin(caller, role); err != nil {
		return domain.ServiceOrder{}, err
	}

	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil {
		return domain.ServiceOrder{}, domain.ErrInvalidID
	}
	if req.ScheduledAt.IsZero() {
		return domain.ServiceOrder{}, domain.ErrInvalidSchedule
	}

	customer, err := s.customers.FindByIDForCompany(ctx, s.db, companyID, customerID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if customer == nil {
		return domain.ServiceOrder{}, domain.ErrCustomerNotFound
	}

	now := time.Now().UTC()
	order := domain.ServiceOrder{
		ID:          s.genID.Generate(),
		CompanyID:   companyID,
		CustomerID:  customerID,
		AddressLine: strings.TrimSpace(req.AddressLine),
		City:        strings.TrimSpace(req.City),
		State:       strings.TrimSpace(req.State),
		Zip:         strings.TrimSpace(req.Zip),
		Description: strings.TrimSpace(req.Description),
		ScheduledAt: req.ScheduledAt.UTC(),
		Status:      domain.StatusScheduled,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		LastUpdated: now,
	}
	if err := s.repo.Insert(ctx, s.db, &order); err != nil {
		return domain.ServiceOrder{}, err
	}

	s.log.Info("service order created",
		zap.String("order_id", order.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.Time("scheduled_at", order.ScheduledAt))
	return order, nil
}

func (s *Service) AssignTechnicians(ctx context.Context, req domain.AssignTechniciansRequest) (domain.ServiceOrder, error) {
	caller, companyID, role, err := s.authorize(ctx, req.CompanyID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if err := authz.RequireAdmin(caller, role); err != nil {
		return domain.ServiceOrder{}, err
	}
	orderID, err := snowflake.ParseString(strings.TrimSpace(req.OrderID))
	if err != nil {
		return domain.ServiceOrder{}, domain.ErrInvalidID
	}

	order, err := s.repo.FindByIDForCompany(ctx, s.db, companyID, orderID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if order == nil {
		return domain.ServiceOrder{}, domain.ErrNotFound
	}
	if order.Status.IsTerminal() {
		return domain.ServiceOrder{}, domain.ErrInvalidTransition
	}

	technicianIDs := dedupe(req.TechnicianIDs)
	previous := make([]string, 0, len(order.Assignments))
	for _, a := range order.Assignments {
		previous = append(previous, a.TechnicianID)
	}

	assignments := make([]domain.Assignment, 0, len(technicianIDs))
	for _, technicianID := range technicianIDs {
		assignments = append(assignments, domain.Assignment{
			ID:           s.genID.Generate(),
			OrderID:      orderID,
			TechnicianID: technicianID,
		})
	}
	if err := s.repo.ReplaceAssignments(ctx, s.db, orderID, assignments); err != nil {
		return domain.ServiceOrder{}, err
	}
	order.Assignments = assignments

	for _, technicianID := range dedupe(append(previous, technicianIDs...)) {
		s.push.PushToUser(ctx, technicianID, pushEventOrderAssigned, map[string]string{
			"order_id": orderID.String(),
		})
	}

	s.log.Info("technicians assigned",
		zap.String("order_id", orderID.String()),
		zap.Int("count", len(assignments)))
	return *order, nil
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (domain.ServiceOrder, error) {
	caller, companyID, role, err := s.authorize(ctx, req.CompanyID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if err := authz.RequireTechnician(caller, role); err != nil {
		return domain.ServiceOrder{}, err
	}
	orderID, err := snowflake.ParseString(strings.TrimSpace(req.OrderID))
	if err != nil {
		return domain.ServiceOrder{}, domain.ErrInvalidID
	}
	target, ok := domain.ParseStatus(req.NewStatus)
	if !ok {
		return domain.ServiceOrder{}, domain.ErrInvalidStatus
	}

	// The lock narrows the window between read and CAS write; the CAS
	// itself guarantees a single winner even without it.
	release, err := s.locker.Acquire(ctx, "order:"+orderID.String())
	if err != nil {
		return domain.ServiceOrder{}, err
	}

	order, err := s.repo.FindByIDForCompany(ctx, s.db, companyID, orderID)
	if err != nil {
		release()
		return domain.ServiceOrder{}, err
	}
	if order == nil {
		release()
		return domain.ServiceOrder{}, domain.ErrNotFound
	}
	from := order.Status
	if !from.CanTransition(target) {
		release()
		return domain.ServiceOrder{}, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	won, err := s.repo.UpdateStatusCAS(ctx, s.db, orderID, from, target, now)
	if err != nil {
		release()
		return domain.ServiceOrder{}, err
	}
	if !won {
		release()
		return domain.ServiceOrder{}, domain.ErrInvalidTransition
	}
	release()

	order.Status = target
	order.LastUpdated = now
	s.metrics.OrderTransitions.WithLabelValues(string(target)).Inc()
	s.log.Info("order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)))

	// Published only after the winning write is committed, so a handler
	// never sees a completion that did not persist. The CAS makes a
	// second publish for the same transition impossible. The handler
	// context survives a client disconnect; the transition is already
	// durable and the invoice must still be generated.
	if target == domain.StatusCompleted {
		s.bus.PublishOrderCompleted(context.WithoutCancel(ctx), event.OrderCompleted{
			OrderID:   orderID,
			CompanyID: companyID,
		})
	}
	return *order, nil
}

func (s *Service) Reschedule(ctx context.Context, req domain.RescheduleRequest) (domain.ServiceOrder, error) {
	caller, companyID, role, err := s.authorize(ctx, req.CompanyID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if err := authz.RequireAdmin(caller, role); err != nil {
		return domain.ServiceOrder{}, err
	}
	orderID, err := snowflake.ParseString(strings.TrimSpace(req.OrderID))
	if err != nil {
		return domain.ServiceOrder{}, domain.ErrInvalidID
	}
	if req.NewDate.IsZero() {
		return domain.ServiceOrder{}, domain.ErrInvalidSchedule
	}

	order, err := s.repo.FindByIDForCompany(ctx, s.db, companyID, orderID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if order == nil {
		return domain.ServiceOrder{}, domain.ErrNotFound
	}
	if order.Status.IsTerminal() {
		return domain.ServiceOrder{}, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	newDate := req.NewDate.UTC()
	allowed := []domain.Status{domain.StatusScheduled, domain.StatusInProgress}
	won, err := s.repo.UpdateScheduleCAS(ctx, s.db, orderID, allowed, newDate, now)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if !won {
		return domain.ServiceOrder{}, domain.ErrInvalidTransition
	}
	order.ScheduledAt = newDate
	order.LastUpdated = now

	s.log.Info("order rescheduled",
		zap.String("order_id", orderID.String()),
		zap.Time("new_date", newDate))

	// Admins are told about the move over both channels. Delivery results
	// are observability events only; the reschedule has already landed.
	recipients, err := s.adminRecipients(ctx, req.CompanyID)
	if err != nil {
		s.log.Warn("could not resolve admin recipients", zap.Error(err))
		return *order, nil
	}
	go s.notifyReschedule(context.WithoutCancel(ctx), *order, recipients)

	return *order, nil
}

func (s *Service) adminRecipients(ctx context.Context, companyID string) ([]notification.Recipient, error) {
	adminIDs, err := s.companies.AdminUserIDs(ctx, companyID)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles.Lookup(ctx, adminIDs)
	if err != nil {
		return nil, err
	}

	recipients := make([]notification.Recipient, 0, len(adminIDs))
	for _, adminID := range adminIDs {
		p, ok := profiles[adminID]
		if !ok {
			s.log.Warn("admin has no profile, skipping notification",
				zap.String("user_id", adminID))
			continue
		}
		recipients = append(recipients, notification.Recipient{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Email:       p.Email,
			Phone:       p.Phone,
			Channels:    []notification.Channel{notification.ChannelEmail, notification.ChannelSMS},
		})
	}
	return recipients, nil
}

func (s *Service) notifyReschedule(ctx context.Context, order domain.ServiceOrder, recipients []notification.Recipient) {
	if len(recipients) == 0 {
		return
	}
	results, err := s.dispatcher.Dispatch(ctx, notification.Request{
		Subject: "Service order rescheduled",
		Body: "Service order " + order.ID.String() + " was rescheduled to " +
			order.ScheduledAt.Format(time.RFC3339) + ".",
		Recipients: recipients,
	})
	if err != nil {
		s.log.Error("reschedule notification dispatch failed", zap.Error(err))
		return
	}
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if failed > 0 {
		s.log.Warn("reschedule notifications partially delivered",
			zap.String("order_id", order.ID.String()),
			zap.Int("failed", failed),
			zap.Int("total", len(results)))
	}
}

func (s *Service) Calendar(ctx context.Context, req domain.CalendarRequest) ([]domain.ServiceOrder, error) {
	caller, companyID, role, err := s.authorize(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(caller, role,
		companydomain.RoleOrganizationAdmin,
		companydomain.RoleTechnician,
		companydomain.RoleBiller); err != nil {
		return nil, err
	}
	if req.From.IsZero() || req.To.IsZero() || !req.From.Before(req.To) {
		return nil, domain.ErrInvalidWindow
	}
	return s.repo.ListByWindow(ctx, s.db, companyID, req.From.UTC(), req.To.UTC())
}

func (s *Service) AssignedOrders(ctx context.Context, req domain.AssignedOrdersRequest) ([]domain.ServiceOrder, error) {
	caller, companyID, role, err := s.authorize(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	technicianID := strings.TrimSpace(req.TechnicianID)
	// Technicians see their own queue; admins can inspect anyone's.
	if err := authz.RequireSelf(caller, technicianID); err != nil {
		if adminErr := authz.RequireAdmin(caller, role); adminErr != nil {
			return nil, err
		}
	}
	return s.repo.ListAssignedToTechnician(ctx, s.db, companyID, technicianID)
}

func (s *Service) Get(ctx context.Context, companyID, orderID string) (domain.ServiceOrder, error) {
	caller, company, role, err := s.authorize(ctx, companyID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if err := authz.RequireRole(caller, role,
		companydomain.RoleOrganizationAdmin,
		companydomain.RoleTechnician,
		companydomain.RoleBiller); err != nil {
		return domain.ServiceOrder{}, err
	}
	id, err := snowflake.ParseString(strings.TrimSpace(orderID))
	if err != nil {
		return domain.ServiceOrder{}, domain.ErrInvalidID
	}
	order, err := s.repo.FindByIDForCompany(ctx, s.db, company, id)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if order == nil {
		return domain.ServiceOrder{}, domain.ErrNotFound
	}
	return *order, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
