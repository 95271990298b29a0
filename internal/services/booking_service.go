package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"estatehub/marketplace/internal/cache"
	"estatehub/marketplace/internal/config"
	"estatehub/marketplace/internal/errs"
	"estatehub/marketplace/internal/logger"
	"estatehub/marketplace/internal/metrics"
	"estatehub/marketplace/internal/models"
	"estatehub/marketplace/internal/utils"
)

// TaskEnqueuer schedules background repair of a property after a failed cascade.
type TaskEnqueuer interface {
	EnqueuePropertyReconcile(ctx context.Context, propertyID utils.SixID) error
}

// IBookingService drives every interest-affecting action: ledger first, then the thread,
// then the property cascade. Only the ledger write decides success; later steps are
// logged and repaired in the background when they fail.
type IBookingService interface {
	ExpressInterest(ctx context.Context, callerID, propertyID utils.SixID) (*models.Interest, error)
	UpdateInterestStatus(ctx context.Context, agentID, interestID, userID, propertyID utils.SixID, status models.InterestStatus) (*models.Interest, error)
	CancelBooking(ctx context.Context, callerID, agentID, propertyID utils.SixID, reason string) (*models.Interest, error)
	MessageAgent(ctx context.Context, callerID, propertyID utils.SixID, content string) (*models.Notification, error)
	MyBookings(ctx context.Context, callerID utils.SixID, page, limit int, search string) (models.Page[models.BookingView], error)
	ManagedProperties(ctx context.Context, agentID utils.SixID, page, limit int, search string) (models.Page[models.ManagedPropertyView], error)
	ReconcileProperty(ctx context.Context, propertyID utils.SixID) (bool, error)
	ReconcileAll(ctx context.Context) (int, error)
}

// bookingService implements IBookingService.
type bookingService struct {
	cfg           *config.Config
	properties    IPropertyService
	interests     IInterestService
	notifications INotificationService
	locker        cache.Locker
	enqueuer      TaskEnqueuer
	log           *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	cfg *config.Config,
	properties IPropertyService,
	interests IInterestService,
	notifications INotificationService,
	locker cache.Locker,
	enqueuer TaskEnqueuer,
) IBookingService {
	return &bookingService{
		cfg:           cfg,
		properties:    properties,
		interests:     interests,
		notifications: notifications,
		locker:        locker,
		enqueuer:      enqueuer,
		log:           logger.WithModule("booking"),
	}
}

// ExpressInterest registers the caller's interest in a property they do not own.
func (s *bookingService) ExpressInterest(ctx context.Context, callerID, propertyID utils.SixID) (*models.Interest, error) {
	property, err := s.properties.FindPropertyByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID == callerID {
		return nil, errs.SelfInterest()
	}

	existing, err := s.interests.FindActiveInterest(ctx, callerID, propertyID)
	switch {
	case err == nil:
		return nil, errs.DuplicateInterest(existing.ID.String())
	case !errs.Is(err, errs.KindNotFound):
		return nil, err
	}

	interest, err := s.interests.CreateInterest(ctx, callerID, property.OwnerID, propertyID)
	if err != nil {
		return nil, err
	}
	metrics.BookingTransitions.WithLabelValues(string(models.InterestPending)).Inc()

	if err := s.properties.AddInterestedParty(ctx, propertyID, interest.ID); err != nil {
		s.cascadeFailed(ctx, "interested_party", propertyID, err)
	}
	s.recordEvent(ctx, interest, models.ThreadTypeInterest, nil)

	return interest, nil
}

// UpdateInterestStatus lets the agent of record move an interest forward.
func (s *bookingService) UpdateInterestStatus(ctx context.Context, agentID, interestID, userID, propertyID utils.SixID, status models.InterestStatus) (*models.Interest, error) {
	interest, err := s.interests.FindInterestForAgent(ctx, interestID, userID, propertyID, agentID)
	if err != nil {
		return nil, err
	}
	if !status.AgentSettable() {
		return nil, errs.NewValidationError(fmt.Sprintf("Status %q cannot be set by the agent.", status))
	}
	if interest.Status.IsTerminal() {
		return nil, errs.NewConflictError(errs.CodeInvalidTransition,
			fmt.Sprintf("Interest is %s and can no longer change.", interest.Status))
	}

	finalizing := status == models.InterestFinalized
	if finalizing {
		release, err := s.acquireFinalizeLock(ctx, propertyID)
		if err != nil {
			return nil, err
		}
		defer release()

		winner, err := s.interests.FindFinalizedInterest(ctx, propertyID)
		if err != nil {
			return nil, err
		}
		if winner != nil {
			metrics.FinalizeConflicts.Inc()
			return nil, errs.AlreadyFinalized(winner.ID.String())
		}
	}

	updated, err := s.interests.UpdateStatus(ctx, interest, status)
	if err != nil {
		if errs.HasCode(err, errs.CodeAlreadyFinalized) {
			metrics.FinalizeConflicts.Inc()
		}
		return nil, err
	}
	metrics.BookingTransitions.WithLabelValues(string(status)).Inc()

	s.recordEvent(ctx, updated, models.ThreadTypeStatus, nil)

	if finalizing {
		if _, err := s.properties.MarkSold(ctx, propertyID); err != nil {
			s.cascadeFailed(ctx, "mark_sold", propertyID, err)
		}
	}
	return updated, nil
}

// acquireFinalizeLock serializes finalize attempts on one property across instances.
// When Redis itself is unreachable the unique finalized index still guards the write,
// so the attempt goes ahead unlocked.
func (s *bookingService) acquireFinalizeLock(ctx context.Context, propertyID utils.SixID) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	release, err := s.locker.Acquire(ctx, cache.PropertyFinalizeKey(propertyID.String()), s.cfg.FinalizeLockTTL, s.cfg.FinalizeLockWait)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, errs.NewConflictError(errs.CodeFinalizeInProgress, "Another finalization is in progress for this property, please retry.")
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn("finalize lock unavailable, relying on index",
			zap.String("property", propertyID.String()), zap.Error(err))
		return noop, nil
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			s.log.Warn("failed to release finalize lock",
				zap.String("property", propertyID.String()), zap.Error(err))
		}
	}, nil
}

// CancelBooking withdraws the caller's active interest and tells the agent why.
func (s *bookingService) CancelBooking(ctx context.Context, callerID, agentID, propertyID utils.SixID, reason string) (*models.Interest, error) {
	interest, err := s.interests.Withdraw(ctx, callerID, agentID, propertyID, reason)
	if err != nil {
		return nil, err
	}
	metrics.BookingTransitions.WithLabelValues(string(models.InterestWithdrawn)).Inc()

	var message *models.ThreadMessage
	if reason != "" {
		message = &models.ThreadMessage{Sender: callerID, Content: reason}
	}
	s.recordEvent(ctx, interest, models.ThreadTypeBookingCancel, message)

	return interest, nil
}

// MessageAgent opens or continues the caller's conversation with the property's agent.
func (s *bookingService) MessageAgent(ctx context.Context, callerID, propertyID utils.SixID, content string) (*models.Notification, error) {
	property, err := s.properties.FindPropertyByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID == callerID {
		return nil, errs.New(errs.KindValidation, errs.CodeSelfMessage, "You cannot start a conversation with yourself.")
	}

	key := models.ThreadKey{UserID: callerID, AgentID: property.OwnerID, PropertyID: propertyID}
	thread, err := s.notifications.AppendMessage(ctx, key, callerID, content)
	if err != nil {
		return nil, err
	}
	return thread, nil
}

// MyBookings lists the caller's interests with the property each one refers to.
// search narrows the list to properties whose name contains it.
func (s *bookingService) MyBookings(ctx context.Context, callerID utils.SixID, page, limit int, search string) (models.Page[models.BookingView], error) {
	page, limit = models.NormalizePaging(page, limit, s.cfg.ListDefaultLimit, s.cfg.ListMaxLimit)

	var propertyIDs []utils.SixID
	if search != "" {
		ids, err := s.properties.FindPropertyIDsByName(ctx, search)
		if err != nil {
			return models.Page[models.BookingView]{}, err
		}
		if len(ids) == 0 {
			return models.NewPage[models.BookingView](nil, page, limit, 0), nil
		}
		propertyIDs = ids
	}

	interests, total, err := s.interests.ListUserInterests(ctx, callerID, propertyIDs, page, limit)
	if err != nil {
		return models.Page[models.BookingView]{}, err
	}

	ids := make([]utils.SixID, 0, len(interests))
	seen := make(map[utils.SixID]bool, len(interests))
	for _, interest := range interests {
		if !seen[interest.PropertyID] {
			seen[interest.PropertyID] = true
			ids = append(ids, interest.PropertyID)
		}
	}
	properties, err := s.properties.FindPropertiesByIDs(ctx, ids)
	if err != nil {
		return models.Page[models.BookingView]{}, err
	}

	views := make([]models.BookingView, 0, len(interests))
	for _, interest := range interests {
		view := models.BookingView{Interest: interest, Property: models.PropertySummary{ID: interest.PropertyID}}
		if property, ok := properties[interest.PropertyID]; ok {
			view.Property = property.Summary()
		}
		views = append(views, view)
	}
	return models.NewPage(views, page, limit, total), nil
}

// ManagedProperties lists the agent's own properties with every interest registered on them.
func (s *bookingService) ManagedProperties(ctx context.Context, agentID utils.SixID, page, limit int, search string) (models.Page[models.ManagedPropertyView], error) {
	page, limit = models.NormalizePaging(page, limit, s.cfg.ListDefaultLimit, s.cfg.ListMaxLimit)

	properties, total, err := s.properties.FindOwnedProperties(ctx, agentID, search, page, limit)
	if err != nil {
		return models.Page[models.ManagedPropertyView]{}, err
	}

	ids := make([]utils.SixID, 0, len(properties))
	for _, property := range properties {
		ids = append(ids, property.ID)
	}
	byProperty, err := s.interests.FindInterestsByProperties(ctx, ids)
	if err != nil {
		return models.Page[models.ManagedPropertyView]{}, err
	}

	views := make([]models.ManagedPropertyView, 0, len(properties))
	for i := range properties {
		parties := byProperty[properties[i].ID]
		if parties == nil {
			parties = []models.Interest{}
		}
		views = append(views, models.ManagedPropertyView{
			PropertySummary:   properties[i].Summary(),
			InterestedParties: parties,
		})
	}
	return models.NewPage(views, page, limit, total), nil
}

// ReconcileProperty brings the property in line with the ledger: every interest listed
// as an interested party and the status sold once an interest is finalized.
// It reports whether anything had to be repaired.
func (s *bookingService) ReconcileProperty(ctx context.Context, propertyID utils.SixID) (bool, error) {
	property, err := s.properties.FindPropertyByID(ctx, propertyID)
	if err != nil {
		return false, err
	}

	byProperty, err := s.interests.FindInterestsByProperties(ctx, []utils.SixID{propertyID})
	if err != nil {
		return false, err
	}

	listed := make(map[utils.SixID]bool, len(property.InterestedParties))
	for _, id := range property.InterestedParties {
		listed[id] = true
	}

	repaired := false
	finalized := false
	for _, interest := range byProperty[propertyID] {
		if interest.Status == models.InterestFinalized {
			finalized = true
		}
		if listed[interest.ID] {
			continue
		}
		if err := s.properties.AddInterestedParty(ctx, propertyID, interest.ID); err != nil {
			return repaired, err
		}
		repaired = true
	}

	if finalized && property.Status != models.PropertyStatusSold {
		changed, err := s.properties.MarkSold(ctx, propertyID)
		if err != nil {
			return repaired, err
		}
		repaired = repaired || changed
	}

	if repaired {
		metrics.ReconciledProperties.Inc()
		s.log.Info("reconciled property", zap.String("property", propertyID.String()))
	}
	return repaired, nil
}

// ReconcileAll reconciles every property that has a finalized interest and returns how many
// needed repair. Failures on individual properties do not stop the sweep.
func (s *bookingService) ReconcileAll(ctx context.Context) (int, error) {
	propertyIDs, err := s.interests.FindFinalizedPropertyIDs(ctx)
	if err != nil {
		return 0, err
	}

	var sweepErr error
	repaired := 0
	for _, propertyID := range propertyIDs {
		if ctx.Err() != nil {
			return repaired, multierr.Append(sweepErr, ctx.Err())
		}
		changed, err := s.ReconcileProperty(ctx, propertyID)
		if err != nil {
			sweepErr = multierr.Append(sweepErr, fmt.Errorf("property %s: %w", propertyID.String(), err))
			continue
		}
		if changed {
			repaired++
		}
	}
	return repaired, sweepErr
}

// recordEvent writes the thread side of a ledger change. The ledger write already happened,
// so a failure here is logged and counted only.
func (s *bookingService) recordEvent(ctx context.Context, interest *models.Interest, threadType models.ThreadType, message *models.ThreadMessage) {
	if _, err := s.notifications.RecordEvent(ctx, interest.Key(), threadType, message); err != nil {
		metrics.NotificationFailures.WithLabelValues(string(threadType)).Inc()
		s.log.Error("failed to record thread event",
			zap.String("interest", interest.ID.String()),
			zap.String("type", string(threadType)),
			zap.Error(err))
	}
}

// cascadeFailed logs a failed property write and hands the property to the reconcile task.
func (s *bookingService) cascadeFailed(ctx context.Context, step string, propertyID utils.SixID, cause error) {
	metrics.CascadeFailures.WithLabelValues(step).Inc()
	s.log.Error("property cascade failed",
		zap.String("step", step),
		zap.String("property", propertyID.String()),
		zap.Error(cause))

	if s.enqueuer == nil {
		return
	}
	if err := s.enqueuer.EnqueuePropertyReconcile(ctx, propertyID); err != nil {
		s.log.Error("failed to enqueue property reconcile",
			zap.String("property", propertyID.String()), zap.Error(err))
	}
}
