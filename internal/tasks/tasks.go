package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"estatehub/marketplace/internal/config"
	"estatehub/marketplace/internal/errs"
	"estatehub/marketplace/internal/logger"
	"estatehub/marketplace/internal/metrics"
	"estatehub/marketplace/internal/services"
	"estatehub/marketplace/internal/utils"
)

// TaskType defines the type of a background task.
const (
	TypePropertyReconcile = "property:reconcile"
	TypeReconcileSweep    = "booking:reconcile_sweep"
	TypeNotificationPurge = "notification:purge"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// IAsynqClient is the part of *asynq.Client used for enqueuing.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// --- Task Client (Enqueuing tasks) ---

func redisConnOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func NewClient(cfg *config.Config) *asynq.Client {
	return asynq.NewClient(redisConnOpt(cfg))
}

// PropertyReconcilePayload names the property to bring in line with the interest ledger.
type PropertyReconcilePayload struct {
	PropertyID string `json:"property_id"`
}

// Distributor enqueues booking maintenance tasks. It satisfies services.TaskEnqueuer.
type Distributor struct {
	client IAsynqClient
}

func NewDistributor(client IAsynqClient) *Distributor {
	return &Distributor{client: client}
}

// EnqueuePropertyReconcile schedules a repair of one property. Requests for the same
// property within a minute collapse into one task.
func (d *Distributor) EnqueuePropertyReconcile(ctx context.Context, propertyID utils.SixID) error {
	payload, err := json.Marshal(PropertyReconcilePayload{PropertyID: propertyID.String()})
	if err != nil {
		return fmt.Errorf("failed to marshal reconcile payload: %w", err)
	}
	task := asynq.NewTask(TypePropertyReconcile, payload)
	_, err = d.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(10),
		asynq.Unique(time.Minute),
	)
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return fmt.Errorf("failed to enqueue reconcile for property %s: %w", propertyID.String(), err)
	}
	return nil
}

// EnqueueReconcileSweep schedules a full sweep now, outside the periodic schedule.
func (d *Distributor) EnqueueReconcileSweep(ctx context.Context) (string, error) {
	info, err := d.client.EnqueueContext(ctx, asynq.NewTask(TypeReconcileSweep, nil), asynq.Queue(QueueDefault))
	if err != nil {
		return "", fmt.Errorf("failed to enqueue reconcile sweep: %w", err)
	}
	return info.ID, nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	bookingService      services.IBookingService
	notificationService services.INotificationService
	log                 *zap.Logger
}

func NewTaskProcessor(bookingService services.IBookingService, notificationService services.INotificationService) *TaskProcessor {
	return &TaskProcessor{
		bookingService:      bookingService,
		notificationService: notificationService,
		log:                 logger.WithModule("tasks"),
	}
}

// NewServeMux routes every task type to its handler.
func NewServeMux(processor *TaskProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePropertyReconcile, processor.HandlePropertyReconcileTask)
	mux.HandleFunc(TypeReconcileSweep, processor.HandleReconcileSweepTask)
	mux.HandleFunc(TypeNotificationPurge, processor.HandleNotificationPurgeTask)
	return mux
}

// SetupServer configures an Asynq server instance. The caller runs it with NewServeMux.
func SetupServer(cfg *config.Config) *asynq.Server {
	log := logger.WithModule("tasks")
	return asynq.NewServer(
		redisConnOpt(cfg),
		asynq.Config{
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("task failed",
					zap.String("type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err))
			}),
		},
	)
}

// NewScheduler registers the periodic sweeps on their configured cron specs.
func NewScheduler(cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisConnOpt(cfg), &asynq.SchedulerOpts{Location: time.UTC})

	entries := []struct {
		spec string
		task *asynq.Task
		opts []asynq.Option
	}{
		{cfg.ReconcileSchedule, asynq.NewTask(TypeReconcileSweep, nil), []asynq.Option{asynq.Queue(QueueDefault)}},
		{cfg.NotificationPurgeSchedule, asynq.NewTask(TypeNotificationPurge, nil), []asynq.Option{asynq.Queue(QueueLow)}},
	}
	for _, entry := range entries {
		if _, err := scheduler.Register(entry.spec, entry.task, entry.opts...); err != nil {
			return nil, fmt.Errorf("failed to schedule %s at %q: %w", entry.task.Type(), entry.spec, err)
		}
	}
	return scheduler, nil
}

// --- Task Handlers ---

// HandlePropertyReconcileTask repairs a single property after a failed cascade.
func (p *TaskProcessor) HandlePropertyReconcileTask(ctx context.Context, t *asynq.Task) error {
	var payload PropertyReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal reconcile payload: %v: %w", err, asynq.SkipRetry)
	}

	propertyID, err := utils.ParseSixID(payload.PropertyID)
	if err != nil || propertyID.IsZero() {
		p.log.Warn("invalid property id in reconcile payload", zap.String("property", payload.PropertyID))
		return fmt.Errorf("invalid property ID in payload: %w", asynq.SkipRetry)
	}

	repaired, err := p.bookingService.ReconcileProperty(ctx, propertyID)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			p.log.Warn("property to reconcile no longer exists", zap.String("property", payload.PropertyID))
			return fmt.Errorf("property not found: %w", asynq.SkipRetry)
		}
		return err
	}

	p.log.Info("property reconcile finished",
		zap.String("property", payload.PropertyID),
		zap.Bool("repaired", repaired))
	return nil
}

// HandleReconcileSweepTask reconciles every property that has a finalized interest.
func (p *TaskProcessor) HandleReconcileSweepTask(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	repaired, err := p.bookingService.ReconcileAll(ctx)
	if err != nil {
		p.log.Error("reconcile sweep finished with errors",
			zap.Int("repaired", repaired), zap.Error(err))
		return err
	}
	p.log.Info("reconcile sweep finished",
		zap.Int("repaired", repaired),
		zap.Duration("took", time.Since(start)))
	return nil
}

// HandleNotificationPurgeTask deletes threads hidden by both participants.
func (p *TaskProcessor) HandleNotificationPurgeTask(ctx context.Context, t *asynq.Task) error {
	purged, err := p.notificationService.PurgeHiddenByBoth(ctx)
	if err != nil {
		return err
	}
	metrics.PurgedThreads.Add(float64(purged))
	p.log.Info("thread purge finished", zap.Int64("purged", purged))
	return nil
}
