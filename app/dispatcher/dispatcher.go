// Package dispatcher runs campaign sends in the background, off the HTTP request path
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/helpinghand/donor-admin/app/services"
	"github.com/helpinghand/donor-admin/config"
	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
	"github.com/helpinghand/donor-admin/utils"
)

// Dispatcher error constants
var (
	ErrSendLocked = errors.New("a send for this campaign is already in progress")
	ErrQueueFull  = errors.New("dispatch queue is full")
	ErrStopped    = errors.New("dispatcher is not running")
)

// Task status values
const (
	TaskStatusQueued  = "queued"
	TaskStatusRunning = "running"
	TaskStatusSent    = "sent"
	TaskStatusFailed  = "failed"
)

// Task failure codes surfaced to the status endpoint
const (
	TaskErrorCampaignNotFound = "CAMPAIGN_NOT_FOUND"
	TaskErrorAlreadySent      = "CAMPAIGN_ALREADY_SENT"
	TaskErrorEmptyAudience    = "EMPTY_AUDIENCE"
	TaskErrorProviderFailure  = "PROVIDER_FAILURE"
)

// SendTask tracks one queued campaign send from submission to completion
type SendTask struct {
	TaskID         string              `json:"task_id"`
	CampaignUUID   string              `json:"campaign_id"`
	Filter         *models.DonorFilter `json:"-"`
	Status         string              `json:"status"`
	RecipientCount int                 `json:"recipient_count"`
	BatchCount     int                 `json:"batch_count"`
	ErrorCode      string              `json:"error_code,omitempty"`
	ErrorMessage   string              `json:"error_message,omitempty"`
	QueuedAt       time.Time           `json:"queued_at"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
}

// CampaignDispatcher consumes queued send tasks one at a time. Within a task,
// provider batches go out concurrently up to the configured cap; the whole
// send runs inside a single database transaction so a campaign either ends
// up fully sent or stays a draft.
type CampaignDispatcher struct {
	db            *gorm.DB
	campaignRepo  repository.CampaignRepository
	donorRepo     repository.DonorRepository
	recipientRepo repository.CampaignRecipientRepository
	auditRepo     repository.AuditLogRepository
	emailService  services.EmailService
	redisClient   *redis.Client
	cfg           config.DispatchConfig

	queue  chan *SendTask
	logger *log.Logger

	mu    sync.RWMutex
	tasks map[string]*SendTask

	started atomic.Bool
	wg      sync.WaitGroup
}

func NewCampaignDispatcher(
	db *gorm.DB,
	campaignRepo repository.CampaignRepository,
	donorRepo repository.DonorRepository,
	recipientRepo repository.CampaignRecipientRepository,
	auditRepo repository.AuditLogRepository,
	emailService services.EmailService,
	redisClient *redis.Client,
	cfg config.DispatchConfig,
) *CampaignDispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = utils.DefaultSendBatchSize
	}
	if cfg.MaxConcurrentBatches <= 0 {
		cfg.MaxConcurrentBatches = utils.DefaultMaxConcurrentBatches
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Minute
	}

	d := &CampaignDispatcher{
		db:            db,
		campaignRepo:  campaignRepo,
		donorRepo:     donorRepo,
		recipientRepo: recipientRepo,
		auditRepo:     auditRepo,
		emailService:  emailService,
		redisClient:   redisClient,
		cfg:           cfg,
		queue:         make(chan *SendTask, 64),
		tasks:         make(map[string]*SendTask),
	}
	d.initLogger()

	return d
}

// initLogger configures a logger that writes to both stdout and a rotating file
func (d *CampaignDispatcher) initLogger() {
	var w io.Writer = os.Stdout
	if d.cfg.LogFilePath != "" {
		rotating := &lumberjack.Logger{
			Filename:   d.cfg.LogFilePath,
			MaxSize:    d.cfg.LogMaxSizeMB,
			MaxBackups: d.cfg.LogMaxBackups,
			MaxAge:     d.cfg.LogMaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(os.Stdout, rotating)
	}
	d.logger = log.New(w, "dispatcher ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the worker loop in a background goroutine and returns a stop
// function that drains in-flight work before returning
func (d *CampaignDispatcher) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	d.started.Store(true)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case task := <-d.queue:
				d.process(ctx, task)
			}
		}
	}()

	return func() {
		d.started.Store(false)
		cancel()
		d.wg.Wait()
	}
}

// Submit enqueues a send task after acquiring the per-campaign send lock.
// The lock is released when the task finishes, so a second Submit for the
// same campaign while a send is running fails with ErrSendLocked.
func (d *CampaignDispatcher) Submit(ctx context.Context, campaignUUID, taskID string, filter *models.DonorFilter) error {
	if !d.started.Load() {
		return ErrStopped
	}

	acquired, err := d.acquireSendLock(ctx, campaignUUID)
	if err != nil {
		return fmt.Errorf("failed to acquire send lock: %w", err)
	}
	if !acquired {
		return ErrSendLocked
	}

	task := &SendTask{
		TaskID:       taskID,
		CampaignUUID: campaignUUID,
		Filter:       filter,
		Status:       TaskStatusQueued,
		QueuedAt:     utils.UTCNow(),
	}

	select {
	case d.queue <- task:
		d.storeTask(ctx, task)
		d.logger.Printf("queued send task %s for campaign %s", taskID, campaignUUID)
		return nil
	default:
		d.releaseSendLock(ctx, campaignUUID)
		return ErrQueueFull
	}
}

// Status returns the current state of a send task. It consults the in-process
// registry first and falls back to the redis mirror so status survives restarts.
func (d *CampaignDispatcher) Status(ctx context.Context, taskID string) (*SendTask, bool) {
	d.mu.RLock()
	task, ok := d.tasks[taskID]
	if ok {
		snapshot := *task
		d.mu.RUnlock()
		return &snapshot, true
	}
	d.mu.RUnlock()

	if d.redisClient == nil {
		return nil, false
	}
	raw, err := d.redisClient.Get(ctx, utils.SendTaskStatusKeyPrefix+taskID).Result()
	if err != nil {
		return nil, false
	}
	var cached SendTask
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false
	}
	return &cached, true
}

// process executes one send task end to end
func (d *CampaignDispatcher) process(ctx context.Context, task *SendTask) {
	defer d.releaseSendLock(ctx, task.CampaignUUID)

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	task.Status = TaskStatusRunning
	d.storeTask(sendCtx, task)
	d.logger.Printf("starting send task %s for campaign %s", task.TaskID, task.CampaignUUID)

	err := repository.WithTransaction(sendCtx, d.db, func(txCtx context.Context) error {
		campaign, err := d.campaignRepo.ByUUIDForUpdate(txCtx, task.CampaignUUID)
		if err != nil {
			return fmt.Errorf("failed to lock campaign row: %w", err)
		}
		if campaign == nil {
			return taskFailure(TaskErrorCampaignNotFound, "campaign not found")
		}
		if campaign.Status != models.CampaignStatusDraft {
			return taskFailure(TaskErrorAlreadySent, "campaign has already been sent")
		}

		filter := models.DonorFilter{}
		if task.Filter != nil {
			filter = *task.Filter
		}
		donors, err := d.donorRepo.ByFilter(txCtx, filter, "id ASC", 0, 0)
		if err != nil {
			return fmt.Errorf("failed to resolve audience: %w", err)
		}
		if len(donors) == 0 {
			return taskFailure(TaskErrorEmptyAudience, "no donors match the given filters")
		}

		batches := partitionAudience(donors, campaign, d.cfg.BatchSize)
		task.RecipientCount = len(donors)
		task.BatchCount = len(batches)

		if err := d.sendBatches(sendCtx, batches); err != nil {
			return taskFailure(TaskErrorProviderFailure, err.Error())
		}

		sentAt := utils.UTCNow()
		if err := d.campaignRepo.MarkSent(txCtx, campaign.ID, sentAt, len(donors)); err != nil {
			return fmt.Errorf("failed to mark campaign sent: %w", err)
		}

		recipients := make([]*models.CampaignRecipient, 0, len(donors))
		for _, donor := range donors {
			recipients = append(recipients, &models.CampaignRecipient{
				CampaignID: campaign.ID,
				DonorID:    donor.ID,
				CreatedAt:  sentAt,
			})
		}
		if err := d.recipientRepo.SaveBatch(txCtx, recipients); err != nil {
			return fmt.Errorf("failed to record recipients: %w", err)
		}

		return nil
	})

	now := utils.UTCNow()
	task.FinishedAt = &now

	if err != nil {
		var failure *TaskError
		if errors.As(err, &failure) {
			task.ErrorCode = failure.Code
			task.ErrorMessage = failure.Message
		} else {
			task.ErrorCode = TaskErrorProviderFailure
			task.ErrorMessage = err.Error()
		}
		task.Status = TaskStatusFailed
		d.storeTask(ctx, task)
		d.logger.Printf("send task %s failed for campaign %s: %s: %s", task.TaskID, task.CampaignUUID, task.ErrorCode, task.ErrorMessage)
		d.recordAudit(ctx, task, models.AuditActionCampaignSendFailed, false)
		return
	}

	task.Status = TaskStatusSent
	d.storeTask(ctx, task)
	d.logger.Printf("send task %s completed for campaign %s: %d recipients in %d batches", task.TaskID, task.CampaignUUID, task.RecipientCount, task.BatchCount)
	d.recordAudit(ctx, task, models.AuditActionCampaignSent, true)
}

// sendBatches pushes all batches through the provider, at most
// MaxConcurrentBatches in flight at a time. The first failure cancels the
// remaining batches and fails the whole send.
func (d *CampaignDispatcher) sendBatches(ctx context.Context, batches []services.EmailBatch) error {
	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, d.cfg.MaxConcurrentBatches)
	errCh := make(chan error, len(batches))
	var wg sync.WaitGroup

	for _, batch := range batches {
		wg.Add(1)
		go func(b services.EmailBatch) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-sendCtx.Done():
				errCh <- sendCtx.Err()
				return
			}
			defer func() { <-sem }()

			if err := d.emailService.SendBatch(sendCtx, b); err != nil {
				errCh <- err
				cancel()
			}
		}(batch)
	}

	wg.Wait()
	close(errCh)

	// Prefer the provider error that triggered cancellation over the
	// cancellations it caused in sibling batches
	var firstErr error
	for err := range errCh {
		if err == nil {
			continue
		}
		if firstErr == nil || (errors.Is(firstErr, context.Canceled) && !errors.Is(err, context.Canceled)) {
			firstErr = err
		}
	}
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// partitionAudience splits the audience into provider-sized batches
func partitionAudience(donors []*models.Donor, campaign *models.EmailCampaign, batchSize int) []services.EmailBatch {
	batches := make([]services.EmailBatch, 0, (len(donors)+batchSize-1)/batchSize)
	for start := 0; start < len(donors); start += batchSize {
		end := start + batchSize
		if end > len(donors) {
			end = len(donors)
		}
		recipients := make([]services.EmailRecipient, 0, end-start)
		for _, donor := range donors[start:end] {
			recipients = append(recipients, services.EmailRecipient{
				Email: donor.Email,
				Name:  donor.Name,
			})
		}
		batches = append(batches, services.EmailBatch{
			Recipients: recipients,
			Subject:    campaign.Subject,
			HTMLBody:   campaign.Body,
		})
	}
	return batches
}

// storeTask publishes an immutable snapshot of the task to the in-process
// registry and mirrors it to redis. The worker keeps mutating its own task
// value between publishes, so the registry must never alias it.
func (d *CampaignDispatcher) storeTask(ctx context.Context, task *SendTask) {
	snapshot := *task
	d.mu.Lock()
	d.tasks[snapshot.TaskID] = &snapshot
	d.mu.Unlock()

	if d.redisClient == nil {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := d.redisClient.Set(ctx, utils.SendTaskStatusKeyPrefix+task.TaskID, payload, d.cfg.TaskStatusTTL).Err(); err != nil {
		d.logger.Printf("failed to mirror task %s status to redis: %v", task.TaskID, err)
	}
}

func (d *CampaignDispatcher) acquireSendLock(ctx context.Context, campaignUUID string) (bool, error) {
	if d.redisClient == nil {
		return true, nil
	}
	return d.redisClient.SetNX(ctx, utils.SendLockKeyPrefix+campaignUUID, "1", utils.SendLockTTL).Result()
}

func (d *CampaignDispatcher) releaseSendLock(ctx context.Context, campaignUUID string) {
	if d.redisClient == nil {
		return
	}
	if err := d.redisClient.Del(ctx, utils.SendLockKeyPrefix+campaignUUID).Err(); err != nil {
		d.logger.Printf("failed to release send lock for campaign %s: %v", campaignUUID, err)
	}
}

// recordAudit persists an audit row for a finished task; failures are logged, not fatal
func (d *CampaignDispatcher) recordAudit(ctx context.Context, task *SendTask, action string, success bool) {
	if d.auditRepo == nil {
		return
	}
	description := fmt.Sprintf("campaign %s send task %s: %s", task.CampaignUUID, task.TaskID, task.Status)
	entry := &models.AuditLog{
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(success),
		CreatedAt:   utils.UTCNow(),
	}
	if !success {
		entry.ErrorMessage = &task.ErrorMessage
	}
	if err := d.auditRepo.Save(ctx, entry); err != nil {
		d.logger.Printf("failed to record audit log for task %s: %v", task.TaskID, err)
	}
}

// TaskError is a send failure with a stable code for the status endpoint
type TaskError struct {
	Code    string
	Message string
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func taskFailure(code, message string) *TaskError {
	return &TaskError{Code: code, Message: message}
}
