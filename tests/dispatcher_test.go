package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghand/donor-admin/app/dispatcher"
	"github.com/helpinghand/donor-admin/app/services"
	"github.com/helpinghand/donor-admin/config"
	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
	testingutil "github.com/helpinghand/donor-admin/testing"
)

func newTestDispatcher(testDB *testingutil.TestDB, email services.EmailService, cfg config.DispatchConfig) *dispatcher.CampaignDispatcher {
	return dispatcher.NewCampaignDispatcher(
		testDB.DB,
		repository.NewCampaignRepository(testDB.DB),
		repository.NewDonorRepository(testDB.DB),
		repository.NewCampaignRecipientRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		email,
		nil, // no redis in tests; the in-process registry is enough
		cfg,
	)
}

// waitForTask polls the dispatcher until the task finishes or the deadline passes
func waitForTask(t *testing.T, d *dispatcher.CampaignDispatcher, taskID string) *dispatcher.SendTask {
	t.Helper()
	ctx := context.Background()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		task, ok := d.Status(ctx, taskID)
		if ok && task.FinishedAt != nil {
			return task
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("send task did not finish in time")
	return nil
}

func TestDispatcherSendSuccess(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()
		campaignRepo := repository.NewCampaignRepository(testDB.DB)
		recipientRepo := repository.NewCampaignRecipientRepository(testDB.DB)

		_, err := testDB.CreateTestDonors(7, "aud", models.HelpTypeFinancial, nil)
		require.NoError(t, err)
		campaign, err := testDB.CreateTestCampaign("Launch", models.CampaignStatusDraft)
		require.NoError(t, err)

		mockEmail := services.NewMockEmailService()
		d := newTestDispatcher(testDB, mockEmail, config.DispatchConfig{BatchSize: 3})
		stop := d.Start(ctx)
		defer stop()

		taskID := uuid.New().String()
		require.NoError(t, d.Submit(ctx, campaign.UUID.String(), taskID, nil))

		task := waitForTask(t, d, taskID)
		assert.Equal(t, dispatcher.TaskStatusSent, task.Status)
		assert.Equal(t, 7, task.RecipientCount)
		assert.Equal(t, 3, task.BatchCount)
		assert.Empty(t, task.ErrorCode)

		// The campaign row reflects the completed send
		updated, err := campaignRepo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CampaignStatusSent, updated.Status)
		assert.Equal(t, 7, updated.RecipientCount)
		require.NotNil(t, updated.SentAt)

		// Every audience member got a recipient row and exactly one email
		linked, err := recipientRepo.ListDonorsByCampaign(ctx, campaign.ID, 0, 0)
		require.NoError(t, err)
		assert.Len(t, linked, 7)
		assert.Equal(t, 7, mockEmail.SentRecipientCount())
		assert.Len(t, mockEmail.GetSentBatches(), 3)

		return nil
	})
	require.NoError(t, err)
}

func TestDispatcherAudienceFilter(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()

		_, err := testDB.CreateTestDonors(4, "fin", models.HelpTypeFinancial, nil)
		require.NoError(t, err)
		_, err = testDB.CreateTestDonors(2, "phy", models.HelpTypePhysical, nil)
		require.NoError(t, err)
		campaign, err := testDB.CreateTestCampaign("Targeted", models.CampaignStatusDraft)
		require.NoError(t, err)

		mockEmail := services.NewMockEmailService()
		d := newTestDispatcher(testDB, mockEmail, config.DispatchConfig{})
		stop := d.Start(ctx)
		defer stop()

		helpType := models.HelpTypeFinancial
		taskID := uuid.New().String()
		require.NoError(t, d.Submit(ctx, campaign.UUID.String(), taskID, &models.DonorFilter{HelpType: &helpType}))

		task := waitForTask(t, d, taskID)
		assert.Equal(t, dispatcher.TaskStatusSent, task.Status)
		assert.Equal(t, 4, task.RecipientCount)
		assert.Equal(t, 4, mockEmail.SentRecipientCount())

		return nil
	})
	require.NoError(t, err)
}

func TestDispatcherConcurrencyCap(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()

		_, err := testDB.CreateTestDonors(12, "cap", models.HelpTypeFinancial, nil)
		require.NoError(t, err)
		campaign, err := testDB.CreateTestCampaign("Capped", models.CampaignStatusDraft)
		require.NoError(t, err)

		mockEmail := services.NewMockEmailService()
		mockEmail.PerCallDelay = 30 * time.Millisecond
		d := newTestDispatcher(testDB, mockEmail, config.DispatchConfig{
			BatchSize:            2, // 6 batches
			MaxConcurrentBatches: 2,
		})
		stop := d.Start(ctx)
		defer stop()

		taskID := uuid.New().String()
		require.NoError(t, d.Submit(ctx, campaign.UUID.String(), taskID, nil))

		task := waitForTask(t, d, taskID)
		assert.Equal(t, dispatcher.TaskStatusSent, task.Status)
		assert.Equal(t, 6, task.BatchCount)
		assert.LessOrEqual(t, mockEmail.MaxInFlight, 2)

		return nil
	})
	require.NoError(t, err)
}

func TestDispatcherProviderFailureRollsBack(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()
		campaignRepo := repository.NewCampaignRepository(testDB.DB)
		recipientRepo := repository.NewCampaignRecipientRepository(testDB.DB)

		_, err := testDB.CreateTestDonors(5, "fail", models.HelpTypeFinancial, nil)
		require.NoError(t, err)
		campaign, err := testDB.CreateTestCampaign("Doomed", models.CampaignStatusDraft)
		require.NoError(t, err)

		mockEmail := services.NewMockEmailService()
		calls := 0
		mockEmail.FailBatch = func(batch services.EmailBatch) error {
			calls++
			if calls == 2 {
				return errors.New("provider rejected the batch")
			}
			return nil
		}
		d := newTestDispatcher(testDB, mockEmail, config.DispatchConfig{
			BatchSize:            2, // 3 batches, second one fails
			MaxConcurrentBatches: 1,
		})
		stop := d.Start(ctx)
		defer stop()

		taskID := uuid.New().String()
		require.NoError(t, d.Submit(ctx, campaign.UUID.String(), taskID, nil))

		task := waitForTask(t, d, taskID)
		assert.Equal(t, dispatcher.TaskStatusFailed, task.Status)
		assert.Equal(t, dispatcher.TaskErrorProviderFailure, task.ErrorCode)
		assert.Contains(t, task.ErrorMessage, "provider rejected the batch")

		// One failed batch fails the whole send: the campaign stays a
		// draft and no recipient rows survive the rollback
		updated, err := campaignRepo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CampaignStatusDraft, updated.Status)
		assert.Nil(t, updated.SentAt)
		assert.Equal(t, 0, updated.RecipientCount)

		count, err := recipientRepo.Count(ctx, models.CampaignRecipientFilter{CampaignID: &campaign.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		return nil
	})
	require.NoError(t, err)
}

func TestDispatcherEmptyAudience(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()

		campaign, err := testDB.CreateTestCampaign("Nobody home", models.CampaignStatusDraft)
		require.NoError(t, err)

		mockEmail := services.NewMockEmailService()
		d := newTestDispatcher(testDB, mockEmail, config.DispatchConfig{})
		stop := d.Start(ctx)
		defer stop()

		taskID := uuid.New().String()
		require.NoError(t, d.Submit(ctx, campaign.UUID.String(), taskID, nil))

		task := waitForTask(t, d, taskID)
		assert.Equal(t, dispatcher.TaskStatusFailed, task.Status)
		assert.Equal(t, dispatcher.TaskErrorEmptyAudience, task.ErrorCode)
		assert.Empty(t, mockEmail.GetSentBatches())

		return nil
	})
	require.NoError(t, err)
}

func TestDispatcherAlreadySentCampaign(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()

		_, err := testDB.CreateTestDonors(2, "sent", models.HelpTypeFinancial, nil)
		require.NoError(t, err)
		campaign, err := testDB.CreateTestCampaign("Old news", models.CampaignStatusSent)
		require.NoError(t, err)

		mockEmail := services.NewMockEmailService()
		d := newTestDispatcher(testDB, mockEmail, config.DispatchConfig{})
		stop := d.Start(ctx)
		defer stop()

		taskID := uuid.New().String()
		require.NoError(t, d.Submit(ctx, campaign.UUID.String(), taskID, nil))

		task := waitForTask(t, d, taskID)
		assert.Equal(t, dispatcher.TaskStatusFailed, task.Status)
		assert.Equal(t, dispatcher.TaskErrorAlreadySent, task.ErrorCode)
		assert.Empty(t, mockEmail.GetSentBatches())

		return nil
	})
	require.NoError(t, err)
}

func TestDispatcherStatusDuringSend(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()

		_, err := testDB.CreateTestDonors(6, "poll", models.HelpTypeFinancial, nil)
		require.NoError(t, err)
		campaign, err := testDB.CreateTestCampaign("Polled", models.CampaignStatusDraft)
		require.NoError(t, err)

		mockEmail := services.NewMockEmailService()
		mockEmail.PerCallDelay = 20 * time.Millisecond
		d := newTestDispatcher(testDB, mockEmail, config.DispatchConfig{
			BatchSize:            2,
			MaxConcurrentBatches: 1,
		})
		stop := d.Start(ctx)
		defer stop()

		taskID := uuid.New().String()
		require.NoError(t, d.Submit(ctx, campaign.UUID.String(), taskID, nil))

		// Poll the task from several goroutines while the worker is mid-send;
		// every poll must observe a coherent snapshot
		done := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-done:
						return
					default:
					}
					task, ok := d.Status(ctx, taskID)
					if !ok {
						continue
					}
					switch task.Status {
					case dispatcher.TaskStatusQueued, dispatcher.TaskStatusRunning,
						dispatcher.TaskStatusSent, dispatcher.TaskStatusFailed:
					default:
						t.Errorf("unexpected task status %q", task.Status)
					}
				}
			}()
		}

		task := waitForTask(t, d, taskID)
		close(done)
		wg.Wait()

		assert.Equal(t, dispatcher.TaskStatusSent, task.Status)
		assert.Equal(t, 6, task.RecipientCount)
		assert.Equal(t, 3, task.BatchCount)

		return nil
	})
	require.NoError(t, err)
}

func TestDispatcherSecondSendLoses(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()

		_, err := testDB.CreateTestDonors(3, "race", models.HelpTypeFinancial, nil)
		require.NoError(t, err)
		campaign, err := testDB.CreateTestCampaign("Contested", models.CampaignStatusDraft)
		require.NoError(t, err)

		mockEmail := services.NewMockEmailService()
		d := newTestDispatcher(testDB, mockEmail, config.DispatchConfig{})
		stop := d.Start(ctx)
		defer stop()

		// Both submissions are accepted; the row lock inside the send
		// transaction guarantees exactly one delivers
		firstID := uuid.New().String()
		secondID := uuid.New().String()
		require.NoError(t, d.Submit(ctx, campaign.UUID.String(), firstID, nil))
		require.NoError(t, d.Submit(ctx, campaign.UUID.String(), secondID, nil))

		first := waitForTask(t, d, firstID)
		second := waitForTask(t, d, secondID)

		assert.Equal(t, dispatcher.TaskStatusSent, first.Status)
		assert.Equal(t, dispatcher.TaskStatusFailed, second.Status)
		assert.Equal(t, dispatcher.TaskErrorAlreadySent, second.ErrorCode)

		// The audience received exactly one copy
		assert.Equal(t, 3, mockEmail.SentRecipientCount())

		return nil
	})
	require.NoError(t, err)
}

func TestDispatcherUnknownCampaign(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := context.Background()

		mockEmail := services.NewMockEmailService()
		d := newTestDispatcher(testDB, mockEmail, config.DispatchConfig{})
		stop := d.Start(ctx)
		defer stop()

		taskID := uuid.New().String()
		require.NoError(t, d.Submit(ctx, uuid.New().String(), taskID, nil))

		task := waitForTask(t, d, taskID)
		assert.Equal(t, dispatcher.TaskStatusFailed, task.Status)
		assert.Equal(t, dispatcher.TaskErrorCampaignNotFound, task.ErrorCode)

		return nil
	})
	require.NoError(t, err)
}

func TestDispatcherSubmitBeforeStart(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		d := newTestDispatcher(testDB, services.NewMockEmailService(), config.DispatchConfig{})

		err := d.Submit(context.Background(), uuid.New().String(), uuid.New().String(), nil)
		assert.ErrorIs(t, err, dispatcher.ErrStopped)

		return nil
	})
	require.NoError(t, err)
}

func TestDispatcherUnknownTaskStatus(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		d := newTestDispatcher(testDB, services.NewMockEmailService(), config.DispatchConfig{})

		_, ok := d.Status(context.Background(), "no-such-task")
		assert.False(t, ok)

		return nil
	})
	require.NoError(t, err)
}
