package tests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghand/donor-admin/app/dispatcher"
	"github.com/helpinghand/donor-admin/app/dto"
	"github.com/helpinghand/donor-admin/app/services"
	businessflow "github.com/helpinghand/donor-admin/business_flow"
	"github.com/helpinghand/donor-admin/config"
	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
	testingutil "github.com/helpinghand/donor-admin/testing"
)

type campaignFlowHarness struct {
	flow       businessflow.CampaignFlow
	dispatcher *dispatcher.CampaignDispatcher
	email      *services.MockEmailService
	stop       func()
}

func newCampaignFlowHarness(testDB *testingutil.TestDB, email *services.MockEmailService) *campaignFlowHarness {
	campaignRepo := repository.NewCampaignRepository(testDB.DB)
	donorRepo := repository.NewDonorRepository(testDB.DB)
	recipientRepo := repository.NewCampaignRecipientRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	d := dispatcher.NewCampaignDispatcher(
		testDB.DB, campaignRepo, donorRepo, recipientRepo, auditRepo,
		email, nil, config.DispatchConfig{},
	)
	stop := d.Start(context.Background())

	flow := businessflow.NewCampaignFlow(campaignRepo, donorRepo, recipientRepo, auditRepo, email, d, testDB.DB)
	return &campaignFlowHarness{flow: flow, dispatcher: d, email: email, stop: stop}
}

func testMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("127.0.0.1", "test-agent/1.0")
}

func TestCampaignCRUD(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		h := newCampaignFlowHarness(testDB, services.NewMockEmailService())
		defer h.stop()
		ctx := testingutil.CreateTestContext()

		t.Run("CreateAndGet", func(t *testing.T) {
			created, err := h.flow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
				Subject: "  Spring update  ",
				Body:    "<p>Hello</p>",
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "Spring update", created.Subject)
			assert.Equal(t, "draft", created.Status)

			fetched, err := h.flow.GetCampaign(ctx, created.UUID)
			require.NoError(t, err)
			assert.Equal(t, created.UUID, fetched.UUID)
		})

		t.Run("GetNotFound", func(t *testing.T) {
			_, err := h.flow.GetCampaign(ctx, uuid.New().String())
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignNotFound(err))
		})

		t.Run("UpdateDraft", func(t *testing.T) {
			created, err := h.flow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
				Subject: "Before",
				Body:    "old body",
			}, testMetadata())
			require.NoError(t, err)

			subject := "After"
			updated, err := h.flow.UpdateCampaign(ctx, created.UUID, &dto.UpdateCampaignRequest{Subject: &subject}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "After", updated.Subject)
			assert.Equal(t, "old body", updated.Body)
		})

		t.Run("UpdateSentCampaignRejected", func(t *testing.T) {
			campaign, err := testDB.CreateTestCampaign("Immutable", models.CampaignStatusSent)
			require.NoError(t, err)

			subject := "Changed"
			_, err = h.flow.UpdateCampaign(ctx, campaign.UUID.String(), &dto.UpdateCampaignRequest{Subject: &subject}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignUpdateNotAllowed(err))
		})

		t.Run("DeleteDraft", func(t *testing.T) {
			created, err := h.flow.CreateCampaign(ctx, &dto.CreateCampaignRequest{
				Subject: "Disposable",
				Body:    "x",
			}, testMetadata())
			require.NoError(t, err)

			require.NoError(t, h.flow.DeleteCampaign(ctx, created.UUID, testMetadata()))

			_, err = h.flow.GetCampaign(ctx, created.UUID)
			assert.True(t, businessflow.IsCampaignNotFound(err))
		})

		t.Run("DeleteSentCampaignRejected", func(t *testing.T) {
			campaign, err := testDB.CreateTestCampaign("Keep for history", models.CampaignStatusSent)
			require.NoError(t, err)

			err = h.flow.DeleteCampaign(ctx, campaign.UUID.String(), testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignDeleteNotAllowed(err))
		})

		t.Run("ListByStatus", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			_, err := testDB.CreateTestCampaign("Draft A", models.CampaignStatusDraft)
			require.NoError(t, err)
			_, err = testDB.CreateTestCampaign("Sent B", models.CampaignStatusSent)
			require.NoError(t, err)

			status := "draft"
			listed, err := h.flow.ListCampaigns(ctx, &dto.ListCampaignsRequest{Status: &status})
			require.NoError(t, err)
			require.Len(t, listed.Items, 1)
			assert.Equal(t, "Draft A", listed.Items[0].Subject)
			assert.Equal(t, int64(1), listed.TotalCount)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignSendFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		h := newCampaignFlowHarness(testDB, services.NewMockEmailService())
		defer h.stop()
		ctx := testingutil.CreateTestContext()

		t.Run("SendQueuesTask", func(t *testing.T) {
			_, err := testDB.CreateTestDonors(3, "send", models.HelpTypeFinancial, nil)
			require.NoError(t, err)
			campaign, err := testDB.CreateTestCampaign("Go out", models.CampaignStatusDraft)
			require.NoError(t, err)

			resp, err := h.flow.Send(ctx, campaign.UUID.String(), &dto.SendCampaignRequest{}, testMetadata())
			require.NoError(t, err)
			assert.NotEmpty(t, resp.TaskID)
			assert.Equal(t, campaign.UUID.String(), resp.CampaignID)

			task := waitForTask(t, h.dispatcher, resp.TaskID)
			assert.Equal(t, dispatcher.TaskStatusSent, task.Status)

			status, err := h.flow.GetSendTaskStatus(ctx, resp.TaskID)
			require.NoError(t, err)
			assert.Equal(t, dispatcher.TaskStatusSent, status.Status)
			assert.Equal(t, 3, status.RecipientCount)
			require.NotNil(t, status.FinishedAt)
		})

		t.Run("SendUnknownCampaign", func(t *testing.T) {
			_, err := h.flow.Send(ctx, uuid.New().String(), &dto.SendCampaignRequest{}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignNotFound(err))
		})

		t.Run("SendAlreadySent", func(t *testing.T) {
			campaign, err := testDB.CreateTestCampaign("Done already", models.CampaignStatusSent)
			require.NoError(t, err)

			_, err = h.flow.Send(ctx, campaign.UUID.String(), &dto.SendCampaignRequest{}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignAlreadySent(err))
		})

		t.Run("SendInvalidBounds", func(t *testing.T) {
			campaign, err := testDB.CreateTestCampaign("Bad filter", models.CampaignStatusDraft)
			require.NoError(t, err)

			after := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
			before := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			_, err = h.flow.Send(ctx, campaign.UUID.String(), &dto.SendCampaignRequest{
				Filters: dto.SendFilter{LastContactAfter: &after, LastContactBefore: &before},
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidContactBounds(err))
		})

		t.Run("TaskStatusNotFound", func(t *testing.T) {
			_, err := h.flow.GetSendTaskStatus(ctx, uuid.New().String())
			require.Error(t, err)
			assert.True(t, businessflow.IsSendTaskNotFound(err))
		})

		t.Run("ListRecipientsAfterSend", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			_, err := testDB.CreateTestDonors(4, "rcpts", models.HelpTypeBoth, nil)
			require.NoError(t, err)
			campaign, err := testDB.CreateTestCampaign("Listed", models.CampaignStatusDraft)
			require.NoError(t, err)

			resp, err := h.flow.Send(ctx, campaign.UUID.String(), &dto.SendCampaignRequest{}, testMetadata())
			require.NoError(t, err)
			waitForTask(t, h.dispatcher, resp.TaskID)

			recipients, err := h.flow.ListRecipients(ctx, campaign.UUID.String(), 10, 0)
			require.NoError(t, err)
			assert.Len(t, recipients, 4)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignSendProviderNotConfigured(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		email := services.NewMockEmailService()
		email.Unconfigured = true
		h := newCampaignFlowHarness(testDB, email)
		defer h.stop()
		ctx := testingutil.CreateTestContext()

		campaign, err := testDB.CreateTestCampaign("No provider", models.CampaignStatusDraft)
		require.NoError(t, err)

		_, err = h.flow.Send(ctx, campaign.UUID.String(), &dto.SendCampaignRequest{}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsProviderNotReady(err))

		return nil
	})
	require.NoError(t, err)
}

func TestPreviewRecipients(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		h := newCampaignFlowHarness(testDB, services.NewMockEmailService())
		defer h.stop()
		ctx := testingutil.CreateTestContext()

		t.Run("CountAndSampleCap", func(t *testing.T) {
			_, err := testDB.CreateTestDonors(8, "prev", models.HelpTypeFinancial, nil)
			require.NoError(t, err)

			resp, err := h.flow.PreviewRecipients(ctx, &dto.PreviewRecipientsRequest{})
			require.NoError(t, err)
			assert.Equal(t, int64(8), resp.Count)
			// Sample is capped even when the audience is larger
			assert.Len(t, resp.Sample, 5)
		})

		t.Run("FilteredPreview", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			_, err := testDB.CreateTestDonors(2, "p_fin", models.HelpTypeFinancial, nil)
			require.NoError(t, err)
			_, err = testDB.CreateTestDonors(3, "p_phy", models.HelpTypePhysical, nil)
			require.NoError(t, err)

			helpType := "physical"
			resp, err := h.flow.PreviewRecipients(ctx, &dto.PreviewRecipientsRequest{
				Filters: dto.SendFilter{HelpType: &helpType},
			})
			require.NoError(t, err)
			assert.Equal(t, int64(3), resp.Count)
			assert.Len(t, resp.Sample, 3)
			for _, donor := range resp.Sample {
				assert.Equal(t, "physical", donor.HelpType)
			}
		})

		t.Run("EmptyAudiencePreview", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			resp, err := h.flow.PreviewRecipients(ctx, &dto.PreviewRecipientsRequest{})
			require.NoError(t, err)
			assert.Equal(t, int64(0), resp.Count)
			assert.Empty(t, resp.Sample)
		})

		t.Run("InvalidBounds", func(t *testing.T) {
			after := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
			before := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			_, err := h.flow.PreviewRecipients(ctx, &dto.PreviewRecipientsRequest{
				Filters: dto.SendFilter{LastContactAfter: &after, LastContactBefore: &before},
			})
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidContactBounds(err))
		})

		return nil
	})
	require.NoError(t, err)
}
