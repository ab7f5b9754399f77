package tests

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghand/donor-admin/app/dto"
	"github.com/helpinghand/donor-admin/models"
)

func TestHelpType(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.True(t, models.HelpTypeFinancial.Valid())
		assert.True(t, models.HelpTypePhysical.Valid())
		assert.True(t, models.HelpTypeBoth.Valid())
		assert.False(t, models.HelpType("monetary").Valid())
		assert.False(t, models.HelpType("").Valid())
	})

	t.Run("ScanAndValue", func(t *testing.T) {
		var h models.HelpType
		require.NoError(t, h.Scan("physical"))
		assert.Equal(t, models.HelpTypePhysical, h)

		require.NoError(t, h.Scan([]byte("both")))
		assert.Equal(t, models.HelpTypeBoth, h)

		require.NoError(t, h.Scan(nil))
		assert.Equal(t, models.HelpType(""), h)

		assert.Error(t, h.Scan(42))

		v, err := models.HelpTypeFinancial.Value()
		require.NoError(t, err)
		assert.Equal(t, "financial", v)

		_, err = models.HelpType("bogus").Value()
		assert.Error(t, err)
	})
}

func TestCampaignStatus(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.True(t, models.CampaignStatusDraft.Valid())
		assert.True(t, models.CampaignStatusSent.Valid())
		assert.False(t, models.CampaignStatus("queued").Valid())
	})

	t.Run("ScanAndValue", func(t *testing.T) {
		var s models.CampaignStatus
		require.NoError(t, s.Scan("sent"))
		assert.Equal(t, models.CampaignStatusSent, s)

		v, err := models.CampaignStatusDraft.Value()
		require.NoError(t, err)
		assert.Equal(t, "draft", v)

		_, err = models.CampaignStatus("bogus").Value()
		assert.Error(t, err)
	})
}

func TestCampaignLifecycle(t *testing.T) {
	t.Run("DraftTransitionsOnlyToSent", func(t *testing.T) {
		draft := &models.EmailCampaign{Status: models.CampaignStatusDraft}
		assert.True(t, draft.CanTransitionTo(models.CampaignStatusSent))
		assert.False(t, draft.CanTransitionTo(models.CampaignStatusDraft))
	})

	t.Run("SentIsTerminal", func(t *testing.T) {
		sent := &models.EmailCampaign{Status: models.CampaignStatusSent}
		assert.False(t, sent.CanTransitionTo(models.CampaignStatusDraft))
		assert.False(t, sent.CanTransitionTo(models.CampaignStatusSent))
	})

	t.Run("EditableAndDeletableOnlyAsDraft", func(t *testing.T) {
		draft := &models.EmailCampaign{Status: models.CampaignStatusDraft}
		assert.True(t, draft.IsEditable())
		assert.True(t, draft.IsDeletable())

		sent := &models.EmailCampaign{Status: models.CampaignStatusSent}
		assert.False(t, sent.IsEditable())
		assert.False(t, sent.IsDeletable())
	})
}

func TestDonorBeforeCreateDefaults(t *testing.T) {
	donor := &models.Donor{Name: "Defaulted", Email: "defaults@example.com"}
	require.NoError(t, donor.BeforeCreate())

	assert.NotEqual(t, uuid.Nil, donor.UUID)
	assert.Equal(t, models.HelpTypeFinancial, donor.HelpType)
	assert.False(t, donor.CreatedAt.IsZero())

	// An explicit UUID survives
	fixed := uuid.New()
	donor2 := &models.Donor{Name: "Explicit", Email: "explicit@example.com", UUID: fixed, HelpType: models.HelpTypeBoth}
	require.NoError(t, donor2.BeforeCreate())
	assert.Equal(t, fixed, donor2.UUID)
	assert.Equal(t, models.HelpTypeBoth, donor2.HelpType)
}

func TestCampaignBeforeCreateDefaults(t *testing.T) {
	campaign := &models.EmailCampaign{Subject: "Hello", Body: "World"}
	require.NoError(t, campaign.BeforeCreate())

	assert.NotEqual(t, uuid.Nil, campaign.UUID)
	assert.Equal(t, models.CampaignStatusDraft, campaign.Status)
	assert.False(t, campaign.CreatedAt.IsZero())
}

func TestDonorAddressScanValue(t *testing.T) {
	street := "1 Main St"
	city := "Springfield"
	addr := models.DonorAddress{Street: &street, City: &city}

	v, err := addr.Value()
	require.NoError(t, err)

	var scanned models.DonorAddress
	require.NoError(t, scanned.Scan(v))
	require.NotNil(t, scanned.Street)
	assert.Equal(t, "1 Main St", *scanned.Street)
	require.NotNil(t, scanned.City)
	assert.Equal(t, "Springfield", *scanned.City)

	assert.Error(t, scanned.Scan(42))
}

func TestSendFilterBoundsConsistent(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter dto.SendFilter
		want   bool
	}{
		{"no bounds", dto.SendFilter{}, true},
		{"only after", dto.SendFilter{LastContactAfter: &early}, true},
		{"only before", dto.SendFilter{LastContactBefore: &late}, true},
		{"ordered bounds", dto.SendFilter{LastContactAfter: &early, LastContactBefore: &late}, true},
		{"equal bounds", dto.SendFilter{LastContactAfter: &early, LastContactBefore: &early}, true},
		{"inverted bounds", dto.SendFilter{LastContactAfter: &late, LastContactBefore: &early}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.BoundsConsistent())
		})
	}
}

func TestUserCanLogin(t *testing.T) {
	active := true
	inactive := false

	assert.True(t, (&models.User{IsActive: &active}).CanLogin())
	assert.False(t, (&models.User{IsActive: &inactive}).CanLogin())
	assert.False(t, (&models.User{}).CanLogin())
}
