// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
	testingutil "github.com/helpinghand/donor-admin/testing"
	"github.com/helpinghand/donor-admin/utils"
)

func TestDonorRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewDonorRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveAndByEmail", func(t *testing.T) {
			donor, err := testDB.CreateTestDonor("Alice", "alice@example.com", models.HelpTypeFinancial, nil)
			require.NoError(t, err)
			assert.NotZero(t, donor.ID)

			found, err := repo.ByEmail(ctx, "alice@example.com")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, donor.ID, found.ID)
		})

		t.Run("ByEmailNotFound", func(t *testing.T) {
			found, err := repo.ByEmail(ctx, "nobody@example.com")
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ByUUID", func(t *testing.T) {
			donor, err := testDB.CreateTestDonor("Bob", "bob@example.com", models.HelpTypePhysical, nil)
			require.NoError(t, err)

			found, err := repo.ByUUID(ctx, donor.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, models.HelpTypePhysical, found.HelpType)
		})

		t.Run("FilterByHelpType", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			_, err := testDB.CreateTestDonors(3, "fin", models.HelpTypeFinancial, nil)
			require.NoError(t, err)
			_, err = testDB.CreateTestDonors(2, "phy", models.HelpTypePhysical, nil)
			require.NoError(t, err)

			helpType := models.HelpTypeFinancial
			donors, err := repo.ByFilter(ctx, models.DonorFilter{HelpType: &helpType}, "id ASC", 0, 0)
			require.NoError(t, err)
			assert.Len(t, donors, 3)
			for _, d := range donors {
				assert.Equal(t, models.HelpTypeFinancial, d.HelpType)
			}
		})

		t.Run("EmptyFilterMatchesAll", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			contacted := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
			_, err := testDB.CreateTestDonor("Contacted", "contacted@example.com", models.HelpTypeBoth, &contacted)
			require.NoError(t, err)
			// Never-contacted donors must also match the empty filter
			_, err = testDB.CreateTestDonor("Fresh", "fresh@example.com", models.HelpTypeFinancial, nil)
			require.NoError(t, err)

			donors, err := repo.ByFilter(ctx, models.DonorFilter{}, "id ASC", 0, 0)
			require.NoError(t, err)
			assert.Len(t, donors, 2)
		})

		t.Run("LastContactBoundsAreInclusive", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			boundary := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
			before := boundary.Add(-24 * time.Hour)
			after := boundary.Add(24 * time.Hour)

			_, err := testDB.CreateTestDonor("On boundary", "boundary@example.com", models.HelpTypeFinancial, &boundary)
			require.NoError(t, err)
			_, err = testDB.CreateTestDonor("Earlier", "earlier@example.com", models.HelpTypeFinancial, &before)
			require.NoError(t, err)
			_, err = testDB.CreateTestDonor("Later", "later@example.com", models.HelpTypeFinancial, &after)
			require.NoError(t, err)

			// A donor whose last_contact equals either bound is included
			donors, err := repo.ByFilter(ctx, models.DonorFilter{
				LastContactAfter:  &boundary,
				LastContactBefore: &boundary,
			}, "id ASC", 0, 0)
			require.NoError(t, err)
			require.Len(t, donors, 1)
			assert.Equal(t, "boundary@example.com", donors[0].Email)

			donors, err = repo.ByFilter(ctx, models.DonorFilter{LastContactAfter: &boundary}, "id ASC", 0, 0)
			require.NoError(t, err)
			assert.Len(t, donors, 2)

			donors, err = repo.ByFilter(ctx, models.DonorFilter{LastContactBefore: &boundary}, "id ASC", 0, 0)
			require.NoError(t, err)
			assert.Len(t, donors, 2)
		})

		t.Run("NullLastContactExcludedByBounds", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			contacted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			_, err := testDB.CreateTestDonor("Contacted", "contacted@example.com", models.HelpTypeFinancial, &contacted)
			require.NoError(t, err)
			_, err = testDB.CreateTestDonor("Never", "never@example.com", models.HelpTypeFinancial, nil)
			require.NoError(t, err)

			donors, err := repo.ByFilter(ctx, models.DonorFilter{LastContactAfter: &contacted}, "id ASC", 0, 0)
			require.NoError(t, err)
			require.Len(t, donors, 1)
			assert.Equal(t, "contacted@example.com", donors[0].Email)
		})

		t.Run("CountAndUpdate", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			donor, err := testDB.CreateTestDonor("Carol", "carol@example.com", models.HelpTypeFinancial, nil)
			require.NoError(t, err)

			count, err := repo.Count(ctx, models.DonorFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			donor.Name = "Carol Updated"
			now := utils.UTCNow()
			donor.LastContact = &now
			require.NoError(t, repo.Update(ctx, *donor))

			found, err := repo.ByID(ctx, donor.ID)
			require.NoError(t, err)
			assert.Equal(t, "Carol Updated", found.Name)
			require.NotNil(t, found.LastContact)
		})

		t.Run("Delete", func(t *testing.T) {
			donor, err := testDB.CreateTestDonor("Gone", "gone@example.com", models.HelpTypeFinancial, nil)
			require.NoError(t, err)

			require.NoError(t, repo.Delete(ctx, donor.ID))

			found, err := repo.ByID(ctx, donor.ID)
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDonationRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewDonationRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		donor, err := testDB.CreateTestDonor("Donor", "donor@example.com", models.HelpTypeFinancial, nil)
		require.NoError(t, err)

		t.Run("SaveAndByUUID", func(t *testing.T) {
			donation, err := testDB.CreateTestDonation(donor.ID, 150.00, "USD", utils.UTCNow())
			require.NoError(t, err)

			found, err := repo.ByUUID(ctx, donation.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, 150.00, found.Amount)
			assert.Equal(t, "USD", found.Currency)
		})

		t.Run("ListByDonor", func(t *testing.T) {
			other, err := testDB.CreateTestDonor("Other", "other@example.com", models.HelpTypeFinancial, nil)
			require.NoError(t, err)
			_, err = testDB.CreateTestDonation(other.ID, 10.00, "USD", utils.UTCNow())
			require.NoError(t, err)

			donations, err := repo.ListByDonor(ctx, donor.ID, 0, 0)
			require.NoError(t, err)
			for _, d := range donations {
				assert.Equal(t, donor.ID, d.DonorID)
			}
		})

		t.Run("SumAmountByCurrency", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			donor, err := testDB.CreateTestDonor("Sums", "sums@example.com", models.HelpTypeFinancial, nil)
			require.NoError(t, err)

			_, err = testDB.CreateTestDonation(donor.ID, 100.00, "USD", utils.UTCNow())
			require.NoError(t, err)
			_, err = testDB.CreateTestDonation(donor.ID, 50.00, "USD", utils.UTCNow())
			require.NoError(t, err)
			_, err = testDB.CreateTestDonation(donor.ID, 75.00, "EUR", utils.UTCNow())
			require.NoError(t, err)

			totals, err := repo.SumAmountByCurrency(ctx, models.DonationFilter{DonorID: &donor.ID})
			require.NoError(t, err)
			assert.InDelta(t, 150.00, totals["USD"], 0.001)
			assert.InDelta(t, 75.00, totals["EUR"], 0.001)
		})

		t.Run("DateRangeFilter", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			donor, err := testDB.CreateTestDonor("Dates", "dates@example.com", models.HelpTypeFinancial, nil)
			require.NoError(t, err)

			jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
			jun := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
			_, err = testDB.CreateTestDonation(donor.ID, 10.00, "USD", jan)
			require.NoError(t, err)
			_, err = testDB.CreateTestDonation(donor.ID, 20.00, "USD", jun)
			require.NoError(t, err)

			cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
			donations, err := repo.ByFilter(ctx, models.DonationFilter{DateAfter: &cutoff}, "date ASC", 0, 0)
			require.NoError(t, err)
			require.Len(t, donations, 1)
			assert.Equal(t, 20.00, donations[0].Amount)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewCampaignRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveAndByUUID", func(t *testing.T) {
			campaign, err := testDB.CreateTestCampaign("Spring update", models.CampaignStatusDraft)
			require.NoError(t, err)

			found, err := repo.ByUUID(ctx, campaign.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, "Spring update", found.Subject)
			assert.Equal(t, models.CampaignStatusDraft, found.Status)
			assert.Equal(t, 0, found.RecipientCount)
		})

		t.Run("ByUUIDNotFound", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, "00000000-0000-0000-0000-000000000000")
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("MarkSent", func(t *testing.T) {
			campaign, err := testDB.CreateTestCampaign("To send", models.CampaignStatusDraft)
			require.NoError(t, err)

			sentAt := utils.UTCNow()
			require.NoError(t, repo.MarkSent(ctx, campaign.ID, sentAt, 42))

			found, err := repo.ByID(ctx, campaign.ID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusSent, found.Status)
			assert.Equal(t, 42, found.RecipientCount)
			require.NotNil(t, found.SentAt)
			assert.WithinDuration(t, sentAt, *found.SentAt, time.Second)
		})

		t.Run("FilterByStatus", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			_, err := testDB.CreateTestCampaign("Draft one", models.CampaignStatusDraft)
			require.NoError(t, err)
			_, err = testDB.CreateTestCampaign("Sent one", models.CampaignStatusSent)
			require.NoError(t, err)

			status := models.CampaignStatusDraft
			campaigns, err := repo.ByFilter(ctx, models.CampaignFilter{Status: &status}, "id ASC", 0, 0)
			require.NoError(t, err)
			require.Len(t, campaigns, 1)
			assert.Equal(t, "Draft one", campaigns[0].Subject)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignRowLockSingleWinner(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewCampaignRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		campaign, err := testDB.CreateTestCampaign("Contested", models.CampaignStatusDraft)
		require.NoError(t, err)

		// Two transactions race on the same draft. The second blocks on the
		// row lock until the first commits, then must see status=sent.
		markSent := func() error {
			return repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				locked, err := repo.ByUUIDForUpdate(txCtx, campaign.UUID.String())
				if err != nil {
					return err
				}
				if locked.Status != models.CampaignStatusDraft {
					return errors.New("campaign has already been sent")
				}
				return repo.MarkSent(txCtx, locked.ID, utils.UTCNow(), 1)
			})
		}

		start := make(chan struct{})
		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() {
				<-start
				results <- markSent()
			}()
		}
		close(start)

		wins := 0
		for i := 0; i < 2; i++ {
			if err := <-results; err == nil {
				wins++
			}
		}
		assert.Equal(t, 1, wins)

		final, err := repo.ByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CampaignStatusSent, final.Status)

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignRecipientRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewCampaignRecipientRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		campaign, err := testDB.CreateTestCampaign("With recipients", models.CampaignStatusSent)
		require.NoError(t, err)
		donors, err := testDB.CreateTestDonors(3, "rcpt", models.HelpTypeFinancial, nil)
		require.NoError(t, err)

		links := make([]*models.CampaignRecipient, 0, len(donors))
		for _, d := range donors {
			links = append(links, &models.CampaignRecipient{
				CampaignID: campaign.ID,
				DonorID:    d.ID,
				CreatedAt:  utils.UTCNow(),
			})
		}
		require.NoError(t, repo.SaveBatch(ctx, links))

		t.Run("ListDonorsByCampaign", func(t *testing.T) {
			listed, err := repo.ListDonorsByCampaign(ctx, campaign.ID, 0, 0)
			require.NoError(t, err)
			assert.Len(t, listed, 3)
		})

		t.Run("CountByCampaign", func(t *testing.T) {
			count, err := repo.Count(ctx, models.CampaignRecipientFilter{CampaignID: &campaign.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUserRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewUserRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByEmail", func(t *testing.T) {
			user, err := testDB.CreateTestUser("operator@example.org")
			require.NoError(t, err)

			found, err := repo.ByEmail(ctx, "operator@example.org")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, user.ID, found.ID)
		})

		t.Run("UpdateLastLogin", func(t *testing.T) {
			user, err := testDB.CreateTestUser("lastlogin@example.org")
			require.NoError(t, err)

			at := utils.UTCNow()
			require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))

			found, err := repo.ByID(ctx, user.ID)
			require.NoError(t, err)
			require.NotNil(t, found.LastLoginAt)
			assert.WithinDuration(t, at, *found.LastLoginAt, time.Second)
		})

		return nil
	})
	require.NoError(t, err)
}
