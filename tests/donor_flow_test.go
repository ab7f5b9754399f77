package tests

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghand/donor-admin/app/dto"
	businessflow "github.com/helpinghand/donor-admin/business_flow"
	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
	testingutil "github.com/helpinghand/donor-admin/testing"
)

func newDonorFlow(testDB *testingutil.TestDB) businessflow.DonorFlow {
	return businessflow.NewDonorFlow(
		repository.NewDonorRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		testDB.DB,
	)
}

func TestDonorFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newDonorFlow(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("CreateAndGet", func(t *testing.T) {
			phone := "+15551234567"
			city := "Portland"
			created, err := flow.CreateDonor(ctx, &dto.CreateDonorRequest{
				Name:     "Jane Smith",
				Email:    "jane@example.com",
				Phone:    &phone,
				HelpType: "financial",
				Address:  &dto.AddressDTO{City: &city},
			}, testMetadata())
			require.NoError(t, err)
			assert.NotEmpty(t, created.UUID)
			assert.Equal(t, "financial", created.HelpType)
			require.NotNil(t, created.Address)
			assert.Equal(t, "Portland", *created.Address.City)

			fetched, err := flow.GetDonor(ctx, created.UUID)
			require.NoError(t, err)
			assert.Equal(t, "jane@example.com", fetched.Email)
		})

		t.Run("DuplicateEmailRejected", func(t *testing.T) {
			_, err := flow.CreateDonor(ctx, &dto.CreateDonorRequest{
				Name:     "First",
				Email:    "dupe@example.com",
				HelpType: "physical",
			}, testMetadata())
			require.NoError(t, err)

			_, err = flow.CreateDonor(ctx, &dto.CreateDonorRequest{
				Name:     "Second",
				Email:    "dupe@example.com",
				HelpType: "both",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsDonorEmailAlreadyExists(err))
		})

		t.Run("GetNotFound", func(t *testing.T) {
			_, err := flow.GetDonor(ctx, uuid.New().String())
			require.Error(t, err)
			assert.True(t, businessflow.IsDonorNotFound(err))
		})

		t.Run("Update", func(t *testing.T) {
			created, err := flow.CreateDonor(ctx, &dto.CreateDonorRequest{
				Name:     "Before Update",
				Email:    "update-me@example.com",
				HelpType: "financial",
			}, testMetadata())
			require.NoError(t, err)

			name := "After Update"
			helpType := "both"
			updated, err := flow.UpdateDonor(ctx, created.UUID, &dto.UpdateDonorRequest{
				Name:     &name,
				HelpType: &helpType,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "After Update", updated.Name)
			assert.Equal(t, "both", updated.HelpType)
			assert.Equal(t, "update-me@example.com", updated.Email)
		})

		t.Run("UpdateToTakenEmailRejected", func(t *testing.T) {
			_, err := flow.CreateDonor(ctx, &dto.CreateDonorRequest{
				Name:     "Holder",
				Email:    "taken@example.com",
				HelpType: "financial",
			}, testMetadata())
			require.NoError(t, err)
			created, err := flow.CreateDonor(ctx, &dto.CreateDonorRequest{
				Name:     "Mover",
				Email:    "mover@example.com",
				HelpType: "financial",
			}, testMetadata())
			require.NoError(t, err)

			email := "taken@example.com"
			_, err = flow.UpdateDonor(ctx, created.UUID, &dto.UpdateDonorRequest{Email: &email}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsDonorEmailAlreadyExists(err))
		})

		t.Run("Delete", func(t *testing.T) {
			created, err := flow.CreateDonor(ctx, &dto.CreateDonorRequest{
				Name:     "Leaving",
				Email:    "leaving@example.com",
				HelpType: "physical",
			}, testMetadata())
			require.NoError(t, err)

			require.NoError(t, flow.DeleteDonor(ctx, created.UUID, testMetadata()))

			_, err = flow.GetDonor(ctx, created.UUID)
			assert.True(t, businessflow.IsDonorNotFound(err))
		})

		t.Run("DeleteNotFound", func(t *testing.T) {
			err := flow.DeleteDonor(ctx, uuid.New().String(), testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsDonorNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDonorListing(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newDonorFlow(testDB)
		ctx := testingutil.CreateTestContext()

		for i := 0; i < 12; i++ {
			helpType := "financial"
			if i%3 == 0 {
				helpType = "physical"
			}
			_, err := flow.CreateDonor(ctx, &dto.CreateDonorRequest{
				Name:     fmt.Sprintf("Donor %02d", i),
				Email:    fmt.Sprintf("list_%02d@example.com", i),
				HelpType: helpType,
			}, testMetadata())
			require.NoError(t, err)
		}

		t.Run("Pagination", func(t *testing.T) {
			first, err := flow.ListDonors(ctx, &dto.ListDonorsRequest{Page: 1, PageSize: 5})
			require.NoError(t, err)
			assert.Len(t, first.Items, 5)
			assert.Equal(t, int64(12), first.TotalCount)

			last, err := flow.ListDonors(ctx, &dto.ListDonorsRequest{Page: 3, PageSize: 5})
			require.NoError(t, err)
			assert.Len(t, last.Items, 2)
		})

		t.Run("FilterByHelpType", func(t *testing.T) {
			helpType := "physical"
			listed, err := flow.ListDonors(ctx, &dto.ListDonorsRequest{HelpType: &helpType, Page: 1, PageSize: 50})
			require.NoError(t, err)
			assert.Equal(t, int64(4), listed.TotalCount)
			for _, donor := range listed.Items {
				assert.Equal(t, "physical", donor.HelpType)
			}
		})

		t.Run("FilterByLastContact", func(t *testing.T) {
			contacted := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
			_, err := testDB.CreateTestDonor("Recently contacted", "recent@example.com", models.HelpTypeFinancial, &contacted)
			require.NoError(t, err)

			cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			listed, err := flow.ListDonors(ctx, &dto.ListDonorsRequest{LastContactAfter: &cutoff, Page: 1, PageSize: 50})
			require.NoError(t, err)
			require.Equal(t, int64(1), listed.TotalCount)
			assert.Equal(t, "recent@example.com", listed.Items[0].Email)
		})

		return nil
	})
	require.NoError(t, err)
}
