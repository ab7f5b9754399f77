package testing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/helpinghand/donor-admin/models"
)

// DefaultTestPassword is the plaintext password used by user fixtures
const DefaultTestPassword = "TestPassword123"

// CreateTestUser inserts an active operator account with a bcrypt-hashed password
func (tdb *TestDB) CreateTestUser(email string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultTestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash test password: %w", err)
	}

	active := true
	user := &models.User{
		UUID:         uuid.New(),
		Name:         "Test Operator",
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     &active,
		CreatedAt:    time.Now().UTC(),
	}

	if err := tdb.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateTestDonor inserts a donor with the given help type and last-contact date
func (tdb *TestDB) CreateTestDonor(name, email string, helpType models.HelpType, lastContact *time.Time) (*models.Donor, error) {
	donor := &models.Donor{
		UUID:        uuid.New(),
		Name:        name,
		Email:       email,
		HelpType:    helpType,
		LastContact: lastContact,
		CreatedAt:   time.Now().UTC(),
	}

	if err := tdb.DB.Create(donor).Error; err != nil {
		return nil, fmt.Errorf("failed to create test donor: %w", err)
	}
	return donor, nil
}

// CreateTestDonors inserts n donors with the given help type; emails are
// generated from the prefix so they stay unique within a test database.
func (tdb *TestDB) CreateTestDonors(n int, emailPrefix string, helpType models.HelpType, lastContact *time.Time) ([]*models.Donor, error) {
	donors := make([]*models.Donor, 0, n)
	for i := 0; i < n; i++ {
		donor, err := tdb.CreateTestDonor(
			fmt.Sprintf("%s donor %d", emailPrefix, i),
			fmt.Sprintf("%s_%d@example.com", emailPrefix, i),
			helpType,
			lastContact,
		)
		if err != nil {
			return nil, err
		}
		donors = append(donors, donor)
	}
	return donors, nil
}

// CreateTestCampaign inserts a campaign in the given status
func (tdb *TestDB) CreateTestCampaign(subject string, status models.CampaignStatus) (*models.EmailCampaign, error) {
	campaign := &models.EmailCampaign{
		UUID:      uuid.New(),
		Subject:   subject,
		Body:      "<p>Test campaign body</p>",
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if status == models.CampaignStatusSent {
		now := time.Now().UTC()
		campaign.SentAt = &now
	}

	if err := tdb.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}
	return campaign, nil
}

// CreateTestDonation inserts a donation for the given donor
func (tdb *TestDB) CreateTestDonation(donorID uint, amount float64, currency string, date time.Time) (*models.Donation, error) {
	donation := &models.Donation{
		UUID:      uuid.New(),
		DonorID:   donorID,
		Amount:    amount,
		Currency:  currency,
		Date:      date,
		CreatedAt: time.Now().UTC(),
	}

	if err := tdb.DB.Create(donation).Error; err != nil {
		return nil, fmt.Errorf("failed to create test donation: %w", err)
	}
	return donation, nil
}
