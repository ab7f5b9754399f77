package tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghand/donor-admin/app/dto"
	"github.com/helpinghand/donor-admin/app/services"
	businessflow "github.com/helpinghand/donor-admin/business_flow"
	"github.com/helpinghand/donor-admin/repository"
	testingutil "github.com/helpinghand/donor-admin/testing"
)

func newLoginFlow(t *testing.T, testDB *testingutil.TestDB) businessflow.LoginFlow {
	t.Helper()
	tokenService, err := services.NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false,
		"",
		"",
		"test-secret-key-for-jwt-signing-32-chars",
	)
	require.NoError(t, err)

	return businessflow.NewLoginFlow(
		repository.NewUserRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		tokenService,
		nil,   // captcha service unused when captcha is disabled
		false, // captchaEnabled
		testDB.DB,
	)
}

func TestLoginFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newLoginFlow(t, testDB)
		userRepo := repository.NewUserRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("SuccessfulLogin", func(t *testing.T) {
			user, err := testDB.CreateTestUser("operator@example.org")
			require.NoError(t, err)

			resp, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    "operator@example.org",
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.NoError(t, err)
			assert.True(t, resp.Success)
			assert.NotEmpty(t, resp.Data.AccessToken)
			assert.NotEmpty(t, resp.Data.RefreshToken)
			assert.Equal(t, "Bearer", resp.Data.TokenType)

			// A successful login stamps last_login_at
			refreshed, err := userRepo.ByID(ctx, user.ID)
			require.NoError(t, err)
			assert.NotNil(t, refreshed.LastLoginAt)
		})

		t.Run("EmailIsCaseInsensitive", func(t *testing.T) {
			_, err := testDB.CreateTestUser("mixedcase@example.org")
			require.NoError(t, err)

			resp, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    "  MixedCase@Example.org  ",
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.NoError(t, err)
			assert.True(t, resp.Success)
		})

		t.Run("WrongPassword", func(t *testing.T) {
			_, err := testDB.CreateTestUser("wrongpass@example.org")
			require.NoError(t, err)

			_, err = flow.Login(ctx, &dto.LoginRequest{
				Email:    "wrongpass@example.org",
				Password: "not-the-password",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsIncorrectPassword(err))
		})

		t.Run("UnknownUser", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    "ghost@example.org",
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("InactiveAccount", func(t *testing.T) {
			user, err := testDB.CreateTestUser("inactive@example.org")
			require.NoError(t, err)

			inactive := false
			user.IsActive = &inactive
			require.NoError(t, testDB.DB.Save(user).Error)

			_, err = flow.Login(ctx, &dto.LoginRequest{
				Email:    "inactive@example.org",
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsAccountInactive(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRefreshToken(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newLoginFlow(t, testDB)
		ctx := testingutil.CreateTestContext()

		_, err := testDB.CreateTestUser("refresher@example.org")
		require.NoError(t, err)

		login, err := flow.Login(ctx, &dto.LoginRequest{
			Email:    "refresher@example.org",
			Password: testingutil.DefaultTestPassword,
		}, testMetadata())
		require.NoError(t, err)

		t.Run("ValidRefreshToken", func(t *testing.T) {
			refreshed, err := flow.RefreshToken(ctx, login.Data.RefreshToken)
			require.NoError(t, err)
			assert.True(t, refreshed.Success)
			assert.NotEmpty(t, refreshed.Data.AccessToken)
			assert.NotEmpty(t, refreshed.Data.RefreshToken)
		})

		t.Run("AccessTokenRejected", func(t *testing.T) {
			// Only refresh tokens can be exchanged
			_, err := flow.RefreshToken(ctx, login.Data.AccessToken)
			assert.Error(t, err)
		})

		t.Run("GarbageTokenRejected", func(t *testing.T) {
			_, err := flow.RefreshToken(ctx, "not.a.token")
			assert.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}
