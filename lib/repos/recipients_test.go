package repos

import (
	"context"
	"testing"

	"github.com/avoss/kinodigest/lib/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecipient(t *testing.T, repo *RecipientRepo, destinationID, schedule string, enabled bool) {
	t.Helper()
	err := repo.Create(context.Background(), &models.Recipient{
		DestinationID:         destinationID,
		Platform:              "chat",
		NotificationChannelID: nullString("channel-" + destinationID),
		NotificationSchedule:  nullString(schedule),
		NotificationsEnabled:  enabled,
	})
	require.NoError(t, err)
}

func TestFindEligibleGroupsBySchedule(t *testing.T) {
	ctx := context.Background()
	repo := NewRecipientRepo(newTestDB(t), nopLogger())

	seedRecipient(t, repo, "a", "0 9 * * *", true)
	seedRecipient(t, repo, "b", "0 9 * * *", true)
	seedRecipient(t, repo, "c", "0 18 * * *", true)
	seedRecipient(t, repo, "disabled", "0 9 * * *", false)
	seedRecipient(t, repo, "no-schedule", "", true)

	// Enabled but never configured a channel.
	err := repo.Create(ctx, &models.Recipient{
		DestinationID:        "no-channel",
		Platform:             "chat",
		NotificationSchedule: nullString("0 9 * * *"),
		NotificationsEnabled: true,
	})
	require.NoError(t, err)

	grouped, err := repo.FindEligible(ctx)
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, grouped["0 9 * * *"])
	assert.Equal(t, []string{"c"}, grouped["0 18 * * *"])
}

func TestRecipientFindSaveDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRecipientRepo(newTestDB(t), nopLogger())

	missing, err := repo.Find(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	seedRecipient(t, repo, "guild-1", "0 9 * * *", true)

	recipient, err := repo.Find(ctx, "guild-1")
	require.NoError(t, err)
	require.NotNil(t, recipient)
	assert.Equal(t, "chat", recipient.Platform)
	assert.Equal(t, "0 9 * * *", recipient.EffectiveSchedule())

	recipient.NotificationsEnabled = false
	require.NoError(t, repo.Save(ctx, recipient))

	reloaded, err := repo.Find(ctx, "guild-1")
	require.NoError(t, err)
	assert.False(t, reloaded.NotificationsEnabled)
	assert.Empty(t, reloaded.EffectiveSchedule())

	require.NoError(t, repo.Delete(ctx, "guild-1"))
	gone, err := repo.Find(ctx, "guild-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
