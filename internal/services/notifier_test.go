package services

import (
	"context"
	"testing"
	"time"

	"safeconnect/internal/datastore"
	"safeconnect/internal/models"

	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceNotifier_NotifyAndInbox(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	recipient := seedFlowUser(t, db, "mia", models.RoleMember, 0)
	seedFlowUser(t, db, "anna", models.RoleAnnouncer, 0)

	notifier, err := do.Invoke[*ServiceNotifier](injector)
	require.NoError(t, err)

	require.NoError(t, notifier.Notify(ctx, "anna", recipient, "hello there"))

	// pack fulfillment content is born unlocked for the buyer
	require.NoError(t, notifier.DeliverContent(ctx, "anna", "mia", []string{"https://cdn.example/pic-1.jpg"}))

	// content sent outside a purchase stays locked
	_, err = datastore.InsertMessage(ctx, db, &models.Message{
		ID:        uuid.NewString(),
		FromID:    "anna",
		ToID:      "mia",
		Body:      "https://cdn.example/pic-2.jpg",
		Kind:      models.MessageKindContent,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	messages, err := notifier.Inbox(ctx, recipient, 0, 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	var sawSystem, sawUnlocked, sawMasked bool
	for _, message := range messages {
		switch {
		case message.Kind == models.MessageKindSystem:
			assert.Equal(t, "hello there", message.Body)
			sawSystem = true
		case message.UnlockedForUser("mia"):
			assert.Equal(t, "https://cdn.example/pic-1.jpg", message.Body)
			sawUnlocked = true
		default:
			// locked content never leaks its body
			assert.Empty(t, message.Body)
			sawMasked = true
		}
	}
	assert.True(t, sawSystem)
	assert.True(t, sawUnlocked)
	assert.True(t, sawMasked)
}
