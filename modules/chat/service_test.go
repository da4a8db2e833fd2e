package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/campus-chat/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, publish func(events.MessageStoredEvent) error) (*Service, *Repository) {
	t.Helper()
	repo := NewRepository(setupTestDB(t))
	return NewService(repo, publish), repo
}

func TestService_Send_ResolvesByRecipient(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.Send(ctx, SendMessageRequest{Sender: "alice", Recipient: "bob", Text: "hi"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ConversationID)
	require.NotEmpty(t, first.MessageID)

	// Repeated sends between the same pair, in either direction, land in the
	// same conversation.
	second, err := svc.Send(ctx, SendMessageRequest{Sender: "bob", Recipient: "alice", Text: "hey"})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	participants, err := repo.GetParticipants(first.ConversationID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, participants)

	messages, err := repo.ListMessages(first.ConversationID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestService_Send_ConcurrentResolveCreatesOneConversation(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	const senders = 8
	results := make([]string, senders)
	errs := make([]error, senders)

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			resp, err := svc.Send(ctx, SendMessageRequest{Sender: "alice", Recipient: "bob", Text: "hello"})
			results[n] = resp.ConversationID
			errs[n] = err
		}(i)
	}
	wg.Wait()

	for i := 0; i < senders; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}

	ids, err := repo.FindConversationsContaining("alice")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestService_Send_PersistsBeforePublishing(t *testing.T) {
	var repo *Repository
	var publishedAt []events.MessageStoredEvent

	svc, r := newTestService(t, nil)
	repo = r
	svc.publish = func(event events.MessageStoredEvent) error {
		// The message must already be durable when the event fires.
		messages, err := repo.ListMessages(event.ConversationID)
		require.NoError(t, err)
		require.NotEmpty(t, messages)
		assert.Equal(t, event.MessageID, messages[len(messages)-1].ID)
		publishedAt = append(publishedAt, event)
		return nil
	}

	resp, err := svc.Send(context.Background(), SendMessageRequest{
		Sender:          "alice",
		Recipient:       "bob",
		Text:            "hello",
		ClientMessageID: "tmp-1",
	})
	require.NoError(t, err)

	require.Len(t, publishedAt, 1)
	event := publishedAt[0]
	assert.Equal(t, resp.MessageID, event.MessageID)
	assert.Equal(t, resp.ConversationID, event.ConversationID)
	assert.Equal(t, "alice", event.SenderID)
	assert.Equal(t, "hello", event.Content)
	assert.Equal(t, "tmp-1", event.ClientMessageID)
}

func TestService_Send_PublishFailureKeepsMessage(t *testing.T) {
	svc, repo := newTestService(t, func(events.MessageStoredEvent) error {
		return errors.New("bus unavailable")
	})

	resp, err := svc.Send(context.Background(), SendMessageRequest{Sender: "alice", Recipient: "bob", Text: "hi"})
	require.NoError(t, err, "a publish failure must not fail the send; history is authoritative")

	messages, err := repo.ListMessages(resp.ConversationID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestService_Send_NothingPublishedOnValidationFailure(t *testing.T) {
	published := 0
	svc, _ := newTestService(t, func(events.MessageStoredEvent) error {
		published++
		return nil
	})
	ctx := context.Background()

	_, err := svc.Send(ctx, SendMessageRequest{Sender: "alice", Recipient: "bob", Text: ""})
	assert.ErrorIs(t, err, ErrTextEmpty)

	_, err = svc.Send(ctx, SendMessageRequest{Sender: "", Recipient: "bob", Text: "hi"})
	assert.ErrorIs(t, err, ErrSenderEmpty)

	assert.Zero(t, published)
}

func TestService_Send_ExplicitConversationRequiresMembership(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.CreateConversation(ctx, []string{"alice", "bob"})
	require.NoError(t, err)

	t.Run("participant may send", func(t *testing.T) {
		resp, err := svc.Send(ctx, SendMessageRequest{
			Sender:         "alice",
			ConversationID: created.ID,
			Text:           "hi",
		})
		require.NoError(t, err)
		assert.Equal(t, created.ID, resp.ConversationID)
	})

	t.Run("outsider is rejected and nothing is stored", func(t *testing.T) {
		before, err := repo.ListMessages(created.ID)
		require.NoError(t, err)

		_, err = svc.Send(ctx, SendMessageRequest{
			Sender:         "mallory",
			ConversationID: created.ID,
			Text:           "let me in",
		})
		assert.ErrorIs(t, err, ErrNotParticipant)

		after, err := repo.ListMessages(created.ID)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("unknown conversation is rejected", func(t *testing.T) {
		_, err := svc.Send(ctx, SendMessageRequest{
			Sender:         "alice",
			ConversationID: "missing",
			Text:           "hi",
		})
		assert.ErrorIs(t, err, ErrNotParticipant)
	})
}

func TestService_Send_WithoutTargetCreatesSenderOnlyConversation(t *testing.T) {
	svc, repo := newTestService(t, nil)

	resp, err := svc.Send(context.Background(), SendMessageRequest{Sender: "alice", Text: "note to self"})
	require.NoError(t, err)

	participants, err := repo.GetParticipants(resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, participants)
}

func TestService_ListMessages_ComputesIsMine(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.Send(ctx, SendMessageRequest{Sender: "alice", Recipient: "bob", Text: "from alice"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, SendMessageRequest{Sender: "bob", Recipient: "alice", Text: "from bob"})
	require.NoError(t, err)

	aliceView, err := svc.ListMessages(ctx, first.ConversationID, "alice")
	require.NoError(t, err)
	require.Len(t, aliceView, 2)
	assert.True(t, aliceView[0].IsMine)
	assert.False(t, aliceView[1].IsMine)

	bobView, err := svc.ListMessages(ctx, first.ConversationID, "bob")
	require.NoError(t, err)
	assert.False(t, bobView[0].IsMine)
	assert.True(t, bobView[1].IsMine)
}

func TestService_ListConversations(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	for id, name := range map[string]string{"alice": "alice", "bob": "bob", "carol": "carol"} {
		require.NoError(t, repo.CreateUser(&User{ID: id, Username: name}))
	}

	// Older activity with bob, newer with carol, plus an empty conversation.
	older, err := svc.Send(ctx, SendMessageRequest{Sender: "alice", Recipient: "bob", Text: "old"})
	require.NoError(t, err)
	require.NoError(t, repo.db.Model(&Message{}).
		Where("conversation_id = ?", older.ConversationID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	newer, err := svc.Send(ctx, SendMessageRequest{Sender: "alice", Recipient: "carol", Text: "new"})
	require.NoError(t, err)

	empty, err := svc.CreateConversation(ctx, []string{"alice", "bob", "carol"})
	require.NoError(t, err)

	summaries, err := svc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, newer.ConversationID, summaries[0].ID)
	assert.Equal(t, older.ConversationID, summaries[1].ID)
	assert.Equal(t, empty.ID, summaries[2].ID, "conversations without messages sort last")

	assert.Equal(t, "new", summaries[0].LastMessage)
	assert.NotNil(t, summaries[0].LastMessageTime)
	assert.Nil(t, summaries[2].LastMessageTime)
	assert.ElementsMatch(t, []string{"alice", "carol"}, summaries[0].Participants)
}

func TestService_CreateConversation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	t.Run("requires two distinct participants", func(t *testing.T) {
		_, err := svc.CreateConversation(ctx, []string{"alice"})
		assert.ErrorIs(t, err, ErrTooFewParticipants)

		_, err = svc.CreateConversation(ctx, []string{"alice", "alice"})
		assert.ErrorIs(t, err, ErrTooFewParticipants)
	})

	t.Run("creates with deduplicated participants", func(t *testing.T) {
		created, err := svc.CreateConversation(ctx, []string{"alice", "bob", "alice"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob"}, created.Participants)
		assert.False(t, created.CreatedAt.IsZero())
	})
}

func TestService_FindDirect(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		result, err := svc.FindDirect(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.False(t, result.Exists)
		assert.Nil(t, result.Conversation)
	})

	t.Run("found after first send", func(t *testing.T) {
		sent, err := svc.Send(ctx, SendMessageRequest{Sender: "alice", Recipient: "bob", Text: "hi"})
		require.NoError(t, err)

		result, err := svc.FindDirect(ctx, "bob", "alice")
		require.NoError(t, err)
		require.True(t, result.Exists)
		assert.Equal(t, sent.ConversationID, result.Conversation.ID)
		assert.Equal(t, "hi", result.Conversation.LastMessage)
	})
}

func TestService_RegisterUser(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	t.Run("generates an id when absent", func(t *testing.T) {
		created, err := svc.RegisterUser(ctx, RegisterUserRequest{Username: "alice"})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "alice", created.Username)
	})

	t.Run("requires a username", func(t *testing.T) {
		_, err := svc.RegisterUser(ctx, RegisterUserRequest{})
		assert.ErrorIs(t, err, ErrUsernameEmpty)
	})
}
