package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"markpress/internal/models"
)

func newTestChat(t *testing.T, s *ChatStore, session string) *models.Chat {
	t.Helper()
	ctx := "Reading: Getting started"
	c, err := s.Create(context.Background(), &models.Chat{SessionID: session, Title: "test chat", PageContext: &ctx})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return c
}

func TestChatStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewChatStore(db)
	session := "test-" + uuid.NewString()
	cleanSession(t, db, session)

	created := newTestChat(t, s, session)
	if created.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}

	found, err := s.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil || found.SessionID != session || found.PageContext == nil {
		t.Fatalf("found = %+v", found)
	}

	// Not found.
	found, err = s.FindByID(context.Background(), uuid.New())
	if err != nil || found != nil {
		t.Errorf("expected nil, nil for random UUID, got %v, %v", found, err)
	}

	chats, err := s.ListBySession(context.Background(), session, 10)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(chats) != 1 {
		t.Errorf("chats = %d, want 1", len(chats))
	}
}

func TestChatStoreAppendAssignsSequence(t *testing.T) {
	db := testDB(t)
	s := NewChatStore(db)
	session := "test-" + uuid.NewString()
	cleanSession(t, db, session)
	chat := newTestChat(t, s, session)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		m, err := s.AppendMessage(ctx, &models.ChatMessage{
			ChatID:  chat.ID,
			Role:    models.RoleUser,
			Content: fmt.Sprintf("message %d", i),
			Attachments: models.Attachments{
				{Type: models.AttachmentLink, URL: "https://go.dev"},
			},
		})
		if err != nil {
			t.Fatalf("AppendMessage %d: %v", i, err)
		}
		if m.Sequence != i {
			t.Errorf("sequence = %d, want %d", m.Sequence, i)
		}
	}

	msgs, err := s.Messages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 3 || msgs[0].Content != "message 1" {
		t.Fatalf("messages = %+v", msgs)
	}
	if len(msgs[2].Attachments) != 1 || msgs[2].Attachments[0].URL != "https://go.dev" {
		t.Errorf("attachments not round-tripped: %+v", msgs[2].Attachments)
	}
}

func TestChatStoreRecentMessagesWindow(t *testing.T) {
	db := testDB(t)
	s := NewChatStore(db)
	session := "test-" + uuid.NewString()
	cleanSession(t, db, session)
	chat := newTestChat(t, s, session)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		if _, err := s.AppendMessage(ctx, &models.ChatMessage{
			ChatID: chat.ID, Role: models.RoleUser, Content: fmt.Sprint(i),
		}); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := s.RecentMessages(ctx, chat.ID, 25, 20)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(recent) != 20 {
		t.Fatalf("recent = %d, want 20", len(recent))
	}
	if recent[0].Sequence != 5 || recent[19].Sequence != 24 {
		t.Errorf("window = %d..%d, want 5..24", recent[0].Sequence, recent[19].Sequence)
	}
}
