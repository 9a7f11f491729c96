// Package supabase implements [store.MessageStore] on a Supabase Postgres
// table, one row per message.
package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/mindfuljourney/voicechat-core/core/providers"
)

const defaultTable = "messages"

type Store struct {
	client *supa.Client
	table  string
}

type StoreOption func(*Store)

func WithTable(table string) StoreOption {
	return func(s *Store) { s.table = table }
}

func NewStore(url, apiKey string, opts ...StoreOption) (*Store, error) {
	client, err := supa.NewClient(url, apiKey, &supa.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	store := &Store{client: client, table: defaultTable}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

type messageRow struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	IsVoice   bool      `json:"is_voice"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) Save(_ context.Context, sessionID string, msg providers.Message) error {
	row := messageRow{
		ID:        msg.ID,
		SessionID: sessionID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		IsVoice:   msg.IsVoice,
		CreatedAt: msg.CreatedAt,
	}

	if _, _, err := s.client.From(s.table).Insert(row, false, "", "", "").Execute(); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *Store) List(_ context.Context, sessionID string) ([]providers.Message, error) {
	var rows []messageRow
	_, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("session_id", sessionID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]providers.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, providers.Message{
			ID:        row.ID,
			Role:      providers.Role(row.Role),
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
			IsVoice:   row.IsVoice,
		})
	}
	return messages, nil
}
