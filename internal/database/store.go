package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Store defines the message-store contract. Methods accept context.Context
// for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertMessage inserts a message or replaces the existing row with the
	// same derived id (edits and retries are idempotent).
	UpsertMessage(ctx context.Context, message *Message) error

	// MessagesSince retrieves messages for a group with time_stamp >= since
	// (milliseconds), ordered oldest to newest.
	MessagesSince(ctx context.Context, groupID, since int64) ([]*Message, error)

	// LatestMessages retrieves the newest 'limit' messages for a group,
	// returned oldest to newest.
	LatestMessages(ctx context.Context, groupID int64, limit int) ([]*Message, error)

	// SearchMessages retrieves up to 'limit' messages for a group whose
	// content contains the term, newest first.
	SearchMessages(ctx context.Context, groupID int64, term string, limit int) ([]*Message, error)

	// ActiveGroups aggregates message counts per group since the given time
	// and returns groups whose count exceeds threshold, ordered by count
	// descending and group id ascending.
	ActiveGroups(ctx context.Context, since int64, threshold int) ([]GroupActivity, error)

	// GroupIDs returns the distinct group ids present in the store.
	GroupIDs(ctx context.Context) ([]int64, error)

	// TrimGroupHistory deletes all but the newest 'keep' messages of a group.
	// Returns the number of rows removed.
	TrimGroupHistory(ctx context.Context, groupID int64, keep int) (int64, error)

	// DeleteAgedImages deletes image-bearing messages older than 'before'
	// (milliseconds). Returns the number of rows removed.
	DeleteAgedImages(ctx context.Context, before int64) (int64, error)
}

// sqlxStore implements Store using sqlx over SQLite.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) UpsertMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.GroupID == 0 {
		return fmt.Errorf("message must have a non-zero group_id")
	}
	if message.Content == "" {
		return fmt.Errorf("message must have non-empty content")
	}

	if message.ID == "" {
		message.ID = MessageKey(message.GroupID, message.MessageID)
	}

	query := `
        INSERT INTO messages (id, group_id, group_name, user_name, content, message_id, time_stamp)
        VALUES (:id, :group_id, :group_name, :user_name, :content, :message_id, :time_stamp)
        ON CONFLICT(id) DO UPDATE SET
            group_name = excluded.group_name,
            user_name  = excluded.user_name,
            content    = excluded.content,
            time_stamp = excluded.time_stamp;
    `

	if _, err := s.db.NamedExecContext(ctx, query, message); err != nil {
		s.logger.ErrorContext(ctx, "Error saving message",
			"group_id", message.GroupID, "message_id", message.MessageID, "error", err)
		return fmt.Errorf("failed to save message %s: %w", message.ID, err)
	}

	s.logger.DebugContext(ctx, "Message saved",
		"group_id", message.GroupID, "message_id", message.MessageID)
	return nil
}

func (s *sqlxStore) MessagesSince(ctx context.Context, groupID, since int64) ([]*Message, error) {
	if groupID == 0 {
		return nil, fmt.Errorf("group_id cannot be zero")
	}

	var messages []*Message
	query := `
        SELECT id, group_id, group_name, user_name, content, message_id, time_stamp
        FROM messages
        WHERE group_id = ? AND time_stamp >= ?
        ORDER BY time_stamp ASC, message_id ASC;
    `

	if err := s.db.SelectContext(ctx, &messages, query, groupID, since); err != nil {
		s.logger.ErrorContext(ctx, "Error fetching message window",
			"group_id", groupID, "since", since, "error", err)
		return nil, fmt.Errorf("failed to get messages for group %d: %w", groupID, err)
	}

	return messages, nil
}

func (s *sqlxStore) LatestMessages(ctx context.Context, groupID int64, limit int) ([]*Message, error) {
	if groupID == 0 {
		return nil, fmt.Errorf("group_id cannot be zero")
	}
	if limit <= 0 {
		limit = 20
	}

	var messages []*Message
	// Newest N selected descending, then re-ordered ascending for the caller.
	query := `
        SELECT id, group_id, group_name, user_name, content, message_id, time_stamp
        FROM (
            SELECT id, group_id, group_name, user_name, content, message_id, time_stamp
            FROM messages
            WHERE group_id = ?
            ORDER BY time_stamp DESC, message_id DESC
            LIMIT ?
        )
        ORDER BY time_stamp ASC, message_id ASC;
    `

	if err := s.db.SelectContext(ctx, &messages, query, groupID, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error fetching latest messages",
			"group_id", groupID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get latest messages for group %d: %w", groupID, err)
	}

	return messages, nil
}

func (s *sqlxStore) SearchMessages(ctx context.Context, groupID int64, term string, limit int) ([]*Message, error) {
	if groupID == 0 {
		return nil, fmt.Errorf("group_id cannot be zero")
	}
	if term == "" {
		return nil, fmt.Errorf("search term cannot be empty")
	}
	if limit <= 0 {
		limit = 10
	}

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)

	var messages []*Message
	query := `
        SELECT id, group_id, group_name, user_name, content, message_id, time_stamp
        FROM messages
        WHERE group_id = ? AND content LIKE ? ESCAPE '\'
        ORDER BY time_stamp DESC, message_id DESC
        LIMIT ?;
    `

	if err := s.db.SelectContext(ctx, &messages, query, groupID, "%"+escaped+"%", limit); err != nil {
		s.logger.ErrorContext(ctx, "Error searching messages",
			"group_id", groupID, "term", term, "error", err)
		return nil, fmt.Errorf("failed to search messages for group %d: %w", groupID, err)
	}

	return messages, nil
}

func (s *sqlxStore) ActiveGroups(ctx context.Context, since int64, threshold int) ([]GroupActivity, error) {
	var groups []GroupActivity
	// group_id is the tie-break so shard assignment stays deterministic
	// across recomputation.
	query := `
        SELECT group_id, COUNT(*) AS message_count
        FROM messages
        WHERE time_stamp >= ?
        GROUP BY group_id
        HAVING COUNT(*) > ?
        ORDER BY message_count DESC, group_id ASC;
    `

	if err := s.db.SelectContext(ctx, &groups, query, since, threshold); err != nil {
		s.logger.ErrorContext(ctx, "Error counting active groups",
			"since", since, "threshold", threshold, "error", err)
		return nil, fmt.Errorf("failed to count active groups: %w", err)
	}

	return groups, nil
}

func (s *sqlxStore) GroupIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	query := `SELECT DISTINCT group_id FROM messages ORDER BY group_id ASC;`

	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing group ids", "error", err)
		return nil, fmt.Errorf("failed to list group ids: %w", err)
	}

	return ids, nil
}

func (s *sqlxStore) TrimGroupHistory(ctx context.Context, groupID int64, keep int) (int64, error) {
	if groupID == 0 {
		return 0, fmt.Errorf("group_id cannot be zero")
	}
	if keep <= 0 {
		return 0, fmt.Errorf("keep must be positive, got %d", keep)
	}

	query := `
        DELETE FROM messages
        WHERE group_id = ? AND id NOT IN (
            SELECT id FROM messages
            WHERE group_id = ?
            ORDER BY time_stamp DESC, message_id DESC
            LIMIT ?
        );
    `

	result, err := s.db.ExecContext(ctx, query, groupID, groupID, keep)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error trimming group history",
			"group_id", groupID, "keep", keep, "error", err)
		return 0, fmt.Errorf("failed to trim history for group %d: %w", groupID, err)
	}

	removed, _ := result.RowsAffected()
	if removed > 0 {
		s.logger.InfoContext(ctx, "Trimmed group history",
			"group_id", groupID, "keep", keep, "removed", removed)
	}
	return removed, nil
}

func (s *sqlxStore) DeleteAgedImages(ctx context.Context, before int64) (int64, error) {
	query := `
        DELETE FROM messages
        WHERE time_stamp < ? AND content LIKE ? || '%';
    `

	result, err := s.db.ExecContext(ctx, query, before, ImageContentPrefix)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting aged image messages",
			"before", before, "error", err)
		return 0, fmt.Errorf("failed to delete aged image messages: %w", err)
	}

	removed, _ := result.RowsAffected()
	if removed > 0 {
		s.logger.InfoContext(ctx, "Deleted aged image messages", "removed", removed)
	}
	return removed, nil
}
