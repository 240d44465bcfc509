package database

import "fmt"

// ImageContentPrefix tags message content that holds an inline
// base64-encoded image payload instead of text.
const ImageContentPrefix = "data:image/"

// Message represents one captured group-chat message. Content is either
// plain text, a synthesized annotation (reply/forward), or an embedded
// image payload tagged with ImageContentPrefix.
type Message struct {
	ID        string `db:"id"`
	GroupID   int64  `db:"group_id"`
	GroupName string `db:"group_name"`
	UserName  string `db:"user_name"`
	Content   string `db:"content"`
	MessageID int64  `db:"message_id"`
	TimeStamp int64  `db:"time_stamp"` // milliseconds since epoch
}

// GroupActivity is one row of the active-group aggregate: a group and its
// message count over the trailing window.
type GroupActivity struct {
	GroupID      int64 `db:"group_id"`
	MessageCount int   `db:"message_count"`
}

// MessageKey derives the primary key for a message from its group and
// platform message identifiers. The same pair always yields the same key,
// so re-ingesting an edited message replaces the stored row.
func MessageKey(groupID, messageID int64) string {
	return fmt.Sprintf("%d:%d", groupID, messageID)
}
