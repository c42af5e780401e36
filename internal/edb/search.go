package edb

import (
	"context"
	"fmt"
	"strings"
)

// messageColumns are the column names that may hold message text, in
// preference order.
var messageColumns = []string{"message", "content"}

// MessageText returns the text content of an extracted row, or "" when the
// row has no recognizable message column.
func MessageText(row Row) string {
	for _, col := range messageColumns {
		if v, ok := row[col]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// SearchRows filters extracted rows by a case-insensitive keyword match on
// the message text. A limit of 0 means no limit.
func SearchRows(rows []Row, keyword string, limit int) []Row {
	needle := strings.ToLower(keyword)

	var matches []Row
	for _, row := range rows {
		text := MessageText(row)
		if text == "" || !strings.Contains(strings.ToLower(text), needle) {
			continue
		}
		matches = append(matches, row)
		if limit > 0 && len(matches) >= limit {
			break
		}
	}
	return matches
}

// nameColumns are the column naming variants seen for chat room display
// names across client versions.
var nameColumns = []string{"title", "name", "displayName", "chatName", "memberNames"}

// idColumns are the column naming variants for the chat room id.
var idColumns = []string{"chatId", "id"}

// ChatNames decrypts a chatListInfo container and returns a chat id to
// display name mapping. Column names vary across client versions, so each
// row is probed against the known variants.
func (d *Decryptor) ChatNames(ctx context.Context, chatListPath string) (map[string]string, error) {
	tmpPath, cleanup, err := d.DecryptToTempFile(ctx, chatListPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := openStore(tmpPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := readRecentChatRooms(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("reading chat rooms: %w", err)
	}

	names := make(map[string]string, len(rows))
	for _, row := range rows {
		id := firstString(row, idColumns)
		name := firstString(row, nameColumns)
		if id != "" && name != "" {
			names[id] = name
		}
	}
	return names, nil
}

func firstString(row Row, columns []string) string {
	for _, col := range columns {
		v, ok := row[col]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case int64:
			return fmt.Sprintf("%d", s)
		}
	}
	return ""
}
