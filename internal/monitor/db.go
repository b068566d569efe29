package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/opencode-htop/octop/internal/session"
)

const queryTimeout = 2 * time.Second

// StoreReader queries the host's SQLite database. Every call opens a
// read-only connection, runs one query burst, and closes it again: the
// host is an active WAL writer and must never find this process holding a
// connection across a refresh interval. The reader never writes and never
// opens a transaction.
type StoreReader struct {
	path string
}

func NewStoreReader(path string) *StoreReader {
	return &StoreReader{path: path}
}

// Path returns the database location this reader was built for.
func (r *StoreReader) Path() string { return r.path }

// Present reports whether the database file exists.
func (r *StoreReader) Present() bool {
	_, err := os.Stat(r.path)
	return err == nil
}

func (r *StoreReader) open() (*sql.DB, error) {
	if _, err := os.Stat(r.path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", "file:"+r.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	return db, nil
}

// Candidate is one tier-2 correlation candidate: a session in the
// process's directory plus its message count since the process started.
type Candidate struct {
	ID        string
	MsgsSince int
}

// MessageDetail is one row of the detail view's history: the message
// facts plus the first text part as preview.
type MessageDetail struct {
	ID            string
	Role          string
	Finish        string
	Model         string
	TokensIn      int64
	TokensOut     int64
	CacheRead     int64
	TimeCreatedMS int64
	Text          string
}

// SessionInfo assembles the full SessionFact for one session id: the
// session row joined with assistant-message aggregates, the last message,
// the round start, the last assistant output line, and the todo list.
// Returns nil when the session does not exist or the database is
// unreachable.
func (r *StoreReader) SessionInfo(ctx context.Context, sessionID string) (*session.SessionFact, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		id, title, directory, projectID, version sql.NullString
		permission                               sql.NullString
		created, updated                         sql.NullInt64
		msgCount                                 sql.NullInt64
		ctxTokens, outTokens, cacheTokens        sql.NullInt64
		cost                                     sql.NullFloat64
	)

	err = db.QueryRowContext(ctx, `
		SELECT
			s.id, s.title, s.directory, s.project_id, s.version,
			s.permission,
			s.time_created, s.time_updated,
			count(m.id),
			sum(CASE WHEN json_extract(m.data, '$.role') = 'assistant'
				THEN coalesce(json_extract(m.data, '$.tokens.input'), 0)
				   + coalesce(json_extract(m.data, '$.tokens.cache.read'), 0)
				ELSE 0 END),
			sum(CASE WHEN json_extract(m.data, '$.role') = 'assistant'
				THEN coalesce(json_extract(m.data, '$.tokens.output'), 0)
				ELSE 0 END),
			sum(CASE WHEN json_extract(m.data, '$.role') = 'assistant'
				THEN coalesce(json_extract(m.data, '$.tokens.cache.read'), 0)
				ELSE 0 END),
			sum(CASE WHEN json_extract(m.data, '$.role') = 'assistant'
				THEN coalesce(json_extract(m.data, '$.cost'), 0)
				ELSE 0 END)
		FROM session s
		LEFT JOIN message m ON m.session_id = s.id
		WHERE s.id = ?
		GROUP BY s.id
	`, sessionID).Scan(
		&id, &title, &directory, &projectID, &version,
		&permission,
		&created, &updated,
		&msgCount,
		&ctxTokens, &outTokens, &cacheTokens, &cost,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("session query: %w", err)
	}

	fact := &session.SessionFact{
		ID:              id.String,
		Title:           title.String,
		Directory:       directory.String,
		ProjectID:       projectID.String,
		Version:         version.String,
		Interactive:     !permission.Valid,
		TimeCreatedMS:   created.Int64,
		TimeUpdatedMS:   updated.Int64,
		MessageCount:    int(msgCount.Int64),
		ContextTokens:   ctxTokens.Int64,
		OutputTokens:    outTokens.Int64,
		CacheReadTokens: cacheTokens.Int64,
		Cost:            cost.Float64,
	}

	// Last message decides the current state: role, finish, model, agent.
	var role, finish, model, agent sql.NullString
	var lastMsgTime sql.NullInt64
	err = db.QueryRowContext(ctx, `
		SELECT
			json_extract(data, '$.role'),
			json_extract(data, '$.finish'),
			json_extract(data, '$.modelID'),
			json_extract(data, '$.agent'),
			time_created
		FROM message
		WHERE session_id = ?
		ORDER BY time_created DESC
		LIMIT 1
	`, sessionID).Scan(&role, &finish, &model, &agent, &lastMsgTime)
	if err == nil {
		fact.LastRole = role.String
		fact.LastFinish = finish.String
		fact.Model = model.String
		fact.Agent = agent.String
		fact.LastMessageMS = lastMsgTime.Int64
	}

	// Round start: the latest user message opens the current round.
	var roundStart sql.NullInt64
	_ = db.QueryRowContext(ctx, `
		SELECT time_created FROM message
		WHERE session_id = ?
		  AND json_extract(data, '$.role') = 'user'
		ORDER BY time_created DESC
		LIMIT 1
	`, sessionID).Scan(&roundStart)
	fact.RoundStartMS = roundStart.Int64

	// Last output: last non-empty line of the newest assistant text part.
	var partData sql.NullString
	_ = db.QueryRowContext(ctx, `
		SELECT p.data
		FROM part p
		JOIN message m ON p.message_id = m.id
		WHERE p.session_id = ?
		  AND json_extract(m.data, '$.role') = 'assistant'
		  AND json_extract(p.data, '$.type') = 'text'
		ORDER BY p.time_created DESC
		LIMIT 1
	`, sessionID).Scan(&partData)
	if partData.Valid {
		fact.LastOutputLine = lastNonEmptyLine(partText(partData.String))
	}

	todoRows, err := db.QueryContext(ctx, `
		SELECT content, status, priority
		FROM todo
		WHERE session_id = ?
		ORDER BY position
	`, sessionID)
	if err == nil {
		defer todoRows.Close()
		for todoRows.Next() {
			var t session.TodoItem
			if todoRows.Scan(&t.Content, &t.Status, &t.Priority) == nil {
				fact.Todos = append(fact.Todos, t)
			}
		}
	}

	return fact, nil
}

// partText unwraps the text field from a part's JSON blob.
func partText(data string) string {
	var part struct {
		Text string `json:"text"`
	}
	if json.Unmarshal([]byte(data), &part) != nil {
		return ""
	}
	return part.Text
}

// lastNonEmptyLine returns the trailing non-blank line of text, trimmed.
// The result never contains a newline.
func lastNonEmptyLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// CandidateSessions ranks sessions in a directory by how many messages
// they accumulated since the process started, busiest first.
func (r *StoreReader) CandidateSessions(ctx context.Context, cwd string, startMS int64) ([]Candidate, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT s.id, count(m.id) AS msgs_since
		FROM session s
		JOIN message m ON m.session_id = s.id
		WHERE s.directory = ?
		  AND m.time_created >= ?
		GROUP BY s.id
		ORDER BY msgs_since DESC
		LIMIT 5
	`, cwd, startMS)
	if err != nil {
		return nil, fmt.Errorf("candidate query: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if rows.Scan(&c.ID, &c.MsgsSince) == nil {
			candidates = append(candidates, c)
		}
	}
	return candidates, rows.Err()
}

// RecentSessions lists sessions in a directory by recency of update.
func (r *StoreReader) RecentSessions(ctx context.Context, cwd string) ([]string, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT id FROM session
		WHERE directory = ?
		ORDER BY time_updated DESC
		LIMIT 5
	`, cwd)
	if err != nil {
		return nil, fmt.Errorf("recent query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if rows.Scan(&id) == nil {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// TodayAggregate sums sessions updated since local midnight.
func (r *StoreReader) TodayAggregate(ctx context.Context) (session.Aggregate, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	return r.aggregate(ctx, midnight.UnixMilli())
}

// GlobalAggregate sums across the entire database.
func (r *StoreReader) GlobalAggregate(ctx context.Context) (session.Aggregate, error) {
	return r.aggregate(ctx, 0)
}

func (r *StoreReader) aggregate(ctx context.Context, sinceMS int64) (session.Aggregate, error) {
	db, err := r.open()
	if err != nil {
		return session.Aggregate{}, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT
			count(DISTINCT s.id),
			count(m.id),
			sum(CASE WHEN json_extract(m.data, '$.role') = 'assistant'
				THEN coalesce(json_extract(m.data, '$.tokens.input'), 0)
				   + coalesce(json_extract(m.data, '$.tokens.cache.read'), 0)
				ELSE 0 END),
			sum(CASE WHEN json_extract(m.data, '$.role') = 'assistant'
				THEN coalesce(json_extract(m.data, '$.tokens.output'), 0)
				ELSE 0 END)
		FROM session s
		LEFT JOIN message m ON m.session_id = s.id`

	args := []any{}
	if sinceMS > 0 {
		query += `
		WHERE s.time_updated > ?`
		args = append(args, sinceMS)
	}

	var sessions, messages, ctxTokens, outTokens sql.NullInt64
	err = db.QueryRowContext(ctx, query, args...).Scan(&sessions, &messages, &ctxTokens, &outTokens)
	if err != nil {
		return session.Aggregate{}, fmt.Errorf("aggregate query: %w", err)
	}

	return session.Aggregate{
		Sessions:      int(sessions.Int64),
		Messages:      int(messages.Int64),
		ContextTokens: ctxTokens.Int64,
		OutputTokens:  outTokens.Int64,
	}, nil
}

// RecentMessages fetches the newest messages for one session, returned
// oldest-first for display, each with its first text part as preview.
func (r *StoreReader) RecentMessages(ctx context.Context, sessionID string, limit int) ([]MessageDetail, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT id, data, time_created
		FROM message
		WHERE session_id = ?
		ORDER BY time_created DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("messages query: %w", err)
	}
	defer rows.Close()

	var msgs []MessageDetail
	for rows.Next() {
		var msgID, data string
		var created int64
		if rows.Scan(&msgID, &data, &created) != nil {
			continue
		}

		var blob struct {
			Role    string `json:"role"`
			Finish  string `json:"finish"`
			ModelID string `json:"modelID"`
			Tokens  struct {
				Input  int64 `json:"input"`
				Output int64 `json:"output"`
				Cache  struct {
					Read int64 `json:"read"`
				} `json:"cache"`
			} `json:"tokens"`
		}
		if json.Unmarshal([]byte(data), &blob) != nil {
			continue
		}

		msgs = append(msgs, MessageDetail{
			ID:            msgID,
			Role:          blob.Role,
			Finish:        blob.Finish,
			Model:         blob.ModelID,
			TokensIn:      blob.Tokens.Input,
			TokensOut:     blob.Tokens.Output,
			CacheRead:     blob.Tokens.Cache.Read,
			TimeCreatedMS: created,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range msgs {
		var partData sql.NullString
		err := db.QueryRowContext(ctx, `
			SELECT data FROM part
			WHERE message_id = ?
			  AND json_extract(data, '$.type') = 'text'
			ORDER BY time_created ASC
			LIMIT 1
		`, msgs[i].ID).Scan(&partData)
		if err == nil && partData.Valid {
			msgs[i].Text = truncateRunes(partText(partData.String), 2000)
		}
	}

	// Flip to chronological order for display.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
