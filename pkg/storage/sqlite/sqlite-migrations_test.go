package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legacySchema is an early revision: posts lack the moderation state and chat messages lack attachments.
const legacySchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT UNIQUE NOT NULL,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	full_name TEXT,
	profile_picture_url TEXT,
	bio TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	content TEXT,
	image_url TEXT,
	video_url TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	is_live BOOLEAN DEFAULT FALSE,
	live_status TEXT,
	stream_playback_url TEXT,
	FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
);
CREATE TABLE chat_rooms (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user1_id INTEGER NOT NULL,
	user2_id INTEGER NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	last_message_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user1_id) REFERENCES users (id) ON DELETE CASCADE,
	FOREIGN KEY (user2_id) REFERENCES users (id) ON DELETE CASCADE,
	UNIQUE (user1_id, user2_id),
	CHECK (user1_id < user2_id)
);
CREATE TABLE chat_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_room_id INTEGER NOT NULL,
	sender_id INTEGER NOT NULL,
	message_content TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (chat_room_id) REFERENCES chat_rooms (id) ON DELETE CASCADE,
	FOREIGN KEY (sender_id) REFERENCES users (id) ON DELETE CASCADE
);
INSERT INTO users (id, username, email, password_hash) VALUES (1, 'alice', 'alice@example.com', 'x');
INSERT INTO posts (user_id, content) VALUES (1, 'first');
INSERT INTO posts (user_id, content) VALUES (1, 'second');
`

// newLegacyDatabase writes the legacy schema to a new file and returns its path.
func newLegacyDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite3", getConnectionString(path))
	require.NoError(t, err)
	_, err = db.Exec(legacySchema)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return path
}

func openForTest(t *testing.T, path string) *Storage {
	t.Helper()
	storage, err := OpenExisting(silentLogger(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func visibilityOfPosts(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT visibility_status FROM posts ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var statuses []string
	for rows.Next() {
		var status string
		require.NoError(t, rows.Scan(&status))
		statuses = append(statuses, status)
	}
	require.NoError(t, rows.Err())
	return statuses
}

func TestMigrateVisibility(t *testing.T) {
	ctx := context.Background()
	path := newLegacyDatabase(t)

	added, err := MigrateVisibility(ctx, silentLogger(), path)
	require.NoError(t, err)
	assert.True(t, added)

	storage := openForTest(t, path)
	columns, err := columnsOf(ctx, storage.Connection, "posts")
	require.NoError(t, err)
	assert.True(t, columns["visibility_status"])
	assert.Equal(t, []string{"VISIBLE", "VISIBLE"}, visibilityOfPosts(t, storage.Connection))

	// a second run is a no-op
	added, err = MigrateVisibility(ctx, silentLogger(), path)
	require.NoError(t, err)
	assert.False(t, added)

	again, err := columnsOf(ctx, storage.Connection, "posts")
	require.NoError(t, err)
	assert.Equal(t, columns, again)
	assert.Equal(t, []string{"VISIBLE", "VISIBLE"}, visibilityOfPosts(t, storage.Connection))
}

func TestMigrateVisibilityOnCurrentSchema(t *testing.T) {
	storage := newTestStorage(t)

	added, err := MigrateVisibility(context.Background(), silentLogger(), storage.Path)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestMigrateVisibilityRequiresDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := MigrateVisibility(context.Background(), silentLogger(), path)
	assert.ErrorIs(t, err, ErrDatabaseMissing)
	assert.NoFileExists(t, path)
}

func TestMigrateVisibilityRequiresPosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	_, err := MigrateVisibility(context.Background(), silentLogger(), path)
	assert.ErrorIs(t, err, ErrDatabaseMissing)
}

func TestMigrateVisibilityKeepsPathIntact(t *testing.T) {
	legacy := newLegacyDatabase(t)
	dir := filepath.Dir(legacy)
	path := filepath.Join(dir, "legacy?v2.db")
	require.NoError(t, os.Rename(legacy, path))

	added, err := MigrateVisibility(context.Background(), silentLogger(), path)
	require.NoError(t, err)
	assert.True(t, added)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "legacy?v2.db", entries[0].Name())
}

func TestUpgradeAddsEveryMissingColumn(t *testing.T) {
	storage := openForTest(t, newLegacyDatabase(t))

	added, err := storage.Upgrade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []AddedColumn{
		{"posts", "visibility_status"},
		{"chat_messages", "attachment_url"},
		{"chat_messages", "attachment_type"},
	}, added)

	added, err = storage.Upgrade(context.Background())
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestInitialiseUpgradesLegacyDatabase(t *testing.T) {
	ctx := context.Background()
	storage := openForTest(t, newLegacyDatabase(t))

	require.NoError(t, storage.Initialise(ctx))

	differences, err := storage.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, differences)
	assert.Equal(t, []string{"VISIBLE", "VISIBLE"}, visibilityOfPosts(t, storage.Connection))
	assert.Equal(t, 1, count(t, storage.Connection, "users"))
}

func TestAddedColumnString(t *testing.T) {
	assert.Equal(t, "posts.visibility_status", AddedColumn{"posts", "visibility_status"}.String())
}
