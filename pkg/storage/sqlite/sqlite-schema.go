package sqlite

// objectKind mirrors the `type` column of sqlite_master.
type objectKind string

const (
	kindTable   objectKind = "table"
	kindTrigger objectKind = "trigger"
	kindIndex   objectKind = "index"
)

// statement is a single idempotent DDL step of the canonical schema.
type statement struct {
	kind objectKind
	name string
	sql  string
}

// tables are listed so that referenced tables always precede the tables holding foreign keys into them
var tables = []statement{
	{kindTable, "users", `
CREATE TABLE
	IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		full_name TEXT,
		profile_picture_url TEXT,
		bio TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`},

	{kindTable, "friendships", `
CREATE TABLE
	IF NOT EXISTS friendships (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL,
		receiver_id INTEGER NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('PENDING', 'ACCEPTED')) DEFAULT 'PENDING',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (sender_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (receiver_id) REFERENCES users (id) ON DELETE CASCADE,
		UNIQUE (sender_id, receiver_id)
	);`},

	// content, image and video may all be missing only for live stream placeholders
	{kindTable, "posts", `
CREATE TABLE
	IF NOT EXISTS posts (
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
		visibility_status TEXT DEFAULT 'VISIBLE' CHECK (visibility_status IN ('VISIBLE', 'HIDDEN_BY_REPORTS', 'ARCHIVED', 'DELETED_BY_USER')),
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CHECK (content IS NOT NULL OR image_url IS NOT NULL OR video_url IS NOT NULL OR is_live)
	);`},

	{kindTable, "likes", `
CREATE TABLE
	IF NOT EXISTS likes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		post_id INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE,
		UNIQUE (user_id, post_id)
	);`},

	{kindTable, "comments", `
CREATE TABLE
	IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		post_id INTEGER NOT NULL,
		parent_comment_id INTEGER,
		content TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE,
		FOREIGN KEY (parent_comment_id) REFERENCES comments (id) ON DELETE CASCADE
	);`},

	{kindTable, "shares", `
CREATE TABLE
	IF NOT EXISTS shares (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		original_post_id INTEGER NOT NULL,
		caption TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (original_post_id) REFERENCES posts (id) ON DELETE CASCADE
	);`},

	{kindTable, "user_blocks", `
CREATE TABLE
	IF NOT EXISTS user_blocks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		blocker_id INTEGER NOT NULL,
		blocked_user_id INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (blocker_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (blocked_user_id) REFERENCES users (id) ON DELETE CASCADE,
		UNIQUE (blocker_id, blocked_user_id)
	);`},

	// one report per user per post
	{kindTable, "post_reports", `
CREATE TABLE
	IF NOT EXISTS post_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL,
		reporter_user_id INTEGER NOT NULL,
		reason TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE,
		FOREIGN KEY (reporter_user_id) REFERENCES users (id) ON DELETE CASCADE,
		UNIQUE (post_id, reporter_user_id)
	);`},

	// the target is an untyped reference, hence no foreign key
	{kindTable, "notifications", `
CREATE TABLE
	IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recipient_user_id INTEGER NOT NULL,
		actor_user_id INTEGER,
		type TEXT NOT NULL,
		target_entity_type TEXT,
		target_entity_id INTEGER,
		is_read BOOLEAN DEFAULT FALSE,
		message TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (recipient_user_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (actor_user_id) REFERENCES users (id) ON DELETE CASCADE
	);`},

	// user1_id always holds the smaller id; see chats.OrderPair
	{kindTable, "chat_rooms", `
CREATE TABLE
	IF NOT EXISTS chat_rooms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user1_id INTEGER NOT NULL,
		user2_id INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_message_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user1_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (user2_id) REFERENCES users (id) ON DELETE CASCADE,
		UNIQUE (user1_id, user2_id),
		CHECK (user1_id < user2_id)
	);`},

	{kindTable, "chat_messages", `
CREATE TABLE
	IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_room_id INTEGER NOT NULL,
		sender_id INTEGER NOT NULL,
		message_content TEXT,
		attachment_url TEXT,
		attachment_type TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (chat_room_id) REFERENCES chat_rooms (id) ON DELETE CASCADE,
		FOREIGN KEY (sender_id) REFERENCES users (id) ON DELETE CASCADE
	);`},
}

// the recursive_triggers pragma is off by default, so updating updated_at won't fire the trigger again
var triggers = []statement{
	{kindTrigger, "update_users_updated_at", `
CREATE TRIGGER IF NOT EXISTS update_users_updated_at
	AFTER UPDATE ON users FOR EACH ROW
BEGIN
	UPDATE users SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
END;`},
	{kindTrigger, "update_friendships_updated_at", `
CREATE TRIGGER IF NOT EXISTS update_friendships_updated_at
	AFTER UPDATE ON friendships FOR EACH ROW
BEGIN
	UPDATE friendships SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
END;`},
	{kindTrigger, "update_posts_updated_at", `
CREATE TRIGGER IF NOT EXISTS update_posts_updated_at
	AFTER UPDATE ON posts FOR EACH ROW
BEGIN
	UPDATE posts SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
END;`},
	{kindTrigger, "update_comments_updated_at", `
CREATE TRIGGER IF NOT EXISTS update_comments_updated_at
	AFTER UPDATE ON comments FOR EACH ROW
BEGIN
	UPDATE comments SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
END;`},
	{kindTrigger, "update_chat_room_last_message_at", `
CREATE TRIGGER IF NOT EXISTS update_chat_room_last_message_at
	AFTER INSERT ON chat_messages FOR EACH ROW
BEGIN
	UPDATE chat_rooms SET last_message_at = NEW.created_at WHERE id = NEW.chat_room_id;
END;`},
}

var indexes = []statement{
	{kindIndex, "idx_friendships_sender_id", `CREATE INDEX IF NOT EXISTS idx_friendships_sender_id ON friendships (sender_id);`},
	{kindIndex, "idx_friendships_receiver_id", `CREATE INDEX IF NOT EXISTS idx_friendships_receiver_id ON friendships (receiver_id);`},
	{kindIndex, "idx_posts_user_id", `CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts (user_id);`},
	{kindIndex, "idx_posts_visibility_status", `CREATE INDEX IF NOT EXISTS idx_posts_visibility_status ON posts (visibility_status, created_at DESC);`},
	{kindIndex, "idx_likes_post_id", `CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes (post_id);`},
	{kindIndex, "idx_likes_user_id", `CREATE INDEX IF NOT EXISTS idx_likes_user_id ON likes (user_id);`},
	{kindIndex, "idx_comments_post_id", `CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments (post_id);`},
	{kindIndex, "idx_comments_user_id", `CREATE INDEX IF NOT EXISTS idx_comments_user_id ON comments (user_id);`},
	{kindIndex, "idx_comments_parent_id", `CREATE INDEX IF NOT EXISTS idx_comments_parent_id ON comments (parent_comment_id);`},
	{kindIndex, "idx_shares_original_post_id", `CREATE INDEX IF NOT EXISTS idx_shares_original_post_id ON shares (original_post_id);`},
	{kindIndex, "idx_user_blocks_blocker_id", `CREATE INDEX IF NOT EXISTS idx_user_blocks_blocker_id ON user_blocks (blocker_id);`},
	{kindIndex, "idx_user_blocks_blocked_user_id", `CREATE INDEX IF NOT EXISTS idx_user_blocks_blocked_user_id ON user_blocks (blocked_user_id);`},
	{kindIndex, "idx_post_reports_post_id", `CREATE INDEX IF NOT EXISTS idx_post_reports_post_id ON post_reports (post_id);`},
	{kindIndex, "idx_post_reports_reporter_id", `CREATE INDEX IF NOT EXISTS idx_post_reports_reporter_id ON post_reports (reporter_user_id);`},
	{kindIndex, "idx_notifications_recipient_id", `CREATE INDEX IF NOT EXISTS idx_notifications_recipient_id ON notifications (recipient_user_id, is_read, created_at DESC);`},
	{kindIndex, "idx_notifications_actor_id", `CREATE INDEX IF NOT EXISTS idx_notifications_actor_id ON notifications (actor_user_id);`},
	{kindIndex, "idx_chat_rooms_users", `CREATE INDEX IF NOT EXISTS idx_chat_rooms_users ON chat_rooms (user1_id, user2_id);`},
	{kindIndex, "idx_chat_rooms_last_message", `CREATE INDEX IF NOT EXISTS idx_chat_rooms_last_message ON chat_rooms (last_message_at DESC);`},
	{kindIndex, "idx_chat_messages_room_time", `CREATE INDEX IF NOT EXISTS idx_chat_messages_room_time ON chat_messages (chat_room_id, created_at DESC);`},
	{kindIndex, "idx_chat_messages_sender_id", `CREATE INDEX IF NOT EXISTS idx_chat_messages_sender_id ON chat_messages (sender_id);`},
}

// columnUpgrade is an additive, default-backed column that older revisions of the schema lacked.
type columnUpgrade struct {
	table      string
	column     string
	definition string
}

// visibilityUpgrade is the moderation state column; the CHECK of the full posts definition can't be added afterwards
var visibilityUpgrade = columnUpgrade{"posts", "visibility_status", "TEXT DEFAULT 'VISIBLE'"}

// upgrades run after the tables exist and before any index referencing their columns
var upgrades = []columnUpgrade{
	visibilityUpgrade,
	{"chat_messages", "attachment_url", "TEXT"},
	{"chat_messages", "attachment_type", "TEXT"},
}

// Tables returns the names of the canonical tables in creation order.
func Tables() []string {
	var names = make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.name)
	}
	return names
}
