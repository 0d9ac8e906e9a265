package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/owndc/owndc/internal/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL COLLATE NOCASE,
		email TEXT UNIQUE NOT NULL COLLATE NOCASE,
		password_hash TEXT NOT NULL,
		avatar TEXT DEFAULT '',
		status TEXT DEFAULT 'offline',
		bio TEXT DEFAULT '',
		created_at TEXT DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS friends (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		friend_id TEXT NOT NULL,
		status TEXT DEFAULT 'pending',
		created_at TEXT DEFAULT (datetime('now')),
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (friend_id) REFERENCES users(id),
		UNIQUE(user_id, friend_id)
	)`,
	`CREATE TABLE IF NOT EXISTS servers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		icon TEXT DEFAULT '',
		created_at TEXT DEFAULT (datetime('now')),
		FOREIGN KEY (owner_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS server_members (
		server_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		joined_at TEXT DEFAULT (datetime('now')),
		PRIMARY KEY (server_id, user_id),
		FOREIGN KEY (server_id) REFERENCES servers(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT DEFAULT 'text',
		owner_id TEXT NOT NULL,
		server_id TEXT REFERENCES servers(id) ON DELETE CASCADE,
		created_at TEXT DEFAULT (datetime('now')),
		FOREIGN KEY (owner_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TEXT DEFAULT (datetime('now')),
		FOREIGN KEY (channel_id) REFERENCES channels(id) ON DELETE CASCADE,
		FOREIGN KEY (sender_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS groups_table (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		avatar TEXT DEFAULT '',
		created_at TEXT DEFAULT (datetime('now')),
		FOREIGN KEY (owner_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS group_members (
		group_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT DEFAULT 'member',
		joined_at TEXT DEFAULT (datetime('now')),
		PRIMARY KEY (group_id, user_id),
		FOREIGN KEY (group_id) REFERENCES groups_table(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS group_messages (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TEXT DEFAULT (datetime('now')),
		FOREIGN KEY (group_id) REFERENCES groups_table(id) ON DELETE CASCADE,
		FOREIGN KEY (sender_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS direct_messages (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TEXT DEFAULT (datetime('now')),
		FOREIGN KEY (sender_id) REFERENCES users(id),
		FOREIGN KEY (receiver_id) REFERENCES users(id)
	)`,
}

// SQLite is the embedded single-file implementation of Store.
type SQLite struct {
	db *sql.DB
}

func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The driver serializes access per connection; one connection keeps the
	// WAL writer single.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
	}
	log.Info().Str("module", "store").Str("path", path).Msg("sqlite opened")
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) CreateUser(username, email, password string) (*domain.User, error) {
	u, err := domain.NewUser(username, email)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO users (id, username, email, password_hash) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, string(hash),
	)
	if err != nil {
		if strings.Contains(err.Error(), "users.username") {
			return nil, ErrUsernameTaken
		}
		if strings.Contains(err.Error(), "users.email") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.UserByID(u.ID)
}

func (s *SQLite) Authenticate(username, password string) (*domain.User, error) {
	var (
		u    domain.User
		hash string
	)
	row := s.db.QueryRow(
		`SELECT id, username, email, password_hash, avatar, status, bio, created_at
		 FROM users WHERE username = ?`, username)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &hash, &u.Avatar, &u.Status, &u.Bio, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBadLogin
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrBadLogin
	}
	return &u, nil
}

func (s *SQLite) UserByID(id domain.UserID) (*domain.User, error) {
	var u domain.User
	row := s.db.QueryRow(
		`SELECT id, username, email, avatar, status, bio, created_at FROM users WHERE id = ?`, id)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Avatar, &u.Status, &u.Bio, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (s *SQLite) SearchUsers(query string, limit int) ([]domain.PublicUser, error) {
	rows, err := s.db.Query(
		`SELECT id, username, avatar FROM users WHERE username LIKE ? ORDER BY username LIMIT ?`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()
	var out []domain.PublicUser
	for rows.Next() {
		var u domain.PublicUser
		if err := rows.Scan(&u.ID, &u.Username, &u.Avatar); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLite) SetStatus(id domain.UserID, status string) error {
	_, err := s.db.Exec(`UPDATE users SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

func (s *SQLite) Friends(id domain.UserID) ([]domain.PublicUser, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.username, u.avatar FROM friends f
		 JOIN users u ON u.id = CASE WHEN f.user_id = ? THEN f.friend_id ELSE f.user_id END
		 WHERE (f.user_id = ? OR f.friend_id = ?) AND f.status = 'accepted'`,
		id, id, id)
	if err != nil {
		return nil, fmt.Errorf("select friends: %w", err)
	}
	defer rows.Close()
	var out []domain.PublicUser
	for rows.Next() {
		var u domain.PublicUser
		if err := rows.Scan(&u.ID, &u.Username, &u.Avatar); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// PendingFriends lists the users whose requests are awaiting id's decision.
func (s *SQLite) PendingFriends(id domain.UserID) ([]domain.PublicUser, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.username, u.avatar FROM friends f
		 JOIN users u ON u.id = f.user_id
		 WHERE f.friend_id = ? AND f.status = 'pending'`, id)
	if err != nil {
		return nil, fmt.Errorf("select pending friends: %w", err)
	}
	defer rows.Close()
	var out []domain.PublicUser
	for rows.Next() {
		var u domain.PublicUser
		if err := rows.Scan(&u.ID, &u.Username, &u.Avatar); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLite) RequestFriend(from, to domain.UserID) error {
	_, err := s.db.Exec(
		`INSERT INTO friends (id, user_id, friend_id) VALUES (?, ?, ?)`,
		uuid.NewString(), from, to)
	if err != nil {
		return fmt.Errorf("insert friend request: %w", err)
	}
	return nil
}

func (s *SQLite) AcceptFriend(from, to domain.UserID) error {
	res, err := s.db.Exec(
		`UPDATE friends SET status = 'accepted' WHERE user_id = ? AND friend_id = ?`,
		from, to)
	if err != nil {
		return fmt.Errorf("accept friend: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeclineFriend removes a request or an existing friendship. Either side of
// the row may remove it.
func (s *SQLite) DeclineFriend(from, to domain.UserID) error {
	res, err := s.db.Exec(
		`DELETE FROM friends WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`,
		from, to, to, from)
	if err != nil {
		return fmt.Errorf("decline friend: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) CreateServer(name, icon string, owner domain.UserID) (*domain.Server, error) {
	if name == "" {
		return nil, domain.ErrNameEmpty
	}
	if len(name) > domain.MaxNameLen {
		return nil, domain.ErrNameTooLong
	}
	srv := domain.Server{ID: domain.ServerID(uuid.NewString()), Name: name, OwnerID: owner, Icon: icon}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(
		`INSERT INTO servers (id, name, owner_id, icon) VALUES (?, ?, ?, ?)`,
		srv.ID, srv.Name, srv.OwnerID, srv.Icon); err != nil {
		return nil, fmt.Errorf("insert server: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO server_members (server_id, user_id) VALUES (?, ?)`, srv.ID, owner); err != nil {
		return nil, fmt.Errorf("insert server owner: %w", err)
	}
	// Every server starts with one text and one voice channel.
	for _, ch := range []struct{ name, kind string }{{"general", "text"}, {"Voice Chat", "voice"}} {
		if _, err := tx.Exec(
			`INSERT INTO channels (id, name, type, owner_id, server_id) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), ch.name, ch.kind, owner, srv.ID); err != nil {
			return nil, fmt.Errorf("insert default channel: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit server: %w", err)
	}
	return &srv, nil
}

func (s *SQLite) ServersOf(id domain.UserID) ([]domain.Server, error) {
	rows, err := s.db.Query(
		`SELECT s.id, s.name, s.owner_id, s.icon, s.created_at FROM servers s
		 JOIN server_members sm ON sm.server_id = s.id
		 WHERE sm.user_id = ? ORDER BY s.created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("select servers: %w", err)
	}
	defer rows.Close()
	var out []domain.Server
	for rows.Next() {
		var srv domain.Server
		if err := rows.Scan(&srv.ID, &srv.Name, &srv.OwnerID, &srv.Icon, &srv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, srv)
	}
	return out, rows.Err()
}

// JoinServer is idempotent; joining a server twice leaves one membership row.
func (s *SQLite) JoinServer(server domain.ServerID, user domain.UserID) error {
	var one int
	if err := s.db.QueryRow(`SELECT 1 FROM servers WHERE id = ?`, server).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("select server: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO server_members (server_id, user_id) VALUES (?, ?)`, server, user); err != nil {
		return fmt.Errorf("insert server member: %w", err)
	}
	return nil
}

// ServerChannels lists a server's channels, members only.
func (s *SQLite) ServerChannels(server domain.ServerID, user domain.UserID) ([]domain.Channel, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM server_members WHERE server_id = ? AND user_id = ?`, server, user).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("select membership: %w", err)
	}
	rows, err := s.db.Query(
		`SELECT id, name, type, owner_id, COALESCE(server_id, ''), created_at
		 FROM channels WHERE server_id = ? ORDER BY created_at`, server)
	if err != nil {
		return nil, fmt.Errorf("select server channels: %w", err)
	}
	return scanChannels(rows)
}

func (s *SQLite) CreateChannel(name string, owner domain.UserID) (*domain.Channel, error) {
	if name == "" {
		return nil, domain.ErrNameEmpty
	}
	if len(name) > domain.MaxNameLen {
		return nil, domain.ErrNameTooLong
	}
	ch := domain.Channel{ID: domain.ChannelID(uuid.NewString()), Name: name, Type: "text", OwnerID: owner}
	_, err := s.db.Exec(
		`INSERT INTO channels (id, name, type, owner_id) VALUES (?, ?, ?, ?)`,
		ch.ID, ch.Name, ch.Type, ch.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}
	return &ch, nil
}

// Channels lists the standalone channels; server channels are reached through
// ServerChannels.
func (s *SQLite) Channels() ([]domain.Channel, error) {
	rows, err := s.db.Query(
		`SELECT id, name, type, owner_id, COALESCE(server_id, ''), created_at
		 FROM channels WHERE server_id IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select channels: %w", err)
	}
	return scanChannels(rows)
}

func scanChannels(rows *sql.Rows) ([]domain.Channel, error) {
	defer rows.Close()
	var out []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Type, &ch.OwnerID, &ch.ServerID, &ch.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// saveMessage inserts one row and re-selects it joined with the sender's
// display data, so fan-out always carries hydrated messages.
func (s *SQLite) saveMessage(table, convCol string, conv string, sender domain.UserID, content string) (*domain.Message, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		fmt.Sprintf(`INSERT INTO %s (id, %s, sender_id, content) VALUES (?, ?, ?, ?)`, table, convCol),
		id, conv, sender, content)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return s.hydrate(table, convCol, id)
}

func (s *SQLite) hydrate(table, convCol, id string) (*domain.Message, error) {
	var m domain.Message
	row := s.db.QueryRow(
		fmt.Sprintf(`SELECT m.id, m.%s, m.sender_id, m.content, m.timestamp, u.username, u.avatar
			FROM %s m JOIN users u ON u.id = m.sender_id WHERE m.id = ?`, convCol, table), id)
	if err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Timestamp, &m.Username, &m.Avatar); err != nil {
		return nil, fmt.Errorf("hydrate message: %w", err)
	}
	return &m, nil
}

func (s *SQLite) SaveChannelMessage(channel domain.ChannelID, sender domain.UserID, content string) (*domain.Message, error) {
	return s.saveMessage("messages", "channel_id", string(channel), sender, content)
}

func (s *SQLite) ChannelMessages(channel domain.ChannelID, limit int) ([]domain.Message, error) {
	return s.history(
		`SELECT m.id, m.channel_id, m.sender_id, m.content, m.timestamp, u.username, u.avatar
		 FROM messages m JOIN users u ON u.id = m.sender_id
		 WHERE m.channel_id = ? ORDER BY m.timestamp LIMIT ?`, string(channel), limit)
}

func (s *SQLite) SaveDirectMessage(sender, receiver domain.UserID, content string) (*domain.Message, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO direct_messages (id, sender_id, receiver_id, content) VALUES (?, ?, ?, ?)`,
		id, sender, receiver, content)
	if err != nil {
		return nil, fmt.Errorf("insert dm: %w", err)
	}
	return s.hydrate("direct_messages", "receiver_id", id)
}

func (s *SQLite) DirectMessages(a, b domain.UserID, limit int) ([]domain.Message, error) {
	return s.history(
		`SELECT dm.id, dm.receiver_id, dm.sender_id, dm.content, dm.timestamp, u.username, u.avatar
		 FROM direct_messages dm JOIN users u ON u.id = dm.sender_id
		 WHERE (dm.sender_id = ? AND dm.receiver_id = ?) OR (dm.sender_id = ? AND dm.receiver_id = ?)
		 ORDER BY dm.timestamp LIMIT ?`, string(a), string(b), string(b), string(a), limit)
}

func (s *SQLite) CreateGroup(name string, owner domain.UserID, members []domain.UserID) (*domain.Group, error) {
	if name == "" {
		return nil, domain.ErrNameEmpty
	}
	if len(name) > domain.MaxNameLen {
		return nil, domain.ErrNameTooLong
	}
	g := domain.Group{ID: domain.GroupID(uuid.NewString()), Name: name, OwnerID: owner}
	_, err := s.db.Exec(
		`INSERT INTO groups_table (id, name, owner_id) VALUES (?, ?, ?)`, g.ID, g.Name, g.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	for _, m := range append(members, owner) {
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)`, g.ID, m); err != nil {
			return nil, fmt.Errorf("insert group member: %w", err)
		}
	}
	return &g, nil
}

func (s *SQLite) GroupsOf(id domain.UserID) ([]domain.Group, error) {
	rows, err := s.db.Query(
		`SELECT g.id, g.name, g.owner_id, g.avatar, g.created_at FROM groups_table g
		 JOIN group_members gm ON gm.group_id = g.id WHERE gm.user_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("select groups: %w", err)
	}
	defer rows.Close()
	var out []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.OwnerID, &g.Avatar, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLite) SaveGroupMessage(group domain.GroupID, sender domain.UserID, content string) (*domain.Message, error) {
	return s.saveMessage("group_messages", "group_id", string(group), sender, content)
}

func (s *SQLite) GroupMessages(group domain.GroupID, limit int) ([]domain.Message, error) {
	return s.history(
		`SELECT gm.id, gm.group_id, gm.sender_id, gm.content, gm.timestamp, u.username, u.avatar
		 FROM group_messages gm JOIN users u ON u.id = gm.sender_id
		 WHERE gm.group_id = ? ORDER BY gm.timestamp LIMIT ?`, string(group), limit)
}

func (s *SQLite) history(query string, args ...any) ([]domain.Message, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()
	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Timestamp, &m.Username, &m.Avatar); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
