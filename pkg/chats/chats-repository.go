package chats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/silktrader/socialdb/pkg/storage/sqlite"
)

type Repository interface {
	EnsureRoom(ctx context.Context, userId int64, otherId int64) (Room, error)
	GetRoom(ctx context.Context, userId int64, otherId int64) (Room, error)
}

type repository struct {
	Connection *sql.DB
}

func NewRepository(connection *sql.DB) Repository {
	return &repository{connection}
}

// EnsureRoom returns the room shared by the two users, creating it when missing. The pair may be given in any order.
func (r *repository) EnsureRoom(ctx context.Context, userId int64, otherId int64) (Room, error) {
	first, second, err := OrderPair(userId, otherId)
	if err != nil {
		return Room{}, err
	}

	_, err = r.Connection.ExecContext(ctx,
		`INSERT INTO chat_rooms (user1_id, user2_id) VALUES (?, ?) ON CONFLICT (user1_id, user2_id) DO NOTHING`,
		first,
		second,
	)

	// either participant is missing from users
	if sqlite.IsForeignKeyViolation(err) {
		return Room{}, ErrUserNotFound
	}
	if err != nil {
		return Room{}, fmt.Errorf("creating chat room for %d and %d: %w", first, second, err)
	}

	return r.getOrdered(ctx, first, second)
}

// GetRoom either returns the room shared by the two users, or ErrRoomNotFound.
func (r *repository) GetRoom(ctx context.Context, userId int64, otherId int64) (Room, error) {
	first, second, err := OrderPair(userId, otherId)
	if err != nil {
		return Room{}, err
	}
	return r.getOrdered(ctx, first, second)
}

func (r *repository) getOrdered(ctx context.Context, first int64, second int64) (room Room, err error) {
	err = r.Connection.QueryRowContext(ctx,
		`SELECT id, user1_id, user2_id, created_at, last_message_at FROM chat_rooms WHERE user1_id = ? AND user2_id = ?`,
		first,
		second,
	).Scan(&room.Id, &room.FirstUserId, &room.SecondUserId, &room.Created, &room.LastMessageAt)

	if errors.Is(err, sql.ErrNoRows) {
		return Room{}, ErrRoomNotFound
	}
	if err != nil {
		return Room{}, err
	}
	return room, nil
}
