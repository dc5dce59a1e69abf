// Package chats is the inserting side of the chat_rooms table: callers pass a pair of users in any order and
// the repository stores it ordered, as the table's user1_id < user2_id check requires.
package chats

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrSelfChat     = errors.New("a chat room needs two distinct users")
	ErrRoomNotFound = errors.New("chat room not found")
	ErrUserNotFound = errors.New("user not found")
)

var userIdRules = []validation.Rule{validation.Required, validation.Min(int64(1))}

// Room is a one-on-one conversation; FirstUserId is always the smaller of the two ids.
type Room struct {
	Id            int64
	FirstUserId   int64
	SecondUserId  int64
	Created       time.Time
	LastMessageAt time.Time
}

type PairData struct {
	UserId  int64
	OtherId int64
}

func (data PairData) Validate() error {
	if err := validation.ValidateStruct(&data,
		validation.Field(&data.UserId, userIdRules...),
		validation.Field(&data.OtherId, userIdRules...),
	); err != nil {
		return err
	}
	if data.UserId == data.OtherId {
		return ErrSelfChat
	}
	return nil
}

// OrderPair returns the two ids with the smaller one first, the order in which chat_rooms stores participants.
func OrderPair(first, second int64) (int64, int64, error) {
	if err := (PairData{first, second}).Validate(); err != nil {
		return 0, 0, err
	}
	if first > second {
		return second, first, nil
	}
	return first, second, nil
}
