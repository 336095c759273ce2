package storage

import (
	"strconv"
	"time"
)

const presenceTTL = 5 * time.Minute

// SetOnline marks the user online in redis. The TTL keeps a crashed server
// from leaking online flags forever.
func (s *Service) SetOnline(userID string) error {
	return s.Redis.Set(s.Ctx, "online:"+userID, "1", presenceTTL).Err()
}

// SetOffline clears the online flag and records the last-seen timestamp,
// which it returns for the presence broadcast.
func (s *Service) SetOffline(userID string) (int64, error) {
	now := time.Now().Unix()
	if err := s.Redis.Del(s.Ctx, "online:"+userID).Err(); err != nil {
		return 0, err
	}
	if err := s.Redis.Set(s.Ctx, "lastseen:"+userID, strconv.FormatInt(now, 10), 0).Err(); err != nil {
		return 0, err
	}
	return now, nil
}
