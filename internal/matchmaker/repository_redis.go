package matchmaker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	rdb *redis.Client
	key string
}

// NewRedisRepo keeps the queue in a redis list. Each server instance owns its
// own list, since the connections behind the ids live in its memory.
//
//	list: war:queue:{instance}   -> ticket ids, oldest at the head
//	kv  : war:game:{id}          -> JSON room record, expires after the room TTL
func NewRedisRepo(rdb *redis.Client, instance string) Repo {
	return &redisRepo{rdb: rdb, key: queueKey(instance)}
}

func queueKey(instance string) string {
	return fmt.Sprintf("war:queue:%s", instance)
}

func gameKey(id uint64) string {
	return "war:game:" + strconv.FormatUint(id, 10)
}

// KEYS[1] = queue, ARGV[1] = n
var popOldest = redis.NewScript(`
local n = tonumber(ARGV[1])
if redis.call("LLEN", KEYS[1]) < n then
    return {}
end
local out = redis.call("LRANGE", KEYS[1], "0", tostring(n - 1))
redis.call("LTRIM", KEYS[1], ARGV[1], "-1")
return out
`)

func (r *redisRepo) Enqueue(ctx context.Context, ticketID string) error {
	return r.rdb.RPush(ctx, r.key, ticketID).Err()
}

func (r *redisRepo) PopOldest(ctx context.Context, n int) ([]string, error) {
	res, err := popOldest.Run(ctx, r.rdb, []string{r.key}, n).StringSlice()
	if err == redis.Nil {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *redisRepo) Remove(ctx context.Context, ticketID string) error {
	return r.rdb.LRem(ctx, r.key, 0, ticketID).Err()
}

func (r *redisRepo) Count(ctx context.Context) (int64, error) {
	return r.rdb.LLen(ctx, r.key).Result()
}

func (r *redisRepo) SaveRoom(ctx context.Context, room *Room, ttlSeconds int) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, gameKey(room.ID), data, time.Duration(ttlSeconds)*time.Second).Err()
}

func (r *redisRepo) GetRoom(ctx context.Context, id uint64) (*Room, error) {
	data, err := r.rdb.Get(ctx, gameKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var room Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}
