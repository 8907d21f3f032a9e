package mystore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

type redisStore[T any] struct {
	sync.Mutex
	client *redis.Client
	kind   string
}

func newRedisStore[T any](c context.Context, addr string) (*redisStore[T], func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	err := client.Ping(c).Err()
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to redis at %s: %s", addr, err)
	}

	return &redisStore[T]{
			client: client,
			kind:   kindName[T](),
		}, func() {
			client.Close()
		}, nil
}

func (s *redisStore[T]) composeKey(uid string) string {
	return s.kind + ":" + uid
}

// RunInTransaction serializes writers within this process.
// Good enough for a single-instance deployment; multi-instance setups
// should use the datastore backend.
func (s *redisStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	s.Lock()

	ctx := context.WithValue(c, ctxTransactionKey{}, true)

	err := f(ctx)
	if err != nil {
		s.Unlock()

		return err
	}

	s.Unlock()

	return nil
}

func (s *redisStore[T]) Put(c context.Context, uid string, value T) error {
	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error serializing entity %s with uid %s: %s", s.kind, uid, err)
	}

	err = s.client.Set(c, s.composeKey(uid), jsonBytes, 0).Err()
	if err != nil {
		return fmt.Errorf("error storing entity %s with uid %s: %s", s.kind, uid, err)
	}

	return nil
}

func (s *redisStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	value := new(T)

	jsonPayload, err := s.client.Get(c, s.composeKey(uid)).Result()
	if err == redis.Nil {
		return *value, false, nil
	}
	if err != nil {
		return *value, false, fmt.Errorf("error fetching entity %s with uid %s: %s", s.kind, uid, err)
	}

	err = json.Unmarshal([]byte(jsonPayload), value)
	if err != nil {
		return *value, false, fmt.Errorf("error deserializing entity %s with uid %s: %s", s.kind, uid, err)
	}

	return *value, true, nil
}

func (s *redisStore[T]) Remove(c context.Context, uid string) error {
	err := s.client.Del(c, s.composeKey(uid)).Err()
	if err != nil {
		return fmt.Errorf("error removing entity %s with uid %s: %s", s.kind, uid, err)
	}

	return nil
}

func (s *redisStore[T]) List(c context.Context) ([]T, error) {
	result := []T{}

	iter := s.client.Scan(c, 0, s.composeKey("*"), 0).Iterator()
	for iter.Next(c) {
		jsonPayload, err := s.client.Get(c, iter.Val()).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error fetching entity %s: %s", iter.Val(), err)
		}

		value := new(T)
		err = json.Unmarshal([]byte(jsonPayload), value)
		if err != nil {
			return nil, fmt.Errorf("error deserializing entity %s: %s", iter.Val(), err)
		}

		result = append(result, *value)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("error scanning entities %s: %s", s.kind, err)
	}

	return result, nil
}

func (s *redisStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	return s.List(c)
}
