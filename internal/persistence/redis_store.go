package persistence

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a WorkflowStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>wf:<id>         => gob-encoded redisWorkflowPayload
//	<prefix>idx:workflows   => ZSET of workflow IDs scored by update time (ms)
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

type redisWorkflowPayload struct {
	ID        string
	Name      string
	Data      []byte
	CreatedAt int64
	UpdatedAt int64
}

// NewRedisStore creates a RedisStore. prefix is optional but recommended
// (e.g. "nodeflux:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "nodeflux:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) keyWorkflow(id string) string {
	return s.prefix + "wf:" + id
}

func (s *RedisStore) keyIndex() string {
	return s.prefix + "idx:workflows"
}

func encodeRedisPayload(wf *Workflow) ([]byte, error) {
	payload := redisWorkflowPayload{
		ID:        wf.ID,
		Name:      wf.Name,
		Data:      wf.Data,
		CreatedAt: wf.CreatedAt.UnixMilli(),
		UpdatedAt: wf.UpdatedAt.UnixMilli(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRedisPayload(data []byte) (*Workflow, error) {
	if len(data) == 0 {
		return nil, ErrWorkflowNotFound
	}
	var payload redisWorkflowPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return nil, err
	}
	return &Workflow{
		ID:        payload.ID,
		Name:      payload.Name,
		Data:      json.RawMessage(payload.Data),
		CreatedAt: fromMillis(payload.CreatedAt),
		UpdatedAt: fromMillis(payload.UpdatedAt),
	}, nil
}

func (s *RedisStore) save(ctx context.Context, pipe redis.Pipeliner, wf *Workflow) error {
	data, err := encodeRedisPayload(wf)
	if err != nil {
		return err
	}
	pipe.Set(ctx, s.keyWorkflow(wf.ID), data, 0)
	pipe.ZAdd(ctx, s.keyIndex(), redis.Z{Score: float64(wf.UpdatedAt.UnixMilli()), Member: wf.ID})
	return nil
}

func (s *RedisStore) CreateWorkflow(ctx context.Context, name string, data json.RawMessage) (*Workflow, error) {
	data, err := validate(name, data)
	if err != nil {
		return nil, err
	}
	ts := now()
	wf := &Workflow{ID: newID(), Name: name, Data: data, CreatedAt: ts, UpdatedAt: ts}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return s.save(ctx, pipe, wf)
	})
	if err != nil {
		return nil, err
	}
	return wf, nil
}

func (s *RedisStore) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	data, err := s.client.Get(ctx, s.keyWorkflow(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrWorkflowNotFound
		}
		return nil, err
	}
	return decodeRedisPayload(data)
}

func (s *RedisStore) UpdateWorkflow(ctx context.Context, id, name string, data json.RawMessage) (*Workflow, error) {
	data, err := validate(name, data)
	if err != nil {
		return nil, err
	}

	key := s.keyWorkflow(id)
	var updated *Workflow
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrWorkflowNotFound
			}
			return err
		}
		existing, err := decodeRedisPayload(raw)
		if err != nil {
			return err
		}
		updated = &Workflow{ID: id, Name: name, Data: data, CreatedAt: existing.CreatedAt, UpdatedAt: now()}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.save(ctx, pipe, updated)
		})
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *RedisStore) DeleteWorkflow(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.keyWorkflow(id))
		pipe.ZRem(ctx, s.keyIndex(), id)
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrWorkflowNotFound
	}
	return nil
}

func (s *RedisStore) ListWorkflows(ctx context.Context) ([]*Workflow, error) {
	ids, err := s.client.ZRevRange(ctx, s.keyIndex(), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Workflow{}, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return []*Workflow{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.keyWorkflow(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	workflows := make([]*Workflow, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			// Index entry outlived its payload.
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		wf, err := decodeRedisPayload(data)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	sortNewestFirst(workflows)
	return workflows, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
