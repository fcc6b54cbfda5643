// Package redis implements the durable store using Redis so execution
// contexts in different processes share state. Every write is published on
// a channel and the subscriber forwards the changed key to local watchers.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/redis/go-redis/v9"
)

// Config represents the settings required to connect to Redis.
type Config struct {
	URL       string
	Namespace string
	Channel   string
}

// Redis represents the storage implementation for reading and storing
// documents in Redis. This implements the storage.Store interface.
type Redis struct {
	storage.Watchers
	client    *redis.Client
	pubsub    *redis.PubSub
	namespace string
	channel   string
	wg        sync.WaitGroup
}

// New connects to Redis, verifies the connection and starts the
// subscriber that turns published changes into local notifications.
func New(ctx context.Context, cfg Config) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	r := Redis{
		client:    client,
		pubsub:    client.Subscribe(ctx, cfg.Channel),
		namespace: cfg.Namespace,
		channel:   cfg.Channel,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for msg := range r.pubsub.Channel() {
			r.Notify(msg.Payload)
		}
	}()

	return &r, nil
}

// Close stops the subscriber, releases any watchers and closes the client.
func (r *Redis) Close() error {
	err := r.pubsub.Close()
	r.wg.Wait()
	r.CloseAll()

	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}

// Get returns the document stored under key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.namespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return val, nil
}

// Set replaces the document stored under key and publishes the change.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.namespace+key, value, 0).Err(); err != nil {
		return err
	}

	return r.client.Publish(ctx, r.channel, key).Err()
}

// Delete removes the key and publishes the change.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.namespace+key).Err(); err != nil {
		return err
	}

	return r.client.Publish(ctx, r.channel, key).Err()
}

// Keys returns the set of keys under the namespace.
func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	var keys []string

	iter := r.client.Scan(ctx, 0, r.namespace+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(r.namespace):])
	}

	if err := iter.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}
