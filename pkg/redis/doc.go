// Package redis connects to Redis and exposes the pieces of it the notifier
// uses: a byte Cache for the user store and a health probe. The pub/sub
// transport lives in pkg/pubsub and takes the client returned by Connect.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	users := store.NewCached(backend, redis.NewCache(client, cfg.KeyPrefix))
//
// Configuration is read from REDIS_* environment variables through
// github.com/caarlos0/env.
package redis
