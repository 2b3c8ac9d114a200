// Package redis connects to Redis with go-redis and exposes a health probe.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	probe := redis.Healthcheck(client)
//
// The email queue uses the client through pkg/email/redislock to keep queue
// items claimed by a single worker across processes.
package redis
