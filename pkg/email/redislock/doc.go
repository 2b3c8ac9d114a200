// Package redislock claims email queue items through Redis so several worker
// processes can share one queue without sending an item twice.
//
//	locker := redislock.New(client, redislock.WithNext(store))
//	sender, err := email.NewSender(factory,
//		email.WithQueueRepository(store),
//		email.WithClaimer(locker),
//	)
//
// A lease expires on its own after the claim TTL, so a crashed worker never
// blocks an item for longer than that.
package redislock
