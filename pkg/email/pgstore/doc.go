// Package pgstore keeps the email queue and delivery logs in PostgreSQL.
//
// Store implements email.QueueRepository, email.DueLister, email.Claimer and
// email.LogRepository on top of any pgx connection or pool. Claims are leases
// taken with a conditional UPDATE on claimed_until, so a row is delivered by
// one worker at a time across processes.
//
//	if err := pgstore.Migrate(ctx, pool, log); err != nil {
//		return err
//	}
//	store := pgstore.New(pool)
//	sender, err := email.NewSender(factory,
//		email.WithQueueRepository(store),
//		email.WithLogRepository(store),
//	)
package pgstore
