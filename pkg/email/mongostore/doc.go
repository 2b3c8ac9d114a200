// Package mongostore keeps email delivery logs in MongoDB.
//
// LogStore implements email.LogRepository. Pair it with any queue store:
//
//	logs := mongostore.NewFromDatabase(db)
//	sender, err := email.NewSender(factory,
//		email.WithQueueRepository(queue),
//		email.WithLogRepository(logs),
//	)
package mongostore
