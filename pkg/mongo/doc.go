// Package mongo connects to MongoDB with the official v2 driver.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "")
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
// New retries the initial ping, and Healthcheck wraps a ping for readiness probes.
// The email log store in pkg/email/mongostore is built on the returned database.
package mongo
