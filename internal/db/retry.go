package db

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

const DefaultMaxRetries = 3

// Try executes an operation, retrying transient write conflicts up to
// DefaultMaxRetries times with a small incremental backoff. Duplicate-key
// errors are NOT retried: unique _id inserts are used as claims (reminder
// markers), so a duplicate means another writer already holds the claim.
func Try(op Operation) error {
	var err error
	for attempt := 0; attempt <= DefaultMaxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == DefaultMaxRetries {
			break
		}
		if IsMongoDuplicateKeyError(err) {
			return err
		}
		if !isTransient(err) {
			return err
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

func isTransient(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.HasErrorLabel("TransientTransactionError") || ce.HasErrorLabel("RetryableWriteError")
	}
	return false
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsMongoDuplicateKeyError(err error) bool {
	var e mongo.WriteException
	if errors.As(err, &e) {
		for _, we := range e.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	// Also check for BulkWriteException, which can contain duplicate key errors
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, writeError := range bwe.WriteErrors {
			if writeError.Code == 11000 {
				return true
			}
		}
	}
	return false
}
