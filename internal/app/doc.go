// Package app runs a bot as a process: it opens the configured session store,
// builds the Session, serves the ops endpoints and shuts everything down when
// the context ends.
//
// With the redis store a Lease keeps a second instance of the same bot from
// connecting; with the postgres store a Purger deletes expired sessions.
package app
