// Package sessionstore holds the persistent gateway.SessionStore backends.
// Each backend lives in its own subpackage so that importing one does not
// pull in the driver of the other.
package sessionstore
