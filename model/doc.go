// Package model defines the platform entities exchanged over the REST API and
// the gateway, with their JSON encodings.
//
// Identifiers are strings. The platform uses "0" for "no entity" in several
// reference fields (owners, jump channels); see NoID.
package model
