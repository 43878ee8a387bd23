// Package models defines the persistent entities of trx and the repository interface used to store them.
//
// [StatsSample] is a point of daemon session stats recorded by the poller. It implements [Model],
// providing ID, timestamps, validation and soft delete support. [Repository] defines the standard
// CRUD operations for database access.
package models
