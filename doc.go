// Package bedrock is a generic data-access layer on top of bun. A Service
// maps external representations onto records and delegates storage to a
// repository.Repository, which stages writes in a database.Session.
package bedrock
