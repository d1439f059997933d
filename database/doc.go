// Package database provides connection management, migrations with a
// deterministic constraint naming convention, foreign key handling, SQL seed
// files, configuration, logging, query hooks, health checks and the Session
// unit of work, built on top of Bun.
package database
