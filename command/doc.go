// Package command implements the operator CLI: migrate, seed, health and
// sweep over the models of a database.Registry.
package command
