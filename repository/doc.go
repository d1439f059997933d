// Package repository provides generic repositories over bun models: CRUD,
// pagination, ordering by relation paths, filters, upserts and the slug,
// expiry and soft-delete capabilities. Writes are staged in a
// database.Session and engine errors are translated into ErrConflict,
// ErrNotFound and ErrStorage at this boundary.
package repository
