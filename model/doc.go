// Package model declares the optional record capabilities (identity, slug,
// timestamps, soft delete, expiry) as embeddable bun field sets. A record type
// opts into a capability by embedding its struct; repositories that need one
// constrain their type parameter with the matching Ptr interface.
package model
