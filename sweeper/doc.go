// Package sweeper deletes expired rows on a cron schedule.
package sweeper
