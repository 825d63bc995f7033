// Package watcher decides when serve mode redistributes: on changes to the
// policy directory (fsnotify, debounced) and on a cron schedule.
package watcher
