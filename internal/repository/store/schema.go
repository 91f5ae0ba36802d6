package store

// schema creates the tables of the SQL backend. The statements are portable
// across SQLite, PostgreSQL and MySQL.
//
//nolint:gochecknoglobals // Read-only DDL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(128) NOT NULL PRIMARY KEY,
		display_name VARCHAR(255) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS user_destinations (
		user_id VARCHAR(128) NOT NULL,
		device_id VARCHAR(128) NOT NULL,
		token VARCHAR(512) NOT NULL DEFAULT '',
		platform VARCHAR(32) NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, device_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id VARCHAR(128) NOT NULL,
		category VARCHAR(64) NOT NULL,
		enabled BOOLEAN NOT NULL,
		PRIMARY KEY (user_id, category)
	)`,
	`CREATE TABLE IF NOT EXISTS families (
		id VARCHAR(128) NOT NULL PRIMARY KEY,
		owner_id VARCHAR(128) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS family_members (
		family_id VARCHAR(128) NOT NULL,
		user_id VARCHAR(128) NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (family_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS children (
		family_id VARCHAR(128) NOT NULL,
		id VARCHAR(128) NOT NULL,
		display_name VARCHAR(255) NOT NULL DEFAULT '',
		PRIMARY KEY (family_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		family_id VARCHAR(128) NOT NULL,
		id VARCHAR(128) NOT NULL,
		child_id VARCHAR(128) NOT NULL DEFAULT '',
		role VARCHAR(16) NOT NULL,
		place VARCHAR(255) NOT NULL DEFAULT '',
		start_date VARCHAR(10) NOT NULL,
		start_time VARCHAR(16) NOT NULL DEFAULT '',
		end_time VARCHAR(16) NOT NULL DEFAULT '',
		responsible_member_id VARCHAR(128) NOT NULL DEFAULT '',
		created_by VARCHAR(128) NOT NULL DEFAULT '',
		PRIMARY KEY (family_id, id)
	)`,
}
