package sqlite

func (s Storage) RunMigrations() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id VARCHAR NOT NULL PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		title VARCHAR NOT NULL,
		description TEXT NULL DEFAULT NULL,
		location VARCHAR NULL DEFAULT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		timezone VARCHAR NULL DEFAULT NULL,
		is_all_day BOOLEAN NOT NULL DEFAULT 0,
		status VARCHAR NOT NULL DEFAULT 'confirmed',
		recurrence TEXT NULL DEFAULT NULL,
		google_event_id VARCHAR NULL DEFAULT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS events_user_start ON events (user_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS events_user_google ON events (user_id, google_event_id)`,
	`CREATE TABLE IF NOT EXISTS event_attendees (
		id VARCHAR NOT NULL PRIMARY KEY,
		event_id VARCHAR NOT NULL,
		email VARCHAR NOT NULL,
		name VARCHAR NOT NULL DEFAULT '',
		notification_channel VARCHAR NOT NULL DEFAULT 'email',
		rsvp_status VARCHAR NOT NULL DEFAULT 'pending',
		rsvp_token VARCHAR NOT NULL UNIQUE,
		response_comment TEXT NULL DEFAULT NULL,
		responded_at TIMESTAMP NULL DEFAULT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (event_id, email),
		FOREIGN KEY (event_id) REFERENCES events (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS connected_accounts (
		id VARCHAR NOT NULL PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		provider VARCHAR NOT NULL,
		provider_account_id VARCHAR NOT NULL DEFAULT '',
		access_token TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NULL DEFAULT NULL,
		expires_at TIMESTAMP NULL DEFAULT NULL,
		scope VARCHAR NOT NULL DEFAULT '',
		token_type VARCHAR NOT NULL DEFAULT '',
		is_primary BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, provider)
	)`,
}
