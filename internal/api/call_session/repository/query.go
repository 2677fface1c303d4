package callSessionRepository

const (
	queryCreateSession = `
		INSERT INTO call_sessions (
			id, user_id, phone_number, transcript, commands_executed, started_at
		) VALUES (
			:id, :user_id, :phone_number, :transcript, :commands_executed, :started_at
		)
	`

	queryGetSessionByID = `
		SELECT id, user_id, phone_number, transcript, commands_executed, started_at, ended_at
		FROM call_sessions
		WHERE id = :id
	`

	queryUpdateSessionLog = `
		UPDATE call_sessions
		SET transcript = :transcript, commands_executed = :commands_executed
		WHERE id = :id
	`

	queryEndSession = `
		UPDATE call_sessions
		SET ended_at = :ended_at
		WHERE id = :id AND ended_at IS NULL
	`

	queryGetUserSessions = `
		SELECT id, user_id, phone_number, transcript, commands_executed, started_at, ended_at
		FROM call_sessions
		WHERE user_id = :user_id
		ORDER BY started_at DESC, id DESC
		LIMIT :limit
	`
)
