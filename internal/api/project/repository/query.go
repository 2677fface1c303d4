package projectRepository

const (
	queryCreateProject = `
		INSERT INTO projects (
			id, user_id, name, name_key, file_path, status, created_at, last_accessed
		) VALUES (
			:id, :user_id, :name, :name_key, :file_path, :status, :created_at, :last_accessed
		)
	`

	queryInsertProjectIfAbsent = queryCreateProject + ` ON CONFLICT DO NOTHING`

	queryGetProjectByID = `
		SELECT
			id, user_id, name, name_key, file_path, status, created_at, last_accessed
		FROM projects
		WHERE id = :id
	`

	queryGetProjectByName = `
		SELECT
			id, user_id, name, name_key, file_path, status, created_at, last_accessed
		FROM projects
		WHERE user_id = :user_id AND name_key = :name_key
		ORDER BY last_accessed DESC, id DESC
		LIMIT 1
	`

	queryGetUserProjects = `
		SELECT
			id, user_id, name, name_key, file_path, status, created_at, last_accessed
		FROM projects
		WHERE user_id = :user_id
		ORDER BY last_accessed DESC, id DESC
	`

	queryTouchProject = `
		UPDATE projects
		SET last_accessed = CASE WHEN last_accessed > :now THEN last_accessed ELSE :now END
		WHERE id = :id
	`

	queryUpdateProjectStatus = `
		UPDATE projects
		SET status = :status
		WHERE id = :id AND user_id = :user_id
	`

	queryGetUserProjectsWithTaskCounts = `
		SELECT
			p.id, p.user_id, p.name, p.name_key, p.file_path, p.status, p.created_at, p.last_accessed,
			COUNT(t.id) AS total,
			COALESCE(SUM(CASE WHEN t.status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN t.status = 'in_progress' THEN 1 ELSE 0 END), 0) AS in_progress,
			COALESCE(SUM(CASE WHEN t.status = 'completed' THEN 1 ELSE 0 END), 0) AS completed
		FROM projects p
		LEFT JOIN tasks t ON t.project_id = p.id
		WHERE p.user_id = :user_id
		GROUP BY p.id, p.user_id, p.name, p.name_key, p.file_path, p.status, p.created_at, p.last_accessed
		ORDER BY p.last_accessed DESC, p.id DESC
	`

	queryGetProjectOwner = `
		SELECT user_id FROM projects WHERE id = :id
	`

	queryCreateTask = `
		INSERT INTO tasks (
			id, project_id, user_id, description, voice_command, raw_transcript,
			intent_type, intent_confidence, output_summary, status, created_at
		) VALUES (
			:id, :project_id, :user_id, :description, :voice_command, :raw_transcript,
			:intent_type, :intent_confidence, :output_summary, :status, :created_at
		)
	`

	queryGetTaskByID = `
		SELECT
			id, project_id, user_id, description, voice_command, raw_transcript,
			intent_type, intent_confidence, output_summary, status, created_at, completed_at
		FROM tasks
		WHERE id = :id
	`

	queryGetProjectTasks = `
		SELECT
			id, project_id, user_id, description, voice_command, raw_transcript,
			intent_type, intent_confidence, output_summary, status, created_at, completed_at
		FROM tasks
		WHERE project_id = :project_id
		ORDER BY created_at DESC, id DESC
	`

	queryUpdateTaskStatus = `
		UPDATE tasks
		SET status = :status, completed_at = :completed_at
		WHERE id = :id
	`
)
