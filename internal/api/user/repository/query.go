package userRepository

const (
	queryGetUserByID = `
		SELECT id, email, phone, created_at, updated_at
		FROM users
		WHERE id = :id
	`

	queryGetUserByEmail = `
		SELECT id, email, phone, created_at, updated_at
		FROM users
		WHERE email = :email
	`

	queryCreateUser = `
		INSERT INTO users (id, email, phone, created_at, updated_at)
		VALUES (:id, :email, :phone, :created_at, :updated_at)
	`

	queryFillMissingContact = `
		UPDATE users
		SET email = COALESCE(email, :email),
			phone = COALESCE(phone, :phone),
			updated_at = :updated_at
		WHERE id = :id
	`

	queryReassignUserID = `
		UPDATE users
		SET id = :id,
			phone = COALESCE(phone, :phone),
			updated_at = :updated_at
		WHERE email = :email
	`
)
