package database

import (
	"database/sql"
	"fmt"
	"time"
)

func (db *PgEventRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (id, name, email, avatar_url, password_hash, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, name, email, avatar_url",
		params.Id,
		params.Name,
		params.Email,
		params.AvatarUrl,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.Email,
		&u.AvatarUrl,
	)

	return u, err
}

func (db *PgEventRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE users SET name = $2, avatar_url = $3, updated_at = $4 "+
			"WHERE id = $1 RETURNING id, name, email, avatar_url",
		params.UserId,
		params.Name,
		params.AvatarUrl,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.Email,
		&u.AvatarUrl,
	)

	return u, err
}

func (db *PgEventRepository) GetAccountById(id string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, email, avatar_url FROM users WHERE id = $1 LIMIT 1",
		id,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Name,
		&user.Email,
		&user.AvatarUrl,
	)

	return user, err
}

func (db *PgEventRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, email, avatar_url, password_hash FROM users WHERE email = $1 LIMIT 1",
		email,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Name,
		&user.Email,
		&user.AvatarUrl,
		&user.PasswordHash,
	)

	return user, err
}

func (db *PgEventRepository) CreateEvent(params CreateEventParams) (*Event, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.Exec(
		"INSERT INTO events (id, title, description, address, lat, lng, radius, date, organizer_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		params.Id,
		params.Title,
		params.Description,
		params.Address,
		params.Lat,
		params.Lng,
		params.Radius,
		params.Date,
		params.OrganizerId,
		now,
	)
	if err != nil {
		return nil, err
	}

	// the organizer starts out as a participant
	_, err = tx.Exec(
		"INSERT INTO participants (event_id, user_id, created_at) VALUES ($1, $2, $3)",
		params.Id, params.OrganizerId, now,
	)
	if err != nil {
		return nil, err
	}

	if len(params.EquipmentIds) != len(params.EquipmentNames) {
		return nil, fmt.Errorf("equipment ids and names length mismatch")
	}
	for i, name := range params.EquipmentNames {
		_, err = tx.Exec(
			"INSERT INTO equipment (id, event_id, name, position) VALUES ($1, $2, $3, $4)",
			params.EquipmentIds[i], params.Id, name, i,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return db.GetEventById(params.Id)
}

func (db *PgEventRepository) UpdateEventDetails(params UpdateEventParams) error {
	_, err := db.conn.Exec(
		"UPDATE events SET title = $2, description = $3, address = $4, lat = $5, lng = $6, radius = $7, date = $8, updated_at = $9 "+
			"WHERE id = $1",
		params.EventId,
		params.Title,
		params.Description,
		params.Address,
		params.Lat,
		params.Lng,
		params.Radius,
		params.Date,
		time.Now().UTC(),
	)
	return err
}

// GetEventById assembles the complete event aggregate: the event row with
// its organizer, plus participants, chat transcript, equipment checklist and
// photos. Returns sql.ErrNoRows if the event does not exist.
func (db *PgEventRepository) GetEventById(id string) (*Event, error) {
	row := db.conn.QueryRow(
		"SELECT e.id, e.title, e.description, e.address, e.lat, e.lng, e.radius, e.date, e.status, e.organizer_id, e.created_at, e.updated_at, "+
			"u.id, u.name, u.email, u.avatar_url "+
			"FROM events e JOIN users u ON u.id = e.organizer_id WHERE e.id = $1",
		id,
	)

	var e Event
	err := row.Scan(
		&e.Id, &e.Title, &e.Description, &e.Address, &e.Lat, &e.Lng, &e.Radius,
		&e.Date, &e.Status, &e.OrganizerId, &e.CreatedAt, &e.UpdatedAt,
		&e.Organizer.Id, &e.Organizer.Name, &e.Organizer.Email, &e.Organizer.AvatarUrl,
	)
	if err != nil {
		return nil, err
	}

	if e.Participants, err = db.getParticipants(id); err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	if e.Chat, err = db.getMessages(id); err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	if e.Equipment, err = db.getEquipment(id); err != nil {
		return nil, fmt.Errorf("get equipment: %w", err)
	}
	if e.Photos, err = db.getPhotos(id); err != nil {
		return nil, fmt.Errorf("get photos: %w", err)
	}

	return &e, nil
}

func (db *PgEventRepository) getParticipants(eventId string) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT u.id, u.name, u.email, u.avatar_url FROM participants p "+
			"JOIN users u ON u.id = p.user_id WHERE p.event_id = $1 ORDER BY p.created_at, u.id",
		eventId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.Name, &u.Email, &u.AvatarUrl); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (db *PgEventRepository) getMessages(eventId string) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT m.id, m.event_id, m.user_id, m.message, m.created_at, u.id, u.name, u.email, u.avatar_url "+
			"FROM messages m JOIN users u ON u.id = m.user_id "+
			"WHERE m.event_id = $1 ORDER BY m.created_at, m.id",
		eventId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		err := rows.Scan(
			&m.Id, &m.EventId, &m.UserId, &m.Content, &m.CreatedAt,
			&m.User.Id, &m.User.Name, &m.User.Email, &m.User.AvatarUrl,
		)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}

	return msgs, rows.Err()
}

func (db *PgEventRepository) getEquipment(eventId string) ([]ChecklistItem, error) {
	rows, err := db.conn.Query(
		"SELECT id, event_id, name, claimed_by, is_provided, position FROM equipment "+
			"WHERE event_id = $1 ORDER BY position, id",
		eventId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ChecklistItem
	for rows.Next() {
		var item ChecklistItem
		var claimedBy sql.NullString
		if err := rows.Scan(&item.Id, &item.EventId, &item.Name, &claimedBy, &item.IsProvided, &item.Position); err != nil {
			return nil, err
		}
		item.ClaimedBy = claimedBy.String
		items = append(items, item)
	}

	return items, rows.Err()
}

func (db *PgEventRepository) getPhotos(eventId string) ([]Photo, error) {
	rows, err := db.conn.Query(
		"SELECT event_id, url, created_at FROM photos WHERE event_id = $1 ORDER BY created_at, id",
		eventId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.EventId, &p.Url, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}

	return photos, rows.Err()
}

// ListEventsForUser returns the events the user participates in or
// organizes, newest first, without the embedded sub-resources.
func (db *PgEventRepository) ListEventsForUser(userId string) ([]Event, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT e.id, e.title, e.description, e.address, e.lat, e.lng, e.radius, e.date, e.status, e.organizer_id, e.created_at, e.updated_at "+
			"FROM events e LEFT JOIN participants p ON p.event_id = e.id "+
			"WHERE e.organizer_id = $1 OR p.user_id = $1 ORDER BY e.date DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		err := rows.Scan(
			&e.Id, &e.Title, &e.Description, &e.Address, &e.Lat, &e.Lng, &e.Radius,
			&e.Date, &e.Status, &e.OrganizerId, &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (db *PgEventRepository) AddParticipant(eventId, userId string) error {
	_, err := db.conn.Exec(
		"INSERT INTO participants (event_id, user_id, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (event_id, user_id) DO NOTHING",
		eventId, userId, time.Now().UTC(),
	)
	return err
}

func (db *PgEventRepository) RemoveParticipant(eventId, userId string) error {
	_, err := db.conn.Exec(
		"DELETE FROM participants WHERE event_id = $1 AND user_id = $2",
		eventId, userId,
	)
	return err
}

func (db *PgEventRepository) CreateMessage(msg Message) error {
	_, err := db.conn.Exec(
		"INSERT INTO messages (id, event_id, user_id, message, created_at) VALUES ($1, $2, $3, $4, $5)",
		msg.Id, msg.EventId, msg.UserId, msg.Content, msg.CreatedAt,
	)
	return err
}

func (db *PgEventRepository) AddChecklistItem(item ChecklistItem) error {
	_, err := db.conn.Exec(
		"INSERT INTO equipment (id, event_id, name, position) "+
			"VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position), -1) + 1 FROM equipment WHERE event_id = $2))",
		item.Id, item.EventId, item.Name,
	)
	return err
}

func (db *PgEventRepository) UpdateChecklistClaim(eventId, itemId, userId string) error {
	claimedBy := sql.NullString{String: userId, Valid: userId != ""}
	// unclaiming an item also clears its provided flag
	res, err := db.conn.Exec(
		"UPDATE equipment SET claimed_by = $3, is_provided = (CASE WHEN $3 IS NULL THEN FALSE ELSE is_provided END) "+
			"WHERE id = $2 AND event_id = $1",
		eventId, itemId, claimedBy,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (db *PgEventRepository) MarkItemProvided(eventId, itemId string, provided bool) error {
	// provided-without-claim is a disallowed state
	res, err := db.conn.Exec(
		"UPDATE equipment SET is_provided = $3 WHERE id = $2 AND event_id = $1 AND claimed_by IS NOT NULL",
		eventId, itemId, provided,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (db *PgEventRepository) UpdateEventStatus(eventId, status string) error {
	res, err := db.conn.Exec(
		"UPDATE events SET status = $2, updated_at = $3 WHERE id = $1",
		eventId, status, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (db *PgEventRepository) AddPhoto(eventId, url string) error {
	_, err := db.conn.Exec(
		"INSERT INTO photos (event_id, url, created_at) VALUES ($1, $2, $3)",
		eventId, url, time.Now().UTC(),
	)
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
