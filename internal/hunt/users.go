package hunt

import "context"

// FindOrCreateUser binds a verified identity-provider subject to an internal
// user row. Display attributes are refreshed on every resolution but an empty
// incoming value never clobbers a stored one.
func (s *SQLStore) FindOrCreateUser(ctx context.Context, subject, displayName, avatarURL string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (subject, display_name, avatar_url, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject) DO UPDATE SET
		  display_name = CASE WHEN $2 = '' THEN users.display_name ELSE $2 END,
		  avatar_url   = CASE WHEN $3 = '' THEN users.avatar_url ELSE $3 END
		RETURNING id, subject, display_name, avatar_url`,
		subject, displayName, avatarURL, s.now().Unix(),
	).Scan(&u.ID, &u.Subject, &u.DisplayName, &u.AvatarURL)
	return u, err
}
