package hunt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CampaignConfig loads the campaign row, merges its theme config over the
// defaults, and resolves scene character ids to full rows preserving the
// configured order.
func (s *SQLStore) CampaignConfig(ctx context.Context, campaignID int64) (CampaignConfig, error) {
	var (
		cfg       CampaignConfig
		themeJSON string
		charsJSON string
	)
	c := &cfg.Campaign
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.slug, c.title, c.description, c.theme_id, c.is_active,
		       c.total_checkpoints, c.rotate_on_wrong, c.scene_background_url,
		       c.scene_characters, t.config
		FROM campaigns c
		JOIN themes t ON t.id = c.theme_id
		WHERE c.id = $1`, campaignID,
	).Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.ThemeID, &c.Active,
		&c.TotalCheckpoints, &c.RotateOnWrong, &c.SceneBackgroundURL,
		&charsJSON, &themeJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return CampaignConfig{}, ErrNotFound
	}
	if err != nil {
		return CampaignConfig{}, err
	}

	cfg.Theme = MergeTheme([]byte(themeJSON))

	if err := json.Unmarshal([]byte(charsJSON), &c.SceneCharacterIDs); err != nil {
		return CampaignConfig{}, fmt.Errorf("campaign %d scene_characters: %w", c.ID, err)
	}
	chars, err := s.charactersByID(ctx, c.SceneCharacterIDs)
	if err != nil {
		return CampaignConfig{}, err
	}
	cfg.SceneCharacters = chars
	return cfg, nil
}

// CampaignBySlug resolves an active campaign by its slug.
func (s *SQLStore) CampaignBySlug(ctx context.Context, slug string) (CampaignConfig, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM campaigns WHERE slug = $1 AND is_active`, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return CampaignConfig{}, ErrNotFound
	}
	if err != nil {
		return CampaignConfig{}, err
	}
	return s.CampaignConfig(ctx, id)
}

// charactersByID fetches character rows and reorders them to match ids.
func (s *SQLStore) charactersByID(ctx context.Context, ids []int64) ([]Character, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, asset_idle, asset_correct, asset_wrong, metadata
		FROM characters WHERE id IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]Character, len(ids))
	for rows.Next() {
		var (
			ch   Character
			meta string
		)
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.AssetIdle, &ch.AssetCorrect, &ch.AssetWrong, &meta); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(meta), &ch.Metadata)
		byID[ch.ID] = ch
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Character, 0, len(ids))
	for _, id := range ids {
		if ch, ok := byID[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}
