package hunt

import "context"

// Store is the engine surface consumed by the HTTP layer.
type Store interface {
	// FindOrCreateUser upserts the verified subject. Empty displayName or
	// avatarURL leaves the stored attribute untouched.
	FindOrCreateUser(ctx context.Context, subject, displayName, avatarURL string) (User, error)

	// CampaignConfig loads a campaign with its merged theme and resolved
	// scene characters.
	CampaignConfig(ctx context.Context, campaignID int64) (CampaignConfig, error)

	// CampaignBySlug resolves an active campaign by slug.
	CampaignBySlug(ctx context.Context, slug string) (CampaignConfig, error)

	// ValidateCheckpointToken resolves a scanned tag token to its campaign,
	// checkpoint index, and category. ErrNotFound when unknown or expired.
	ValidateCheckpointToken(ctx context.Context, token string) (CheckpointToken, error)

	// GetOrCreateSession returns the single session for (user, campaign),
	// creating it on first scan. Safe under concurrent duplicates.
	GetOrCreateSession(ctx context.Context, userID, campaignID int64) (Session, error)

	// GetOrAssignQuestion returns the checkpoint state plus the assigned
	// question, sampling one from the category pool on first visit.
	// A completed checkpoint comes back with a nil question.
	GetOrAssignQuestion(ctx context.Context, sessionID int64, checkpointIndex int, categoryID int64) (EnterState, error)

	// SubmitAnswer grades one attempt atomically. ErrInvalidSubmission on any
	// ownership, state, or choice/question mismatch, with no writes.
	SubmitAnswer(ctx context.Context, sessionCheckpointID, questionID, choiceID, userID int64) (GradeResult, error)

	// Redeem consumes a redemption token at most once, binding the kiosk
	// identity. ErrTokenSpent uniformly on failure.
	Redeem(ctx context.Context, token, kioskID string) (Redemption, error)

	// Progress projects the dense completed/total summary for a session.
	Progress(ctx context.Context, sessionID, campaignID int64) (Progress, error)

	// ExistingRedeemToken returns the session's unconsumed, unexpired token,
	// or "" if none.
	ExistingRedeemToken(ctx context.Context, sessionID int64) (string, error)
}
