package hunt

import "encoding/json"

type User struct {
	ID          int64  `json:"id"`
	Subject     string `json:"subject"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type Campaign struct {
	ID                 int64   `json:"id"`
	Slug               string  `json:"slug"`
	Title              string  `json:"title"`
	Description        string  `json:"description,omitempty"`
	ThemeID            int64   `json:"theme_id"`
	Active             bool    `json:"is_active"`
	TotalCheckpoints   int     `json:"total_checkpoints"`
	RotateOnWrong      bool    `json:"rotate_on_wrong"`
	SceneBackgroundURL string  `json:"scene_background_url,omitempty"`
	SceneCharacterIDs  []int64 `json:"scene_characters,omitempty"`
}

// ThemeConfig is stored as a JSON column; unmarshalling over DefaultTheme
// keeps defaults for fields the row leaves out.
type ThemeConfig struct {
	PrimaryColor     string `json:"primaryColor"`
	BackgroundColor  string `json:"backgroundColor"`
	CardColor        string `json:"cardColor"`
	ButtonColor      string `json:"buttonColor"`
	ButtonTextColor  string `json:"buttonTextColor"`
	ButtonRadius     string `json:"buttonRadius"`
	CorrectColor     string `json:"correctColor"`
	WrongColor       string `json:"wrongColor"`
	FontFamily       string `json:"fontFamily"`
	TitleFontSize    string `json:"titleFontSize"`
	QuestionFontSize string `json:"questionFontSize"`
	ProgressBarColor string `json:"progressBarColor"`
	ShadowColor      string `json:"shadowColor"`
}

var DefaultTheme = ThemeConfig{
	PrimaryColor:     "#FF6B9D",
	BackgroundColor:  "#FFF5E4",
	CardColor:        "#FFFFFF",
	ButtonColor:      "#FF6B9D",
	ButtonTextColor:  "#FFFFFF",
	ButtonRadius:     "12px",
	CorrectColor:     "#2ECC71",
	WrongColor:       "#E74C3C",
	FontFamily:       `"Noto Sans Thai", "Sarabun", sans-serif`,
	TitleFontSize:    "1.5rem",
	QuestionFontSize: "1.1rem",
	ProgressBarColor: "#FF6B9D",
	ShadowColor:      "rgba(255, 107, 157, 0.2)",
}

// MergeTheme overlays a stored JSON config on top of DefaultTheme.
func MergeTheme(raw []byte) ThemeConfig {
	theme := DefaultTheme
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &theme)
	}
	return theme
}

type Character struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	AssetIdle    string            `json:"asset_idle,omitempty"`
	AssetCorrect string            `json:"asset_correct,omitempty"`
	AssetWrong   string            `json:"asset_wrong,omitempty"`
	Metadata     CharacterMetadata `json:"metadata"`
}

type CharacterMetadata struct {
	DisplayName     string   `json:"displayName,omitempty"`
	Greeting        string   `json:"greeting,omitempty"`
	CorrectPhrases  []string `json:"correctPhrases,omitempty"`
	WrongPhrases    []string `json:"wrongPhrases,omitempty"`
	CompletePhrases []string `json:"completePhrases,omitempty"`
}

// CampaignConfig is a campaign joined to its merged theme and resolved
// scene characters, in the order scene_characters lists them.
type CampaignConfig struct {
	Campaign        Campaign    `json:"campaign"`
	Theme           ThemeConfig `json:"theme"`
	SceneCharacters []Character `json:"sceneCharacters"`
}

type CheckpointToken struct {
	ID              int64  `json:"id"`
	Token           string `json:"token"`
	CampaignID      int64  `json:"campaign_id"`
	CheckpointIndex int    `json:"checkpoint_index"`
	CategoryID      int64  `json:"category_id"`
	CategoryName    string `json:"category_name"`
	ExpiresAt       int64  `json:"expires_at"`
}

type Session struct {
	ID          int64 `json:"id"`
	UserID      int64 `json:"user_id"`
	CampaignID  int64 `json:"campaign_id"`
	CreatedAt   int64 `json:"created_at"`
	CompletedAt int64 `json:"completed_at,omitempty"` // 0 until all checkpoints done
}

type SessionCheckpoint struct {
	ID                 int64 `json:"id"`
	SessionID          int64 `json:"session_id"`
	CheckpointIndex    int   `json:"checkpoint_index"`
	AssignedQuestionID int64 `json:"assigned_question_id,omitempty"` // 0 until first visit assigns
	Completed          bool  `json:"is_completed"`
	CompletedAt        int64 `json:"completed_at,omitempty"`
}

type Choice struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"choice_text"`
	SortOrder  int    `json:"sort_order"`
}

// QuestionView is a question as served to the player: no correctness marker,
// choices in stable sort order.
type QuestionView struct {
	ID      int64    `json:"id"`
	Text    string   `json:"text"`
	Choices []Choice `json:"choices"`
}

type CheckpointStatus struct {
	Index     int  `json:"index"`
	Completed bool `json:"isCompleted"`
}

// Progress is always dense: Checkpoints has exactly Total entries, indices
// 1..Total, whether or not the player ever visited them.
type Progress struct {
	Completed   int                `json:"completed"`
	Total       int                `json:"total"`
	Checkpoints []CheckpointStatus `json:"checkpoints"`
}

// EnterState is the outcome of a checkpoint scan. Question is nil when the
// checkpoint is already completed.
type EnterState struct {
	Checkpoint SessionCheckpoint `json:"checkpoint"`
	Question   *QuestionView     `json:"question,omitempty"`
}

// GradeResult is the outcome of one answer submission.
type GradeResult struct {
	Correct            bool          `json:"isCorrect"`
	CorrectChoiceID    int64         `json:"correctChoiceId"`
	Explanation        string        `json:"explanation,omitempty"`
	CheckpointIndex    int           `json:"checkpointIndex"`
	CategoryName       string        `json:"categoryName"`
	CheckpointComplete bool          `json:"isCheckpointComplete"`
	AllComplete        bool          `json:"isAllComplete"`
	RedeemToken        string        `json:"redeemToken,omitempty"`
	NewQuestion        *QuestionView `json:"newQuestion,omitempty"`
	Progress           Progress      `json:"progress"`
}

// Redemption is the outcome of consuming a redeem token at a kiosk.
type Redemption struct {
	SessionID     int64  `json:"sessionId"`
	CampaignTitle string `json:"campaignTitle"`
	CampaignSlug  string `json:"campaignSlug"`
	RedeemedAt    int64  `json:"redeemedAt"`
}
