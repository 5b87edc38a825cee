package broker

import "time"

// Type tags an event on the stream. The set is closed; clients switch on it.
type Type string

const (
	TypeHello           Type = "hello"
	TypePing            Type = "ping"
	TypeTaskCreated     Type = "task_created"
	TypeTaskUpdated     Type = "task_updated"
	TypeTaskCompleted   Type = "task_completed"
	TypeCommentAdded    Type = "comment_added"
	TypeChallengeJoined Type = "challenge_joined"
	TypeRewardRedeemed  Type = "reward_redeemed"
)

// Event is a tagged domain event delivered on a household's stream. Data is
// one of the payload structs below, fixed per Type; events are only built
// through the constructors.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data,omitempty"`
}

type HelloData struct {
	ConnectionID    string `json:"connection_id"`
	ReconnectMillis int    `json:"reconnect_millis"`
}

type TaskCreatedData struct {
	TaskID     int64      `json:"task_id"`
	Title      string     `json:"title"`
	AssignedTo *int64     `json:"assigned_to,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

type TaskUpdatedData struct {
	TaskID int64  `json:"task_id"`
	Title  string `json:"title"`
}

type TaskCompletedData struct {
	TaskID        int64     `json:"task_id"`
	Title         string    `json:"title"`
	CompletedBy   int64     `json:"completed_by"`
	PointsAwarded int       `json:"points_awarded"`
	NewBalance    int       `json:"new_balance"`
	CompletedAt   time.Time `json:"completed_at"`
	SuccessorID   *int64    `json:"successor_id,omitempty"`
}

type CommentAddedData struct {
	TaskID    int64  `json:"task_id"`
	CommentID int64  `json:"comment_id"`
	AuthorID  int64  `json:"author_id"`
	Text      string `json:"text"`
}

type ChallengeJoinedData struct {
	ChallengeID      int64 `json:"challenge_id"`
	UserID           int64 `json:"user_id"`
	ParticipantCount int   `json:"participant_count"`
}

type RewardRedeemedData struct {
	RewardID     int64  `json:"reward_id"`
	RewardTitle  string `json:"reward_title"`
	RedemptionID int64  `json:"redemption_id"`
	UserID       int64  `json:"user_id"`
	NewBalance   int    `json:"new_balance"`
}

func NewHello(connectionID string, reconnect time.Duration) Event {
	return Event{Type: TypeHello, Data: HelloData{
		ConnectionID:    connectionID,
		ReconnectMillis: int(reconnect.Milliseconds()),
	}}
}

func NewPing() Event {
	return Event{Type: TypePing}
}

func NewTaskCreated(d TaskCreatedData) Event {
	return Event{Type: TypeTaskCreated, Data: d}
}

func NewTaskUpdated(d TaskUpdatedData) Event {
	return Event{Type: TypeTaskUpdated, Data: d}
}

func NewTaskCompleted(d TaskCompletedData) Event {
	return Event{Type: TypeTaskCompleted, Data: d}
}

func NewCommentAdded(d CommentAddedData) Event {
	return Event{Type: TypeCommentAdded, Data: d}
}

func NewChallengeJoined(d ChallengeJoinedData) Event {
	return Event{Type: TypeChallengeJoined, Data: d}
}

func NewRewardRedeemed(d RewardRedeemedData) Event {
	return Event{Type: TypeRewardRedeemed, Data: d}
}
