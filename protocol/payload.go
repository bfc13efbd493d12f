package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownType = errors.New("unknown payload type")
	ErrMalformed   = errors.New("malformed payload")
)

// ServerID is the sender id stamped on every server-originated payload.
const ServerID = "Server"

// PayloadType is the discriminant of the envelope.
type PayloadType string

const (
	Connect             PayloadType = "CONNECT"
	CreateRoom          PayloadType = "CREATE_ROOM"
	JoinRoom            PayloadType = "JOIN_ROOM"
	JoinRoomAsSpectator PayloadType = "JOIN_ROOM_AS_SPECTATOR"
	Ready               PayloadType = "READY"
	AwayStatus          PayloadType = "AWAY_STATUS"
	Answer              PayloadType = "ANSWER"
	StartGame           PayloadType = "START_GAME"
	QuestionType        PayloadType = "QUESTION"
	Points              PayloadType = "POINTS"
	Time                PayloadType = "TIME"
	Notification        PayloadType = "NOTIFICATION"
	ResetPoints         PayloadType = "RESET_POINTS"
	SelectedCategories  PayloadType = "SELECTED_CATEGORIES"
)

// Types lists every valid payload type.
var Types = []PayloadType{
	Connect, CreateRoom, JoinRoom, JoinRoomAsSpectator, Ready, AwayStatus, Answer,
	StartGame, QuestionType, Points, Time, Notification, ResetPoints, SelectedCategories,
}

// Valid reports whether t is one of the closed set of payload types.
func (t PayloadType) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// FromServer reports whether t is only ever sent by the server.
func (t PayloadType) FromServer() bool {
	switch t {
	case StartGame, QuestionType, Points, Time, Notification, ResetPoints:
		return true
	}
	return false
}

// QuestionBody is the body of a QUESTION payload. The correct option is
// never part of it.
type QuestionBody struct {
	Text     string   `json:"text"`
	Category string   `json:"category,omitempty"`
	Options  []string `json:"options"`
	Round    int      `json:"round,omitempty"`
	Rounds   int      `json:"rounds,omitempty"`
}

// PointsBody is the body of a POINTS payload.
type PointsBody struct {
	ClientID string `json:"client_id"`
	Points   int    `json:"points"`
	Final    bool   `json:"final,omitempty"`
}

// TimeBody is the body of a TIME payload.
type TimeBody struct {
	RemainingMS int64 `json:"remaining_ms"`
}

// Payload is the tagged envelope exchanged between clients and the server.
// Exactly the body fields belonging to Type are populated.
type Payload struct {
	Type     PayloadType `json:"type"`
	ClientID string      `json:"client_id,omitempty"`
	Message  string      `json:"message,omitempty"`

	Room       string        `json:"room,omitempty"`
	Answer     string        `json:"answer,omitempty"`
	Away       *bool         `json:"away,omitempty"`
	Categories []string      `json:"categories,omitempty"`
	Question   *QuestionBody `json:"question,omitempty"`
	Points     *PointsBody   `json:"points,omitempty"`
	Time       *TimeBody     `json:"time,omitempty"`
}

// Validate checks that the payload carries the body its type requires.
func (p Payload) Validate() error {
	if !p.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}

	switch p.Type {
	case Connect:
		if strings.TrimSpace(p.ClientID) == "" {
			return fmt.Errorf("%w: %s requires a client id", ErrMalformed, p.Type)
		}
	case CreateRoom, JoinRoom, JoinRoomAsSpectator:
		if strings.TrimSpace(p.Room) == "" {
			return fmt.Errorf("%w: %s requires a room name", ErrMalformed, p.Type)
		}
	case AwayStatus:
		if p.Away == nil {
			return fmt.Errorf("%w: %s requires an away flag", ErrMalformed, p.Type)
		}
	case Answer:
		if strings.TrimSpace(p.Answer) == "" {
			return fmt.Errorf("%w: %s requires an answer", ErrMalformed, p.Type)
		}
	case QuestionType:
		if p.Question == nil || len(p.Question.Options) < 2 {
			return fmt.Errorf("%w: %s requires a question with at least two options", ErrMalformed, p.Type)
		}
	case Points:
		if p.Points == nil {
			return fmt.Errorf("%w: %s requires points", ErrMalformed, p.Type)
		}
	case Time:
		if p.Time == nil {
			return fmt.Errorf("%w: %s requires a remaining time", ErrMalformed, p.Type)
		}
	case Ready, SelectedCategories, StartGame, Notification, ResetPoints:
	}

	return nil
}

func (p Payload) String() string {
	return fmt.Sprintf("Payload[type=%s client=%s message=%q]", p.Type, p.ClientID, p.Message)
}

// Server-originated constructors.

func NewNotification(format string, args ...any) Payload {
	return Payload{Type: Notification, ClientID: ServerID, Message: fmt.Sprintf(format, args...)}
}

func NewStartGame() Payload {
	return Payload{Type: StartGame, ClientID: ServerID, Message: "Game started"}
}

func NewQuestion(message string, body QuestionBody) Payload {
	return Payload{Type: QuestionType, ClientID: ServerID, Message: message, Question: &body}
}

func NewPoints(message, clientID string, points int, final bool) Payload {
	return Payload{
		Type:     Points,
		ClientID: ServerID,
		Message:  message,
		Points:   &PointsBody{ClientID: clientID, Points: points, Final: final},
	}
}

func NewTime(remainingMS int64) Payload {
	if remainingMS < 0 {
		remainingMS = 0
	}
	return Payload{Type: Time, ClientID: ServerID, Message: "Time Update", Time: &TimeBody{RemainingMS: remainingMS}}
}

func NewResetPoints() Payload {
	return Payload{Type: ResetPoints, ClientID: ServerID, Message: "Points reset"}
}

func NewSelectedCategories(categories []string) Payload {
	return Payload{
		Type:       SelectedCategories,
		ClientID:   ServerID,
		Message:    "Selected categories",
		Categories: append([]string(nil), categories...),
	}
}

// Client-originated constructors.

func NewConnect(clientID string) Payload {
	return Payload{Type: Connect, ClientID: clientID, Message: "Connecting"}
}

func NewRoomRequest(t PayloadType, clientID, room string) Payload {
	return Payload{Type: t, ClientID: clientID, Room: room}
}

func NewReady(clientID string, categories []string) Payload {
	return Payload{Type: Ready, ClientID: clientID, Message: "Ready", Categories: categories}
}

func NewAnswer(clientID, letter string) Payload {
	return Payload{Type: Answer, ClientID: clientID, Answer: letter}
}

func NewAwayStatus(clientID string, away bool) Payload {
	return Payload{Type: AwayStatus, ClientID: clientID, Away: &away}
}

func NewCategorySelection(clientID string, categories []string) Payload {
	return Payload{Type: SelectedCategories, ClientID: clientID, Categories: categories}
}
