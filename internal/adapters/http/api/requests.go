package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/okian/ladder/internal/domain/challenge"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/roster"
)

// challengePlayers is the number of participants a challenge request names.
const challengePlayers = 2

// playerRef accepts a bare player id or an object carrying "id" or "_id".
type playerRef string

func (p *playerRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*p = playerRef(id)
		return nil
	}
	var obj struct {
		ID    string `json:"id"`
		DocID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("player reference must be an id or an object with an id: %w", err)
	}
	if obj.ID != "" {
		*p = playerRef(obj.ID)
	} else {
		*p = playerRef(obj.DocID)
	}
	return nil
}

func (p playerRef) id() string { return strings.TrimSpace(string(p)) }

type createPlayerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

func (req createPlayerRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return errors.New("missing name")
	case strings.TrimSpace(req.Email) == "":
		return errors.New("missing email")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	return nil
}

func (req createPlayerRequest) input() roster.PlayerInput {
	return roster.PlayerInput{Name: req.Name, Email: req.Email, PhoneNumber: req.PhoneNumber}
}

type updatePlayerRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

func (req updatePlayerRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" && strings.TrimSpace(req.PhoneNumber) == "" {
		return errors.New("nothing to update; send name or phoneNumber")
	}
	return nil
}

type eventPayload struct {
	Name      string  `json:"name"`
	Operation string  `json:"operation"`
	Value     float64 `json:"value"`
}

func validateEvents(events []eventPayload) error {
	if len(events) == 0 {
		return errors.New("events must contain at least 1 element")
	}
	for i, e := range events {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("events[%d]: missing name", i)
		}
	}
	return nil
}

func toEvents(in []eventPayload) []model.Event {
	out := make([]model.Event, 0, len(in))
	for _, e := range in {
		out = append(out, model.Event{Name: strings.TrimSpace(e.Name), Operation: e.Operation, Value: e.Value})
	}
	return out
}

type createCategoryRequest struct {
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Events      []eventPayload `json:"events"`
}

func (req createCategoryRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Category) == "":
		return errors.New("missing category")
	case strings.TrimSpace(req.Description) == "":
		return errors.New("missing description")
	}
	return validateEvents(req.Events)
}

type updateCategoryRequest struct {
	Description string         `json:"description"`
	Events      []eventPayload `json:"events"`
}

func (req updateCategoryRequest) validate() error {
	return validateEvents(req.Events)
}

type createChallengeRequest struct {
	DateHourChallenge *time.Time  `json:"dateHourChallenge"`
	Solicitator       playerRef   `json:"solicitator"`
	Players           []playerRef `json:"players"`
}

func (req createChallengeRequest) validate() error {
	if len(req.Players) != challengePlayers {
		return fmt.Errorf("players must contain exactly %d elements", challengePlayers)
	}
	for i, p := range req.Players {
		if p.id() == "" {
			return fmt.Errorf("players[%d]: missing id", i)
		}
	}
	if req.Solicitator.id() == "" {
		return errors.New("missing solicitator")
	}
	return nil
}

func (req createChallengeRequest) input() challenge.CreateInput {
	players := make([]string, 0, len(req.Players))
	for _, p := range req.Players {
		players = append(players, p.id())
	}
	return challenge.CreateInput{
		Players:           players,
		Solicitator:       req.Solicitator.id(),
		DateHourChallenge: req.DateHourChallenge,
	}
}

type updateChallengeRequest struct {
	Status            string     `json:"status"`
	DateHourChallenge *time.Time `json:"dateHourChallenge"`
}

// validate accepts only the statuses a participant may answer with.
func (req updateChallengeRequest) validate() (model.ChallengeStatus, error) {
	status, ok := model.ParseResponseStatus(req.Status)
	if !ok {
		return "", fmt.Errorf("%s is an invalid status", req.Status)
	}
	return status, nil
}

type assignMatchRequest struct {
	Def    playerRef      `json:"def"`
	Result []model.Result `json:"result"`
}

func (req assignMatchRequest) validate() error {
	switch {
	case req.Def.id() == "":
		return errors.New("missing def")
	case len(req.Result) == 0:
		return errors.New("result must contain at least 1 element")
	}
	return nil
}
