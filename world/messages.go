package world

import (
	"encoding/json"
	"fmt"
)

// Frame is the wire envelope for every message in both directions. Payloads
// are JSON so stale or unknown frames from old clients decode harmlessly.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client to server frame types.
const (
	MsgJoin   = "join"
	MsgInput  = "input"
	MsgShoot  = "shoot"
	MsgSkill  = "skill"
	MsgReload = "reload"
	MsgChat   = "chat"
)

// Server to client frame types.
const (
	MsgWelcome     = "welcome"
	MsgState       = "state"
	MsgBulletEvent = "bullet"
	MsgSkillEvent  = "skillEffect"
	MsgDamage      = "damage"
	MsgKill        = "kill"
	MsgPickup      = "pickup"
	MsgGameEnd     = "gameEnd"
	MsgChatRelay   = "chatRelay"
)

func NewFrame(msgType string, payload interface{}) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s frame: %w", msgType, err)
	}
	return Frame{Type: msgType, Data: data}, nil
}

// MustFrame is NewFrame for payloads built from plain structs, which cannot
// fail to marshal.
func MustFrame(msgType string, payload interface{}) Frame {
	frame, err := NewFrame(msgType, payload)
	if err != nil {
		panic(err)
	}
	return frame
}

func (f Frame) Decode(into interface{}) error {
	if err := json.Unmarshal(f.Data, into); err != nil {
		return fmt.Errorf("decode %s frame: %w", f.Type, err)
	}
	return nil
}

type JoinRequest struct {
	Name      string `json:"name"`
	Character string `json:"character"`
}

type InputMessage struct {
	Dx       float64 `json:"dx"`
	Dy       float64 `json:"dy"`
	Angle    float64 `json:"angle"`
	Shooting bool    `json:"shooting"`
	Skill    bool    `json:"skill"`
	Seq      uint64  `json:"seq"`
}

type ShootMessage struct {
	Angle float64 `json:"angle"`
}

type SkillMessage struct {
	Angle float64 `json:"angle"`
}

type ChatMessage struct {
	Text string `json:"text"`
}

// Welcome tells a client its assigned id plus the tunables prediction has
// to mirror exactly.
type Welcome struct {
	PlayerID      string  `json:"playerId"`
	MapWidth      float64 `json:"mapWidth"`
	MapHeight     float64 `json:"mapHeight"`
	PlayerHalf    float64 `json:"playerHalf"`
	PlayerSpeed   float64 `json:"playerSpeed"`
	SpeedModifier float64 `json:"speedModifier"`
	TickRate      int     `json:"tickRate"`
}

// StateMessage is the continuous canonical snapshot broadcast.
type StateMessage struct {
	Phase      string            `json:"phase"`
	Countdown  int               `json:"countdown"`
	ElapsedMs  int64             `json:"elapsedMs"`
	Players    map[string]Player `json:"players"`
	Items      map[string]Item   `json:"items"`
	SafeZone   SafeZone          `json:"safeZone"`
	ServerTime int64             `json:"serverTime"`
}

// BulletEvent is the fire-and-forget visual spawn. It is deliberately not
// the server's hit-detection bullet.
type BulletEvent struct {
	OwnerID string  `json:"ownerId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Angle   float64 `json:"angle"`
	Weapon  string  `json:"weapon"`
}

type SkillEvent struct {
	PlayerID string  `json:"playerId"`
	Skill    string  `json:"skill"`
	Angle    float64 `json:"angle"`
}

type DamageEvent struct {
	VictimID    string  `json:"victimId"`
	AttackerID  string  `json:"attackerId"`
	Damage      float64 `json:"damage"`
	RemainingHP float64 `json:"remainingHp"`
}

type KillEvent struct {
	KillerID   string `json:"killerId"`
	VictimID   string `json:"victimId"`
	VictimName string `json:"victimName"`
}

type PickupEvent struct {
	PlayerID string `json:"playerId"`
	ItemID   string `json:"itemId"`
	ItemType string `json:"itemType"`
	SubType  string `json:"subType"`
}

type Ranking struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kills int    `json:"kills"`
	Rank  int    `json:"rank"`
}

type GameEndEvent struct {
	Rankings []Ranking `json:"rankings"`
}

type ChatRelay struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Text     string `json:"text"`
}
