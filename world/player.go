package world

// Player is the canonical, server-owned state for one connected player.
// Only the match room mutates it; clients see copies in state broadcasts.
type Player struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Character string  `json:"character"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Angle     float64 `json:"angle"`
	HP        float64 `json:"hp"`
	MaxHP     float64 `json:"maxHp"`
	IsAlive   bool    `json:"isAlive"`

	Weapon      string  `json:"weapon"`
	Ammo        int     `json:"ammo"`
	Kills       int     `json:"kills"`
	DamageDealt float64 `json:"damageDealt"`

	// ItemSkill, when set by a skill pickup, replaces the character's
	// built-in skill.
	ItemSkill string `json:"itemSkill,omitempty"`

	SkillCooldownMs float64 `json:"skillCooldownMs"`
	IsInvincible    bool    `json:"isInvincible"`
	IsReloading     bool    `json:"isReloading"`

	// LastInputSeq is the newest input sequence the room has applied for
	// this player; the owning client reconciles against it.
	LastInputSeq uint64 `json:"lastInputSeq"`
}

func (p *Player) Position() Vector {
	return Vector{X: p.X, Y: p.Y}
}

// Item is an ephemeral pickup. Ids are never reused; a consumed item is
// deleted and any replacement spawns under a fresh id.
type Item struct {
	ID       string  `json:"id"`
	ItemType string  `json:"itemType"` // "weapon" or "skill"
	SubType  string  `json:"subType"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	IsActive bool    `json:"isActive"`
}

func (i *Item) Position() Vector {
	return Vector{X: i.X, Y: i.Y}
}

const (
	ItemTypeWeapon = "weapon"
	ItemTypeSkill  = "skill"
)

// ZoneKillerID is the killer id used for safe-zone deaths.
const ZoneKillerID = "zone"
