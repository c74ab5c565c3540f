package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// SkillKind is the closed set of character skills. Resolved once when a
// character config is loaded so dispatch never switches on raw strings.
type SkillKind int

const (
	SkillNone SkillKind = iota
	SkillDash
	SkillShield
	SkillBackflip
	SkillHealAura
)

var skillNames = map[string]SkillKind{
	"dash":     SkillDash,
	"shield":   SkillShield,
	"backflip": SkillBackflip,
	"healAura": SkillHealAura,
}

func (k SkillKind) String() string {
	for name, kind := range skillNames {
		if kind == k {
			return name
		}
	}
	return "none"
}

func ParseSkill(name string) (SkillKind, error) {
	kind, ok := skillNames[name]
	if !ok {
		return SkillNone, fmt.Errorf("unknown skill %q", name)
	}
	return kind, nil
}

type GameConfig struct {
	MapWidth      float64
	MapHeight     float64
	PlayerSpeed   float64
	PlayerHalf    float64 // half player size, used as the map clamp margin
	HitRadius     float64
	PickupRadius  float64
	SpawnMargin   float64
	MinPlayers    int
	MaxPlayers    int
	CountdownSecs int
	TickRate      int
	InitialItems  int
	ItemInterval  time.Duration
}

type NetConfig struct {
	Address            string
	OriginPatterns     []string
	ClientSendRate     int
	InterpolationDelay time.Duration
	ReconcileThreshold float64
	MaxPendingInputs   int
	MaxSnapshots       int
	InputRateLimit     float64
	InputRateBurst     int
}

type WeaponConfig struct {
	Damage       float64
	FireInterval time.Duration
	Range        float64
	MagazineSize int
	ReloadTime   time.Duration
	BulletSpeed  float64
	Pellets      int
	SpreadStep   float64 // radians between adjacent pellets
}

type CharacterConfig struct {
	MaxHP         float64
	SpeedModifier float64
	Skill         SkillKind
	SkillCooldown time.Duration
}

type ZonePhase struct {
	Time         time.Duration
	RadiusFrac   float64
	DamagePerSec float64
}

type ZoneConfig struct {
	Phases         []ZonePhase
	ShrinkDuration time.Duration
}

type Config struct {
	Game       GameConfig
	Net        NetConfig
	Weapons    map[string]WeaponConfig
	Characters map[string]CharacterConfig
	Zone       ZoneConfig
}

// Default returns the built-in tuning tables. A TOML file can overlay any of
// these via Load.
func Default() *Config {
	return &Config{
		Game: GameConfig{
			MapWidth:      1600,
			MapHeight:     1200,
			PlayerSpeed:   200,
			PlayerHalf:    32,
			HitRadius:     20,
			PickupRadius:  50,
			SpawnMargin:   100,
			MinPlayers:    2,
			MaxPlayers:    8,
			CountdownSecs: 3,
			TickRate:      20,
			InitialItems:  10,
			ItemInterval:  20 * time.Second,
		},
		Net: NetConfig{
			Address:            "localhost:4242",
			OriginPatterns:     []string{"localhost:*"},
			// Must match TickRate: the room advances one tick delta per
			// input message.
			ClientSendRate:     20,
			InterpolationDelay: 100 * time.Millisecond,
			ReconcileThreshold: 5,
			MaxPendingInputs:   60,
			MaxSnapshots:       20,
			InputRateLimit:     120,
			InputRateBurst:     240,
		},
		Weapons: map[string]WeaponConfig{
			"pistol": {
				Damage:       10,
				FireInterval: 400 * time.Millisecond,
				Range:        300,
				MagazineSize: 12,
				ReloadTime:   2 * time.Second,
				BulletSpeed:  800,
				Pellets:      1,
			},
			"smg": {
				Damage:       7,
				FireInterval: 100 * time.Millisecond,
				Range:        200,
				MagazineSize: 30,
				ReloadTime:   2 * time.Second,
				BulletSpeed:  800,
				Pellets:      1,
			},
			"rifle": {
				Damage:       18,
				FireInterval: 600 * time.Millisecond,
				Range:        500,
				MagazineSize: 8,
				ReloadTime:   2500 * time.Millisecond,
				BulletSpeed:  800,
				Pellets:      1,
			},
			"shotgun": {
				Damage:       25,
				FireInterval: time.Second,
				Range:        100,
				MagazineSize: 6,
				ReloadTime:   3 * time.Second,
				BulletSpeed:  800,
				Pellets:      5,
				SpreadStep:   0.15,
			},
		},
		Characters: map[string]CharacterConfig{
			"assault": {
				MaxHP:         100,
				SpeedModifier: 1.05,
				Skill:         SkillDash,
				SkillCooldown: 5 * time.Second,
			},
			"tank": {
				MaxHP:         130,
				SpeedModifier: 0.9,
				Skill:         SkillShield,
				SkillCooldown: 8 * time.Second,
			},
			"ranger": {
				MaxHP:         100,
				SpeedModifier: 1.0,
				Skill:         SkillBackflip,
				SkillCooldown: 6 * time.Second,
			},
			"medic": {
				MaxHP:         100,
				SpeedModifier: 1.0,
				Skill:         SkillHealAura,
				SkillCooldown: 10 * time.Second,
			},
		},
		Zone: ZoneConfig{
			Phases: []ZonePhase{
				{Time: 0, RadiusFrac: 1.0, DamagePerSec: 0},
				{Time: time.Minute, RadiusFrac: 0.7, DamagePerSec: 3},
				{Time: 2 * time.Minute, RadiusFrac: 0.4, DamagePerSec: 6},
				{Time: 3 * time.Minute, RadiusFrac: 0.15, DamagePerSec: 10},
				{Time: 4 * time.Minute, RadiusFrac: 0.05, DamagePerSec: 15},
			},
			ShrinkDuration: 10 * time.Second,
		},
	}
}

// fileConfig mirrors Config with string skill names and millisecond
// durations so the overlay file stays readable.
type fileConfig struct {
	Game struct {
		MapWidth       float64
		MapHeight      float64
		PlayerSpeed    float64
		MinPlayers     int
		MaxPlayers     int
		TickRate       int
		ItemIntervalMs int64
	}
	Net struct {
		Address        string
		OriginPatterns []string
	}
	Characters map[string]struct {
		MaxHP         float64
		SpeedModifier float64
		Skill         string
		CooldownMs    int64
	}
}

// Load overlays cfg with values from a TOML file. A missing file leaves the
// defaults untouched.
func Load(cfg *Config, fileName string) error {
	file, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var fc fileConfig
	if err := toml.Unmarshal(file, &fc); err != nil {
		return err
	}

	if fc.Game.MapWidth > 0 {
		cfg.Game.MapWidth = fc.Game.MapWidth
	}
	if fc.Game.MapHeight > 0 {
		cfg.Game.MapHeight = fc.Game.MapHeight
	}
	if fc.Game.PlayerSpeed > 0 {
		cfg.Game.PlayerSpeed = fc.Game.PlayerSpeed
	}
	if fc.Game.MinPlayers > 0 {
		cfg.Game.MinPlayers = fc.Game.MinPlayers
	}
	if fc.Game.MaxPlayers > 0 {
		cfg.Game.MaxPlayers = fc.Game.MaxPlayers
	}
	if fc.Game.TickRate > 0 {
		cfg.Game.TickRate = fc.Game.TickRate
	}
	if fc.Game.ItemIntervalMs > 0 {
		cfg.Game.ItemInterval = time.Duration(fc.Game.ItemIntervalMs) * time.Millisecond
	}
	if fc.Net.Address != "" {
		cfg.Net.Address = fc.Net.Address
	}
	if len(fc.Net.OriginPatterns) > 0 {
		cfg.Net.OriginPatterns = fc.Net.OriginPatterns
	}
	for name, c := range fc.Characters {
		character := cfg.Characters[name]
		if c.MaxHP > 0 {
			character.MaxHP = c.MaxHP
		}
		if c.SpeedModifier > 0 {
			character.SpeedModifier = c.SpeedModifier
		}
		if c.Skill != "" {
			kind, err := ParseSkill(c.Skill)
			if err != nil {
				return err
			}
			character.Skill = kind
		}
		if c.CooldownMs > 0 {
			character.SkillCooldown = time.Duration(c.CooldownMs) * time.Millisecond
		}
		cfg.Characters[name] = character
	}
	return nil
}

// TickInterval is the wall duration of one simulation tick.
func (g *GameConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(g.TickRate)
}

// TickDelta is one tick in seconds, the dt both sides feed StepMove.
func (g *GameConfig) TickDelta() float64 {
	return 1.0 / float64(g.TickRate)
}

// WeaponNames returns the configured weapon names in sorted order.
func (c *Config) WeaponNames() []string {
	names := make([]string, 0, len(c.Weapons))
	for name := range c.Weapons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CharacterNames returns the configured character names in sorted order.
func (c *Config) CharacterNames() []string {
	names := make([]string, 0, len(c.Characters))
	for name := range c.Characters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
