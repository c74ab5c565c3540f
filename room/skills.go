package room

import (
	"math"
	"time"

	"arenagame/config"
	"arenagame/world"
)

const (
	dashDistance     = 150.0
	backflipDistance = 80.0

	dashInvincibility     = 200 * time.Millisecond
	backflipInvincibility = 300 * time.Millisecond
	shieldInvincibility   = 3 * time.Second

	healPulseHP    = 10.0
	healPulseCount = 5
)

// activeSkill resolves which skill a player currently carries: an item
// pickup overrides the character's own.
func (r *Room) activeSkill(player *world.Player) config.SkillKind {
	if player.ItemSkill != "" {
		if kind, err := config.ParseSkill(player.ItemSkill); err == nil {
			return kind
		}
	}
	return r.cfg.Characters[player.Character].Skill
}

func (r *Room) handleSkill(id string, angle float64) {
	player, ok := r.players[id]
	if !ok || !player.IsAlive {
		return
	}
	if player.SkillCooldownMs > 0 {
		return
	}

	charCfg := r.cfg.Characters[player.Character]
	kind := r.activeSkill(player)
	player.SkillCooldownMs = float64(charCfg.SkillCooldown.Milliseconds())

	r.out.Broadcast(world.MustFrame(world.MsgSkillEvent, world.SkillEvent{
		PlayerID: id,
		Skill:    kind.String(),
		Angle:    angle,
	}))

	switch kind {
	case config.SkillDash:
		r.reposition(player, angle, dashDistance)
		r.grantInvincibility(id, dashInvincibility)
	case config.SkillBackflip:
		r.reposition(player, angle, -backflipDistance)
		r.grantInvincibility(id, backflipInvincibility)
	case config.SkillShield:
		r.grantInvincibility(id, shieldInvincibility)
	case config.SkillHealAura:
		r.startHealAura(id)
	case config.SkillNone:
	}
}

func (r *Room) reposition(player *world.Player, angle, distance float64) {
	x := player.X + math.Cos(angle)*distance
	y := player.Y + math.Sin(angle)*distance
	player.X, player.Y = world.ClampPosition(x, y, &r.cfg.Game)
}

// grantInvincibility sets the flag and schedules the clear. The clear looks
// the player up again and no-ops if they left; a fresh grant replaces any
// pending clear so a longer window cannot be cut short by an older timer.
func (r *Room) grantInvincibility(id string, d time.Duration) {
	player, ok := r.players[id]
	if !ok {
		return
	}
	player.IsInvincible = true

	rt := r.runtime[id]
	if rt.invincTimer != nil {
		rt.invincTimer.Stop()
	}
	rt.invincTimer = r.clock.After(d, func() {
		if p, ok := r.players[id]; ok {
			p.IsInvincible = false
		}
	})
}

// startHealAura pulses +10 hp once a second, five times. Each pulse
// re-checks the player still exists and is alive.
func (r *Room) startHealAura(id string) {
	rt := r.runtime[id]
	if rt.healTimer != nil {
		rt.healTimer.Stop()
	}
	rt.healTimer = r.clock.Every(time.Second, healPulseCount, func() {
		player, ok := r.players[id]
		if !ok || !player.IsAlive {
			return
		}
		player.HP += healPulseHP
		if player.HP > player.MaxHP {
			player.HP = player.MaxHP
		}
	})
}
