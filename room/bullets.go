package room

import (
	"math"
	"sort"

	"arenagame/config"
	"arenagame/world"

	"github.com/segmentio/ksuid"
)

// serverBullet is the authoritative projectile. Clients render their own
// cosmetic bullets from the broadcast fire event; only these decide hits.
type serverBullet struct {
	id       string
	ownerID  string
	pos      world.Vector
	angle    float64
	speed    float64
	damage   float64
	maxRange float64
	traveled float64
}

// spawnBullets seeds one bullet per pellet at the shooter's position.
// Multi-pellet weapons fan out around the aim angle and split the damage.
func (r *Room) spawnBullets(player *world.Player, angle float64, weapon *config.WeaponConfig) {
	pellets := weapon.Pellets
	if pellets < 1 {
		pellets = 1
	}
	damage := weapon.Damage / float64(pellets)

	for i := 0; i < pellets; i++ {
		// Centered on the aim angle for both odd and even pellet counts.
		offset := (float64(i) - float64(pellets-1)/2) * weapon.SpreadStep
		id := ksuid.New().String()
		r.bullets[id] = &serverBullet{
			id:       id,
			ownerID:  player.ID,
			pos:      player.Position(),
			angle:    angle + offset,
			speed:    weapon.BulletSpeed,
			damage:   damage,
			maxRange: weapon.Range,
		}
	}
}

// updateBullets advances every live bullet, expiring on range, map bounds,
// or the first hit. Removals are collected during the scan and applied
// after it, and both bullets and players are visited in sorted id order so
// a contested tick resolves identically on every run.
func (r *Room) updateBullets(dtSec float64) {
	if len(r.bullets) == 0 {
		return
	}

	bulletIDs := make([]string, 0, len(r.bullets))
	for id := range r.bullets {
		bulletIDs = append(bulletIDs, id)
	}
	sort.Strings(bulletIDs)
	playerIDs := r.sortedPlayerIDs()

	var expired []string
	for _, id := range bulletIDs {
		bullet := r.bullets[id]

		move := bullet.speed * dtSec
		bullet.pos.X += math.Cos(bullet.angle) * move
		bullet.pos.Y += math.Sin(bullet.angle) * move
		bullet.traveled += move

		if bullet.traveled >= bullet.maxRange {
			expired = append(expired, id)
			continue
		}
		if bullet.pos.X < 0 || bullet.pos.X > r.cfg.Game.MapWidth ||
			bullet.pos.Y < 0 || bullet.pos.Y > r.cfg.Game.MapHeight {
			expired = append(expired, id)
			continue
		}

		for _, playerID := range playerIDs {
			player := r.players[playerID]
			if playerID == bullet.ownerID || !player.IsAlive || player.IsInvincible {
				continue
			}
			if bullet.pos.Dist(player.Position()) < r.cfg.Game.HitRadius {
				r.applyDamage(playerID, bullet.ownerID, bullet.damage)
				expired = append(expired, id)
				break
			}
		}
	}

	for _, id := range expired {
		delete(r.bullets, id)
	}
}
