package room

import (
	"sort"

	"arenagame/world"

	"github.com/segmentio/ksuid"
)

func (r *Room) spawnInitialItems() {
	for i := 0; i < r.cfg.Game.InitialItems; i++ {
		r.spawnItem()
	}
}

// spawnItem drops a random weapon or skill pickup somewhere inside the
// spawn margin. Ids are fresh ksuids; a consumed item never comes back.
func (r *Room) spawnItem() {
	itemType := world.ItemTypeWeapon
	var subType string
	if r.rng.Float64() < 0.7 {
		// Weapon drops exclude the starting pistol.
		weapons := []string{"rifle", "shotgun", "smg"}
		subType = weapons[r.rng.Intn(len(weapons))]
	} else {
		itemType = world.ItemTypeSkill
		skills := []string{"backflip", "dash", "healAura", "shield"}
		subType = skills[r.rng.Intn(len(skills))]
	}

	pos := r.randomSpawnPoint()
	id := ksuid.New().String()
	r.items[id] = &world.Item{
		ID:       id,
		ItemType: itemType,
		SubType:  subType,
		X:        pos.X,
		Y:        pos.Y,
		IsActive: true,
	}
}

// updateItemPickups gives each item to the first alive player inside the
// pickup radius, scanning in sorted order and deleting after the scan.
func (r *Room) updateItemPickups() {
	if len(r.items) == 0 {
		return
	}

	itemIDs := make([]string, 0, len(r.items))
	for id := range r.items {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)
	playerIDs := r.sortedPlayerIDs()

	var consumed []string
	for _, itemID := range itemIDs {
		item := r.items[itemID]
		if !item.IsActive {
			continue
		}
		for _, playerID := range playerIDs {
			player := r.players[playerID]
			if !player.IsAlive {
				continue
			}
			if item.Position().Dist(player.Position()) < r.cfg.Game.PickupRadius {
				r.pickupItem(player, item)
				item.IsActive = false
				consumed = append(consumed, itemID)
				break
			}
		}
	}

	for _, id := range consumed {
		delete(r.items, id)
	}
}

func (r *Room) pickupItem(player *world.Player, item *world.Item) {
	switch item.ItemType {
	case world.ItemTypeWeapon:
		if weapon, ok := r.cfg.Weapons[item.SubType]; ok {
			player.Weapon = item.SubType
			player.Ammo = weapon.MagazineSize
			// The new weapon arrives loaded, so a pending reload is moot.
			if rt := r.runtime[player.ID]; rt != nil && rt.reloadTimer != nil {
				rt.reloadTimer.Stop()
			}
			player.IsReloading = false
		}
	case world.ItemTypeSkill:
		// Overrides the character's own skill until another drop replaces it.
		player.ItemSkill = item.SubType
	}

	r.out.Broadcast(world.MustFrame(world.MsgPickup, world.PickupEvent{
		PlayerID: player.ID,
		ItemID:   item.ID,
		ItemType: item.ItemType,
		SubType:  item.SubType,
	}))
}
