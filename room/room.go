package room

import (
	"log"
	"math/rand"
	"sort"
	"time"

	"arenagame/config"
	"arenagame/world"
)

// Phase is the match lifecycle. It only moves forward.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseStarting Phase = "starting"
	PhasePlaying  Phase = "playing"
	PhaseEnded    Phase = "ended"
)

// Broadcaster is the room's one-way view of the transport: a room-scoped
// broadcast plus a per-player send. The websocket layer implements it for
// production; tests plug in a recorder.
type Broadcaster interface {
	Broadcast(frame world.Frame)
	Send(playerID string, frame world.Frame)
}

// Commands posted to the room's inbox. Everything that mutates canonical
// state arrives here and is handled on the room goroutine.
type Join struct {
	PlayerID  string
	Name      string
	Character string
	Reply     chan<- JoinResult
}

type JoinResult struct {
	OK      bool
	Reason  string
	Welcome world.Welcome
}

type Leave struct {
	PlayerID string
}

type ClientFrame struct {
	PlayerID string
	Frame    world.Frame
}

// InfoRequest asks for a status snapshot on the room goroutine, so readers
// outside it never touch simulation state directly.
type InfoRequest struct {
	Reply chan<- Info
}

type Info struct {
	Code     string `json:"code"`
	Phase    string `json:"phase"`
	Players  int    `json:"players"`
	Joinable bool   `json:"joinable"`
}

// playerRuntime is per-player server-only state that never goes over the
// wire: fire gating and the player's pending timers.
type playerRuntime struct {
	nextFireAt  time.Duration
	reloadTimer *Timer
	invincTimer *Timer
	healTimer   *Timer
}

// Room is the authoritative simulation for one match. A single goroutine
// runs Run, draining the inbox and the tick ticker from one select, so all
// canonical state mutation is serialized by construction.
type Room struct {
	Inbox chan interface{}

	Code    string
	OnEmpty func(code string)

	cfg   *config.Config
	out   Broadcaster
	clock *Clock
	rng   *rand.Rand

	phase     Phase
	countdown int
	elapsed   time.Duration

	players map[string]*world.Player
	runtime map[string]*playerRuntime
	items   map[string]*world.Item
	bullets map[string]*serverBullet
	zone    world.SafeZone

	alivePlayers int
	ended        bool
	quit         chan struct{}
}

func New(cfg *config.Config, out Broadcaster, seed int64) *Room {
	return &Room{
		Inbox:   make(chan interface{}, 256),
		cfg:     cfg,
		out:     out,
		clock:   NewClock(),
		rng:     rand.New(rand.NewSource(seed)),
		phase:   PhaseWaiting,
		players: make(map[string]*world.Player),
		runtime: make(map[string]*playerRuntime),
		items:   make(map[string]*world.Item),
		bullets: make(map[string]*serverBullet),
		zone:    world.NewSafeZone(&cfg.Game),
		quit:    make(chan struct{}),
	}
}

func (r *Room) Stop() {
	close(r.quit)
}

func (r *Room) NumPlayers() int {
	return len(r.players)
}

func (r *Room) Phase() Phase {
	return r.phase
}

// Joinable reports whether the matchmaker may route new players here.
func (r *Room) Joinable() bool {
	return r.phase == PhaseWaiting && len(r.players) < r.cfg.Game.MaxPlayers
}

// Run drives the room until Stop. Inbox commands and ticks interleave on
// this goroutine only.
func (r *Room) Run() {
	interval := r.cfg.Game.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case now := <-ticker.C:
			dt := now.Sub(last)
			if dt <= 0 {
				dt = interval
			}
			if dt > 2*interval {
				log.Printf("room %s: slow tick %v", r.Code, dt)
			}
			last = now
			r.step(dt)
		}
	}
}

func (r *Room) handleCommand(cmd interface{}) {
	switch c := cmd.(type) {
	case Join:
		c.Reply <- r.join(c.PlayerID, c.Name, c.Character)
	case Leave:
		r.leave(c.PlayerID)
	case ClientFrame:
		r.handleFrame(c.PlayerID, c.Frame)
	case InfoRequest:
		c.Reply <- Info{
			Code:     r.Code,
			Phase:    string(r.phase),
			Players:  len(r.players),
			Joinable: r.Joinable(),
		}
	}
}

// step advances the room by one tick: timers first, then the fixed
// simulation pipeline, then the state broadcast.
func (r *Room) step(dt time.Duration) {
	r.clock.Advance(dt)

	if r.phase == PhasePlaying {
		r.elapsed += dt
		dtSec := dt.Seconds()

		r.updateBullets(dtSec)
		r.updateItemPickups()
		r.zone.Advance(r.elapsed, dtSec, &r.cfg.Game, &r.cfg.Zone)
		r.updateCooldowns(dt)
		r.applyZoneDamage(dtSec)
		r.checkGameEnd()
	}

	r.broadcastState()
}

func (r *Room) join(id, name, character string) JoinResult {
	if r.phase != PhaseWaiting {
		return JoinResult{Reason: "match already started"}
	}
	if len(r.players) >= r.cfg.Game.MaxPlayers {
		return JoinResult{Reason: "room full"}
	}
	if _, ok := r.players[id]; ok {
		return JoinResult{Reason: "already joined"}
	}

	charCfg, ok := r.cfg.Characters[character]
	if !ok {
		character = "assault"
		charCfg = r.cfg.Characters[character]
	}
	if name == "" {
		short := id
		if len(short) > 4 {
			short = short[:4]
		}
		name = "Player_" + short
	}

	spawn := r.randomSpawnPoint()
	r.players[id] = &world.Player{
		ID:        id,
		Name:      name,
		Character: character,
		X:         spawn.X,
		Y:         spawn.Y,
		HP:        charCfg.MaxHP,
		MaxHP:     charCfg.MaxHP,
		IsAlive:   true,
		Weapon:    "pistol",
		Ammo:      r.cfg.Weapons["pistol"].MagazineSize,
	}
	r.runtime[id] = &playerRuntime{}
	r.alivePlayers = r.countAlive()

	r.checkGameStart()

	return JoinResult{
		OK: true,
		Welcome: world.Welcome{
			PlayerID:      id,
			MapWidth:      r.cfg.Game.MapWidth,
			MapHeight:     r.cfg.Game.MapHeight,
			PlayerHalf:    r.cfg.Game.PlayerHalf,
			PlayerSpeed:   r.cfg.Game.PlayerSpeed,
			SpeedModifier: charCfg.SpeedModifier,
			TickRate:      r.cfg.Game.TickRate,
		},
	}
}

func (r *Room) leave(id string) {
	player, ok := r.players[id]
	if !ok {
		return
	}
	if rt := r.runtime[id]; rt != nil {
		rt.stopTimers()
	}
	player.IsAlive = false
	delete(r.players, id)
	delete(r.runtime, id)
	r.alivePlayers = r.countAlive()

	// A match can end because the last opponent disconnected.
	r.checkGameEnd()

	if len(r.players) == 0 && r.OnEmpty != nil && r.Code != "" {
		r.OnEmpty(r.Code)
	}
}

func (rt *playerRuntime) stopTimers() {
	if rt.reloadTimer != nil {
		rt.reloadTimer.Stop()
	}
	if rt.invincTimer != nil {
		rt.invincTimer.Stop()
	}
	if rt.healTimer != nil {
		rt.healTimer.Stop()
	}
}

func (r *Room) handleFrame(id string, frame world.Frame) {
	switch frame.Type {
	case world.MsgInput:
		var msg world.InputMessage
		if err := frame.Decode(&msg); err != nil {
			return
		}
		r.handleInput(id, msg)
	case world.MsgShoot:
		var msg world.ShootMessage
		if err := frame.Decode(&msg); err != nil {
			return
		}
		r.handleShoot(id, msg.Angle)
	case world.MsgSkill:
		var msg world.SkillMessage
		if err := frame.Decode(&msg); err != nil {
			return
		}
		r.handleSkill(id, msg.Angle)
	case world.MsgReload:
		r.handleReload(id)
	case world.MsgChat:
		var msg world.ChatMessage
		if err := frame.Decode(&msg); err != nil {
			return
		}
		r.handleChat(id, msg.Text)
	}
}

// handleInput applies one movement intent immediately, using the same
// per-tick kinematic step the client's prediction replays.
func (r *Room) handleInput(id string, msg world.InputMessage) {
	player, ok := r.players[id]
	if !ok || !player.IsAlive {
		return
	}

	charCfg := r.cfg.Characters[player.Character]
	speed := r.cfg.Game.PlayerSpeed * charCfg.SpeedModifier
	player.X, player.Y = world.StepMove(
		player.X, player.Y, msg.Dx, msg.Dy, speed, r.cfg.Game.TickDelta(), &r.cfg.Game)
	player.Angle = msg.Angle
	if msg.Seq > player.LastInputSeq {
		player.LastInputSeq = msg.Seq
	}

	if msg.Shooting {
		r.handleShoot(id, msg.Angle)
	}
	if msg.Skill {
		r.handleSkill(id, msg.Angle)
	}
}

func (r *Room) handleShoot(id string, angle float64) {
	player, ok := r.players[id]
	if !ok || !player.IsAlive {
		return
	}
	if player.IsReloading || player.Ammo <= 0 {
		return
	}
	weapon, ok := r.cfg.Weapons[player.Weapon]
	if !ok {
		return
	}
	rt := r.runtime[id]
	if r.clock.Now() < rt.nextFireAt {
		return
	}
	rt.nextFireAt = r.clock.Now() + weapon.FireInterval

	player.Ammo--
	r.spawnBullets(player, angle, &weapon)

	r.out.Broadcast(world.MustFrame(world.MsgBulletEvent, world.BulletEvent{
		OwnerID: id,
		X:       player.X,
		Y:       player.Y,
		Angle:   angle,
		Weapon:  player.Weapon,
	}))
}

func (r *Room) handleReload(id string) {
	player, ok := r.players[id]
	if !ok || !player.IsAlive {
		return
	}
	weapon, ok := r.cfg.Weapons[player.Weapon]
	if !ok {
		return
	}
	if player.IsReloading || player.Ammo >= weapon.MagazineSize {
		return
	}

	player.IsReloading = true
	weaponName := player.Weapon
	rt := r.runtime[id]
	rt.reloadTimer = r.clock.After(weapon.ReloadTime, func() {
		p, ok := r.players[id]
		if !ok {
			return
		}
		p.IsReloading = false
		// A weapon swapped mid-reload already got a fresh magazine.
		if p.IsAlive && p.Weapon == weaponName {
			p.Ammo = weapon.MagazineSize
		}
	})
}

func (r *Room) handleChat(id, text string) {
	player, ok := r.players[id]
	if !ok || text == "" {
		return
	}
	r.out.Broadcast(world.MustFrame(world.MsgChatRelay, world.ChatRelay{
		PlayerID: id,
		Name:     player.Name,
		Text:     text,
	}))
}

// applyDamage is the single hp mutation point. Every hit broadcasts a
// damage event; lethal hits fall through to killPlayer.
func (r *Room) applyDamage(victimID, attackerID string, damage float64) {
	victim, ok := r.players[victimID]
	if !ok || !victim.IsAlive {
		return
	}

	victim.HP -= damage
	if victim.HP < 0 {
		victim.HP = 0
	}
	if attacker, ok := r.players[attackerID]; ok && attackerID != world.ZoneKillerID {
		attacker.DamageDealt += damage
	}

	r.out.Broadcast(world.MustFrame(world.MsgDamage, world.DamageEvent{
		VictimID:    victimID,
		AttackerID:  attackerID,
		Damage:      damage,
		RemainingHP: victim.HP,
	}))

	if victim.HP <= 0 {
		r.killPlayer(victimID, attackerID)
	}
}

// killPlayer marks the victim dead exactly once and credits the killer.
func (r *Room) killPlayer(victimID, killerID string) {
	victim, ok := r.players[victimID]
	if !ok || !victim.IsAlive {
		return
	}

	victim.IsAlive = false
	r.alivePlayers = r.countAlive()

	if killerID != world.ZoneKillerID {
		if killer, ok := r.players[killerID]; ok {
			killer.Kills++
		}
	}

	r.out.Broadcast(world.MustFrame(world.MsgKill, world.KillEvent{
		KillerID:   killerID,
		VictimID:   victimID,
		VictimName: victim.Name,
	}))
}

func (r *Room) updateCooldowns(dt time.Duration) {
	ms := float64(dt.Milliseconds())
	for _, player := range r.players {
		if player.SkillCooldownMs > 0 {
			player.SkillCooldownMs -= ms
			if player.SkillCooldownMs < 0 {
				player.SkillCooldownMs = 0
			}
		}
	}
}

func (r *Room) applyZoneDamage(dtSec float64) {
	if r.zone.DamagePerSec <= 0 {
		return
	}
	for _, id := range r.sortedPlayerIDs() {
		player := r.players[id]
		if !player.IsAlive {
			continue
		}
		if r.zone.Contains(player.Position()) {
			continue
		}
		r.applyDamage(id, world.ZoneKillerID, r.zone.DamagePerSec*dtSec)
	}
}

func (r *Room) checkGameStart() {
	if r.phase != PhaseWaiting {
		return
	}
	if len(r.players) < r.cfg.Game.MinPlayers {
		return
	}

	r.phase = PhaseStarting
	r.countdown = r.cfg.Game.CountdownSecs
	r.clock.Every(time.Second, r.countdown, func() {
		r.countdown--
		if r.countdown <= 0 {
			r.startGame()
		}
	})
}

func (r *Room) startGame() {
	if r.phase != PhaseStarting {
		return
	}
	r.phase = PhasePlaying
	r.countdown = 0
	r.elapsed = 0
	r.spawnInitialItems()

	r.clock.Every(r.cfg.Game.ItemInterval, -1, func() {
		if r.phase == PhasePlaying {
			r.spawnItem()
		}
	})
}

func (r *Room) checkGameEnd() {
	if r.phase != PhasePlaying || r.ended {
		return
	}
	if r.alivePlayers <= 1 {
		r.endGame()
	}
}

func (r *Room) endGame() {
	r.phase = PhaseEnded
	r.ended = true
	r.out.Broadcast(world.MustFrame(world.MsgGameEnd, world.GameEndEvent{
		Rankings: r.rankings(),
	}))
}

// rankings: the sole survivor is rank 1, everyone else is ordered by kills
// descending with name as the deterministic tie break.
func (r *Room) rankings() []world.Ranking {
	var survivor *world.Player
	rest := make([]*world.Player, 0, len(r.players))
	for _, player := range r.players {
		if player.IsAlive && survivor == nil {
			survivor = player
			continue
		}
		rest = append(rest, player)
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].Kills != rest[j].Kills {
			return rest[i].Kills > rest[j].Kills
		}
		return rest[i].Name < rest[j].Name
	})

	rankings := make([]world.Ranking, 0, len(r.players))
	rank := 1
	if survivor != nil {
		rankings = append(rankings, world.Ranking{
			ID: survivor.ID, Name: survivor.Name, Kills: survivor.Kills, Rank: rank,
		})
		rank++
	}
	for _, player := range rest {
		rankings = append(rankings, world.Ranking{
			ID: player.ID, Name: player.Name, Kills: player.Kills, Rank: rank,
		})
		rank++
	}
	return rankings
}

func (r *Room) broadcastState() {
	players := make(map[string]world.Player, len(r.players))
	for id, player := range r.players {
		players[id] = *player
	}
	items := make(map[string]world.Item, len(r.items))
	for id, item := range r.items {
		items[id] = *item
	}
	r.out.Broadcast(world.MustFrame(world.MsgState, world.StateMessage{
		Phase:      string(r.phase),
		Countdown:  r.countdown,
		ElapsedMs:  r.elapsed.Milliseconds(),
		Players:    players,
		Items:      items,
		SafeZone:   r.zone,
		ServerTime: time.Now().UnixMilli(),
	}))
}

func (r *Room) randomSpawnPoint() world.Vector {
	margin := r.cfg.Game.SpawnMargin
	return world.Vector{
		X: margin + r.rng.Float64()*(r.cfg.Game.MapWidth-2*margin),
		Y: margin + r.rng.Float64()*(r.cfg.Game.MapHeight-2*margin),
	}
}

func (r *Room) countAlive() int {
	count := 0
	for _, player := range r.players {
		if player.IsAlive {
			count++
		}
	}
	return count
}

// sortedPlayerIDs gives a stable iteration order so contested hits resolve
// the same way on every run.
func (r *Room) sortedPlayerIDs() []string {
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
