package client

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"arenagame/config"
	"arenagame/world"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	screenWidth  = 800
	screenHeight = 600

	reconcileLerpFactor = 0.3
	reconcileSnapDist   = 0.5

	// Past this staleness the interpolation buffer has nothing fresh to
	// bracket with and we dead-reckon instead.
	extrapolateAfter = 200 * time.Millisecond
	extrapolateCap   = 250 * time.Millisecond

	killFeedMax = 6
)

// remotePlayer is a remote entity as rendered: the latest canonical state
// plus its own interpolation buffer.
type remotePlayer struct {
	state  world.Player
	interp *Interpolation
}

// cosmeticBullet is a visual-only tracer spawned from fire events. Hits are
// decided server-side; this never touches anyone.
type cosmeticBullet struct {
	pos      world.Vector
	angle    float64
	speed    float64
	traveled float64
	maxRange float64
}

// Game drives the whole client side: it drains the network inside Update so
// every mutation of prediction and interpolation state happens on the one
// frame callback.
type Game struct {
	cfg     *config.Config
	session *Session

	prediction *Prediction
	predicted  world.Vector
	aimAngle   float64

	reconciling     bool
	reconcileTarget world.Vector

	frame     uint64
	phase     string
	countdown int
	players   map[string]world.Player
	remotes   map[string]*remotePlayer
	items     map[string]world.Item
	zone      world.SafeZone

	bullets  []cosmeticBullet
	killFeed []string
	rankings []world.Ranking
	dead     bool
	over     bool
}

func NewGame(cfg *config.Config, session *Session) *Game {
	return &Game{
		cfg:        cfg,
		session:    session,
		prediction: NewPrediction(&cfg.Game, &cfg.Net),
		players:    make(map[string]world.Player),
		remotes:    make(map[string]*remotePlayer),
		items:      make(map[string]world.Item),
	}
}

func (g *Game) Update() error {
	g.drainFrames()

	if g.over {
		return nil
	}

	g.updateAim()
	if !g.dead {
		g.handleInput()
	}
	g.applyReconciliation()
	g.advanceBullets(1.0 / 60.0)
	return nil
}

// drainFrames applies every pending server frame. Never blocks; an empty
// channel just means nothing new this frame.
func (g *Game) drainFrames() {
	for {
		select {
		case frame, ok := <-g.session.Frames():
			if !ok {
				g.over = true
				return
			}
			g.handleFrame(frame)
		default:
			return
		}
	}
}

func (g *Game) handleFrame(frame world.Frame) {
	switch frame.Type {
	case world.MsgState:
		var state world.StateMessage
		if frame.Decode(&state) != nil {
			return
		}
		g.applyState(state)
	case world.MsgBulletEvent:
		var ev world.BulletEvent
		if frame.Decode(&ev) != nil {
			return
		}
		g.spawnCosmeticBullet(ev)
	case world.MsgKill:
		var ev world.KillEvent
		if frame.Decode(&ev) != nil {
			return
		}
		killer := ev.KillerID
		if p, ok := g.players[ev.KillerID]; ok {
			killer = p.Name
		}
		g.pushFeed(fmt.Sprintf("%s > %s", killer, ev.VictimName))
		if ev.VictimID == g.session.Welcome.PlayerID {
			g.dead = true
		}
	case world.MsgPickup:
		var ev world.PickupEvent
		if frame.Decode(&ev) != nil {
			return
		}
		if ev.PlayerID == g.session.Welcome.PlayerID {
			g.pushFeed("picked up " + ev.SubType)
		}
	case world.MsgChatRelay:
		var ev world.ChatRelay
		if frame.Decode(&ev) != nil {
			return
		}
		g.pushFeed(ev.Name + ": " + ev.Text)
	case world.MsgGameEnd:
		var ev world.GameEndEvent
		if frame.Decode(&ev) != nil {
			return
		}
		g.rankings = ev.Rankings
		g.over = true
	}
}

// applyState reconciles the local avatar against the authoritative snapshot
// and feeds every remote player's pose into its interpolation buffer.
func (g *Game) applyState(state world.StateMessage) {
	g.phase = state.Phase
	g.countdown = state.Countdown
	g.items = state.Items
	g.zone = state.SafeZone
	g.players = state.Players

	selfID := g.session.Welcome.PlayerID
	for id, player := range state.Players {
		if id == selfID {
			g.reconcileSelf(player)
			continue
		}
		remote, ok := g.remotes[id]
		if !ok {
			remote = &remotePlayer{interp: NewInterpolation(&g.cfg.Net)}
			g.remotes[id] = remote
		}
		remote.state = player
		remote.interp.AddSnapshot(player.X, player.Y, player.Angle, time.Time{})
	}
	for id := range g.remotes {
		if _, ok := state.Players[id]; !ok {
			delete(g.remotes, id)
		}
	}
}

func (g *Game) reconcileSelf(server world.Player) {
	if g.predicted == (world.Vector{}) {
		// First snapshot: adopt the spawn outright.
		g.predicted = world.Vector{X: server.X, Y: server.Y}
		return
	}

	ack := ServerAck{X: server.X, Y: server.Y, Sequence: server.LastInputSeq}
	if !g.prediction.NeedsReconciliation(g.predicted.X, g.predicted.Y, server.X, server.Y) {
		g.prediction.DropAcknowledged(ack.Sequence)
		return
	}

	x, y := g.prediction.Reconcile(ack, g.localSpeed(), g.tickDelta())
	g.reconcileTarget = world.Vector{X: x, Y: y}
	g.reconciling = true
}

// applyReconciliation absorbs a pending correction over several frames
// rather than snapping.
func (g *Game) applyReconciliation() {
	if !g.reconciling {
		return
	}
	g.predicted.X, g.predicted.Y = g.prediction.SmoothReconcile(
		g.predicted.X, g.predicted.Y, g.reconcileTarget.X, g.reconcileTarget.Y, reconcileLerpFactor)
	if g.predicted.Dist(g.reconcileTarget) < reconcileSnapDist {
		g.predicted = g.reconcileTarget
		g.reconciling = false
	}
}

func (g *Game) updateAim() {
	cx, cy := ebiten.CursorPosition()
	sx, sy := g.worldToScreen(g.predicted.X, g.predicted.Y)
	g.aimAngle = math.Atan2(float64(cy)-sy, float64(cx)-sx)
}

// handleInput samples the keyboard, applies local prediction immediately,
// and ships the intent to the server. Movement intents are sampled at the
// input send rate because each one advances the server by one tick delta;
// sampling faster would make prediction and the server disagree on speed.
func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.send(world.MsgSkill, world.SkillMessage{Angle: g.aimAngle})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.send(world.MsgReload, struct{}{})
	}

	divisor := 1
	if rate := g.cfg.Net.ClientSendRate; rate > 0 && rate < 60 {
		divisor = 60 / rate
	}
	g.frame++
	if g.frame%divisor != 0 {
		return
	}

	var dx, dy float64
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		dx--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		dx++
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		dy--
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		dy++
	}
	if dx != 0 && dy != 0 {
		// Normalize here; the server applies intents as sent.
		inv := 1 / math.Sqrt2
		dx *= inv
		dy *= inv
	}

	seq := g.prediction.Sequence()
	if dx != 0 || dy != 0 {
		input := g.prediction.RecordInput(dx, dy, g.predicted.X, g.predicted.Y)
		seq = input.Sequence
		g.predicted.X, g.predicted.Y = world.StepMove(
			g.predicted.X, g.predicted.Y, dx, dy, g.localSpeed(), g.tickDelta(), &g.cfg.Game)
	}

	g.send(world.MsgInput, world.InputMessage{
		Dx:       dx,
		Dy:       dy,
		Angle:    g.aimAngle,
		Shooting: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Seq:      seq,
	})
}

func (g *Game) send(msgType string, payload interface{}) {
	frame, err := world.NewFrame(msgType, payload)
	if err != nil {
		return
	}
	if err := g.session.Send(frame); err != nil {
		g.over = true
	}
}

func (g *Game) spawnCosmeticBullet(ev world.BulletEvent) {
	if ev.OwnerID == g.session.Welcome.PlayerID {
		// Our own muzzle flash is drawn at fire time, not on the echo.
		return
	}
	weapon, ok := g.cfg.Weapons[ev.Weapon]
	if !ok {
		return
	}
	g.bullets = append(g.bullets, cosmeticBullet{
		pos:      world.Vector{X: ev.X, Y: ev.Y},
		angle:    ev.Angle,
		speed:    weapon.BulletSpeed,
		maxRange: weapon.Range,
	})
}

func (g *Game) advanceBullets(dt float64) {
	alive := g.bullets[:0]
	for _, b := range g.bullets {
		move := b.speed * dt
		b.pos.X += math.Cos(b.angle) * move
		b.pos.Y += math.Sin(b.angle) * move
		b.traveled += move
		if b.traveled < b.maxRange {
			alive = append(alive, b)
		}
	}
	g.bullets = alive
}

func (g *Game) pushFeed(line string) {
	g.killFeed = append(g.killFeed, line)
	if len(g.killFeed) > killFeedMax {
		g.killFeed = g.killFeed[len(g.killFeed)-killFeedMax:]
	}
}

func (g *Game) localSpeed() float64 {
	return g.session.Welcome.PlayerSpeed * g.session.Welcome.SpeedModifier
}

func (g *Game) tickDelta() float64 {
	return 1.0 / float64(g.session.Welcome.TickRate)
}

func (g *Game) worldToScreen(x, y float64) (float64, float64) {
	return x - g.predicted.X + screenWidth/2, y - g.predicted.Y + screenHeight/2
}

// remotePose picks the render pose for one remote player: interpolated
// while snapshots are fresh, extrapolated through a brief gap.
func (g *Game) remotePose(remote *remotePlayer) (PositionSnapshot, bool) {
	latest, ok := remote.interp.Latest()
	if !ok {
		return PositionSnapshot{}, false
	}
	stale := time.Since(latest.Timestamp)
	if stale > extrapolateAfter {
		if stale > extrapolateCap {
			stale = extrapolateCap
		}
		return remote.interp.ExtrapolatedAt(stale)
	}
	return remote.interp.InterpolatedAt(time.Time{})
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{24, 28, 34, 255})

	g.drawZone(screen)
	g.drawItems(screen)
	g.drawPlayers(screen)
	g.drawBullets(screen)
	g.drawHUD(screen)
}

func (g *Game) drawZone(screen *ebiten.Image) {
	const segments = 64
	for i := 0; i < segments; i++ {
		a0 := float64(i) / segments * 2 * math.Pi
		a1 := float64(i+1) / segments * 2 * math.Pi
		x0, y0 := g.worldToScreen(g.zone.X+math.Cos(a0)*g.zone.CurrentRadius, g.zone.Y+math.Sin(a0)*g.zone.CurrentRadius)
		x1, y1 := g.worldToScreen(g.zone.X+math.Cos(a1)*g.zone.CurrentRadius, g.zone.Y+math.Sin(a1)*g.zone.CurrentRadius)
		ebitenutil.DrawLine(screen, x0, y0, x1, y1, color.RGBA{90, 160, 255, 255})
	}
}

func (g *Game) drawItems(screen *ebiten.Image) {
	for _, item := range g.items {
		x, y := g.worldToScreen(item.X, item.Y)
		c := color.RGBA{240, 200, 60, 255}
		if item.ItemType == world.ItemTypeSkill {
			c = color.RGBA{160, 90, 240, 255}
		}
		ebitenutil.DrawRect(screen, x-6, y-6, 12, 12, c)
	}
}

func (g *Game) drawPlayers(screen *ebiten.Image) {
	half := g.cfg.Game.PlayerHalf

	for _, remote := range g.remotes {
		pose, ok := g.remotePose(remote)
		if !ok || !remote.state.IsAlive {
			continue
		}
		x, y := g.worldToScreen(pose.X, pose.Y)
		ebitenutil.DrawRect(screen, x-half, y-half, half*2, half*2, color.RGBA{210, 80, 80, 255})
		ebitenutil.DrawLine(screen, x, y, x+math.Cos(pose.Rotation)*half*2, y+math.Sin(pose.Rotation)*half*2, color.White)
		g.drawHPBar(screen, x, y-half-8, remote.state.HP, remote.state.MaxHP)
		ebitenutil.DebugPrintAt(screen, remote.state.Name, int(x-half), int(y+half)+2)
	}

	if self, ok := g.players[g.session.Welcome.PlayerID]; ok && self.IsAlive {
		x, y := g.worldToScreen(g.predicted.X, g.predicted.Y)
		ebitenutil.DrawRect(screen, x-half, y-half, half*2, half*2, color.RGBA{90, 200, 120, 255})
		ebitenutil.DrawLine(screen, x, y, x+math.Cos(g.aimAngle)*half*2, y+math.Sin(g.aimAngle)*half*2, color.White)
		g.drawHPBar(screen, x, y-half-8, self.HP, self.MaxHP)
	}
}

func (g *Game) drawHPBar(screen *ebiten.Image, x, y, hp, maxHP float64) {
	const width = 32.0
	ebitenutil.DrawRect(screen, x-width/2, y, width, 4, color.RGBA{60, 60, 60, 255})
	if maxHP > 0 {
		ebitenutil.DrawRect(screen, x-width/2, y, width*hp/maxHP, 4, color.RGBA{90, 220, 90, 255})
	}
}

func (g *Game) drawBullets(screen *ebiten.Image) {
	for _, b := range g.bullets {
		x, y := g.worldToScreen(b.pos.X, b.pos.Y)
		ebitenutil.DrawRect(screen, x-2, y-2, 4, 4, color.RGBA{255, 240, 160, 255})
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	self := g.players[g.session.Welcome.PlayerID]
	status := fmt.Sprintf("%s  hp:%0.0f  ammo:%d  %s  tps:%0.0f",
		g.phase, self.HP, self.Ammo, self.Weapon, ebiten.CurrentTPS())
	if g.phase == "starting" {
		status += fmt.Sprintf("  starting in %d", g.countdown)
	}
	ebitenutil.DebugPrint(screen, status)

	for i, line := range g.killFeed {
		ebitenutil.DebugPrintAt(screen, line, 8, 24+i*14)
	}

	if g.over {
		for i, rank := range g.rankings {
			line := fmt.Sprintf("#%d %s  kills:%d", rank.Rank, rank.Name, rank.Kills)
			ebitenutil.DebugPrintAt(screen, line, screenWidth/2-60, screenHeight/3+i*16)
		}
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}
