package ui

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/mirefall/mirefall/internal/game/combat"
	"github.com/mirefall/mirefall/internal/game/content"
	"github.com/mirefall/mirefall/internal/game/explore"
	"github.com/mirefall/mirefall/internal/game/world"
)

// logLimit is how many combat log lines stay visible.
const logLimit = 8

// Terminal is the tcell frontend. It implements explore.UI: exploration
// input and rendering, the combat Presenter, and the human combat
// Controller.
//
// All game-facing methods are called from the single game goroutine; Run
// owns the event loop on its own goroutine and only feeds the key channel.
// The mutex covers the view state both sides touch on resize redraws.
type Terminal struct {
	screen   *Screen
	registry *content.Registry
	logger   *zap.Logger

	keys chan *tcell.EventKey
	stop chan struct{}

	mu       sync.Mutex
	view     explore.View
	message  string
	inCombat bool
	allies   []*combat.Combatant
	enemies  []*combat.Combatant
	log      []string
	lastHit  string
	menu     *menuView
}

// menuView is the currently open selection menu, kept so redraws can
// reproduce it.
type menuView struct {
	title string
	items []string
	index int
}

// NewTerminal initializes the terminal frontend.
//
// Precondition: registry must be frozen; logger must be non-nil.
func NewTerminal(registry *content.Registry, logger *zap.Logger) (*Terminal, error) {
	screen, err := NewScreen()
	if err != nil {
		return nil, fmt.Errorf("ui: initializing screen: %w", err)
	}
	return &Terminal{
		screen:   screen,
		registry: registry,
		logger:   logger,
		keys:     make(chan *tcell.EventKey, 1),
		stop:     make(chan struct{}),
	}, nil
}

// Run pumps terminal events until Stop is called. It must run on its own
// goroutine for the lifetime of the program.
func (t *Terminal) Run() {
	for {
		ev := t.screen.PollEvent()
		select {
		case <-t.stop:
			return
		default:
		}

		switch ev := ev.(type) {
		case *tcell.EventInterrupt:
			continue
		case *tcell.EventResize:
			t.screen.Sync()
			t.mu.Lock()
			t.draw()
			t.mu.Unlock()
		case *tcell.EventKey:
			select {
			case t.keys <- ev:
			default:
				// Nobody is waiting for input; drop the key instead of
				// queueing stale presses for the next prompt.
			}
		}
	}
}

// Stop ends the event loop.
func (t *Terminal) Stop() {
	close(t.stop)
	t.screen.PostInterrupt()
}

// Close restores the terminal.
func (t *Terminal) Close() {
	t.screen.Close()
}

// nextKey blocks for the next key press or ctx cancellation.
func (t *Terminal) nextKey(ctx context.Context) (*tcell.EventKey, error) {
	select {
	case ev := <-t.keys:
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// drainKeys discards any press recorded before a prompt opened.
func (t *Terminal) drainKeys() {
	for {
		select {
		case <-t.keys:
		default:
			return
		}
	}
}

// NextCommand blocks for the player's next exploration input.
func (t *Terminal) NextCommand(ctx context.Context) (explore.Command, error) {
	for {
		ev, err := t.nextKey(ctx)
		if err != nil {
			return explore.CmdNone, err
		}

		switch ev.Key() {
		case tcell.KeyUp:
			return explore.CmdMoveUp, nil
		case tcell.KeyDown:
			return explore.CmdMoveDown, nil
		case tcell.KeyLeft:
			return explore.CmdMoveLeft, nil
		case tcell.KeyRight:
			return explore.CmdMoveRight, nil
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return explore.CmdQuit, nil
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'k', 'w':
				return explore.CmdMoveUp, nil
			case 'j', 's':
				return explore.CmdMoveDown, nil
			case 'h', 'a':
				return explore.CmdMoveLeft, nil
			case 'l', 'd':
				return explore.CmdMoveRight, nil
			case 'q':
				return explore.CmdQuit, nil
			}
		}
	}
}

// RenderExplore draws the dungeon view.
func (t *Terminal) RenderExplore(v explore.View) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view = v
	t.draw()
}

// ShowMessage displays a one-line status message.
func (t *Terminal) ShowMessage(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.message = msg
	t.draw()
}

// ChooseAction runs the action menu for the acting combatant.
func (t *Terminal) ChooseAction(ctx context.Context, actor *combat.Combatant, _, _ []*combat.Combatant) (combat.Action, error) {
	t.drainKeys()
	for {
		labels := []string{"Attack", "Defend", "Skill", "Item", "Flee"}
		choice, ok, err := t.promptMenu(ctx, fmt.Sprintf("%s's turn", actor.Name), labels)
		if err != nil {
			return combat.Action{}, err
		}
		if !ok {
			continue // the top menu cannot be cancelled
		}

		switch labels[choice] {
		case "Attack":
			return combat.Action{Kind: combat.ActionAttack}, nil
		case "Defend":
			return combat.Action{Kind: combat.ActionDefend}, nil
		case "Flee":
			return combat.Action{Kind: combat.ActionFlee}, nil
		case "Skill":
			if action, ok, err := t.chooseSkill(ctx, actor); err != nil || ok {
				return action, err
			}
		case "Item":
			if action, ok, err := t.chooseItem(ctx, actor); err != nil || ok {
				return action, err
			}
		}
	}
}

// chooseSkill opens the skill submenu. ok is false when the player backs
// out to the action menu.
func (t *Terminal) chooseSkill(ctx context.Context, actor *combat.Combatant) (combat.Action, bool, error) {
	var ids []string
	var labels []string
	for _, id := range actor.Skills {
		def, found := t.registry.Definition(content.DefSkill, id)
		if !found {
			continue
		}
		ids = append(ids, id)
		labels = append(labels, fmt.Sprintf("%s (%d EP)", def.Name, def.Cost))
	}
	if len(ids) == 0 {
		t.AppendLog("No skills known!")
		return combat.Action{}, false, nil
	}

	choice, ok, err := t.promptMenu(ctx, "Skill", labels)
	if err != nil || !ok {
		return combat.Action{}, false, err
	}
	return combat.Action{Kind: combat.ActionSkill, DefID: ids[choice]}, true, nil
}

// chooseItem opens the item submenu, grouping duplicate items with counts.
func (t *Terminal) chooseItem(ctx context.Context, actor *combat.Combatant) (combat.Action, bool, error) {
	counts := make(map[string]int)
	var ids []string
	for _, id := range actor.Inventory {
		if counts[id] == 0 {
			ids = append(ids, id)
		}
		counts[id]++
	}

	var labels []string
	kept := ids[:0]
	for _, id := range ids {
		def, found := t.registry.Definition(content.DefItem, id)
		if !found {
			continue
		}
		kept = append(kept, id)
		labels = append(labels, fmt.Sprintf("%s x%d", def.Name, counts[id]))
	}
	if len(kept) == 0 {
		t.AppendLog("No items held!")
		return combat.Action{}, false, nil
	}

	choice, ok, err := t.promptMenu(ctx, "Item", labels)
	if err != nil || !ok {
		return combat.Action{}, false, err
	}
	return combat.Action{Kind: combat.ActionItem, DefID: kept[choice]}, true, nil
}

// ChooseTarget runs the target picker. Escape cancels back to the action
// menu.
func (t *Terminal) ChooseTarget(ctx context.Context, _ *combat.Combatant, candidates []*combat.Combatant) (string, bool, error) {
	labels := make([]string, 0, len(candidates))
	for _, c := range candidates {
		labels = append(labels, fmt.Sprintf("%s (%d/%d HP)", c.Name, c.HP, c.MaxHP))
	}

	choice, ok, err := t.promptMenu(ctx, "Target", labels)
	if err != nil || !ok {
		return "", false, err
	}
	return candidates[choice].ID, true, nil
}

// promptMenu displays a selection menu and blocks for the pick. ok is false
// when the menu was cancelled with Escape.
func (t *Terminal) promptMenu(ctx context.Context, title string, items []string) (int, bool, error) {
	t.mu.Lock()
	t.menu = &menuView{title: title, items: items}
	t.draw()
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.menu = nil
		t.draw()
		t.mu.Unlock()
	}()

	for {
		ev, err := t.nextKey(ctx)
		if err != nil {
			return 0, false, err
		}

		t.mu.Lock()
		menu := t.menu
		switch ev.Key() {
		case tcell.KeyUp:
			if menu.index > 0 {
				menu.index--
			}
		case tcell.KeyDown:
			if menu.index < len(menu.items)-1 {
				menu.index++
			}
		case tcell.KeyEnter:
			index := menu.index
			t.mu.Unlock()
			return index, true, nil
		case tcell.KeyEscape:
			t.mu.Unlock()
			return 0, false, nil
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'k', 'w':
				if menu.index > 0 {
					menu.index--
				}
			case 'j', 's':
				if menu.index < len(menu.items)-1 {
					menu.index++
				}
			}
		}
		t.draw()
		t.mu.Unlock()
	}
}

// ShowCombat switches to the combat layout.
func (t *Terminal) ShowCombat(allies, enemies []*combat.Combatant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inCombat = true
	t.allies = allies
	t.enemies = enemies
	t.log = nil
	t.lastHit = ""
	t.draw()
}

// RenderRoster redraws the combat rosters.
func (t *Terminal) RenderRoster(_ []*combat.Combatant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draw()
}

// AppendLog adds a combat log line.
func (t *Terminal) AppendLog(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = append(t.log, message)
	if len(t.log) > logLimit {
		t.log = t.log[len(t.log)-logLimit:]
	}
	t.draw()
}

// PlayHitFeedback highlights the struck combatant until the next log line.
func (t *Terminal) PlayHitFeedback(combatantID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastHit = combatantID
	t.draw()
}

// HideCombat returns to the exploration layout.
func (t *Terminal) HideCombat() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inCombat = false
	t.menu = nil
	t.draw()
}

// draw renders the active layout. Callers must hold the mutex.
func (t *Terminal) draw() {
	t.screen.Clear()
	if t.inCombat {
		t.drawCombat()
	} else {
		t.drawExplore()
	}
	t.screen.Show()
}

func (t *Terminal) drawExplore() {
	v := t.view
	if v.Dungeon == nil {
		return
	}

	for y := 0; y < v.Dungeon.Height; y++ {
		for x := 0; x < v.Dungeon.Width; x++ {
			tile := v.Dungeon.TileAt(x, y)
			t.screen.SetContent(x, y, tile.Rune(), tileStyle(tile))
		}
	}

	mobStyle := tcell.StyleDefault.Foreground(tcell.ColorRed)
	for _, m := range v.Mobs {
		if m.IsAlive() {
			t.screen.SetContent(m.X, m.Y, mobRune(m.Name), mobStyle)
		}
	}

	playerStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	t.screen.SetContent(v.X, v.Y, '@', playerStyle)

	status := fmt.Sprintf("Floor %d  HP %d/%d  EP %d/%d  XP %d",
		v.Floor, v.Player.HP, v.Player.MaxHP, v.Player.EP, v.Player.MaxEP, v.XP)
	t.screen.DrawText(0, v.Dungeon.Height, status, tcell.StyleDefault.Bold(true))
	t.screen.DrawText(0, v.Dungeon.Height+1, t.message, tcell.StyleDefault)
}

func (t *Terminal) drawCombat() {
	row := 0
	header := tcell.StyleDefault.Bold(true)

	t.screen.DrawText(0, row, "-- Enemies --", header)
	row++
	for _, c := range t.enemies {
		t.drawCombatant(row, c)
		row++
	}

	row++
	t.screen.DrawText(0, row, "-- Party --", header)
	row++
	for _, c := range t.allies {
		t.drawCombatant(row, c)
		row++
	}

	row++
	for _, line := range t.log {
		t.screen.DrawText(0, row, line, tcell.StyleDefault)
		row++
	}

	if t.menu != nil {
		row++
		t.screen.DrawText(0, row, t.menu.title, header)
		row++
		for i, item := range t.menu.items {
			cursor := "  "
			style := tcell.StyleDefault
			if i == t.menu.index {
				cursor = "> "
				style = style.Foreground(tcell.ColorYellow)
			}
			t.screen.DrawText(0, row, cursor+item, style)
			row++
		}
	}
}

func (t *Terminal) drawCombatant(row int, c *combat.Combatant) {
	style := tcell.StyleDefault
	if !c.IsAlive() {
		style = style.Foreground(tcell.ColorDarkGray)
	} else if c.ID == t.lastHit {
		style = style.Foreground(tcell.ColorRed).Bold(true)
	}

	line := fmt.Sprintf("%-12s HP %s %3d/%-3d  EP %2d/%-2d  ATB %s",
		c.Name,
		bar(c.HP, c.MaxHP, 10),
		c.HP, c.MaxHP,
		c.EP, c.MaxEP,
		bar(int(c.TurnMeter), int(combat.ATBThreshold), 10),
	)
	t.screen.DrawText(0, row, line, style)
}

// bar renders a fixed-width meter like [====......].
func bar(current, max, width int) string {
	filled := 0
	if max > 0 {
		filled = current * width / max
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	out := make([]rune, 0, width+2)
	out = append(out, '[')
	for i := 0; i < width; i++ {
		if i < filled {
			out = append(out, '=')
		} else {
			out = append(out, '.')
		}
	}
	return string(append(out, ']'))
}

func tileStyle(tile world.Tile) tcell.Style {
	switch tile {
	case world.TileWall:
		return tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	case world.TileFloor:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	case world.TileEntry, world.TileExit:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case world.TileChest, world.TileBookshelf:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	default:
		return tcell.StyleDefault
	}
}

// mobRune shows a monster as the first letter of its name.
func mobRune(name string) rune {
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}
	return 'm'
}
