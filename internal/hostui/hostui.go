// Package hostui is a thin reference consumer of the engine's event
// substrate: a small window reporting the GAMESTART deadline, overrun
// count, memory-pool occupancy, and sprite-layer usage the VIPManager and
// memory pools already track. Grounded on the teacher's
// internal/ui/fyne_ui.go status label (a single widget.Label refreshed
// every frame with FPS/cycle/frame-count text) and statusbar.go/toolbar.go
// for the "one small chrome strip, not a full debug TUI" scope — §1 scopes
// the debug inspection panels (register/memory/tile viewers) out as an
// external collaborator's job, so this window never grows beyond the one
// label the spec actually calls for.
package hostui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/widget"

	"vb-engine-core/internal/engine"
	"vb-engine-core/internal/mempool"
	"vb-engine-core/internal/messaging"
	"vb-engine-core/internal/vip"
)

// StatsWindow displays the engine's frame-timing and occupancy stats,
// updated once per frame by Refresh. It subscribes to EventVIPOvertime and
// shows the number of overtime events it has received beside
// VIPManager.OverrunCount(), demonstrating the listener path a game's own
// HUD would use.
type StatsWindow struct {
	app    fyne.App
	window fyne.Window
	label  *widget.Label

	vip     *engine.VIPManager
	pools   *mempool.Pools
	sprites *vip.SpriteRegistry

	overrunsSeen int
}

// NewStatsWindow creates (but does not show) a stats window over the given
// VIP manager, memory pools, and sprite registry.
func NewStatsWindow(vipManager *engine.VIPManager, pools *mempool.Pools, sprites *vip.SpriteRegistry) *StatsWindow {
	fyneApp := app.NewWithID("vb-engine-core.statswindow")
	window := fyneApp.NewWindow("Engine Stats")
	label := widget.NewLabel("")
	window.SetContent(label)
	window.Resize(fyne.NewSize(360, 80))

	w := &StatsWindow{
		app:     fyneApp,
		window:  window,
		label:   label,
		vip:     vipManager,
		pools:   pools,
		sprites: sprites,
	}
	vipManager.AddEventListener(w, engine.EventVIPOvertime)
	w.Refresh()
	return w
}

// OnEvent implements messaging.Listener: counts a VIP overtime event and
// keeps the subscription alive.
func (w *StatsWindow) OnEvent(source *messaging.Source, code messaging.Code) bool {
	if code == engine.EventVIPOvertime {
		w.overrunsSeen++
	}
	return true
}

// Refresh recomputes the label text from the engine's current state. Call
// once per frame from the main loop.
func (w *StatsWindow) Refresh() {
	usedBytes, totalBytes := 0, 0
	for _, u := range w.pools.Usage() {
		usedBytes += u.UsedBlocks * u.BlockSize
		totalBytes += u.BlockCount * u.BlockSize
	}
	occupancyPct := 0.0
	if totalBytes > 0 {
		occupancyPct = 100 * float64(usedBytes) / float64(totalBytes)
	}

	spriteCount := len(w.sprites.Ordinary()) + len(w.sprites.Special())

	w.label.SetText(fmt.Sprintf(
		"Deadline: %.2fms | Overruns: %d (seen %d) | Pool: %.1f%% | Sprites: %d",
		w.vip.DeadlineMs(), w.vip.OverrunCount(), w.overrunsSeen, occupancyPct, spriteCount,
	))
}

// Show displays the window.
func (w *StatsWindow) Show() { w.window.Show() }

// Close closes the stats window; the Fyne app instance is not quit.
func (w *StatsWindow) Close() {
	w.window.Close()
}
