package datetoken

// Trigger names a change a view reports to the plugin.
type Trigger uint8

const (
	TriggerDoc Trigger = 1 << iota
	TriggerViewport
	TriggerSelection
	// TriggerMode is a switch between source and live-preview rendering.
	TriggerMode
)

// Update describes one view update.
type Update struct {
	Text    string
	State   ViewState
	Changed Trigger
	// PointerDown is true while a drag selection is in progress.
	PointerDown bool
}

// recomputeOn maps each trigger to the condition under which it forces a
// new decoration pass.
var recomputeOn = map[Trigger]func(Update) bool{
	TriggerDoc:      func(Update) bool { return true },
	TriggerViewport: func(Update) bool { return true },
	TriggerMode:     func(Update) bool { return true },
	TriggerSelection: func(u Update) bool {
		return u.State.LivePreview && !u.PointerDown
	},
}

// ShouldRecompute reports whether u requires a new decoration pass.
func ShouldRecompute(u Update) bool {
	for trigger, fires := range recomputeOn {
		if u.Changed&trigger != 0 && fires(u) {
			return true
		}
	}
	return false
}

// Plugin keeps the current annotation set of one view and replaces it
// wholesale when an update calls for it. It is not safe for concurrent use.
type Plugin struct {
	dec   *Decorator
	decos []Annotation
}

// NewPlugin computes the initial annotations for text.
func NewPlugin(dec *Decorator, text string, vs ViewState) *Plugin {
	return &Plugin{dec: dec, decos: dec.Decorate(text, vs)}
}

// Update applies u. It reports whether the annotation set changed.
func (p *Plugin) Update(u Update) bool {
	if !ShouldRecompute(u) {
		return false
	}
	next := p.dec.Decorate(u.Text, u.State)
	changed := !EqualSets(p.decos, next)
	p.decos = next
	return changed
}

// Annotations returns a copy of the current annotation set.
func (p *Plugin) Annotations() []Annotation {
	out := make([]Annotation, len(p.decos))
	copy(out, p.decos)
	return out
}
