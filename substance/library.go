package substance

import "sync"

// Library is the write-once/read-many template registry ECM owns (§4.J):
// extracellular substance templates and intracellular-substance templates,
// keyed by id. Referencing an id that hasn't been registered yet
// auto-creates a default (D=0, d=0) template and proceeds — spec.md §7
// classifies this as a recoverable ConfigurationError, never surfaced to
// the caller.
type Library struct {
	mu            sync.RWMutex
	extracellular map[string]Template
	intracellular map[string]Template
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{
		extracellular: make(map[string]Template),
		intracellular: make(map[string]Template),
	}
}

// RegisterExtracellular installs (or overwrites) an extracellular substance
// template.
func (lib *Library) RegisterExtracellular(tmpl Template) {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	lib.extracellular[tmpl.ID] = tmpl
}

// RegisterIntracellular installs (or overwrites) an intracellular substance
// template.
func (lib *Library) RegisterIntracellular(tmpl Template) {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	lib.intracellular[tmpl.ID] = tmpl
}

// SubstanceInstance returns a fresh Instance stamped from the named
// extracellular template, auto-creating a default template on first
// reference.
func (lib *Library) SubstanceInstance(id string) *Instance {
	return NewInstance(lib.extracellularTemplate(id))
}

// IntracellularSubstanceInstance returns a fresh IntracellularSubstance
// stamped from the named intracellular template, auto-creating a default
// template on first reference.
func (lib *Library) IntracellularSubstanceInstance(id string) *IntracellularSubstance {
	return NewIntracellularInstance(lib.intracellularTemplate(id))
}

func (lib *Library) extracellularTemplate(id string) Template {
	lib.mu.RLock()
	tmpl, ok := lib.extracellular[id]
	lib.mu.RUnlock()
	if ok {
		return tmpl
	}
	lib.mu.Lock()
	defer lib.mu.Unlock()
	if tmpl, ok := lib.extracellular[id]; ok {
		return tmpl
	}
	tmpl = Template{ID: id}
	lib.extracellular[id] = tmpl
	return tmpl
}

func (lib *Library) intracellularTemplate(id string) Template {
	lib.mu.RLock()
	tmpl, ok := lib.intracellular[id]
	lib.mu.RUnlock()
	if ok {
		return tmpl
	}
	lib.mu.Lock()
	defer lib.mu.Unlock()
	if tmpl, ok := lib.intracellular[id]; ok {
		return tmpl
	}
	tmpl = Template{ID: id}
	lib.intracellular[id] = tmpl
	return tmpl
}
