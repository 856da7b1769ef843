package flow

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kingrea/guild-forge/internal/intake"
)

// Registry maintains known flows in menu order.
type Registry struct {
	mu    sync.RWMutex
	flows map[string]Flow
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{flows: map[string]Flow{}}
}

// Default registers the four menu flows.
func Default(engine *intake.Engine, audience string) *Registry {
	r := NewRegistry()
	r.MustRegister(Gear(engine))
	r.MustRegister(GearResearch(engine))
	r.MustRegister(Consumables(audience))
	r.MustRegister(Enchantments(audience))
	return r
}

// Register installs a flow. Returns an error if the ID already exists.
func (r *Registry) Register(f Flow) error {
	if f == nil {
		return fmt.Errorf("flow: flow is required")
	}
	info := f.Info()
	if err := info.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.flows[info.ID]; exists {
		return fmt.Errorf("flow: %s already registered", info.ID)
	}
	r.flows[info.ID] = f
	r.order = append(r.order, info.ID)
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(f Flow) {
	if err := r.Register(f); err != nil {
		panic(err)
	}
}

// Resolve looks a flow up by ID.
func (r *Registry) Resolve(id string) (Flow, error) {
	r.mu.RLock()
	f, ok := r.flows[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("flow: unknown id %s", id)
	}
	return f, nil
}

// IDs returns a sorted list of registered flow identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := append([]string(nil), r.order...)
	sort.Strings(ids)
	return ids
}

// Infos returns flow descriptions in registration order.
func (r *Registry) Infos() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.flows[id].Info())
	}
	return out
}

// MenuDescription is the text shown above the menu.
func MenuDescription(price float64, crafterRole string) string {
	var b strings.Builder
	b.WriteString("Solicitud de crafting de equipamiento, consumibles o encantamientos\n\n")
	fmt.Fprintf(&b, "Para pedir un crafting a %s elige una de las opciones del menú:\n", crafterRole)
	b.WriteString("- Equipamiento: piezas de set, incluyendo armas, armadura y joyería.\n")
	b.WriteString("- Investigación: materiales para investigar los rasgos de esas piezas.\n")
	b.WriteString("- Consumibles: comida y pociones.\n")
	b.WriteString("- Encantamientos: glifos de armas, armadura y joyería.\n\n")
	fmt.Fprintf(&b, "Envía los materiales al artesano que se encargue y abónale %s de oro por pieza.", formatPrice(price))
	return b.String()
}

func formatPrice(price float64) string {
	if price == float64(int64(price)) {
		return fmt.Sprintf("%d", int64(price))
	}
	return fmt.Sprintf("%.2f", price)
}
