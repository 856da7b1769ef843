// Package review presents a finished order back to its requester and holds
// the single confirm-or-cancel decision.
package review

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/cost"
	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/prompt"
)

// RenderItem is the one-line form of a piece used in previews and recaps.
func RenderItem(cat *catalog.Catalog, it order.Item) string {
	var b strings.Builder
	b.WriteString(cat.GearName(it.Gear))
	if it.Weight != catalog.WeightNone {
		fmt.Fprintf(&b, " (%s)", cat.WeightName(it.Weight))
	}
	fmt.Fprintf(&b, ": %s, %s", cat.TraitName(it.Trait), cat.QualityName(it.Quality))
	if it.HasEnchantment() {
		fmt.Fprintf(&b, ", %s", cat.EnchantmentName(it.Enchantment))
	}
	return b.String()
}

// RenderRecap lists the order grouped by family.
func RenderRecap(cat *catalog.Catalog, o order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pedido: %s\n", o.Name)
	for _, g := range o.Groups() {
		fmt.Fprintf(&b, "\n%s:\n", capitalize(cat.FamilyName(g.Family)))
		for _, it := range g.Items {
			fmt.Fprintf(&b, "  - %s\n", RenderItem(cat, it))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderManifest lists the materials of a manifest, one per line.
func RenderManifest(title string, m cost.Manifest) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString(":")
	for _, line := range m.Lines() {
		fmt.Fprintf(&b, "\n  %d x %s", line.Quantity, line.Material)
	}
	return b.String()
}

// RenderSummary is the recap followed by any manifests.
func RenderSummary(cat *catalog.Catalog, o order.Order, m prompt.Manifests, tier string) string {
	sections := []string{RenderRecap(cat, o)}
	if m.Crafting != nil {
		sections = append(sections, RenderManifest("Materiales ("+tier+")", m.Crafting))
	}
	if m.Research != nil {
		sections = append(sections, RenderManifest("Materiales de investigación", m.Research))
	}
	return strings.Join(sections, "\n\n")
}

// RenderAnnouncement is the message crafters receive for a confirmed order.
func RenderAnnouncement(cat *catalog.Catalog, a prompt.Announcement, tier string) string {
	var b strings.Builder
	if a.Audience != "" {
		b.WriteString(a.Audience)
		b.WriteString(" ")
	}
	verb := "un pedido"
	if a.Order.Mode == order.Research {
		verb = "un pedido de investigación"
	}
	fmt.Fprintf(&b, "%s ha hecho %s (%d piezas).\n\n", a.Requester, verb, len(a.Order.Items))
	b.WriteString(RenderSummary(cat, a.Order, a.Manifests, tier))
	return b.String()
}

// RenderRequest is the message crafters receive for a free-text request.
func RenderRequest(r prompt.Request) string {
	prefix := ""
	if r.Audience != "" {
		prefix = r.Audience + " "
	}
	return fmt.Sprintf("%s%s ha pedido %s:\n%s", prefix, r.Requester, r.Kind, r.Body)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
