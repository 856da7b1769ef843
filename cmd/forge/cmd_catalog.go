package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/cost"
	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/review"
)

var (
	costWeight      string
	costTrait       string
	costEnchantment string
	costQuality     string
	costResearch    bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List gear, traits, glyphs and qualities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printCatalog(cmd.OutOrStdout(), catalog.Default())
		return nil
	},
}

var costCmd = &cobra.Command{
	Use:   "cost <pieza>",
	Short: "Price a single piece in materials",
	Example: `  forge catalog cost Cabeza --weight Pesada --trait Divinidad --quality Morada
  forge catalog cost Anillo --trait Trinidad --research`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		item, mode, err := parseItem(cat, args[0])
		if err != nil {
			return err
		}
		items := []order.Item{item}
		var m cost.Manifest
		title := "Materiales"
		if mode == order.Research {
			m, err = cost.Research(cat, items)
			title = "Materiales de investigación"
		} else {
			m, err = cost.Crafting(cat, items)
		}
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, review.RenderItem(cat, item))
		fmt.Fprintln(out)
		fmt.Fprintln(out, review.RenderManifest(title, m))
		return nil
	},
}

func parseItem(cat *catalog.Catalog, gearName string) (order.Item, order.Mode, error) {
	mode := order.Crafting
	if costResearch {
		mode = order.Research
	}
	g, err := cat.ParseGear(gearName)
	if err != nil {
		return order.Item{}, mode, err
	}
	item := order.Item{Gear: g, Quality: catalog.White}
	if g.Family() == catalog.FamilyArmour {
		if costWeight == "" {
			return order.Item{}, mode, fmt.Errorf("--weight is required for %s", gearName)
		}
		if item.Weight, err = cat.ParseWeight(costWeight); err != nil {
			return order.Item{}, mode, err
		}
	}
	if costTrait == "" {
		return order.Item{}, mode, fmt.Errorf("--trait is required")
	}
	if item.Trait, err = cat.ParseTrait(g.Family(), costTrait); err != nil {
		return order.Item{}, mode, err
	}
	if costEnchantment != "" {
		if item.Enchantment, err = cat.ParseEnchantment(g.Family(), costEnchantment); err != nil {
			return order.Item{}, mode, err
		}
	}
	if costQuality != "" {
		if item.Quality, err = cat.ParseQuality(costQuality); err != nil {
			return order.Item{}, mode, err
		}
	}
	if err := item.Validate(mode); err != nil {
		return order.Item{}, mode, err
	}
	return item, mode, nil
}

func printCatalog(w io.Writer, cat *catalog.Catalog) {
	for _, f := range catalog.Families {
		fmt.Fprintf(w, "%s\n", strings.ToUpper(cat.FamilyName(f)))
		var gear []string
		for _, g := range catalog.AllGear() {
			if g.Family() == f {
				gear = append(gear, cat.GearName(g))
			}
		}
		fmt.Fprintf(w, "  piezas:          %s\n", strings.Join(gear, ", "))
		fmt.Fprintf(w, "  rasgos:          %s\n", joinLabels(cat.TraitOptions(f)))
		fmt.Fprintf(w, "  encantamientos:  %s\n", joinLabels(cat.EnchantmentOptions(f)))
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "PESOS: %s\n", joinLabels(cat.WeightOptions()))
	fmt.Fprintf(w, "CALIDADES: %s\n", joinLabels(cat.QualityOptions()))
}

func joinLabels(opts []catalog.Option) string {
	labels := make([]string, 0, len(opts))
	for _, o := range opts {
		labels = append(labels, o.Label)
	}
	return strings.Join(labels, ", ")
}
