package flow

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/guild-forge/internal/prompt"
)

// Consumables returns the free-text flow for food and potions.
func Consumables(audience string) Flow {
	return &freeTextFlow{
		info: Info{
			ID:          "consumables",
			Label:       "Consumibles",
			Description: "Comida y pociones",
		},
		kind:     "consumibles",
		question: "¿Qué comida y pociones necesitas? Indica cantidades.",
		audience: audience,
	}
}

// Enchantments returns the free-text flow for glyphs.
func Enchantments(audience string) Flow {
	return &freeTextFlow{
		info: Info{
			ID:          "enchantments",
			Label:       "Encantamientos",
			Description: "Glifos de armas, armadura y joyería",
		},
		kind:     "encantamientos",
		question: "¿Qué glifos necesitas? Indica tipo, calidad y cantidad.",
		audience: audience,
	}
}

type freeTextFlow struct {
	info     Info
	kind     string
	question string
	audience string
}

func (f *freeTextFlow) Info() Info { return f.info }

// Run asks until a non-empty body arrives, then announces it verbatim.
func (f *freeTextFlow) Run(ctx context.Context, env Env) (Result, error) {
	log := env.logger().With(zap.String("flow", f.info.ID), zap.String("requester", env.Requester))
	var body string
	for {
		raw, err := env.Prompter.Text(ctx, f.question, "")
		if err != nil {
			log.Warn("request cancelled", zap.Error(err))
			return Result{Status: StatusCancelled}, err
		}
		body = strings.TrimSpace(raw)
		if body != "" {
			break
		}
		env.Prompter.Notify(ctx, "La solicitud no puede estar vacía.")
	}

	req := prompt.Request{
		Kind:      f.kind,
		Requester: env.Requester,
		Body:      body,
		Audience:  f.audience,
	}
	if env.Announcer != nil {
		if err := env.Announcer.AnnounceRequest(ctx, req); err != nil {
			return Result{Status: StatusConfirmed, Request: &req}, err
		}
	}
	log.Info("request announced", zap.Int("length", len(body)))
	return Result{Status: StatusConfirmed, Request: &req}, nil
}
