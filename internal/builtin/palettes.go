package builtin

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/config"
	"github.com/dorcha-inc/pal/internal/core"
	"github.com/dorcha-inc/pal/internal/item"
)

// Palette config keys read by combine.
const (
	ConfigInclude = "include"
	ConfigIcons   = "icons"
)

func newCombine(host Host) *Handler {
	c := &combine{host: host}
	return &Handler{
		Manifest: map[string]any{item.FieldIcon: "view-list"},
		Ops: map[string]OpFunc{
			OpList: c.list,
			OpPick: c.pick,
		},
	}
}

type combine struct {
	host Host
}

// list concatenates the items of every included palette in order, tagging
// each with its source and filling empty icon fields from the source.
func (c *combine) list(ctx context.Context, req *Request) (string, error) {
	includes := stringSlice(req.Config()[ConfigInclude])
	// palette ids are case-insensitive, so icons is keyed by normalized id
	icons := map[string]string{}
	for id, icon := range stringMap(req.Config()[ConfigIcons]) {
		icons[config.NormalizeID(id)] = icon
	}

	var all []item.Item
	for _, src := range includes {
		items, err := c.host.List(ctx, req.Inv, src, nil)
		if err != nil {
			return "", fmt.Errorf("included palette %s: %w", src, err)
		}
		srcConfig, err := c.host.PaletteConfig(ctx, req.Inv, src)
		if err != nil {
			return "", fmt.Errorf("included palette %s: %w", src, err)
		}
		fallbacks := map[string]string{
			item.FieldIcon:    core.FirstNonEmpty(icons[config.NormalizeID(src)], core.StringValue(srcConfig[item.FieldIcon])),
			item.FieldIconXDG: core.StringValue(srcConfig[item.FieldIconXDG]),
			item.FieldIconUTF: core.StringValue(srcConfig[item.FieldIconUTF]),
		}
		for _, it := range items {
			it[item.FieldSource] = src
			for _, field := range item.IconFields {
				if it.String(field) == "" && fallbacks[field] != "" {
					it[field] = fallbacks[field]
				}
			}
			all = append(all, it)
		}
		zap.L().Debug("Combined palette", zap.String("source", src), zap.Int("items", len(items)))
	}
	return item.EncodeStream(all), nil
}

// pick hands the item back to the palette that produced it.
func (c *combine) pick(ctx context.Context, req *Request) (string, error) {
	it, err := item.Parse(req.InputText())
	if err != nil {
		return "", err
	}
	src := it.Source()
	if src == "" {
		return "", fmt.Errorf("item %q has no %s field", it.String(item.FieldID), item.FieldSource)
	}
	return c.host.Pick(ctx, req.Inv, src, it)
}

func newPals(host Host) *Handler {
	p := &pals{host: host}
	return &Handler{
		Manifest: map[string]any{item.FieldIcon: "view-grid"},
		Ops: map[string]OpFunc{
			OpList: p.list,
			OpPick: p.pick,
		},
	}
}

type pals struct {
	host Host
}

// list offers every configured palette except the one being listed.
func (p *pals) list(_ context.Context, req *Request) (string, error) {
	var items []item.Item
	for _, id := range p.host.PaletteIDs() {
		if id == req.Inv.Palette() {
			continue
		}
		items = append(items, item.Item{item.FieldID: id, item.FieldName: id, item.FieldIcon: ""})
	}
	return item.EncodeStream(items), nil
}

// pick runs the chosen palette with the current frontend as a new session,
// so it may be a palette that is already on the chain.
func (p *pals) pick(ctx context.Context, req *Request) (string, error) {
	it, err := item.Parse(req.InputText())
	if err != nil {
		return "", err
	}
	return p.host.Run(ctx, req.Inv.NewSession(), req.Inv.Frontend(), it.String(item.FieldID))
}
