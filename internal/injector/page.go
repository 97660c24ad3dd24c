package injector

import (
	"context"
	"fmt"

	"github.com/bassista/go_ratebadge/internal/bridge"
)

// Page is the DOM surface the controller mutates.
type Page interface {
	MarkerPresent(ctx context.Context) (bool, error)
	TargetPresent(ctx context.Context) (bool, error)
	InsertMarker(ctx context.Context) error
	InsertBadge(ctx context.Context, badge Badge) error
}

// ScriptPage implements Page by running scripts in a tab through a DOMBridge.
type ScriptPage struct {
	bridge bridge.DOMBridge
	tab    string
}

// NewScriptPage creates a page bound to the named tab.
func NewScriptPage(b bridge.DOMBridge, tab string) *ScriptPage {
	return &ScriptPage{bridge: b, tab: tab}
}

// TargetPresentScript reports whether the compatibility label container is rendered.
var TargetPresentScript = `(function() {
	return document.querySelector(` + bridge.JSString(TargetSelector) + `) !== null;
})()`

// InsertMarkerScript appends the marker element to the container.
var InsertMarkerScript = `(function() {
	const target = document.querySelector(` + bridge.JSString(TargetSelector) + `);
	if (target === null) {
		return false;
	}
	const elem = document.createElement('div');
	elem.id = ` + bridge.JSString(MarkerID) + `;
	target.append(elem);
	return true;
})()`

// InsertBadgeScript places html right after the container, replacing an earlier badge.
func InsertBadgeScript(html string) string {
	return `(function() {
	const target = document.querySelector(` + bridge.JSString(TargetSelector) + `);
	if (target === null) {
		return false;
	}
	for (const id of [` + bridge.JSString(BadgeID) + `, ` + bridge.JSString(badgeStyleID) + `]) {
		const old = document.getElementById(id);
		if (old !== null) {
			old.remove();
		}
	}
	target.insertAdjacentHTML('afterend', ` + bridge.JSString(html) + `);
	return true;
})()`
}

func (p *ScriptPage) MarkerPresent(ctx context.Context) (bool, error) {
	return p.bridge.ElementExists(ctx, p.tab, MarkerID)
}

func (p *ScriptPage) TargetPresent(ctx context.Context) (bool, error) {
	return p.evalBool(ctx, "check target", TargetPresentScript)
}

func (p *ScriptPage) InsertMarker(ctx context.Context) error {
	return p.mustApply(ctx, "insert marker", InsertMarkerScript)
}

func (p *ScriptPage) InsertBadge(ctx context.Context, badge Badge) error {
	html, err := badge.HTML()
	if err != nil {
		return err
	}
	return p.mustApply(ctx, "insert badge", InsertBadgeScript(html))
}

func (p *ScriptPage) evalBool(ctx context.Context, op, script string) (bool, error) {
	res, err := p.bridge.ExecuteScript(ctx, p.tab, script, false)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	ok, err := res.Bool()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// mustApply runs a mutation script that reports false when the container vanished.
func (p *ScriptPage) mustApply(ctx context.Context, op, script string) error {
	ok, err := p.evalBool(ctx, op, script)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrTargetGone)
	}
	return nil
}
