package injector

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/bassista/go_ratebadge/internal/bridge"
)

// ErrAppIDNotFound is returned when the page markup carries no library asset path.
var ErrAppIDNotFound = errors.New("app id not found on page")

// AppIDResolver finds the id of the app shown on the page.
type AppIDResolver interface {
	ResolveAppID(ctx context.Context) (string, error)
}

// assetPathPattern is the library artwork path, e.g. /assets/440_library.
var assetPathPattern = regexp.MustCompile(`^/assets/([0-9]+)_library$`)

// ParseAssetPath extracts the app id from a library asset path.
func ParseAssetPath(path string) (string, error) {
	m := assetPathPattern.FindStringSubmatch(path)
	if m == nil {
		return "", fmt.Errorf("%w: unexpected asset path %q", ErrAppIDNotFound, path)
	}
	return m[1], nil
}

// AppIDScript returns the first library asset path in the page markup, or null.
const AppIDScript = `(function() {
	const m = document.body.innerHTML.match(/\/assets\/[0-9]+_library/);
	return m === null ? null : m[0];
})()`

// AssetPathResolver reads the app id from the library asset path in the tab markup.
type AssetPathResolver struct {
	bridge bridge.DOMBridge
	tab    string
}

// NewAssetPathResolver creates a resolver for the given tab.
func NewAssetPathResolver(b bridge.DOMBridge, tab string) *AssetPathResolver {
	return &AssetPathResolver{bridge: b, tab: tab}
}

func (r *AssetPathResolver) ResolveAppID(ctx context.Context) (string, error) {
	res, err := r.bridge.ExecuteScript(ctx, r.tab, AppIDScript, false)
	if err != nil {
		return "", fmt.Errorf("find app id: %w", err)
	}
	path, err := res.Text()
	if errors.Is(err, bridge.ErrNoValue) {
		return "", ErrAppIDNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find app id: %w", err)
	}
	return ParseAssetPath(path)
}
