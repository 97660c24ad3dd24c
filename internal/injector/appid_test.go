package injector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bassista/go_ratebadge/internal/bridge"
)

func TestParseAssetPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"/assets/440_library", "440", false},
		{"/assets/1245620_library", "1245620", false},
		{"/assets/_library", "", true},
		{"/assets/44a_library", "", true},
		{"assets/440_library", "", true},
		{"/assets/440_library_hero", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAssetPath(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAppIDNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssetPathResolver(t *testing.T) {
	tests := []struct {
		name    string
		result  *bridge.ScriptResult
		err     error
		want    string
		wantErr error
	}{
		{name: "found", result: bridge.ValueResult("/assets/440_library"), want: "440"},
		{name: "no match", result: bridge.ValueResult(nil), wantErr: ErrAppIDNotFound},
		{name: "bridge down", err: errors.New("connection refused"), wantErr: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := new(mockBridge)
			b.On("ExecuteScript", mock.Anything, "SP", AppIDScript, false).Return(tt.result, tt.err)

			got, err := NewAssetPathResolver(b, "SP").ResolveAppID(context.Background())
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.err != nil:
				assert.ErrorContains(t, err, "connection refused")
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			b.AssertExpectations(t)
		})
	}
}
