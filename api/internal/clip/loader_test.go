package clip

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readyEngine struct {
	fakeEngine
	readyErr error
}

func (r *readyEngine) Ready(ctx context.Context) error { return r.readyErr }

func TestLoad_PrimaryWins(t *testing.T) {
	dial := func(id string) Engine { return &readyEngine{fakeEngine: fakeEngine{model: id}} }

	eng, err := Load(context.Background(), dial, "Arabic-Clip/araclip", "openai/clip-vit-base-patch32")
	require.NoError(t, err)
	assert.Equal(t, "Arabic-Clip/araclip", eng.ModelID())
}

func TestLoad_FallsBack(t *testing.T) {
	dial := func(id string) Engine {
		e := &readyEngine{fakeEngine: fakeEngine{model: id}}
		if id == "Arabic-Clip/araclip" {
			e.readyErr = errors.New("weights missing")
		}
		return e
	}

	eng, err := Load(context.Background(), dial, "Arabic-Clip/araclip", "openai/clip-vit-base-patch32")
	require.NoError(t, err)
	assert.Equal(t, "openai/clip-vit-base-patch32", eng.ModelID())
}

func TestLoad_Exhaustion(t *testing.T) {
	dial := func(id string) Engine {
		return &readyEngine{fakeEngine: fakeEngine{model: id}, readyErr: errors.New("down")}
	}

	_, err := Load(context.Background(), dial, "Arabic-Clip/araclip", "openai/clip-vit-base-patch32")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Arabic-Clip/araclip")
	assert.Contains(t, err.Error(), "openai/clip-vit-base-patch32")
}

func TestLoad_NoCandidates(t *testing.T) {
	_, err := Load(context.Background(), func(string) Engine { return &fakeEngine{} })
	require.Error(t, err)
}

func TestLoad_EngineWithoutReadyCheck(t *testing.T) {
	eng, err := Load(context.Background(), func(id string) Engine {
		return &fakeEngine{model: id}
	}, "Arabic-Clip/araclip")
	require.NoError(t, err)
	assert.Equal(t, "Arabic-Clip/araclip", eng.ModelID())
}
