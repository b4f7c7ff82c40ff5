package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hbnb/hbnb/internal/store/badger"
	"github.com/hbnb/hbnb/internal/store/file"
	"github.com/hbnb/hbnb/pkg/hbnb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.json")

	s, release, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer release()

	fs, ok := s.(*file.Store)
	require.True(t, ok)
	assert.Equal(t, path, fs.Path())
}

func TestOpen_Badger(t *testing.T) {
	s, release, err := Open(Config{Type: TypeBadger, Dir: t.TempDir()})
	require.NoError(t, err)
	defer release()

	_, ok := s.(*badger.Store)
	assert.True(t, ok)
}

func TestOpen_Errors(t *testing.T) {
	_, _, err := Open(Config{Type: "mysql"})
	assert.ErrorIs(t, err, hbnb.ErrInvalidInput)

	_, _, err = Open(Config{Type: TypeBadger})
	assert.ErrorIs(t, err, hbnb.ErrInvalidInput)
}

// Both backends honor the same contract.
func TestBackends_Contract(t *testing.T) {
	backends := map[string]func(t *testing.T) Config{
		TypeFile: func(t *testing.T) Config {
			return Config{Type: TypeFile, Path: filepath.Join(t.TempDir(), "file.json")}
		},
		TypeBadger: func(t *testing.T) Config {
			return Config{Type: TypeBadger, Dir: t.TempDir()}
		},
	}

	for name, newConfig := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s, release, err := Open(newConfig(t))
			require.NoError(t, err)
			defer release()

			require.NoError(t, s.Reload(ctx))
			assert.Empty(t, s.All(""))

			state := hbnb.NewState("California")
			s.New(state)
			require.NoError(t, s.Save(ctx))

			pending := hbnb.NewState("Oregon")
			s.New(pending)
			assert.Len(t, s.All(hbnb.KindState), 2)

			require.NoError(t, s.Close(ctx))
			states := s.All(hbnb.KindState)
			assert.Len(t, states, 1)
			assert.Contains(t, states, hbnb.Key(state))

			s.Delete(state)
			s.Delete(state)
			assert.Empty(t, s.All(""))
		})
	}
}
