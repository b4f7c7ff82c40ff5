package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hbnb/hbnb/pkg/hbnb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// hbnbctl runs one command against the store at path and returns stdout.
func hbnbctl(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()

	rootCmd, c := newRootCommand()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--storage-path", path, "--log-level", "error"}, args...))

	err := execute(rootCmd, c)
	return out.String(), err
}

func mustRun(t *testing.T, path string, args ...string) string {
	t.Helper()
	out, err := hbnbctl(t, path, args...)
	require.NoError(t, err, "hbnbctl %s", strings.Join(args, " "))
	return out
}

func storePath(t *testing.T) string {
	t.Chdir(t.TempDir())
	return filepath.Join(t.TempDir(), "file.json")
}

func TestRootCommand(t *testing.T) {
	rootCmd, _ := newRootCommand()
	assert.Equal(t, "hbnbctl", rootCmd.Use)

	for _, name := range []string{"config", "output", "storage-type", "storage-path", "storage-dir"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	rootCmd, _ := newRootCommand()

	for _, name := range []string{"create", "show", "destroy", "all", "count", "update"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, "Command %s should be registered", name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestHelpExamples_ShellSafe(t *testing.T) {
	rootCmd, _ := newRootCommand()
	commands := append([]*cobra.Command{rootCmd}, rootCmd.Commands()...)

	// A bare name="value" loses its quotes in the shell
	for _, cmd := range commands {
		assert.NotRegexp(t, `\s\w+="`, cmd.Long, cmd.Name())
	}

	create, _, err := rootCmd.Find([]string{"create"})
	require.NoError(t, err)
	assert.Contains(t, create.Long, `'name="My_little_house"'`)
}

func TestGetOutputFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected OutputFormat
	}{
		{"yaml", OutputFormatYAML},
		{"y", OutputFormatYAML},
		{"json", OutputFormatJSON},
		{"JSON", OutputFormatJSON},
		{"name", OutputFormatName},
		{"table", OutputFormatTable},
		{"", OutputFormatTable},
		{"invalid", OutputFormatTable},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v := viper.New()
			v.Set("output", tt.input)
			assert.Equal(t, tt.expected, GetOutputFormat(v))
		})
	}
}

func TestCreateShowDestroy(t *testing.T) {
	path := storePath(t)

	id := strings.TrimSpace(mustRun(t, path, "create", "State", `name="New_York"`))
	require.NotEmpty(t, id)

	out := mustRun(t, path, "show", "State", id, "-o", "json")
	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	assert.Equal(t, "State", fields[hbnb.ClassKey])
	assert.Equal(t, id, fields["id"])
	assert.Equal(t, "New York", fields["name"])

	assert.Equal(t, "1\n", mustRun(t, path, "count", "State"))

	assert.Equal(t, "State."+id+" deleted\n", mustRun(t, path, "destroy", "State", id))
	assert.Equal(t, "0\n", mustRun(t, path, "count", "State"))

	_, err := hbnbctl(t, path, "show", "State", id)
	assert.ErrorIs(t, err, hbnb.ErrNotFound)
}

func TestCreate_TypedAttributes(t *testing.T) {
	path := storePath(t)

	id := strings.TrimSpace(mustRun(t, path, "create", "Place",
		"city_id=c1", "user_id=u1", `name="My_little_house"`,
		"number_rooms=4", "latitude=37.77", "amenity_ids=wifi,pool"))

	out := mustRun(t, path, "show", "Place", id, "-o", "yaml")
	var fields map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &fields))

	assert.Equal(t, "My little house", fields["name"])
	assert.Equal(t, 4, fields["number_rooms"])
	assert.Equal(t, 37.77, fields["latitude"])
	assert.Equal(t, []any{"wifi", "pool"}, fields["amenity_ids"])
}

func TestCreate_NewAttributes(t *testing.T) {
	path := storePath(t)

	id := strings.TrimSpace(mustRun(t, path, "create", "State", `name="California"`,
		"population=39000000", "ratio=1.5", `motto="Eureka_!"`))

	out := mustRun(t, path, "show", "State", id, "-o", "json")
	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &fields))

	assert.Equal(t, "California", fields["name"])
	assert.Equal(t, float64(39000000), fields["population"])
	assert.Equal(t, 1.5, fields["ratio"])
	assert.Equal(t, "Eureka !", fields["motto"])

	// A stored extra attribute keeps its type on update
	mustRun(t, path, "update", "State", id, "population", "40000000")
	out = mustRun(t, path, "show", "State", id, "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	assert.Equal(t, float64(40000000), fields["population"])
}

func TestCreate_Errors(t *testing.T) {
	path := storePath(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing kind", []string{"create"}, nil},
		{"unknown kind", []string{"create", "Spaceship"}, hbnb.ErrUnknownKind},
		{"not an assignment", []string{"create", "State", "name"}, hbnb.ErrInvalidInput},
		{"unquoted text for new attribute", []string{"create", "State", "color=red"}, hbnb.ErrInvalidInput},
		{"bad float for new attribute", []string{"create", "State", "ratio=1.2.3"}, hbnb.ErrInvalidInput},
		{"reserved attribute", []string{"create", "State", "id=1"}, hbnb.ErrInvalidInput},
		{"not a number", []string{"create", "Place", "max_guest=many"}, hbnb.ErrInvalidInput},
		{"fraction into int", []string{"create", "Place", "max_guest=1.5"}, hbnb.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := hbnbctl(t, path, tt.args...)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}

	assert.Equal(t, "0\n", mustRun(t, path, "count", "Place"), "failed creates save nothing")
}

func TestCreate_UserPasswordIsHashed(t *testing.T) {
	path := storePath(t)

	id := strings.TrimSpace(mustRun(t, path, "create", "User", "email=betty@example.com", "password=secret"))

	out := mustRun(t, path, "show", "User", id, "-o", "json")
	var user hbnb.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))

	assert.Equal(t, "betty@example.com", user.Email)
	assert.NotEqual(t, "secret", user.Password)
	assert.True(t, user.CheckPassword("secret"))
}

func TestUpdate(t *testing.T) {
	path := storePath(t)

	id := strings.TrimSpace(mustRun(t, path, "create", "User", "email=old@example.com"))
	before := mustRun(t, path, "show", "User", id, "-o", "json")

	assert.Equal(t, "User."+id+" updated\n",
		mustRun(t, path, "update", "User", id, "first_name", `"Betty Holberton"`))

	after := mustRun(t, path, "show", "User", id, "-o", "json")
	var b, a map[string]any
	require.NoError(t, json.Unmarshal([]byte(before), &b))
	require.NoError(t, json.Unmarshal([]byte(after), &a))

	assert.Equal(t, "Betty Holberton", a["first_name"])
	assert.Equal(t, b["created_at"], a["created_at"])
	assert.NotEqual(t, b["updated_at"], a["updated_at"])

	_, err := hbnbctl(t, path, "update", "User", id, "id", "other")
	assert.ErrorIs(t, err, hbnb.ErrInvalidInput)

	_, err = hbnbctl(t, path, "update", "User", "missing", "email", "x")
	assert.ErrorIs(t, err, hbnb.ErrNotFound)

	_, err = hbnbctl(t, path, "update", "User", id, "email")
	assert.Error(t, err)
}

func TestUpdate_NewAttribute(t *testing.T) {
	path := storePath(t)

	id := strings.TrimSpace(mustRun(t, path, "create", "State", `name="Nevada"`))
	mustRun(t, path, "update", "State", id, "nickname", "Silver")
	mustRun(t, path, "update", "State", id, "admitted", "1864")

	out := mustRun(t, path, "show", "State", id, "-o", "json")
	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	assert.Equal(t, "Silver", fields["nickname"])
	assert.Equal(t, "1864", fields["admitted"])
	assert.Equal(t, "Nevada", fields["name"])
}

// failRelease makes the store release of rootCmd also return err.
func failRelease(rootCmd *cobra.Command, c *console, err error) {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if oerr := c.open(cmd, args); oerr != nil {
			return oerr
		}
		inner := c.release
		c.release = func() error { return errors.Join(inner(), err) }
		return nil
	}
}

func TestExecute_ReleaseErrors(t *testing.T) {
	released := errors.New("release failed")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"command succeeds", []string{"count", "State"}, nil},
		{"command fails", []string{"show", "State", "missing"}, hbnb.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := storePath(t)

			rootCmd, c := newRootCommand()
			rootCmd.SetOut(&bytes.Buffer{})
			rootCmd.SetErr(&bytes.Buffer{})
			rootCmd.SetArgs(append([]string{"--storage-path", path, "--log-level", "error"}, tt.args...))
			failRelease(rootCmd, c, released)

			err := execute(rootCmd, c)
			assert.ErrorIs(t, err, released)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAll(t *testing.T) {
	path := storePath(t)

	stateID := strings.TrimSpace(mustRun(t, path, "create", "State", `name="California"`))
	cityID := strings.TrimSpace(mustRun(t, path, "create", "City", "state_id="+stateID, `name="Fremont"`))

	names := mustRun(t, path, "all", "-o", "name")
	assert.Equal(t, []string{"City." + cityID, "State." + stateID}, strings.Fields(names))

	assert.Equal(t, "State."+stateID+"\n", mustRun(t, path, "all", "State", "-o", "name"))

	table := mustRun(t, path, "all", "City")
	assert.Contains(t, table, "KIND")
	assert.Contains(t, table, "Fremont")
	assert.NotContains(t, table, "California")

	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, path, "all", "BaseModel", "-o", "json")), &list))
	assert.Len(t, list, 2)

	_, err := hbnbctl(t, path, "all", "Spaceship")
	assert.ErrorIs(t, err, hbnb.ErrUnknownKind)
}

func TestShow_Table(t *testing.T) {
	path := storePath(t)

	id := strings.TrimSpace(mustRun(t, path, "create", "Amenity", "name=Wifi"))

	out := mustRun(t, path, "show", "Amenity", id)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], hbnb.ClassKey))
	assert.Contains(t, lines[0], "Amenity")
	assert.Contains(t, lines[1], id)
	assert.Contains(t, out, "Wifi")
}

func TestCount_UnknownKind(t *testing.T) {
	_, err := hbnbctl(t, storePath(t), "count", "Spaceship")
	assert.ErrorIs(t, err, hbnb.ErrUnknownKind)
}

func TestBadgerStorage(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	run := func(args ...string) string {
		rootCmd, c := newRootCommand()
		defer c.close()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append([]string{"--storage-type", "badger", "--storage-dir", dir, "--log-level", "error"}, args...))
		require.NoError(t, rootCmd.Execute())
		return out.String()
	}

	id := strings.TrimSpace(run("create", "Review", "text=Great"))
	assert.Equal(t, "1\n", run("count", "Review"))
	assert.Equal(t, "Review."+id+"\n", run("all", "-o", "name"))
}
