package flagx

import (
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "flag with equals",
			args:         []string{"-config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-config=alt.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept",
			args:         []string{"-e"},
			allowedFlags: []string{"-e"},
			want:         []string{"-e"},
		},
		{
			name:         "next dash token is not a value",
			args:         []string{"-e", "-env-file=prod.env"},
			allowedFlags: []string{"-e", "-env-file"},
			want:         []string{"-e", "-env-file=prod.env"},
		},
		{
			name:         "several allowed flags keep their order",
			args:         []string{"-a", ":8080", "-d", "postgres://x", "-g", ":9090"},
			allowedFlags: []string{"-a", "-g"},
			want:         []string{"-a", ":8080", "-g", ":9090"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowedFlags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short -c", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/etc/blog.json"}
		assert.Equal(t, "/etc/blog.json", JsonConfigFlags())
	})

	t.Run("long -config", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", "/etc/long.json"}
		assert.Equal(t, "/etc/long.json", JsonConfigFlags())
	})

	t.Run("absent", func(t *testing.T) {
		os.Args = []string{"testbin", "-a", ":8080"}
		assert.Empty(t, JsonConfigFlags())
	})
}

func TestEnvFileFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short -e", func(t *testing.T) {
		os.Args = []string{"testbin", "-e", "local.env", "-c", "x.json"}
		assert.Equal(t, "local.env", EnvFileFlags())
	})

	t.Run("long with equals", func(t *testing.T) {
		os.Args = []string{"testbin", "-env-file=prod.env"}
		assert.Equal(t, "prod.env", EnvFileFlags())
	})

	t.Run("absent", func(t *testing.T) {
		os.Args = []string{"testbin"}
		assert.Empty(t, EnvFileFlags())
	})
}
