package main

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/runoshun/git-pilot/internal/app"
)

func TestCanRunWithoutConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{name: "no args opens the board", args: nil, want: false},
		{name: "help flag", args: []string{"--help"}, want: true},
		{name: "help shorthand", args: []string{"list", "-h"}, want: true},
		{name: "version flag", args: []string{"--version"}, want: true},
		{name: "help subcommand", args: []string{"help", "new"}, want: true},
		{name: "agents", args: []string{"agents"}, want: true},
		{name: "init needs a container", args: []string{"init"}, want: false},
		{name: "task command", args: []string{"new", "--title", "test"}, want: false},
		{name: "apply", args: []string{"apply", "3f2a"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canRunWithoutConfig(tt.args))
		})
	}
}

func TestRunWithoutContainer(t *testing.T) {
	cfgErr := errors.New("configuration error: unknown agent preset")

	tests := []struct {
		name       string
		args       []string
		wantCalled bool
		wantErr    error
	}{
		{name: "allowed command executes", args: []string{"pilot", "agents"}, wantCalled: true},
		{name: "other command reports config error", args: []string{"pilot", "list"}, wantErr: cfgErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalArgs := os.Args
			originalRoot := newRootCommand
			t.Cleanup(func() {
				os.Args = originalArgs
				newRootCommand = originalRoot
			})

			called := false
			os.Args = tt.args
			newRootCommand = func(c *app.Container, _ string) *cobra.Command {
				assert.Nil(t, c)
				return &cobra.Command{
					Use:  "pilot",
					Args: cobra.ArbitraryArgs,
					RunE: func(*cobra.Command, []string) error {
						called = true
						return nil
					},
				}
			}

			err := runWithoutContainer(cfgErr)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}
