// Package config loads the auth daemon's configuration from environment
// variables using struct tags.
package config

import (
	"fmt"
	"os"
	"time"

	"go-simpler.org/env"

	"github.com/h-uru/moula-authd/internal/config/keyvalue"
)

// C is the auth daemon's configuration. Deliberately flat and minimal: any
// richer, rarely-changed configuration belongs in the database, not here.
type C struct {
	DbHostname string `env:"DB_HOSTNAME" default:"localhost" usage:"postgres host"`
	DbPort     string `env:"DB_PORT" default:"5432" usage:"postgres port"`
	DbUsername string `env:"DB_USERNAME" default:"authd" usage:"postgres user"`
	DbPassword string `env:"DB_PASSWORD" default:"" usage:"postgres password"`
	DbDbaseName string `env:"DB_NAME" default:"moula" usage:"postgres database name"`

	GameServerAddress string `env:"GAME_SERVER_ADDRESS" default:"127.0.0.1:14617" usage:"game server RPC address"`
	SdlDescriptorDir  string `env:"SDL_DESCRIPTOR_DIR" default:"./SDL" usage:"directory of .sdl descriptor files"`

	RestrictLogins bool          `env:"RESTRICT_LOGINS" default:"false" usage:"deny login to non-admin, non-beta accounts at startup"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" default:"5s" usage:"max time to wait for client sessions to close on shutdown"`
	ShutdownPoll   time.Duration `env:"SHUTDOWN_POLL" default:"100ms" usage:"poll interval while waiting for sessions to close"`

	BroadcastBuffer int `env:"BROADCAST_BUFFER" default:"128" usage:"per-session outbound broadcast channel capacity"`
}

// DSN renders the libpq-style connection string pgx expects.
func (c *C) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		c.DbHostname, c.DbPort, c.DbUsername, c.DbPassword, c.DbDbaseName)
}

// New loads configuration from the environment, handling the
// "env"/"help"/"version" convenience subcommands.
func New(version string) (c *C) {
	if len(os.Args) == 2 && os.Args[1] == "version" {
		fmt.Println(version)
		os.Exit(0)
	}
	c = &C{}
	if err := env.Load(c, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(os.Args) == 2 && os.Args[1] == "help" {
		fmt.Printf("\nenvironment variables that configure authd\n\n")
		env.Usage(c, os.Stdout, nil)
		os.Exit(0)
	}
	if len(os.Args) == 2 && os.Args[1] == "env" {
		keyvalue.PrintEnv(*c, os.Stdout)
		os.Exit(0)
	}
	return
}
