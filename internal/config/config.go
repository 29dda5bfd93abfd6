package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/alecthomas/kingpin.v2"

	"git.lost.host/meutraa/ryth/internal/input"
	"git.lost.host/meutraa/ryth/internal/logger"
)

const (
	PlayCommand     = "play"
	ManifestCommand = "manifest"
)

const (
	SQLiteBackend = "sqlite"
	RedisBackend  = "redis"
	MemoryBackend = "memory"
)

type Minio struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	SSL       bool
}

type Config struct {
	Command string

	// play
	Archive     string // optional archive imported and selected on startup
	Library     string // directory, http(s) URL or "minio"
	Watch       string
	Minio       Minio
	Player      string
	Device      string // evdev keyboard, the terminal is used when empty
	FramePeriod time.Duration
	Release     time.Duration
	Window      time.Duration // how far ahead notes are drawn
	BarRow      uint
	Spacing     uint

	// manifest
	ManifestDir string

	Storage       string
	Database      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogFile  string
	LogLevel string

	keys map[string]string
}

// LoadEnv exports the variables in the given .env files. Missing files
// are not an error.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); nil != err && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("unable to load %s: %w", f, err)
		}
	}
	return nil
}

// Parse reads the command line, every flag can also come from its RYTH_
// environment variable.
func Parse(args []string) (*Config, error) {
	c := &Config{}
	app := kingpin.New("ryth", "Terminal lane rhythm game")
	app.Version("0.3.0")

	app.Flag("storage", "Leaderboard storage: sqlite, redis or memory").Envar("RYTH_STORAGE").Default(SQLiteBackend).EnumVar(&c.Storage, SQLiteBackend, RedisBackend, MemoryBackend)
	app.Flag("database", "SQLite database file").Envar("RYTH_DATABASE").Default("ryth.db").StringVar(&c.Database)
	app.Flag("redis-addr", "Redis address").Envar("RYTH_REDIS_ADDR").Default("localhost:6379").StringVar(&c.RedisAddr)
	app.Flag("redis-password", "Redis password").Envar("RYTH_REDIS_PASSWORD").StringVar(&c.RedisPassword)
	app.Flag("redis-db", "Redis database").Envar("RYTH_REDIS_DB").Default("0").IntVar(&c.RedisDB)
	app.Flag("log-file", "Log file, rotated").Envar("RYTH_LOG_FILE").Default("ryth.log").StringVar(&c.LogFile)
	app.Flag("log-level", "debug, info, warn or error").Envar("RYTH_LOG_LEVEL").Default("info").StringVar(&c.LogLevel)

	play := app.Command(PlayCommand, "Pick a chart and play it").Default()
	play.Arg("archive", "Chart archive to import").ExistingFileVar(&c.Archive)
	play.Flag("library", "Directory, URL or \"minio\" serving beatmaps.json").Envar("RYTH_LIBRARY").Default("beatmaps").Short('l').StringVar(&c.Library)
	play.Flag("watch", "Import archives dropped into this directory").Envar("RYTH_WATCH").Short('w').StringVar(&c.Watch)
	play.Flag("minio-endpoint", "S3 endpoint").Envar("RYTH_MINIO_ENDPOINT").StringVar(&c.Minio.Endpoint)
	play.Flag("minio-access-key", "S3 access key").Envar("RYTH_MINIO_ACCESS_KEY").StringVar(&c.Minio.AccessKey)
	play.Flag("minio-secret-key", "S3 secret key").Envar("RYTH_MINIO_SECRET_KEY").StringVar(&c.Minio.SecretKey)
	play.Flag("minio-bucket", "S3 bucket").Envar("RYTH_MINIO_BUCKET").Default("ryth").StringVar(&c.Minio.Bucket)
	play.Flag("minio-prefix", "Object prefix of the library").Envar("RYTH_MINIO_PREFIX").Default("beatmaps").StringVar(&c.Minio.Prefix)
	play.Flag("minio-ssl", "Use TLS for S3").Envar("RYTH_MINIO_SSL").BoolVar(&c.Minio.SSL)
	play.Flag("player", "Name on the leaderboard").Envar("RYTH_PLAYER").Default("Player").Short('n').StringVar(&c.Player)
	play.Flag("device", "evdev keyboard device").Envar("RYTH_DEVICE").Short('D').StringVar(&c.Device)
	play.Flag("frame-period", "Render frame period").Envar("RYTH_FRAME_PERIOD").Default("4ms").Short('p').DurationVar(&c.FramePeriod)
	play.Flag("release", "Terminal keys count as released after this").Envar("RYTH_RELEASE").Default("150ms").DurationVar(&c.Release)
	play.Flag("window", "Time shown above the hit bar").Envar("RYTH_WINDOW").Default("1500ms").Short('W').DurationVar(&c.Window)
	play.Flag("bar-row", "Rows from the bottom to the hit bar").Envar("RYTH_BAR_ROW").Default("4").UintVar(&c.BarRow)
	play.Flag("spacing", "Columns between lanes").Envar("RYTH_SPACING").Default("6").Short('S').UintVar(&c.Spacing)
	play.Flag("keys", "Lane keys per key count, e.g. 4=dfjk").Envar("RYTH_KEYS").StringMapVar(&c.keys)

	manifest := app.Command(ManifestCommand, "Write beatmaps.json for a directory of archives")
	manifest.Arg("dir", "Directory of .osz archives").Required().ExistingDirVar(&c.ManifestDir)

	cmd, err := app.Parse(args)
	if nil != err {
		return nil, err
	}
	c.Command = cmd
	if c.FramePeriod <= 0 {
		return nil, fmt.Errorf("frame period must be positive, got %s", c.FramePeriod)
	}
	return c, nil
}

func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:      logger.Level(strings.ToLower(c.LogLevel)),
		OutputPath: c.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

var defaultKeys = map[int]string{
	4: "asl;",
	5: "asjkl",
	6: "sdfjkl",
	7: "asdjkl;",
	8: "asdfjkl;",
}

const homeRow = "asdfghjkl;'"

// Keys returns the lane keys for a chart with n lanes
func (c *Config) Keys(n int) input.Keymap {
	if k, ok := c.keys[strconv.Itoa(n)]; ok && len([]rune(k)) >= n {
		return input.Keymap([]rune(k)[:n])
	}
	if k, ok := defaultKeys[n]; ok {
		return input.Keymap(k)
	}
	row := []rune(homeRow)
	return input.Keymap(row[:min(max(n, 0), len(row))])
}
