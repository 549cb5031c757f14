// Package config loads runner configuration through viper. Every tunable
// has a default so a bare config file (or none at all) still yields a
// playable simulation. The simulation core never reads viper directly;
// Tuning() snapshots the physics knobs into a plain value struct.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/extremebounce/arena/internal/physics"
)

// MemoryConfig holds in-memory/JSON replay backend settings.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// StorageConfig selects and configures the round recorder backend.
type StorageConfig struct {
	Type string `json:"type" mapstructure:"type"`
	Path string `json:"path" mapstructure:"path"`

	// FrameSampleEvery stores every Nth snapshot for replay; 0 disables
	// frame recording.
	FrameSampleEvery int          `json:"frameSampleEvery" mapstructure:"frameSampleEvery"`
	Memory           MemoryConfig `json:"memory" mapstructure:"memory"`
}

// SetDefaults registers default values for every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("simulation.timestep", 1.0/60.0)
	viper.SetDefault("simulation.gravity", 30.0)
	viper.SetDefault("simulation.moveAccel", 40.0)
	viper.SetDefault("simulation.maxSpeed", 15.0)
	viper.SetDefault("simulation.damping", 0.4)
	viper.SetDefault("simulation.restSpeed", 0.5)

	viper.SetDefault("bounce.impulse", 18.0)
	viper.SetDefault("bounce.chargeMax", 1.0)
	viper.SetDefault("bounce.chargeFloor", 0.15)
	viper.SetDefault("bounce.chargeRegen", 0.25)
	viper.SetDefault("bounce.padImpulse", 12.0)
	viper.SetDefault("bounce.padRefill", 0.5)

	viper.SetDefault("entity.radius", 1.0)
	viper.SetDefault("entity.mass", 1.0)
	viper.SetDefault("entity.restitution", 0.8)
	viper.SetDefault("entity.spawnSeparation", 2.5)

	viper.SetDefault("round.leadTime", 3.0)
	viper.SetDefault("round.timeLimit", 120.0)
	viper.SetDefault("round.settleDelay", 1.5)
	viper.SetDefault("round.knockoutSpeed", 14.0)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.path", "./rounds.db")
	viper.SetDefault("storage.frameSampleEvery", 6)
	viper.SetDefault("storage.memory.outputDir", "./replays")
	viper.SetDefault("storage.memory.compressOutput", false)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "bounceparty")

	viper.SetDefault("serve.enabled", false)
	viper.SetDefault("serve.addr", ":8777")
	viper.SetDefault("serve.origins", []string{})

	viper.SetDefault("monitor.interval", 5.0)
	viper.SetDefault("monitor.statusPath", "")

	viper.SetDefault("upload.enabled", false)
	viper.SetDefault("upload.url", "http://localhost:5000")
	viper.SetDefault("upload.secret", "")
	viper.SetDefault("upload.tag", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "bounce-metrics")
	viper.SetDefault("influx.bucket", "round_stats")
	viper.SetDefault("influx.backupPath", "./influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// Load reads configuration from a JSON file in configDir and sets
// default values. A missing file is not an error; defaults apply.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName("arenasim.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Tuning snapshots the physics configuration into the value struct the
// simulation core consumes.
func Tuning() physics.Tuning {
	return physics.Tuning{
		Timestep:          viper.GetFloat64("simulation.timestep"),
		Gravity:           viper.GetFloat64("simulation.gravity"),
		MoveAccel:         viper.GetFloat64("simulation.moveAccel"),
		MaxSpeed:          viper.GetFloat64("simulation.maxSpeed"),
		Damping:           viper.GetFloat64("simulation.damping"),
		RestSpeed:         viper.GetFloat64("simulation.restSpeed"),
		BounceImpulse:     viper.GetFloat64("bounce.impulse"),
		ChargeMax:         viper.GetFloat64("bounce.chargeMax"),
		ChargeFloor:       viper.GetFloat64("bounce.chargeFloor"),
		ChargeRegen:       viper.GetFloat64("bounce.chargeRegen"),
		PadImpulse:        viper.GetFloat64("bounce.padImpulse"),
		PadRefill:         viper.GetFloat64("bounce.padRefill"),
		KnockoutSpeed:     viper.GetFloat64("round.knockoutSpeed"),
		EntityRadius:      viper.GetFloat64("entity.radius"),
		EntityMass:        viper.GetFloat64("entity.mass"),
		EntityRestitution: viper.GetFloat64("entity.restitution"),
		SpawnSeparation:   viper.GetFloat64("entity.spawnSeparation"),
		LeadTime:          viper.GetFloat64("round.leadTime"),
		TimeLimit:         viper.GetFloat64("round.timeLimit"),
		SettleDelay:       viper.GetFloat64("round.settleDelay"),
	}
}

// Storage returns the storage backend configuration.
func Storage() StorageConfig {
	return StorageConfig{
		Type:             viper.GetString("storage.type"),
		Path:             viper.GetString("storage.path"),
		FrameSampleEvery: viper.GetInt("storage.frameSampleEvery"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
