package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/ponto/internal/common"
	"github.com/Veraticus/ponto/internal/engine"
	"github.com/Veraticus/ponto/internal/face"
)

// Settings are the user-tunable processing options.
type Settings struct {
	ModelsDir            string `validate:"required"`
	TempDir              string
	Tolerance            float64 `validate:"gte=0.35,lte=0.6"`
	Upsample             int     `validate:"gte=0,lte=4"`
	MaxUpsampleDimension int     `validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// SetDefaults registers default values for every key this package reads.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("engine.tolerance", face.DefaultTolerance)
	v.SetDefault("engine.upsample", face.DefaultEmbedderConfig().Upsample)
	v.SetDefault("engine.max_upsample_dimension", face.DefaultEmbedderConfig().MaxDimension)
	v.SetDefault("engine.models_dir", DefaultModelsDir)
	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("roster.photo_dir", DefaultPhotoDir)
	v.SetDefault("sheets.enabled", true)
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the environment without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// LoadSettings reads and validates the engine section.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	s := Settings{
		ModelsDir:            ExpandPath(v.GetString("engine.models_dir")),
		TempDir:              ExpandPath(v.GetString("engine.temp_dir")),
		Tolerance:            v.GetFloat64("engine.tolerance"),
		Upsample:             v.GetInt("engine.upsample"),
		MaxUpsampleDimension: v.GetInt("engine.max_upsample_dimension"),
	}

	if err := validate.Struct(&s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("engine.%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
			}
			return nil, fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return &s, nil
}

// EngineConfig converts validated settings into the pipeline configuration.
func (s *Settings) EngineConfig() engine.Config {
	c := engine.DefaultConfig()
	c.Tolerance = s.Tolerance
	c.TempRoot = s.TempDir
	c.Embedder = face.EmbedderConfig{Upsample: s.Upsample, MaxDimension: s.MaxUpsampleDimension}
	return c
}
