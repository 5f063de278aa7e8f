package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// notifier removal modes
const (
	RemoveByIdentity = "identity"
	RemoveByPosition = "position"
)

type Config struct {
	AppName string `json:"appName"`
	Env     string `json:"env"`
	Build   string `json:"build"`
	Debug   bool   `json:"debug"`

	BaseURL         string        `json:"baseURL" validate:"required,url"`
	DefaultRedirect string        `json:"defaultRedirect"`
	RequestTimeout  time.Duration `json:"requestTimeout" validate:"gte=0"`
	RedirectDelay   time.Duration `json:"redirectDelay" validate:"gte=0"`

	NotifierDelay   time.Duration `json:"notifierDelay" validate:"gte=0"`
	NotifierRemoval string        `json:"notifierRemoval" validate:"oneof=identity position"`

	ChartWidth  int `json:"chartWidth" validate:"gt=0"`
	ChartHeight int `json:"chartHeight" validate:"gt=0"`

	RollbarToken string `json:"-"`
}

// NewConfig loads the configuration from the environment.
// A `config/.env.<env>` file is loaded first when it exists.
func NewConfig() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}

	v := viper.New()
	v.SetEnvPrefix("eztutor")
	v.AutomaticEnv()
	SetDefaults(v, env)
	return LoadConfig(v)
}

// SetDefaults fills v with the default values for env.
func SetDefaults(v *viper.Viper, env string) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "EzTutor")
	v.SetDefault("env", env)
	v.SetDefault("build", "dev")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("baseURL", "http://localhost:5000")
	v.SetDefault("defaultRedirect", "/dashboard/dashboard_home")
	v.SetDefault("requestTimeout", time.Duration(0))
	v.SetDefault("redirectDelay", 3*time.Second)
	v.SetDefault("notifierDelay", 5*time.Second)
	v.SetDefault("notifierRemoval", RemoveByIdentity)
	v.SetDefault("chartWidth", 800)
	v.SetDefault("chartHeight", 400)
	v.SetDefault("rollbarToken", "")
}

// LoadConfig reads a validated Config out of v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	conf := &Config{
		AppName:         v.GetString("appName"),
		Env:             v.GetString("env"),
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		BaseURL:         strings.TrimRight(v.GetString("baseURL"), "/"),
		DefaultRedirect: v.GetString("defaultRedirect"),
		RequestTimeout:  v.GetDuration("requestTimeout"),
		RedirectDelay:   v.GetDuration("redirectDelay"),
		NotifierDelay:   v.GetDuration("notifierDelay"),
		NotifierRemoval: CleanString(v.GetString("notifierRemoval"), true /* lower */),
		ChartWidth:      v.GetInt("chartWidth"),
		ChartHeight:     v.GetInt("chartHeight"),
		RollbarToken:    v.GetString("rollbarToken"),
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks conf against its `validate` tags; the field errors carry the viper key names.
func (conf *Config) Validate() error {
	validate, translator := NewValidator()
	err := validate.Struct(conf)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validating configuration")
	}
	flds := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		flds = append(flds, FieldError{Field: fe.Field(), Error: fe.Translate(translator)})
	}
	return NewValidationError(errors.New("invalid configuration"), flds...)
}
