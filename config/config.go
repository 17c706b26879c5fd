package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Secret  string `yaml:"secret"`
	JwtTTL  int    `yaml:"jwt_ttl"`
	TlsCert string `yaml:"tls_cert"`
	TlsKey  string `yaml:"tls_key"`
}

type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type SmtpConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type GatewayConfig struct {
	// Hosted payment page provider
	PaymentApiUrl string `yaml:"payment_api_url"`
	PaymentApiKey string `yaml:"payment_api_key"`
	// WhatsApp HTTP gateway used for OTP and invoice notices
	WhatsappApiUrl string `yaml:"whatsapp_api_url"`
	WhatsappApiKey string `yaml:"whatsapp_api_key"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system"`
	Web      WebConfig     `yaml:"web"`
	Database DBConfig      `yaml:"database"`
	Logger   LogConfig     `yaml:"logger"`
	Smtp     SmtpConfig    `yaml:"smtp"`
	Gateway  GatewayConfig `yaml:"gateway"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "milkrun",
		Location: "Asia/Kolkata",
		Workdir:  "/var/milkrun",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   1816,
		Secret: "9b6de5cc-milkrun-1816-91b8-2ba2adb23608",
		JwtTTL: 86400,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "milkrun_v1",
		User:     "postgres",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/milkrun/milkrun.log",
	},
}

func setEnvValue(name string, f func(v string)) {
	if v, ok := os.LookupEnv(name); ok {
		f(v)
	}
}

// LoadConfig reads the YAML config file and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			fcfg := new(AppConfig)
			if err := yaml.Unmarshal(data, fcfg); err == nil {
				cfg = fcfg
			}
		}
	}

	setEnvValue("MILKRUN_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("MILKRUN_LOCATION", func(v string) { cfg.System.Location = v })
	setEnvValue("MILKRUN_WEB_SECRET", func(v string) { cfg.Web.Secret = v })
	setEnvValue("MILKRUN_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("MILKRUN_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvValue("MILKRUN_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("MILKRUN_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("MILKRUN_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvValue("MILKRUN_SMTP_HOST", func(v string) { cfg.Smtp.Host = v })
	setEnvValue("MILKRUN_SMTP_USER", func(v string) { cfg.Smtp.Username = v })
	setEnvValue("MILKRUN_SMTP_PWD", func(v string) { cfg.Smtp.Password = v })
	setEnvValue("MILKRUN_PAYMENT_API_KEY", func(v string) { cfg.Gateway.PaymentApiKey = v })
	setEnvValue("MILKRUN_WHATSAPP_API_KEY", func(v string) { cfg.Gateway.WhatsappApiKey = v })

	return cfg
}

// WriteConfig serializes the config to a YAML file.
func WriteConfig(cfile string, cfg *AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(cfile, data, 0644)
}
