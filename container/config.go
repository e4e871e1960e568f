package container

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigHTTPServer struct for HTTP ConfigTransport configuration
type ConfigHTTPServer struct {
	Port int `yaml:"port" validate:"required"`

	// DebugError attach the raw error to error responses. Keep it off in production.
	DebugError bool `yaml:"debugError"`

	// IconHookToken is the shared secret expected in X-Hook-Token by the storage notification endpoint.
	IconHookToken string `yaml:"iconHookToken"`
}

// ConfigTransport is a configuration for Admin ConfigTransport: HTTP, gRPC or anything
type ConfigTransport struct {
	HTTP ConfigHTTPServer `yaml:"http"`
}

type ConfigGoSqlDb struct {
	Debug bool   `yaml:"debug"`
	DSN   string `yaml:"dsn"` // Data Source Name

	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type ConfigDatabaseResource struct {
	Disable bool   `yaml:"disable"`
	Driver  string `yaml:"driver"` // postgres

	Postgres ConfigGoSqlDb `yaml:"postgres"`
}

// ConfigDatabaseResources redefine config
type ConfigDatabaseResources map[string]ConfigDatabaseResource

type ConfigRedisResource struct {
	Mode       string   `yaml:"mode"` // single, sentinel, cluster
	Address    []string `yaml:"address"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	DB         int      `yaml:"db"`
	MasterName string   `yaml:"masterName"`
}

type ConfigRedisResources map[string]ConfigRedisResource

// ConfigCache select the cache backend: none, inmemory or redis.
type ConfigCache struct {
	Type       string        `yaml:"type"`
	RedisLabel string        `yaml:"redisLabel"`
	MaxBytes   int           `yaml:"maxBytes"`
	TTL        time.Duration `yaml:"ttl"`
}

type ConfigServiceApp struct {
	DBLabel string      `yaml:"dbLabel"`
	Cache   ConfigCache `yaml:"cache"`
}

type ConfigServiceVendor struct {
	DBLabel string `yaml:"dbLabel"`
}

type ConfigServices struct {
	App    ConfigServiceApp    `yaml:"app"`
	Vendor ConfigServiceVendor `yaml:"vendor"`
}

type ConfigStaticUser struct {
	Email   string   `yaml:"email"`
	Name    string   `yaml:"name"`
	Vendors []string `yaml:"vendors"`
	IsAdmin bool     `yaml:"isAdmin"`
}

// ConfigIdentity select the identity provider: http or static.
// Static users are keyed by bearer token and only meant for local development.
type ConfigIdentity struct {
	Type         string                      `yaml:"type"`
	URL          string                      `yaml:"url"`
	ClientID     string                      `yaml:"clientId"`
	ClientSecret string                      `yaml:"clientSecret"`
	TokenURL     string                      `yaml:"tokenUrl"`
	Timeout      time.Duration               `yaml:"timeout"`
	Cache        ConfigCache                 `yaml:"cache"`
	Static       map[string]ConfigStaticUser `yaml:"static"`
}

// ConfigObjectStorage select the icon bucket: firebase or noop.
type ConfigObjectStorage struct {
	Type            string        `yaml:"type"`
	CredentialsFile string        `yaml:"credentialsFile"`
	Bucket          string        `yaml:"bucket"`
	Prefix          string        `yaml:"prefix"`
	GoogleAccessID  string        `yaml:"googleAccessID"`
	PrivateKeyFile  string        `yaml:"privateKeyFile"`
	UploadURLExpiry time.Duration `yaml:"uploadURLExpiry"`
}

type ConfigSMTP struct {
	ServerHost      string `yaml:"serverHost"`
	ServerPort      int    `yaml:"serverPort"`
	AuthIdentity    string `yaml:"authIdentity"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	DisableStartTLS bool   `yaml:"disableStartTLS"`
}

// ConfigNotifier select the notification delivery: smtp or noop.
type ConfigNotifier struct {
	Type        string     `yaml:"type"`
	SMTP        ConfigSMTP `yaml:"smtp"`
	Sender      string     `yaml:"sender"`
	AdminEmails []string   `yaml:"adminEmails"`
	MaxWorker   int        `yaml:"maxWorker"`
	MaxQueue    int        `yaml:"maxQueue"`
	MachineID   uint16     `yaml:"machineID"`
}

type ConfigTracer struct {
	Disable        bool   `yaml:"disable"`
	Environment    string `yaml:"environment"`
	JaegerEndpoint string `yaml:"jaegerEndpoint"`
}

// Config contains application config
type Config struct {
	Transport         ConfigTransport         `yaml:"transport"`
	DatabaseResources ConfigDatabaseResources `yaml:"databaseResources"`
	RedisResources    ConfigRedisResources    `yaml:"redisResources"`
	Services          ConfigServices          `yaml:"services"`
	Identity          ConfigIdentity          `yaml:"identity"`
	ObjectStorage     ConfigObjectStorage     `yaml:"objectStorage"`
	Notifier          ConfigNotifier          `yaml:"notifier"`
	Tracer            ConfigTracer            `yaml:"tracer"`
}

// LoadConfig read the YAML file at path. Unknown fields are ignored.
func LoadConfig(path string) (cfg Config, err error) {
	fileContent, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("error read file config %s: %w", path, err)
		return
	}

	cfg, err = ParseConfig(fileContent)
	if err != nil {
		err = fmt.Errorf("error parse file config %s: %w", path, err)
	}

	return
}

func ParseConfig(content []byte) (cfg Config, err error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(false)
	err = dec.Decode(&cfg)
	return
}
