package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ENV_PREFIX = "SECURITYIQ_CONNECTOR"

	URL_APP_NAME                   = "URL_App_Name"
	URL_PATH_PREFIX                = "URL_Path_Prefix"
	URL_BASE_PATH                  = "URL_Base_Path"
	HTTP_SHUTDOWN_TIMEOUT          = "HTTP_Shutdown_Timeout"
	SERVICE_TO_SERVICE_CREDENTIALS = "Service_To_Service_Credentials"
	PROFILE                        = "Enable_Profile"
	REMOTE_CALL_TIMEOUT            = "Remote_Call_Timeout"
	SOAR_BASE_URL                  = "Soar_Base_Url"
	SOAR_CALL_TIMEOUT              = "Soar_Call_Timeout"
	CASE_CREATOR_IMPL              = "Case_Creator_Impl"
	CURSOR_STORE_IMPL              = "Cursor_Store_Impl"
	CURSOR_CACHE_SIZE              = "Cursor_Cache_Size"
	DEFAULT_CONTAINER_COUNT        = "Default_Container_Count"
	POLL_BACKFILL_DAYS             = "Poll_Backfill_Days"
	CASE_EVENTS_KAFKA_ENABLED      = "Case_Events_Kafka_Enabled"
	BROKERS                        = "Kafka_Brokers"
	CASE_EVENTS_TOPIC              = "Kafka_Case_Events_Topic"
	CASE_EVENTS_BATCH_SIZE         = "Kafka_Case_Events_Batch_Size"
	CASE_EVENTS_BATCH_BYTES        = "Kafka_Case_Events_Batch_Bytes"
	KAFKA_USERNAME                 = "Kafka_Username"
	KAFKA_PASSWORD                 = "Kafka_Password"
	KAFKA_SASL_MECHANISM           = "Kafka_SASL_Mechanism"
	KAFKA_CA                       = "Kafka_CA"
	DEFAULT_BROKER_ADDRESS         = "kafka:29092"
	CURSOR_DATABASE_HOST           = "Cursor_Database_Host"
	CURSOR_DATABASE_PORT           = "Cursor_Database_Port"
	CURSOR_DATABASE_USER           = "Cursor_Database_User"
	CURSOR_DATABASE_PASSWORD       = "Cursor_Database_Password"
	CURSOR_DATABASE_NAME           = "Cursor_Database_Name"
	CURSOR_DATABASE_SSL_MODE       = "Cursor_Database_SSL_Mode"
	CURSOR_DATABASE_SSL_ROOT_CERT  = "Cursor_Database_SSL_Root_Cert"
)

type Config struct {
	UrlAppName                  string
	UrlPathPrefix               string
	UrlBasePath                 string
	HttpShutdownTimeout         time.Duration
	ServiceToServiceCredentials map[string]interface{}
	Profile                     bool
	RemoteCallTimeout           time.Duration
	SoarBaseUrl                 string
	SoarCallTimeout             time.Duration
	CaseCreatorImpl             string
	CursorStoreImpl             string
	CursorCacheSize             int
	DefaultContainerCount       int
	PollBackfillDays            int
	CaseEventsKafkaEnabled      bool
	KafkaBrokers                []string
	KafkaCaseEventsTopic        string
	KafkaCaseEventsBatchSize    int
	KafkaCaseEventsBatchBytes   int
	KafkaUsername               string
	KafkaPassword               string
	KafkaSASLMechanism          string
	KafkaCA                     string
	CursorDatabaseHost          string
	CursorDatabasePort          int
	CursorDatabaseUser          string
	CursorDatabasePassword      string
	CursorDatabaseName          string
	CursorDatabaseSslMode       string
	CursorDatabaseSslRootCert   string
}

func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", URL_PATH_PREFIX, c.UrlPathPrefix)
	fmt.Fprintf(&b, "%s: %s\n", URL_APP_NAME, c.UrlAppName)
	fmt.Fprintf(&b, "%s: %s\n", URL_BASE_PATH, c.UrlBasePath)
	fmt.Fprintf(&b, "%s: %s\n", HTTP_SHUTDOWN_TIMEOUT, c.HttpShutdownTimeout)
	fmt.Fprintf(&b, "%s: %t\n", PROFILE, c.Profile)
	fmt.Fprintf(&b, "%s: %s\n", REMOTE_CALL_TIMEOUT, c.RemoteCallTimeout)
	fmt.Fprintf(&b, "%s: %s\n", SOAR_BASE_URL, c.SoarBaseUrl)
	fmt.Fprintf(&b, "%s: %s\n", SOAR_CALL_TIMEOUT, c.SoarCallTimeout)
	fmt.Fprintf(&b, "%s: %s\n", CASE_CREATOR_IMPL, c.CaseCreatorImpl)
	fmt.Fprintf(&b, "%s: %s\n", CURSOR_STORE_IMPL, c.CursorStoreImpl)
	fmt.Fprintf(&b, "%s: %d\n", CURSOR_CACHE_SIZE, c.CursorCacheSize)
	fmt.Fprintf(&b, "%s: %d\n", DEFAULT_CONTAINER_COUNT, c.DefaultContainerCount)
	fmt.Fprintf(&b, "%s: %d\n", POLL_BACKFILL_DAYS, c.PollBackfillDays)
	fmt.Fprintf(&b, "%s: %t\n", CASE_EVENTS_KAFKA_ENABLED, c.CaseEventsKafkaEnabled)
	fmt.Fprintf(&b, "%s: %s\n", BROKERS, c.KafkaBrokers)
	fmt.Fprintf(&b, "%s: %s\n", CASE_EVENTS_TOPIC, c.KafkaCaseEventsTopic)
	fmt.Fprintf(&b, "%s: %d\n", CASE_EVENTS_BATCH_SIZE, c.KafkaCaseEventsBatchSize)
	fmt.Fprintf(&b, "%s: %d\n", CASE_EVENTS_BATCH_BYTES, c.KafkaCaseEventsBatchBytes)
	fmt.Fprintf(&b, "%s: %s\n", CURSOR_DATABASE_HOST, c.CursorDatabaseHost)
	fmt.Fprintf(&b, "%s: %d\n", CURSOR_DATABASE_PORT, c.CursorDatabasePort)
	fmt.Fprintf(&b, "%s: %s\n", CURSOR_DATABASE_NAME, c.CursorDatabaseName)
	fmt.Fprintf(&b, "%s: %s\n", CURSOR_DATABASE_SSL_MODE, c.CursorDatabaseSslMode)
	return b.String()
}

func GetConfig() *Config {
	options := viper.New()

	options.SetDefault(URL_PATH_PREFIX, "api")
	options.SetDefault(URL_APP_NAME, "securityiq-connector")
	options.SetDefault(HTTP_SHUTDOWN_TIMEOUT, 2)
	options.SetDefault(SERVICE_TO_SERVICE_CREDENTIALS, "")
	options.SetDefault(PROFILE, false)
	options.SetDefault(REMOTE_CALL_TIMEOUT, 30)
	options.SetDefault(SOAR_BASE_URL, "https://localhost:9999/")
	options.SetDefault(SOAR_CALL_TIMEOUT, 30)
	options.SetDefault(CASE_CREATOR_IMPL, "rest")
	options.SetDefault(CURSOR_STORE_IMPL, "postgres")
	options.SetDefault(CURSOR_CACHE_SIZE, 10000)
	options.SetDefault(DEFAULT_CONTAINER_COUNT, 1)
	options.SetDefault(POLL_BACKFILL_DAYS, 30)
	options.SetDefault(CASE_EVENTS_KAFKA_ENABLED, false)
	options.SetDefault(BROKERS, []string{DEFAULT_BROKER_ADDRESS})
	options.SetDefault(CASE_EVENTS_TOPIC, "securityiq.connector.case-events")
	options.SetDefault(CASE_EVENTS_BATCH_SIZE, 100)
	options.SetDefault(CASE_EVENTS_BATCH_BYTES, 1048576)
	options.SetDefault(KAFKA_USERNAME, "")
	options.SetDefault(KAFKA_PASSWORD, "")
	options.SetDefault(KAFKA_SASL_MECHANISM, "plain")
	options.SetDefault(KAFKA_CA, "")
	options.SetDefault(CURSOR_DATABASE_HOST, "localhost")
	options.SetDefault(CURSOR_DATABASE_PORT, 5432)
	options.SetDefault(CURSOR_DATABASE_USER, "postgres")
	options.SetDefault(CURSOR_DATABASE_PASSWORD, "postgres")
	options.SetDefault(CURSOR_DATABASE_NAME, "securityiq-connector")
	options.SetDefault(CURSOR_DATABASE_SSL_MODE, "disable")
	options.SetDefault(CURSOR_DATABASE_SSL_ROOT_CERT, "db_ssl_root_cert.pem")

	options.SetEnvPrefix(ENV_PREFIX)
	options.AutomaticEnv()

	return &Config{
		UrlPathPrefix:               options.GetString(URL_PATH_PREFIX),
		UrlAppName:                  options.GetString(URL_APP_NAME),
		UrlBasePath:                 buildUrlBasePath(options.GetString(URL_PATH_PREFIX), options.GetString(URL_APP_NAME)),
		HttpShutdownTimeout:         options.GetDuration(HTTP_SHUTDOWN_TIMEOUT) * time.Second,
		ServiceToServiceCredentials: options.GetStringMap(SERVICE_TO_SERVICE_CREDENTIALS),
		Profile:                     options.GetBool(PROFILE),
		RemoteCallTimeout:           options.GetDuration(REMOTE_CALL_TIMEOUT) * time.Second,
		SoarBaseUrl:                 options.GetString(SOAR_BASE_URL),
		SoarCallTimeout:             options.GetDuration(SOAR_CALL_TIMEOUT) * time.Second,
		CaseCreatorImpl:             options.GetString(CASE_CREATOR_IMPL),
		CursorStoreImpl:             options.GetString(CURSOR_STORE_IMPL),
		CursorCacheSize:             options.GetInt(CURSOR_CACHE_SIZE),
		DefaultContainerCount:       options.GetInt(DEFAULT_CONTAINER_COUNT),
		PollBackfillDays:            options.GetInt(POLL_BACKFILL_DAYS),
		CaseEventsKafkaEnabled:      options.GetBool(CASE_EVENTS_KAFKA_ENABLED),
		KafkaBrokers:                options.GetStringSlice(BROKERS),
		KafkaCaseEventsTopic:        options.GetString(CASE_EVENTS_TOPIC),
		KafkaCaseEventsBatchSize:    options.GetInt(CASE_EVENTS_BATCH_SIZE),
		KafkaCaseEventsBatchBytes:   options.GetInt(CASE_EVENTS_BATCH_BYTES),
		KafkaUsername:               options.GetString(KAFKA_USERNAME),
		KafkaPassword:               options.GetString(KAFKA_PASSWORD),
		KafkaSASLMechanism:          options.GetString(KAFKA_SASL_MECHANISM),
		KafkaCA:                     options.GetString(KAFKA_CA),
		CursorDatabaseHost:          options.GetString(CURSOR_DATABASE_HOST),
		CursorDatabasePort:          options.GetInt(CURSOR_DATABASE_PORT),
		CursorDatabaseUser:          options.GetString(CURSOR_DATABASE_USER),
		CursorDatabasePassword:      options.GetString(CURSOR_DATABASE_PASSWORD),
		CursorDatabaseName:          options.GetString(CURSOR_DATABASE_NAME),
		CursorDatabaseSslMode:       options.GetString(CURSOR_DATABASE_SSL_MODE),
		CursorDatabaseSslRootCert:   options.GetString(CURSOR_DATABASE_SSL_ROOT_CERT),
	}
}

func buildUrlBasePath(pathPrefix string, appName string) string {
	return fmt.Sprintf("/%s/%s/v1", pathPrefix, appName)
}
