package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	sparkerr "github.com/gwos/sparkmon/errors"
	"github.com/gwos/sparkmon/spark"
)

func TestGetConfig(t *testing.T) {
	configYAML := []byte(`
spark:
  backend: databricks
  url: "https://dbc-1234.cloud.databricks.com"
  clusterId: "0101-120000-abcd"
  token: "dapi-FROM-FILE"
transport:
  insecureSkipVerify: false
logger:
  level: 3
  condense: 10s
`)

	tmpfile, err := os.CreateTemp("", "config")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())
	_, err = tmpfile.Write(configYAML)
	assert.NoError(t, err)
	assert.NoError(t, tmpfile.Close())

	t.Setenv(ConfigEnv, tmpfile.Name())
	t.Setenv("SPARKMON_SPARK_TOKEN", "dapi-FROM-ENV")
	t.Setenv("SPARKMON_LOGGER_TIMEFORMAT", time.Kitchen)

	got := GetConfig()
	expected := Config{
		Spark: Spark{
			Backend:   spark.BackendDatabricks,
			URL:       "https://dbc-1234.cloud.databricks.com",
			ClusterID: "0101-120000-abcd",
			OrgID:     "0",
			UIPort:    spark.DefaultDatabricksUIPort,
			Token:     "dapi-FROM-ENV",
		},
		Transport: Transport{InsecureSkipVerify: false},
		Logger: Logger{
			Condense:    10 * time.Second,
			FileMaxSize: 1024 * 1024 * 10,
			FileRotate:  5,
			Level:       Debug,
			TimeFormat:  time.Kitchen,
		},
	}
	assert.Equal(t, expected, *got)
	assert.Same(t, got, GetConfig())

	c, err := got.NewClient()
	require.NoError(t, err)
	assert.Equal(t,
		"https://dbc-1234.cloud.databricks.com/driver-proxy-api/o/0/0101-120000-abcd/40001/api/v1",
		c.Endpoint())
}

func TestNewClientDefaultURL(t *testing.T) {
	tests := map[string]struct {
		backend  string
		endpoint string
	}{
		"local":   {spark.BackendLocal, "http://localhost:4040/api/v1"},
		"history": {spark.BackendHistory, "http://localhost:18080/api/v1"},
		"yarn":    {spark.BackendYARN, ""},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := defaults()
			cfg.Spark.Backend = tc.backend
			c, err := cfg.NewClient()
			if tc.endpoint == "" {
				assert.ErrorIs(t, err, sparkerr.ErrParams)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.endpoint, c.Endpoint())
		})
	}

	cfg := defaults()
	cfg.Spark.Backend = spark.BackendDatabricks
	cfg.Spark.ClusterID = "0101-120000-abcd"
	cfg.Spark.Token = "dapi-TOKEN"
	_, err := cfg.NewClient()
	assert.ErrorIs(t, err, sparkerr.ErrParams)
}

func TestSparkTokenCrypt(t *testing.T) {
	t.Setenv(SecKeyEnv, "s3cr3t")
	s := Spark{Backend: spark.BackendDatabricks, Token: "dapi-TOKEN"}

	data, err := yaml.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dapi-TOKEN")
	assert.Contains(t, string(data), SecVerPrefix)

	var got Spark
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, s, got)

	t.Setenv(SecKeyEnv, "")
	assert.Error(t, yaml.Unmarshal(data, &got))
}

func TestDecryptShortMessage(t *testing.T) {
	_, err := Decrypt([]byte("short"), []byte("key"))
	assert.Error(t, err)

	encrypted, err := Encrypt([]byte("message"), []byte("key"))
	require.NoError(t, err)
	_, err = Decrypt(encrypted, []byte("other key"))
	assert.Error(t, err)
	decrypted, err := Decrypt(encrypted, []byte("key"))
	require.NoError(t, err)
	assert.Equal(t, "message", string(decrypted))
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "Error", Error.String())
	assert.Equal(t, "Trace", Trace.String())
	assert.Equal(t, "Trace", LogLevel(9).String())
}
