package spark

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwos/sparkmon/clients"
	sparkerr "github.com/gwos/sparkmon/errors"
)

func TestYARNPaths(t *testing.T) {
	ctx := context.Background()
	for _, tc := range calls(ctx) {
		if tc.name == "Applications" {
			continue
		}
		t.Run(tc.name, func(t *testing.T) {
			proxied := "/proxy/app-123" + apiV1 + tc.path
			b, ts := newBackend(t, map[string]string{proxied: tc.body})
			c := NewYARN(ts.URL+"/", clients.NewTransport())
			assert.Equal(t, ts.URL, c.Endpoint())

			_, err := tc.run(c)
			require.NoError(t, err)
			assert.Equal(t, proxied, b.last().URL.Path)
		})
	}
}

func TestYARNApplications(t *testing.T) {
	b, ts := newBackend(t, map[string]string{
		yarnAppsPath: `{"apps":{"app":[
			{"id":"application_1_0002","name":"etl","user":"spark","state":"RUNNING","startedTime":1700000000000,"elapsedTime":5000},
			{"id":"application_1_0001","name":"report","user":"bi","state":"FINISHED","startedTime":1600000000000,"finishedTime":1600000009000,"elapsedTime":9000}
		]}}`,
	})
	c := NewYARN(ts.URL, clients.NewTransport())

	apps, err := c.Applications(context.Background(), Params{"status": "completed", "queue": "default"})
	require.NoError(t, err)
	q := b.last().URL.Query()
	assert.Equal(t, "SPARK", q.Get("applicationTypes"))
	assert.Equal(t, "FINISHED,FAILED,KILLED", q.Get("states"))
	assert.Equal(t, "default", q.Get("queue"))

	require.Len(t, apps, 2)
	assert.Equal(t, "application_1_0002", apps[0].ID)
	assert.Equal(t, "etl", apps[0].Name)
	require.Len(t, apps[0].Attempts, 1)
	assert.False(t, apps[0].Attempts[0].Completed)
	assert.Equal(t, "spark", apps[0].Attempts[0].SparkUser)
	assert.True(t, apps[1].Attempts[0].Completed)
	assert.Equal(t, int64(1600000009000), apps[1].Attempts[0].EndTimeEpoch)
	assert.Equal(t, int64(9000), apps[1].Attempts[0].Duration)
}

func TestYARNApplicationsEmpty(t *testing.T) {
	_, ts := newBackend(t, map[string]string{yarnAppsPath: `{"apps":null}`})
	apps, err := NewYARN(ts.URL, clients.NewTransport()).Applications(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestYARNApplicationsParams(t *testing.T) {
	b, ts := newBackend(t, map[string]string{yarnAppsPath: `{"apps":{}}`})
	c := NewYARN(ts.URL, clients.NewTransport())

	_, err := c.Applications(context.Background(), Params{"status": "zombie"})
	assert.ErrorIs(t, err, sparkerr.ErrParams)
	_, err = c.Applications(context.Background(), Params{"minDate": "2024-01-01"})
	assert.ErrorIs(t, err, sparkerr.ErrParams)
	assert.Equal(t, int32(0), b.hits.Load())
}

func TestDatabricksPaths(t *testing.T) {
	ctx := context.Background()
	prefix := "/driver-proxy-api/o/0/0101-120000-abcd/40001" + apiV1
	for _, tc := range calls(ctx) {
		t.Run(tc.name, func(t *testing.T) {
			b, ts := newBackend(t, map[string]string{prefix + tc.path: tc.body})
			c := NewDatabricks(ts.URL, "0", "0101-120000-abcd", DefaultDatabricksUIPort, "dapi-TOKEN",
				clients.NewTransport())
			assert.Equal(t, ts.URL+prefix, c.Endpoint())

			_, err := tc.run(c)
			require.NoError(t, err)
			req := b.last()
			assert.Equal(t, c.Endpoint()+tc.path, ts.URL+req.URL.Path)
			assert.Equal(t, "Bearer dapi-TOKEN", req.Header.Get("Authorization"))
		})
	}
}

func TestNew(t *testing.T) {
	tr := clients.NewTransport()
	tests := []struct {
		name     string
		cfg      Config
		endpoint string
		err      error
	}{
		{"default", Config{}, "http://localhost:4040/api/v1", nil},
		{"local", Config{Backend: BackendLocal, URL: "http://driver:4040/"}, "http://driver:4040/api/v1", nil},
		{"history", Config{Backend: BackendHistory}, "http://localhost:18080/api/v1", nil},
		{"yarn", Config{Backend: BackendYARN, URL: "http://rm:8088"}, "http://rm:8088", nil},
		{"yarn without url", Config{Backend: BackendYARN}, "", sparkerr.ErrParams},
		{"databricks", Config{Backend: BackendDatabricks, URL: "https://dbc.cloud.databricks.com",
			ClusterID: "c1", Token: "t"},
			"https://dbc.cloud.databricks.com/driver-proxy-api/o/0/c1/40001/api/v1", nil},
		{"databricks org and port", Config{Backend: BackendDatabricks, URL: "https://dbc.cloud.databricks.com",
			OrgID: "42", ClusterID: "c1", UIPort: 4041, Token: "t"},
			"https://dbc.cloud.databricks.com/driver-proxy-api/o/42/c1/4041/api/v1", nil},
		{"databricks without token", Config{Backend: BackendDatabricks, URL: "https://dbc", ClusterID: "c1"},
			"", sparkerr.ErrParams},
		{"unknown", Config{Backend: "mesos"}, "", sparkerr.ErrParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, tr)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.endpoint, c.Endpoint())
		})
	}
}

func TestNewVariants(t *testing.T) {
	c, err := New(Config{Backend: BackendYARN, URL: "http://rm:8088"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &YARN{}, c)

	c, err = New(Config{Backend: BackendDatabricks, URL: "https://dbc", ClusterID: "c1", Token: "t"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Databricks{}, c)

	c, err = New(Config{Backend: BackendHistory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Local{}, c)
}
