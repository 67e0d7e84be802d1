package database

import (
	"net/url"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upskillhub/upskill/core"
)

func testConfig() *core.Config {
	conf := &core.Config{}
	conf.Database.Host = "db.local"
	conf.Database.Port = 5433
	conf.Database.User = "upskill"
	conf.Database.Password = "p@ss word"
	conf.Database.AdminUser = "postgres"
	conf.Database.AdminPassword = "root"
	conf.Database.Name = "upskill"
	return conf
}

func TestDSN(t *testing.T) {
	conf := testConfig()

	u, err := url.Parse(dsn("upskill", false, conf))
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.local:5433", u.Host)
	assert.Equal(t, "/upskill", u.Path)
	assert.Equal(t, "upskill", u.User.Username())
	pwd, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pwd)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
	assert.Equal(t, "utc", u.Query().Get("timezone"))

	conf.Database.DisableTLS = true
	u, err = url.Parse(dsn("postgres", true, conf))
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.User.Username())
	assert.Equal(t, "disable", u.Query().Get("sslmode"))

	conf.Database.AdminUser = ""
	u, _ = url.Parse(dsn("postgres", true, conf))
	assert.Equal(t, "upskill", u.User.Username())
}

func TestOpen(t *testing.T) {
	conf := testConfig()

	for _, engine := range []string{"", EnginePQ, EnginePGX} {
		conf.Database.Engine = engine
		db, err := Open(conf)
		require.NoError(t, err, engine)
		assert.NotNil(t, db)
		_ = db.Close()
	}

	conf.Database.Engine = "mysql"
	_, err := Open(conf)
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "pq", err: &pq.Error{Code: "23505"}, want: true},
		{name: "pq wrapped", err: errors.Wrap(&pq.Error{Code: "23505"}, "inserting"), want: true},
		{name: "pq other code", err: &pq.Error{Code: "23503"}},
		{name: "pgx", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "pgx wrapped", err: errors.Wrap(&pgconn.PgError{Code: "23505"}, "inserting"), want: true},
		{name: "other", err: errors.New("23505")},
		{name: "nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
