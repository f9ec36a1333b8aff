package prereq

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/metagen/config"
	"github.com/ridoystarlord/metagen/schema"
)

func TestCheckEnv(t *testing.T) {
	err := CheckEnv(&config.Config{DB: config.DBConfig{Driver: config.DriverMySQL}})
	assert.ErrorContains(t, err, "META_DB, META_DB_USER")
}

func TestCheckDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	require.NoError(t, CheckDatabase(context.Background(), db))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err = CheckDatabase(context.Background(), db)
	assert.ErrorIs(t, err, schema.ErrConnectivity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabasesExistAndCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SHOW DATABASES").
		WillReturnRows(sqlmock.NewRows([]string{"Database"}).
			AddRow("information_schema").AddRow("mysql").AddRow("blog"))
	mock.ExpectExec("CREATE DATABASE IF NOT EXISTS `blog_test`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	exists, err := DatabasesExist(ctx, db, []string{"blog", "blog_test"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"blog": true, "blog_test": false}, exists)

	require.NoError(t, CreateDatabase(ctx, db, "blog_test"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckURLs(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	urls := []string{
		srv.URL + "/missing",
		host + "/ok",
		srv.URL + "/a",
		srv.URL + "/b",
		"http://127.0.0.1:1/closed",
	}

	results := CheckURLs(context.Background(), srv.Client(), urls, 2)
	require.Len(t, results, 5)

	byURL := map[string]URLResult{}
	for i, r := range results {
		byURL[r.URL] = r
		if i > 0 {
			assert.LessOrEqual(t, results[i-1].URL, r.URL)
		}
	}

	assert.Equal(t, "Reachable", byURL[srv.URL+"/ok"].Status, "scheme is added")
	assert.True(t, byURL[srv.URL+"/a"].Reachable)
	assert.Equal(t, "Not reachable (Status code: 404)", byURL[srv.URL+"/missing"].Status)
	assert.True(t, strings.HasPrefix(byURL["http://127.0.0.1:1/closed"].Status, "Error: "))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
