package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/firdesk/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noWait(int) time.Duration { return 0 }

func TestNearestPoliceStation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "18.5204,73.8567", q.Get("location"))
		assert.Equal(t, "5000", q.Get("radius"))
		assert.Equal(t, "police", q.Get("type"))
		assert.Equal(t, "places-key", q.Get("key"))
		w.Write([]byte(`{"status":"OK","results":[
			{"name":"Shivajinagar Police Station","vicinity":"FC Road, Pune","geometry":{"location":{"lat":18.53,"lng":73.85}}},
			{"name":"Deccan Police Station","vicinity":"Deccan, Pune","geometry":{"location":{"lat":18.51,"lng":73.84}}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("places-key", 0).WithBaseURL(srv.URL)
	st, err := c.NearestPoliceStation(context.Background(), 18.5204, 73.8567)
	require.NoError(t, err)
	assert.Equal(t, &Station{
		Name:     "Shivajinagar Police Station",
		Address:  "FC Road, Pune",
		Location: Location{Lat: 18.53, Lng: 73.85},
	}, st)
}

func TestNearestPoliceStation_None(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", 100).WithBaseURL(srv.URL).NearestPoliceStation(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNoStations)
}

func TestNearestPoliceStation_BadCoordinates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient("k", 0).WithBaseURL(srv.URL)
	for _, p := range [][2]float64{{91, 0}, {-90.5, 0}, {0, 181}, {0, -180.1}} {
		_, err := c.NearestPoliceStation(context.Background(), p[0], p[1])
		assert.ErrorIs(t, err, ErrCoordinates, "%v", p)
	}
	assert.Zero(t, calls.Load())
}

func TestNearestPoliceStation_Denied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", 0).WithBaseURL(srv.URL).NearestPoliceStation(context.Background(), 1, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoStations)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestNearestPoliceStation_RetriesQuota(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","results":[]}`))
			return
		}
		w.Write([]byte(`{"status":"OK","results":[{"name":"Kothrud PS","vicinity":"Kothrud"}]}`))
	}))
	defer srv.Close()

	c := NewClient("k", 0).WithBaseURL(srv.URL).WithRetry(retry.Policy{Attempts: 3, Wait: noWait})
	st, err := c.NearestPoliceStation(context.Background(), 18.5, 73.8)
	require.NoError(t, err)
	assert.Equal(t, "Kothrud PS", st.Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(90.0001, 0))
}
