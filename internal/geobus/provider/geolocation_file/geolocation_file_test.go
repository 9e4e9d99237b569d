// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation_file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"
)

const (
	testFile = "../../../../testdata/geolocation"
	testLat  = 13.0827
	testLon  = 80.2707
)

func TestGeolocationFileProvider_Name(t *testing.T) {
	if got := NewGeolocationFileProvider(testFile).Name(); got != name {
		t.Errorf("expected provider name to be %s, got %s", name, got)
	}
}

func TestGeolocationFileProvider_readFile(t *testing.T) {
	t.Run("fixture files", func(t *testing.T) {
		tests := []struct {
			name    string
			file    string
			wantErr error
		}{
			{"valid file with comment", testFile, nil},
			{"no coordinates", testFile + "_nocoord", ErrNoCoordinates},
			{"broken latitude", testFile + "_brokenlat", ErrNoCoordinates},
			{"broken longitude", testFile + "_brokenlon", ErrNoCoordinates},
			{"missing file", "non-existent.txt", os.ErrNotExist},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				lat, lon, err := NewGeolocationFileProvider(tt.file).readFile()
				if tt.wantErr != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Errorf("expected error to be %s, got %v", tt.wantErr, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("failed to read file: %s", err)
				}
				if lat != testLat || lon != testLon {
					t.Errorf("expected coordinates %f,%f, got %f,%f", testLat, testLon, lat, lon)
				}
			})
		}
	})
	t.Run("first valid line wins", func(t *testing.T) {
		content := "# home\n91.5,10.0\n52.52,13.405,7\n 48.137 , 11.575 \n50.0,8.0\n"
		path := filepath.Join(t.TempDir(), "geolocation")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write geolocation file: %s", err)
		}
		lat, lon, err := NewGeolocationFileProvider(path).readFile()
		if err != nil {
			t.Fatalf("failed to read file: %s", err)
		}
		if lat != 48.137 || lon != 11.575 {
			t.Errorf("expected coordinates 48.137,11.575, got %f,%f", lat, lon)
		}
	})
}

func TestGeolocationFileProvider_LookupStream(t *testing.T) {
	t.Run("result carries the file accuracy and provider metadata", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()
			provider := NewGeolocationFileProvider(testFile)

			result := <-provider.LookupStream(ctx, "test")
			cancel()
			synctest.Wait()

			if result.Key != "test" || result.Source != name {
				t.Errorf("expected key test from %s, got %s from %s", name, result.Key, result.Source)
			}
			if result.Lat != testLat || result.Lon != testLon {
				t.Errorf("expected coordinates %f,%f, got %f,%f", testLat, testLon, result.Lat, result.Lon)
			}
			if result.AccuracyMeters != Accuracy {
				t.Errorf("expected accuracy to be %d, got %f", Accuracy, result.AccuracyMeters)
			}
			if result.TTL != provider.ttl {
				t.Errorf("expected TTL to be %s, got %s", provider.ttl, result.TTL)
			}
		})
	})
	t.Run("unchanged coordinates are emitted once, changes and recoveries again", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			reads := []struct {
				lat, lon float64
				err      error
			}{
				{1.0, 2.0, nil},
				{1.0, 2.0, nil},
				{0, 0, errors.New("intentionally failing")},
				{3.0, 4.0, nil},
			}
			var mu sync.Mutex
			calls := 0
			provider := NewGeolocationFileProvider(testFile)
			provider.period = time.Minute
			provider.locateFn = func() (float64, float64, error) {
				mu.Lock()
				defer mu.Unlock()
				r := reads[min(calls, len(reads)-1)]
				calls++
				return r.lat, r.lon, r.err
			}

			out := provider.LookupStream(ctx, "test")
			first := <-out
			second := <-out
			cancel()
			if _, ok := <-out; ok {
				t.Error("expected stream to be closed after cancellation")
			}

			if first.Lat != 1.0 || first.Lon != 2.0 {
				t.Errorf("expected first result 1,2, got %f,%f", first.Lat, first.Lon)
			}
			if second.Lat != 3.0 || second.Lon != 4.0 {
				t.Errorf("expected second result 3,4, got %f,%f", second.Lat, second.Lon)
			}
			mu.Lock()
			defer mu.Unlock()
			if calls != 4 {
				t.Errorf("expected 4 reads, got %d", calls)
			}
		})
	})
}
