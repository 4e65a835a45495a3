package util

import (
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeTimeProvider(t *testing.T) {
	mu.Lock()
	globalTimeProvider = nil
	mu.Unlock()

	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{
			name:     "local timezone",
			timezone: "Local",
		},
		{
			name:     "UTC timezone",
			timezone: "UTC",
		},
		{
			name:     "valid timezone Europe/Vilnius",
			timezone: "Europe/Vilnius",
		},
		{
			name:     "empty timezone defaults to Local",
			timezone: "",
		},
		{
			name:     "invalid timezone",
			timezone: "Invalid/Timezone",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitializeTimeProvider(tt.timezone)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid timezone 'Invalid/Timezone'")
				assert.Contains(t, err.Error(), "Valid examples:")
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, globalTimeProvider)
			}
		})
	}
}

func TestGetTimeProviderDefaultsToLocal(t *testing.T) {
	mu.Lock()
	globalTimeProvider = nil
	mu.Unlock()

	provider := GetTimeProvider()

	require.NotNil(t, provider)
	assert.Equal(t, time.Local, provider.Location())
}

func TestTimeProvider_In(t *testing.T) {
	provider := &TimeProvider{}
	testTime := time.Date(2019, 8, 1, 22, 30, 0, 0, time.UTC)

	tests := []struct {
		timezone    string
		expectedDay int
	}{
		{"UTC", 1},
		{"Europe/Vilnius", 2},
		{"America/New_York", 1},
		{"Asia/Tokyo", 2},
	}

	for _, tt := range tests {
		t.Run(tt.timezone, func(t *testing.T) {
			require.NoError(t, provider.SetTimezone(tt.timezone))
			assert.Equal(t, tt.expectedDay, provider.In(testTime).Day())
		})
	}
}

func TestTimeProvider_ParseDate(t *testing.T) {
	provider := &TimeProvider{}
	require.NoError(t, provider.SetTimezone("Europe/Vilnius"))
	vilnius := provider.Location()

	tests := []struct {
		name     string
		input    string
		expected *time.Time
		wantErr  bool
	}{
		{
			name:  "empty",
			input: "",
		},
		{
			name:     "day",
			input:    "2019-08-05",
			expected: ptr(time.Date(2019, 8, 5, 0, 0, 0, 0, vilnius)),
		},
		{
			name:     "month",
			input:    "2020-02",
			expected: ptr(time.Date(2020, 2, 1, 0, 0, 0, 0, vilnius)),
		},
		{
			name:    "invalid",
			input:   "05/08/2019",
			wantErr: true,
		},
		{
			name:    "out of range day",
			input:   "2019-02-30",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provider.ParseDate(tt.input)
			if tt.wantErr {
				assert.ErrorContains(t, err, "YYYY-MM-DD")
				return
			}
			require.NoError(t, err)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.expected.Equal(*got), "got %s", got)
		})
	}
}

func TestTimeProvider_ParseEndDate(t *testing.T) {
	provider := &TimeProvider{}
	require.NoError(t, provider.SetTimezone("Europe/Vilnius"))
	vilnius := provider.Location()

	got, err := provider.ParseEndDate("2019-03")
	require.NoError(t, err)
	assert.True(t, time.Date(2019, 3, 31, 0, 0, 0, 0, vilnius).Equal(*got), "got %s", got)

	got, err = provider.ParseEndDate("2020-02")
	require.NoError(t, err)
	assert.Equal(t, 29, got.Day())

	got, err = provider.ParseEndDate("2019-03-02")
	require.NoError(t, err)
	assert.True(t, time.Date(2019, 3, 2, 0, 0, 0, 0, vilnius).Equal(*got))

	got, err = provider.ParseEndDate("")
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = provider.ParseEndDate("March")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestTimeProvider_Format(t *testing.T) {
	provider := &TimeProvider{}
	require.NoError(t, provider.SetTimezone("Asia/Tokyo"))

	result := provider.Format(time.Date(2019, 12, 31, 20, 0, 0, 0, time.UTC), "2006-01-02 15:04")

	assert.Equal(t, "2020-01-01 05:00", result)
}

func TestTimeProvider_Concurrency(t *testing.T) {
	provider := &TimeProvider{}
	require.NoError(t, provider.SetTimezone("UTC"))

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = provider.Now()
			_ = provider.In(time.Now())
			if _, err := provider.ParseDate("2019-08-01"); err != nil {
				errs <- err
			}
		}()
	}

	timezones := []string{"UTC", "Europe/Vilnius", "America/New_York"}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := provider.SetTimezone(timezones[idx%len(timezones)]); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent operation error: %v", err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
