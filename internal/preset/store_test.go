package preset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimfu/clacktime/internal/synth"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), DefaultFile))
}

func TestStores(t *testing.T) {
	t.Parallel()

	stores := map[string]func(t *testing.T) Store{
		"file":   func(t *testing.T) Store { return newFileStore(t) },
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
	}

	for name, open := range stores {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := open(t)

			records, err := s.List()
			require.NoError(t, err)
			assert.Empty(t, records)

			slow := Record{Name: "slow", BPM: 60, BeatsPerMeasure: 3, SoundType: synth.Woodblock, Volume: 0.4, TimerMinutes: 5}
			fast := Record{Name: "fast", BPM: 180, BeatsPerMeasure: 4, SoundType: synth.Clap, Volume: 1}
			require.NoError(t, s.Append(slow))
			require.NoError(t, s.Append(fast))
			require.NoError(t, s.Append(slow))

			records, err = s.List()
			require.NoError(t, err)
			assert.Equal(t, []Record{slow, fast, slow}, records)

			require.NoError(t, s.RemoveAt(1))
			records, err = s.List()
			require.NoError(t, err)
			assert.Equal(t, []Record{slow, slow}, records)

			err = s.RemoveAt(2)
			assert.True(t, errors.Is(err, ErrIndexOutOfRange))
			err = s.RemoveAt(-1)
			assert.True(t, errors.Is(err, ErrIndexOutOfRange))

			found, ok, err := Find(s, "SLOW")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, slow, found)

			_, ok, err = Find(s, "fast")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFileStorePersists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultFile)
	rec := Record{Name: "practice", BPM: 92, BeatsPerMeasure: 6, SoundType: synth.Cowbell, Volume: 0.7, TimerMinutes: 20}
	require.NoError(t, NewFileStore(path).Append(rec))

	records, err := NewFileStore(path).List()
	require.NoError(t, err)
	assert.Equal(t, []Record{rec}, records)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"practice","bpm":92,"beatsPerMeasure":6,"soundType":"cowbell","volume":0.7,"timerMinutes":20}]`, string(data))
}

func TestFileStoreReadsBrowserExport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "presets.json")
	raw := `[
		{"name":"warmup","bpm":80,"beatsPerMeasure":4,"soundType":"metronome","volume":0.8},
		{"name":"drill","bpm":140,"beatsPerMeasure":3,"soundType":"woodblock","volume":0.5,"timerMinutes":15},
		{"name":"odd","bpm":100,"beatsPerMeasure":4,"soundType":"tambourine","volume":0.5}
	]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	records, err := NewFileStore(path).List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Record{Name: "warmup", BPM: 80, BeatsPerMeasure: 4, SoundType: synth.Metronome, Volume: 0.8}, records[0])
	assert.Equal(t, 15, records[1].TimerMinutes)
	assert.Equal(t, synth.Woodblock, records[1].SoundType)
	assert.Equal(t, synth.Metronome, records[2].SoundType)
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileStore(path).List()
	require.Error(t, err)
	assert.Contains(t, err.Error(), DefaultFile)
	assert.Error(t, NewFileStore(path).Append(Record{Name: "x"}))
}

func TestFileStoreCreatesFile(t *testing.T) {
	t.Parallel()

	s := newFileStore(t)
	_, err := s.List()
	require.NoError(t, err)
	_, err = os.Stat(s.Path())
	assert.NoError(t, err)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := Record{Name: "wild", BPM: 999, BeatsPerMeasure: 8, Volume: 3, TimerMinutes: 500}.Normalize()
	assert.Equal(t, Record{Name: "wild", BPM: 208, BeatsPerMeasure: 7, Volume: 1, TimerMinutes: 120}, got)

	got = Record{BPM: 10, BeatsPerMeasure: 0, Volume: -1}.Normalize()
	assert.Equal(t, Record{BPM: 40, BeatsPerMeasure: 1, Volume: 0}, got)
}

func TestRecordOmitsEmptyTimer(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Record{Name: "n", BPM: 100, BeatsPerMeasure: 4, SoundType: synth.Clap, Volume: 0.5})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "timerMinutes")

	set := Record{BPM: 100, BeatsPerMeasure: 3, SoundType: synth.Cowbell}.BeatSettings()
	assert.Equal(t, 100, set.Tempo)
	assert.Equal(t, 3, set.BeatsPerMeasure)
	assert.Equal(t, synth.Cowbell, set.Profile)
}
