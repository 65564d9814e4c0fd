package main

type TimeSignature struct {
	Beats     int // number of beats per measure
	NoteValue int // note that represents one beat
}

const (
	SETTINGS_FILE = ".clacktime.yaml"
	DEFAULT_SIG   = "4/4"
)

// TIME_SIGNATURES are the signatures accepted by --timesig. Their numerators
// are exactly the measure lengths the beat scheduler supports.
var TIME_SIGNATURES = []TimeSignature{
	{1, 4},
	{4, 4},
	{3, 4},
	{2, 4},
	{2, 2},
	{3, 8},
	{6, 8},
	{7, 8},
	{9, 8},
	{12, 8},
	{5, 4},
	{6, 4},
	{7, 4},
}
