package coords

import (
	"math"
	"testing"

	"github.com/asciimaps/asciimap/pkg/mercator"
)

const tolerance = 0.0001

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

// TestParseByFormat drives Parse/ParseMGRS/ParseUTM/ParseDMS/ParseDecimal
// through representative --center flag inputs for each supported format.
func TestParseByFormat(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantFormat Format
		wantLat    float64
		wantLon    float64
		tol        float64
		wantErr    bool
	}{
		{name: "MGRS 10-digit", input: "47QME8598697460", wantFormat: FormatMGRS, wantErr: false},
		{name: "MGRS 8-digit", input: "18SUJ23370651", wantFormat: FormatMGRS, wantErr: false},
		{name: "MGRS invalid zone 61", input: "61ABC1234567890", wantErr: true},
		{name: "MGRS invalid square letter I", input: "18SIJ1234567890", wantErr: true},
		{name: "MGRS odd digit count", input: "18SUJ123456789", wantErr: true},

		{name: "UTM zone 18 north", input: "18N 500000 4500000", wantFormat: FormatUTM, wantErr: false},
		{name: "UTM zone 47 north", input: "47N 500000 2200000", wantFormat: FormatUTM, wantErr: false},
		{name: "UTM invalid zone 0", input: "0N 500000 5000000", wantErr: true},
		{name: "UTM missing easting", input: "18N 5000000", wantErr: true},

		{
			name: "DMS with symbols", input: `19°51'22"N 99°49'0"E`,
			wantFormat: FormatDMS, wantLat: 19.856111, wantLon: 99.816667, tol: 0.001,
		},
		{
			name: "DMS southern/western hemisphere", input: `33°51'25"S 151°12'55"E`,
			wantFormat: FormatDMS, wantLat: -33.857, wantLon: 151.215, tol: 0.001,
		},
		{name: "DMS invalid latitude over 90", input: `91°0'0"N 0°0'0"E`, wantErr: true},
		{name: "DMS invalid minutes over 60", input: `45°60'0"N 90°0'0"E`, wantErr: true},

		{
			name: "Decimal comma separated", input: "19.856, 99.817",
			wantFormat: FormatDecimal, wantLat: 19.856, wantLon: 99.817, tol: tolerance,
		},
		{
			name: "Decimal negative both", input: "-33.857, -70.506",
			wantFormat: FormatDecimal, wantLat: -33.857, wantLon: -70.506, tol: tolerance,
		},
		{name: "Decimal latitude out of range", input: "91, 0", wantErr: true},
		{name: "Decimal longitude out of range", input: "0, 181", wantErr: true},
		{name: "Empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if result.Format != tt.wantFormat {
				t.Errorf("Parse(%q) format = %v, want %v", tt.input, result.Format, tt.wantFormat)
			}
			if result.Location.Latitude < -90 || result.Location.Latitude > 90 {
				t.Errorf("Parse(%q) lat = %f out of range", tt.input, result.Location.Latitude)
			}
			if result.Location.Longitude < -180 || result.Location.Longitude > 180 {
				t.Errorf("Parse(%q) lon = %f out of range", tt.input, result.Location.Longitude)
			}
			if tt.tol > 0 {
				if !almostEqual(result.Location.Latitude, tt.wantLat, tt.tol) {
					t.Errorf("Parse(%q) lat = %f, want %f (±%f)", tt.input, result.Location.Latitude, tt.wantLat, tt.tol)
				}
				if !almostEqual(result.Location.Longitude, tt.wantLon, tt.tol) {
					t.Errorf("Parse(%q) lon = %f, want %f (±%f)", tt.input, result.Location.Longitude, tt.wantLon, tt.tol)
				}
			}
		})
	}
}

// TestParseFeedsViewNormalization exercises the exact pipeline the --center
// flag drives in the CLI: Parse a coordinate string, then hand the decimal
// degrees to mercator.Normalize the way the renderer's startup path does.
func TestParseFeedsViewNormalization(t *testing.T) {
	tests := []struct {
		name  string
		input string
		zoom  int
	}{
		{"MGRS center at zoom 14", "47QME8598697460", 14},
		{"decimal center at zoom 10", "19.856, 99.817", 10},
		{"DMS center at zoom 16 clamps to max zoom", `40°42'46"N 74°0'22"W`, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}

			zoom := mercator.ClampZoom(tt.zoom)
			view := mercator.Normalize(result.Location.Latitude, result.Location.Longitude, zoom)

			if view.Zoom < mercator.MinZoom || view.Zoom > mercator.MaxZoom {
				t.Errorf("normalized zoom %d out of [%d,%d]", view.Zoom, mercator.MinZoom, mercator.MaxZoom)
			}
			if view.WX < 0 || view.WX >= view.WorldSize {
				t.Errorf("normalized WX %f out of [0,%f)", view.WX, view.WorldSize)
			}
		})
	}
}

func TestMGRSRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		lat  float64
		lon  float64
	}{
		{"Chiang Rai Thailand", 19.856, 99.817},
		{"Washington DC", 38.889, -77.035},
		{"Sydney Australia", -33.857, 151.215},
		{"London UK", 51.501, -0.125},
		{"Tokyo Japan", 35.659, 139.745},
		{"Equator Prime Meridian", 0.0, 0.0},
		{"Northern Canada", 60.0, -95.0},
		{"South Africa", -33.9, 18.4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mgrsStr, err := ToMGRS(tc.lat, tc.lon, 5)
			if err != nil {
				t.Fatalf("ToMGRS(%f, %f): %v", tc.lat, tc.lon, err)
			}

			result, err := ParseMGRS(mgrsStr)
			if err != nil {
				t.Fatalf("ParseMGRS(%q): %v", mgrsStr, err)
			}

			if !almostEqual(result.Location.Latitude, tc.lat, 0.0001) {
				t.Errorf("round-trip lat: got %f, want %f", result.Location.Latitude, tc.lat)
			}
			if !almostEqual(result.Location.Longitude, tc.lon, 0.0001) {
				t.Errorf("round-trip lon: got %f, want %f", result.Location.Longitude, tc.lon)
			}
		})
	}
}

func TestToMGRSRoundTripPrecision(t *testing.T) {
	tests := []struct {
		name      string
		lat       float64
		lon       float64
		precision int
		wantErr   bool
	}{
		{name: "1m precision", lat: 19.856, lon: 99.817, precision: 5, wantErr: false},
		{name: "10km precision", lat: 40.0, lon: -75.0, precision: 1, wantErr: false},
		{name: "invalid latitude", lat: 91.0, lon: 0.0, precision: 5, wantErr: true},
		{name: "invalid longitude", lat: 0.0, lon: 181.0, precision: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ToMGRS(tt.lat, tt.lon, tt.precision)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ToMGRS(%f, %f, %d) expected error, got %q", tt.lat, tt.lon, tt.precision, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToMGRS(%f, %f, %d): %v", tt.lat, tt.lon, tt.precision, err)
			}

			parsed, err := ParseMGRS(result)
			if err != nil {
				t.Fatalf("ParseMGRS(%q): %v", result, err)
			}

			maxDiff := map[int]float64{1: 0.1, 2: 0.01, 3: 0.001, 4: 0.0001, 5: 0.0001}[tt.precision]
			if !almostEqual(parsed.Location.Latitude, tt.lat, maxDiff) ||
				!almostEqual(parsed.Location.Longitude, tt.lon, maxDiff) {
				t.Errorf("round-trip mismatch: input (%f, %f), MGRS=%q, output (%f, %f)",
					tt.lat, tt.lon, result, parsed.Location.Latitude, parsed.Location.Longitude)
			}
		})
	}
}

func TestIsCoordinate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"47QME8598697460", true},
		{"18SUJ2337506519", true},
		{"47N 500000 2200000", true},
		{`19°51'22"N 99°49'0"E`, true},
		{"19.856, 99.817", true},
		{"-33.857, 151.215", true},
		{"Chiang Rai, Thailand", false},
		{"123 Main Street", false},
		{"New York City", false},
		{"", false},
		{"hello world", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsCoordinate(tt.input); got != tt.want {
				t.Errorf("IsCoordinate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"47QME8598697460", FormatMGRS},
		{"47N 500000 2200000", FormatUTM},
		{`19°51'22"N 99°49'0"E`, FormatDMS},
		{"19.856, 99.817", FormatDecimal},
		{"Chiang Rai", FormatUnknown},
		{"", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DetectFormat(tt.input); got != tt.want {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatString(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatUnknown, "unknown"},
		{FormatDecimal, "decimal"},
		{FormatDMS, "dms"},
		{FormatMGRS, "mgrs"},
		{FormatUTM, "utm"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.format.String(); got != tt.want {
				t.Errorf("Format.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkParseCenterFlag(b *testing.B) {
	inputs := []string{
		"47QNB8598697460",
		"19.856, 99.817",
		`19°51'22"N 99°49'0"E`,
		"47N 485986 2197460",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(inputs[i%len(inputs)])
	}
}
