package querystate

import (
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/iwvelando/energy-optimizer/pkg/optimization"
)

func TestWriteThenReadReproducesFields(t *testing.T) {
	cases := []optimization.Fields{
		optimization.DefaultFields(),
		{
			PeakPrice:              0.1 + 0.2,
			OffPeakPrice:           1e-21,
			BatteryCostPerKw:       123456789.987654321,
			PeakConsumption:        -3.75,
			OffPeakConsumption:     1e22,
			SolarInstallationSizes: `{"3": 0.282, "odd key&=": 1}`,
		},
		{
			PeakPrice:              0,
			SolarInstallationSizes: `{}`,
		},
	}

	for _, fields := range cases {
		values := url.Values{}
		Write(values, fields)

		// Pass through an encode/parse cycle as a real URL would.
		reparsed, err := url.ParseQuery(values.Encode())
		if err != nil {
			t.Fatalf("ParseQuery() error = %v", err)
		}

		var got optimization.Fields
		if err := Read(reparsed, &got); err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if got != fields {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, fields)
		}
	}
}

func TestWriteMergesExistingParameters(t *testing.T) {
	values := url.Values{
		"tab":       []string{"results"},
		"peakPrice": []string{"9"},
	}

	Write(values, optimization.DefaultFields())

	if values.Get("tab") != "results" {
		t.Fatalf("expected unrelated parameter to survive, got %v", values)
	}
	if values.Get("peakPrice") != "0.5" {
		t.Fatalf("expected peakPrice overwritten, got %s", values.Get("peakPrice"))
	}
	if len(values["peakPrice"]) != 1 {
		t.Fatalf("expected single peakPrice value, got %v", values["peakPrice"])
	}
}

func TestReadPartialLeavesOtherFields(t *testing.T) {
	fields := optimization.DefaultFields()
	values := url.Values{"offPeakConsumption": []string{"42.5"}}

	if err := Read(values, &fields); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	want := optimization.DefaultFields()
	want.OffPeakConsumption = 42.5
	if fields != want {
		t.Fatalf("Read() = %+v, want %+v", fields, want)
	}
}

func TestReadInvalidNumber(t *testing.T) {
	fields := optimization.DefaultFields()
	values := url.Values{
		"peakPrice":          []string{"1"},
		"batteryCostPerKw":   []string{"cheap"},
		"offPeakConsumption": []string{"3"},
	}

	err := Read(values, &fields)
	if err == nil {
		t.Fatal("expected error for non-numeric value")
	}
	if !strings.Contains(err.Error(), "batteryCostPerKw") {
		t.Fatalf("expected error to name the key, got %v", err)
	}
	if fields != optimization.DefaultFields() {
		t.Fatalf("expected fields untouched on error, got %+v", fields)
	}
}

func TestPresent(t *testing.T) {
	if Present(url.Values{"tab": []string{"x"}}) {
		t.Fatal("expected no form keys present")
	}
	if !Present(url.Values{"solarInstallationSizes": []string{"{}"}}) {
		t.Fatal("expected solar sizes key to count as present")
	}
}

func TestLink(t *testing.T) {
	link, err := Link("http://localhost:8080/?lang=en", optimization.DefaultFields())
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("failed to parse link: %v", err)
	}
	if u.Query().Get("lang") != "en" {
		t.Fatalf("expected existing query preserved, got %s", link)
	}

	var fields optimization.Fields
	if err := Read(u.Query(), &fields); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if fields != optimization.DefaultFields() {
		t.Fatalf("link does not reproduce fields: %+v", fields)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.5, "0.5"},
		{10, "10"},
		{1e-7, "0.0000001"},
		{-2.25, "-2.25"},
		{math.Inf(1), "+Inf"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Fatalf("FormatNumber(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
