package version

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in                     string
		major, minor, fix, pre int
	}{
		{"1.2.3", 1, 2, 3, 0},
		{"0.4.0-pr7", 0, 4, 0, 7},
		{"2.1", 2, 1, 0, 0},
		{"", 0, 0, 0, 0},
	}
	for _, test := range tests {
		major, minor, fix, pre := parse(test.in)
		if major != test.major || minor != test.minor || fix != test.fix || pre != test.pre {
			t.Fatalf(
				"parse(%q): expected %d.%d.%d-%d, got %d.%d.%d-%d", test.in, test.major, test.minor, test.fix,
				test.pre, major, minor, fix, pre,
			)
		}
	}
}
