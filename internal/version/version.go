// Package version holds the version of dlunch
package version

import (
	_ "embed" // for go:embed
	"fmt"
	"strconv"
	"strings"
)

// VERSION holds the server's version
//
//go:embed VERSION
var VERSION string

// Version segments
var (
	MAJOR int
	MINOR int
	FIX   int
	PRE   int
)

func init() {
	VERSION = strings.TrimSpace(VERSION)
	MAJOR, MINOR, FIX, PRE = parse(VERSION)
}

// parse splits a version of the form MAJOR.MINOR.FIX[-prN]; missing or
// malformed segments are 0
func parse(v string) (major, minor, fix, pre int) {
	main, preRelease, _ := strings.Cut(v, "-")
	segments := strings.SplitN(main, ".", 3)
	values := make([]int, 3)
	for i, s := range segments {
		values[i], _ = strconv.Atoi(s)
	}
	if preRelease != "" {
		pre, _ = strconv.Atoi(strings.TrimPrefix(preRelease, "pr"))
	}
	return values[0], values[1], values[2], pre
}

// Banner returns the line printed on startup
func Banner(program string) string {
	if PRE > 0 {
		return fmt.Sprintf("%s %d.%d.%d (pre-release %d)", program, MAJOR, MINOR, FIX, PRE)
	}
	return fmt.Sprintf("%s %d.%d.%d", program, MAJOR, MINOR, FIX)
}
