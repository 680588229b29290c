package clock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	// Embedded rules so every host resolves zones identically.
	_ "time/tzdata"
)

// Zone is one selectable entry of the zone catalogue.
type Zone struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Region groups catalogue zones for display.
type Region struct {
	Name  string `json:"name"`
	Zones []Zone `json:"zones"`
}

var catalogue = []Region{
	{Name: "Americas", Zones: []Zone{
		{"America/New_York", "Eastern (ET) - New York"},
		{"America/Chicago", "Central (CT) - Chicago"},
		{"America/Denver", "Mountain (MT) - Denver"},
		{"America/Los_Angeles", "Pacific (PT) - Los Angeles"},
		{"America/Anchorage", "Alaska (AKT)"},
		{"Pacific/Honolulu", "Hawaii (HST)"},
		{"America/Sao_Paulo", "Brazil - São Paulo"},
		{"America/Argentina/Buenos_Aires", "Argentina - Buenos Aires"},
		{"America/Mexico_City", "Mexico City"},
		{"America/Bogota", "Colombia - Bogotá"},
		{"America/Toronto", "Canada - Toronto"},
		{"America/Vancouver", "Canada - Vancouver"},
	}},
	{Name: "Europe", Zones: []Zone{
		{"Europe/London", "UK - London (GMT/BST)"},
		{"Europe/Paris", "Central Europe - Paris"},
		{"Europe/Berlin", "Central Europe - Berlin"},
		{"Europe/Moscow", "Russia - Moscow"},
		{"Europe/Istanbul", "Turkey - Istanbul"},
		{"Europe/Athens", "Greece - Athens"},
		{"Europe/Helsinki", "Finland - Helsinki"},
		{"Europe/Madrid", "Spain - Madrid"},
		{"Europe/Rome", "Italy - Rome"},
		{"Europe/Warsaw", "Poland - Warsaw"},
	}},
	{Name: "Asia & Oceania", Zones: []Zone{
		{"Asia/Dubai", "UAE - Dubai (GST)"},
		{"Asia/Kolkata", "India - Kolkata (IST)"},
		{"Asia/Bangkok", "Thailand - Bangkok"},
		{"Asia/Singapore", "Singapore (SGT)"},
		{"Asia/Shanghai", "China - Shanghai"},
		{"Asia/Tokyo", "Japan - Tokyo (JST)"},
		{"Asia/Seoul", "South Korea - Seoul"},
		{"Asia/Jakarta", "Indonesia - Jakarta"},
		{"Asia/Manila", "Philippines - Manila"},
		{"Australia/Sydney", "Australia - Sydney"},
		{"Australia/Perth", "Australia - Perth"},
		{"Pacific/Auckland", "New Zealand - Auckland"},
	}},
	{Name: "Africa & Middle East", Zones: []Zone{
		{"Africa/Cairo", "Egypt - Cairo"},
		{"Africa/Lagos", "Nigeria - Lagos"},
		{"Africa/Johannesburg", "South Africa - Johannesburg"},
		{"Africa/Nairobi", "Kenya - Nairobi"},
		{"Asia/Riyadh", "Saudi Arabia - Riyadh"},
		{"Asia/Tehran", "Iran - Tehran"},
	}},
}

// Catalogue returns the curated zone list grouped by region.
func Catalogue() []Region {
	out := make([]Region, len(catalogue))
	for i, r := range catalogue {
		out[i] = Region{Name: r.Name, Zones: append([]Zone(nil), r.Zones...)}
	}
	return out
}

// LookupZone finds a catalogue entry by IANA name.
func LookupZone(name string) (Zone, bool) {
	for _, r := range catalogue {
		for _, z := range r.Zones {
			if z.Name == name {
				return z, true
			}
		}
	}
	return Zone{}, false
}

var (
	zoneMu    sync.RWMutex
	zoneCache = map[string]*time.Location{}
)

// LoadZone resolves an IANA zone name. Any name in the tz database is
// accepted, not only catalogue entries.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("load zone: empty name")
	}
	zoneMu.RLock()
	loc, ok := zoneCache[name]
	zoneMu.RUnlock()
	if ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", name, err)
	}
	// "Local" would resolve differently per host.
	if loc == time.Local {
		return nil, fmt.Errorf("load zone %q: not an IANA name", name)
	}
	zoneMu.Lock()
	zoneCache[name] = loc
	zoneMu.Unlock()
	return loc, nil
}

// MustLoadZone is LoadZone for names known at compile time.
func MustLoadZone(name string) *time.Location {
	loc, err := LoadZone(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// localtimePath is the system zone link read when time.Local has no IANA name.
var localtimePath = "/etc/localtime"

// DetectZone returns the device's IANA zone name, falling back to "UTC".
func DetectZone() string {
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		if _, err := LoadZone(tz); err == nil {
			return tz
		}
	}
	name := time.Local.String()
	if name == "Local" {
		if zone, ok := zoneFromLocaltime(localtimePath); ok {
			return zone
		}
	} else if name != "" {
		if _, err := LoadZone(name); err == nil {
			return name
		}
	}
	return "UTC"
}

// zoneFromLocaltime resolves a localtime link such as
// /etc/localtime -> /usr/share/zoneinfo/America/New_York to its zone name.
func zoneFromLocaltime(path string) (string, bool) {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	target = filepath.ToSlash(target)
	i := strings.LastIndex(target, "zoneinfo/")
	if i < 0 {
		return "", false
	}
	name := target[i+len("zoneinfo/"):]
	// Some distributions link into zoneinfo/posix or zoneinfo/right.
	for _, prefix := range []string{"posix/", "right/"} {
		name = strings.TrimPrefix(name, prefix)
	}
	if _, err := LoadZone(name); err != nil {
		return "", false
	}
	return name, true
}
