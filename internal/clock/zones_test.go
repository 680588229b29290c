package clock

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCatalogue_AllZonesLoad(t *testing.T) {
	regions := Catalogue()
	if len(regions) != 4 {
		t.Fatalf("got %d regions, want 4", len(regions))
	}
	seen := map[string]bool{}
	for _, r := range regions {
		for _, z := range r.Zones {
			if seen[z.Name] {
				t.Errorf("duplicate zone %s", z.Name)
			}
			seen[z.Name] = true
			if _, err := LoadZone(z.Name); err != nil {
				t.Errorf("LoadZone(%s): %v", z.Name, err)
			}
		}
	}
}

func TestCatalogue_ReturnsCopy(t *testing.T) {
	c := Catalogue()
	c[0].Zones[0].Name = "Mars/Olympus"
	if _, ok := LookupZone("America/New_York"); !ok {
		t.Error("mutating a returned catalogue changed the package catalogue")
	}
}

func TestLookupZone(t *testing.T) {
	z, ok := LookupZone("Asia/Tokyo")
	if !ok || z.Label != "Japan - Tokyo (JST)" {
		t.Errorf("LookupZone(Asia/Tokyo) = %+v, %v", z, ok)
	}
	if _, ok := LookupZone("Mars/Olympus"); ok {
		t.Error("expected unknown zone to be absent")
	}
}

func TestLoadZone_Invalid(t *testing.T) {
	for _, name := range []string{"", "Mars/Olympus", "Local"} {
		if _, err := LoadZone(name); err == nil {
			t.Errorf("LoadZone(%q) expected error", name)
		}
	}
}

func TestDetectZone(t *testing.T) {
	t.Setenv("TZ", "Asia/Seoul")
	if got := DetectZone(); got != "Asia/Seoul" {
		t.Errorf("DetectZone() = %q, want Asia/Seoul", got)
	}
	t.Setenv("TZ", "Not/AZone")
	if got := DetectZone(); got == "Not/AZone" {
		t.Error("DetectZone() returned an unresolvable zone")
	}
}

// fakeLocaltime links dir/localtime to dir/usr/share/zoneinfo/<zone>.
func fakeLocaltime(t *testing.T, zone string) string {
	t.Helper()
	dir := t.TempDir()
	target := filepath.Join(dir, "usr", "share", "zoneinfo", filepath.FromSlash(zone))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("TZif"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "localtime")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	return link
}

func TestDetectZone_LocaltimeLink(t *testing.T) {
	t.Setenv("TZ", "")
	savedLocal, savedPath := time.Local, localtimePath
	t.Cleanup(func() { time.Local, localtimePath = savedLocal, savedPath })

	// The runtime names the location loaded from /etc/localtime "Local".
	time.Local = time.FixedZone("Local", -5*60*60)

	tests := []struct {
		zone string
		want string
	}{
		{"America/New_York", "America/New_York"},
		{"posix/Europe/Paris", "Europe/Paris"},
		{"Not/AZone", "UTC"},
	}
	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			localtimePath = fakeLocaltime(t, tt.zone)
			if got := DetectZone(); got != tt.want {
				t.Errorf("DetectZone() = %q, want %q", got, tt.want)
			}
		})
	}

	localtimePath = filepath.Join(t.TempDir(), "missing")
	if got := DetectZone(); got != "UTC" {
		t.Errorf("DetectZone() with no localtime = %q, want UTC", got)
	}
}
