package service

// leavePalette is the fixed set of colors leave entries cycle through.
var leavePalette = [...]string{
	"#2563eb",
	"#16a34a",
	"#d97706",
	"#dc2626",
	"#7c3aed",
	"#0891b2",
	"#be185d",
	"#4d7c0f",
}

// ColorFor deterministically assigns a palette color to a display name by
// summing its code points. Kept separate from the calendar fold so the
// mapping can be tested on its own.
func ColorFor(name string) string {
	hash := 0
	for _, r := range name {
		hash += int(r)
	}
	if hash < 0 {
		hash = -hash
	}
	return leavePalette[hash%len(leavePalette)]
}
