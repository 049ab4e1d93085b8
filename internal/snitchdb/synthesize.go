package snitchdb

import "snitchvis/internal/model"

// Synthesize returns placeholder snitches for event positions that no
// known snitch covers. Event logs routinely reference snitches missing
// from the database (broken since, culled, or outside the export), and
// without a snitch at the position those events would never render.
//
// One synthetic snitch is created per distinct (x, y); its name and
// group are taken from the first event seen there.
func Synthesize(snitches []model.Snitch, events []model.Event) []model.Snitch {
	type pos struct{ x, y int }
	covered := make(map[pos]bool, len(snitches))
	for _, s := range snitches {
		covered[pos{s.X, s.Y}] = true
	}

	var synthetic []model.Snitch
	for _, ev := range events {
		p := pos{ev.X, ev.Y}
		if covered[p] {
			continue
		}
		covered[p] = true
		synthetic = append(synthetic, model.Snitch{
			World:     "world",
			X:         ev.X,
			Y:         ev.Y,
			Z:         ev.Z,
			GroupName: ev.Group,
			Name:      ev.SnitchName,
			Synthetic: true,
		})
	}
	return synthetic
}
