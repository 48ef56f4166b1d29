package cell

/*
https://s2geometry.io/resources/s2cell_statistics.html

Selected S2 cell sizes, for calibrating grid precision:

level  average area  edge length (approx)
05     83018 km2     210-315 km   continental
08     1297 km2      27-39 km     a day's walk/ride
10     81 km2        7-10 km
13     1.27 km2      850-1225 m   about a kilometer
16     19793 m2      106-153 m    throwing distance
18     1237 m2       27-38 m      small residential plot
21     19.3 m2       3-5 m        spitting distance
23     1.21 m2       83-120 cm    a human body
*/

// Level is the S2 cell level, 0-30. Higher levels mean smaller cells:
// faster exact-distance filtering, more ring expansions on sparse data.
type Level int

const (
	// Level0 covers earth in 6 cells.
	Level0 Level = iota
	Level1
	Level2
	Level3
	Level4
	Level5
	Level6
	Level7

	// Level8 is about a day's walk or ride.
	Level8
	Level9
	Level10
	Level11
	Level12

	// Level13 is about a kilometer square.
	Level13
	Level14
	Level15

	// Level16 is approximately 140m on an edge; throwing distance.
	Level16
	Level17

	// Level18 is about 100ft on a side, a small residential plot.
	Level18
	Level19
	Level20
	Level21
	Level22

	// Level23 is approximately a human body; 1 square meter.
	Level23
	Level24
	Level25
	Level26
	Level27
	Level28
	Level29
	Level30
)

// MaxLevel is the finest S2 subdivision.
const MaxLevel = Level30
