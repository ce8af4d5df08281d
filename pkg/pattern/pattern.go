// Package pattern generates planar note geometry for timing markers.
package pattern

import "math"

// Node is a grid coordinate bound to a beat time.
type Node struct {
	X    float64
	Y    float64
	Time float64
}

// Spiral offsets each node along a circle around its own position. The
// angle advances by 360/fidelity degrees per node, so fidelity is the
// number of nodes per full rotation. direction 1 turns clockwise, -1
// counter-clockwise. Beat times pass through untouched.
func Spiral(nodes []Node, fidelity, radius, startAngle float64, direction int) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		deg := startAngle + float64(direction)*float64(i)*360.0/fidelity
		rad := deg * math.Pi / 180.0
		out[i] = Node{
			X:    n.X + radius*math.Sin(rad),
			Y:    n.Y + radius*math.Cos(rad),
			Time: n.Time,
		}
	}
	return out
}

// Placement decides how one timing marker is rendered.
type Placement struct {
	RightHand bool // false means left hand
	Mirrored  bool // geometry flipped about the center x-axis
}

// Place assigns hand and mirror direction for a marker from pure index
// arithmetic on its distance into the segment: the hand swaps every two
// measures and the direction flips every full rotation. It never looks at
// geometry output, so placements are reproducible without Spiral.
func Place(beatTime, startBeat float64, beatsPerMeasure int, rotationsPerMeasure float64) Placement {
	elapsed := beatTime - startBeat

	beatsPerRotation := float64(beatsPerMeasure) / rotationsPerMeasure
	rotation := int(math.Floor(elapsed / beatsPerRotation))

	handInterval := float64(beatsPerMeasure * 2)
	block := int(math.Floor(elapsed / handInterval))

	return Placement{
		RightHand: block%2 == 0,
		Mirrored:  rotation%2 != 0,
	}
}
