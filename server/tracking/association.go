package tracking

import "github.com/cyclopcam/overwatch/pkg/nn"

// Associator pairs existing tracks with this frame's detections.
// The result has one entry per track: the index of the matched detection, or -1.
// A pair is only eligible if its IoU is strictly greater than minIOU.
type Associator interface {
	Associate(tracks, detections []nn.Rect, minIOU float64) []int
}

// GreedyAssociator visits tracks in order, and gives each one the unmatched detection
// with the highest IoU. On a tie, the first detection wins.
// This is order dependent, and not a globally optimal assignment. With many overlapping
// objects it can produce a worse pairing than HungarianAssociator.
type GreedyAssociator struct{}

func (GreedyAssociator) Associate(tracks, detections []nn.Rect, minIOU float64) []int {
	trackToDetection := make([]int, len(tracks))
	detectionHasMatch := make([]bool, len(detections))
	for i, tb := range tracks {
		bestJ := -1
		bestIOU := minIOU
		for j, db := range detections {
			if detectionHasMatch[j] {
				continue
			}
			iou := tb.IOU(db)
			if iou > bestIOU {
				bestIOU = iou
				bestJ = j
			}
		}
		trackToDetection[i] = bestJ
		if bestJ != -1 {
			detectionHasMatch[bestJ] = true
		}
	}
	return trackToDetection
}

// HungarianAssociator finds the pairing that maximizes total IoU.
type HungarianAssociator struct{}

func (HungarianAssociator) Associate(tracks, detections []nn.Rect, minIOU float64) []int {
	cost := make([][]float64, len(tracks))
	for i, tb := range tracks {
		cost[i] = make([]float64, len(detections))
		for j, db := range detections {
			iou := tb.IOU(db)
			if iou > minIOU {
				cost[i][j] = 1 - iou
			} else {
				cost[i][j] = forbiddenCost
			}
		}
	}
	return hungarianAssign(cost)
}

func newAssociator(name string) Associator {
	if name == AssociationHungarian {
		return HungarianAssociator{}
	}
	return GreedyAssociator{}
}
